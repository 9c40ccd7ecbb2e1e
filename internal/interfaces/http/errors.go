package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-dte/internal/application/dto"
	"github.com/jhoicas/facturacion-dte/internal/domain"
)

var statusByCode = map[string]int{
	domain.CodeNotFound:          fiber.StatusNotFound,
	domain.CodeInvalidState:      fiber.StatusConflict,
	domain.CodeIncompleteData:    fiber.StatusUnprocessableEntity,
	domain.CodeValidationFailure: fiber.StatusUnprocessableEntity,
	domain.CodeMalformedInput:    fiber.StatusBadRequest,
	domain.CodeDeliveryFailed:    fiber.StatusBadGateway,
	domain.CodeConflict:          fiber.StatusConflict,
}

// errorResponder traduce errores de dominio a respuestas HTTP.
type errorResponder struct {
	exposeDetail bool
}

func (r errorResponder) respond(c *fiber.Ctx, err error) error {
	code := domain.Kind(err)
	status, ok := statusByCode[code]
	if !ok {
		out := dto.ErrorResponse{Code: domain.CodeInternal, Message: "error interno del servidor"}
		if r.exposeDetail {
			out.Detail = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(out)
	}
	return c.Status(status).JSON(dto.ErrorResponse{
		Code:    code,
		Message: err.Error(),
		Reasons: domain.Reasons(err),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: domain.CodeMalformedInput, Message: msg})
}
