package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-dte/internal/application/billing"
	"github.com/jhoicas/facturacion-dte/internal/application/dto"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/domain/repository"
)

// DTEHandler maneja el ciclo de vida de los DTE (protegido).
type DTEHandler struct {
	uc       *billing.DTEOrchestrator
	validate *validator.Validate
	errs     errorResponder
}

// NewDTEHandler construye el handler. exposeDetail agrega el error interno a las respuestas 500.
func NewDTEHandler(uc *billing.DTEOrchestrator, exposeDetail bool) *DTEHandler {
	return &DTEHandler{uc: uc, validate: validator.New(), errs: errorResponder{exposeDetail: exposeDetail}}
}

// Generate godoc
// @Summary      Generar DTE desde una venta
// @Tags         dte
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GenerateDTERequest  true  "sale_id y tipo_dte opcional (01 por defecto)"
// @Success      201   {object}  dto.DTEResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/v1/dte/generar [post]
func (h *DTEHandler) Generate(c *fiber.Ctx) error {
	var in dto.GenerateDTERequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	if err := h.validate.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}
	doc, err := h.uc.Generate(c.UserContext(), in.SaleID, in.TipoDTE)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToDTEResponse(doc))
}

// List godoc
// @Summary      Listar DTE
// @Tags         dte
// @Security     Bearer
// @Produce      json
// @Param        estado    query  string  false  "Pendiente|Aceptado|Rechazado|Observado|Anulado"
// @Param        tipo_dte  query  string  false  "01..08"
// @Param        desde     query  string  false  "YYYY-MM-DD"
// @Param        hasta     query  string  false  "YYYY-MM-DD"
// @Param        limit     query  int     false  "máx 100 (20 por defecto)"
// @Param        offset    query  int     false  "desplazamiento"
// @Success      200  {object}  dto.DTEListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/v1/dte [get]
func (h *DTEHandler) List(c *fiber.Ctx) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	page, err := h.uc.List(c.UserContext(), filter)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(dto.ToDTEListResponse(page))
}

// Export godoc
// @Summary      Exportar XML y PDF de los DTE filtrados en un ZIP
// @Tags         dte
// @Security     Bearer
// @Produce      application/zip
// @Param        estado    query  string  false  "estado"
// @Param        tipo_dte  query  string  false  "tipo"
// @Param        desde     query  string  false  "YYYY-MM-DD"
// @Param        hasta     query  string  false  "YYYY-MM-DD"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/dte/exportar [get]
func (h *DTEHandler) Export(c *fiber.Ctx) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	out, err := h.uc.Export(c.UserContext(), filter)
	if err != nil {
		return h.errs.respond(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	return c.Send(out.Content)
}

// GetByID godoc
// @Summary      Detalle de un DTE
// @Tags         dte
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del DTE"
// @Success      200  {object}  dto.DTEResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/dte/{id} [get]
func (h *DTEHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(dto.ToDTEResponse(doc))
}

// Send godoc
// @Summary      Enviar DTE por correo
// @Tags         dte
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true   "ID del DTE"
// @Param        body  body  dto.SendDTERequest  false  "email opcional"
// @Success      200  {object}  dto.DeliveryReceiptResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/v1/dte/{id}/enviar [post]
func (h *DTEHandler) Send(c *fiber.Ctx) error {
	var in dto.SendDTERequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "cuerpo inválido")
		}
	}
	in.Email = strings.TrimSpace(in.Email)
	if err := h.validate.Struct(in); err != nil {
		return badRequest(c, "email inválido")
	}
	receipt, err := h.uc.Send(c.UserContext(), c.Params("id"), in.Email)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(dto.ToDeliveryReceiptResponse(receipt))
}

// Void godoc
// @Summary      Anular DTE
// @Tags         dte
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del DTE"
// @Param        body  body  dto.VoidDTERequest  true  "motivo y nota de crédito opcional"
// @Success      200  {object}  dto.DTEResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/v1/dte/{id}/anular [post]
func (h *DTEHandler) Void(c *fiber.Ctx) error {
	var in dto.VoidDTERequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	doc, err := h.uc.Void(c.UserContext(), c.Params("id"), in.Motivo, in.NumeroNotaCredito)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(dto.ToDTEResponse(doc))
}

// Validate godoc
// @Summary      Validar la firma de un DTE
// @Tags         dte
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del DTE"
// @Param        strict  query  bool    false  "true = 422 si la firma no es válida"
// @Success      200  {object}  dto.ValidationResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/v1/dte/{id}/validar [get]
func (h *DTEHandler) Validate(c *fiber.Ctx) error {
	report, err := h.uc.ValidateSignature(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	if c.QueryBool("strict") {
		if err := report.Result.Err(); err != nil {
			return h.errs.respond(c, err)
		}
	}
	return c.JSON(dto.ToValidationResponse(report))
}

// SimulateStatus godoc
// @Summary      Simular respuesta de la autoridad tributaria
// @Tags         dte
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del DTE"
// @Param        body  body  dto.SimulateStatusRequest  true  "Pendiente|Aceptado|Rechazado|Observado"
// @Success      200  {object}  dto.StatusChangeResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/v1/dte/{id}/simular-estado [post]
func (h *DTEHandler) SimulateStatus(c *fiber.Ctx) error {
	var in dto.SimulateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	change, err := h.uc.SimulateStatusTransition(c.UserContext(), c.Params("id"), in.Estado)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(dto.ToStatusChangeResponse(change))
}

func (h *DTEHandler) parseFilter(c *fiber.Ctx) (repository.DTEFilter, error) {
	var q dto.ListDTEQuery
	if err := c.QueryParser(&q); err != nil {
		return repository.DTEFilter{}, fmt.Errorf("parámetros de consulta inválidos")
	}
	if err := h.validate.Struct(q); err != nil {
		return repository.DTEFilter{}, err
	}
	page := q.Page()
	f := repository.DTEFilter{
		Status:       entity.DTEStatus(q.Estado),
		DocumentType: q.TipoDTE,
		Limit:        page.Limit,
		Offset:       page.Offset,
	}
	if q.Desde != "" {
		from, _ := time.Parse(time.DateOnly, q.Desde)
		f.From = &from
	}
	if q.Hasta != "" {
		day, _ := time.Parse(time.DateOnly, q.Hasta)
		to := day.Add(24*time.Hour - time.Nanosecond)
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return repository.DTEFilter{}, fmt.Errorf("desde debe ser anterior a hasta")
	}
	return f, nil
}
