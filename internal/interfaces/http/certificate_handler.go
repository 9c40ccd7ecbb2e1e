package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-dte/internal/application/billing"
	"github.com/jhoicas/facturacion-dte/internal/application/dto"
)

// CertificateHandler consulta y revocación del registro de certificados.
type CertificateHandler struct {
	uc   *billing.DTEOrchestrator
	errs errorResponder
}

// NewCertificateHandler construye el handler.
func NewCertificateHandler(uc *billing.DTEOrchestrator, exposeDetail bool) *CertificateHandler {
	return &CertificateHandler{uc: uc, errs: errorResponder{exposeDetail: exposeDetail}}
}

// List godoc
// @Summary      Listar certificados registrados
// @Tags         certificados
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CertificateResponse
// @Router       /api/v1/certificados [get]
func (h *CertificateHandler) List(c *fiber.Ctx) error {
	return c.JSON(dto.ToCertificateResponses(h.uc.ListCertificates()))
}

// Revoke godoc
// @Summary      Revocar el certificado de un NIT (solo admin)
// @Tags         certificados
// @Security     Bearer
// @Produce      json
// @Param        nit  path  string  true  "NIT del emisor"
// @Success      200  {object}  dto.RevocationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/certificados/{nit}/revocar [post]
func (h *CertificateHandler) Revoke(c *fiber.Ctx) error {
	receipt, err := h.uc.RevokeCertificate(c.Params("nit"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(dto.ToRevocationResponse(receipt))
}
