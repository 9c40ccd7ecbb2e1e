package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-dte/internal/application/billing"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	DTE          *billing.DTEOrchestrator
	JWTSecret    string
	ExposeDetail bool // development: detalle del error interno en respuestas 500
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api/v1", AuthMiddleware(deps.JWTSecret))

	dteHandler := NewDTEHandler(deps.DTE, deps.ExposeDetail)
	dtes := api.Group("/dte")
	dtes.Post("/generar", dteHandler.Generate)
	dtes.Get("/", dteHandler.List)
	dtes.Get("/exportar", dteHandler.Export)
	dtes.Get("/:id", dteHandler.GetByID)
	dtes.Post("/:id/enviar", dteHandler.Send)
	dtes.Post("/:id/anular", dteHandler.Void)
	dtes.Get("/:id/validar", dteHandler.Validate)
	dtes.Post("/:id/simular-estado", dteHandler.SimulateStatus)

	certHandler := NewCertificateHandler(deps.DTE, deps.ExposeDetail)
	certs := api.Group("/certificados")
	certs.Get("/", certHandler.List)
	certs.Post("/:nit/revocar", RequireRole(entity.RoleAdmin), certHandler.Revoke)
}
