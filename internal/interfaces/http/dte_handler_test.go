package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-dte/internal/application/billing"
	"github.com/jhoicas/facturacion-dte/internal/application/dto"
	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/mail"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/memory"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/signer"
	apphttp "github.com/jhoicas/facturacion-dte/internal/interfaces/http"
	"github.com/jhoicas/facturacion-dte/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type acceptAll struct{}

func (acceptAll) Float64() float64 { return 0.1 }

type stubPDF struct{}

func (stubPDF) GenerateDTE(context.Context, *entity.DTE) ([]byte, error) {
	return []byte("%PDF-1.3"), nil
}

type apiEnv struct {
	app  *fiber.App
	dtes *memory.DTERepo
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	dtes := memory.NewDTERepository()
	sales := memory.NewSaleRepository()
	customers := memory.NewCustomerRepository()
	users := memory.NewUserRepository()
	memory.SeedDemo(sales, customers, users, time.Now().UTC())

	svc := signer.NewService(signer.NewRegistry(), signer.WithRandomSource(acceptAll{}))
	uc := billing.NewDTEOrchestrator(dtes, sales, customers, users, svc, stubPDF{},
		mail.NewSimulatedMailer(logger.Nop()), logger.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{DTE: uc, JWTSecret: testJWTSecret})
	return &apiEnv{app: app, dtes: dtes}
}

func (e *apiEnv) call(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *apiEnv) generate(t *testing.T) dto.DTEResponse {
	t.Helper()
	resp := e.call(t, http.MethodPost, "/api/v1/dte/generar", entity.RoleVendedor,
		dto.GenerateDTERequest{SaleID: memory.DemoSaleID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.DTEResponse](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Generar y consultar
// ──────────────────────────────────────────────────────────────────────────────

func TestDTEAPI_GenerarYConsultar(t *testing.T) {
	e := newAPI(t)
	created := e.generate(t)
	assert.Equal(t, string(entity.DTEStatusAccepted), created.Estado)
	assert.Equal(t, "Factura", created.NombreTipoDTE)
	assert.Equal(t, "más de cien dólares con 00/100 centavos", created.Totales.TotalEnLetras)
	require.NotNil(t, created.Firma)
	require.NotNil(t, created.XML)
	assert.Nil(t, created.Anulacion)

	resp := e.call(t, http.MethodGet, "/api/v1/dte/"+created.ID, entity.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[dto.DTEResponse](t, resp)
	assert.Equal(t, created.NumeroDTE, got.NumeroDTE)
}

func TestDTEAPI_SinToken(t *testing.T) {
	e := newAPI(t)
	resp := e.call(t, http.MethodGet, "/api/v1/dte", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDTEAPI_GenerarSinVenta(t *testing.T) {
	e := newAPI(t)
	resp := e.call(t, http.MethodPost, "/api/v1/dte/generar", entity.RoleVendedor, map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, domain.CodeMalformedInput, body.Code)
}

func TestDTEAPI_GenerarDosVecesEsConflicto(t *testing.T) {
	e := newAPI(t)
	e.generate(t)

	resp := e.call(t, http.MethodPost, "/api/v1/dte/generar", entity.RoleVendedor,
		dto.GenerateDTERequest{SaleID: memory.DemoSaleID})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.CodeInvalidState, decode[dto.ErrorResponse](t, resp).Code)
}

func TestDTEAPI_NoEncontrado(t *testing.T) {
	e := newAPI(t)
	resp := e.call(t, http.MethodGet, "/api/v1/dte/no-existe", entity.RoleVendedor, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, domain.CodeNotFound, decode[dto.ErrorResponse](t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Listar y exportar
// ──────────────────────────────────────────────────────────────────────────────

func TestDTEAPI_Listar(t *testing.T) {
	e := newAPI(t)
	e.generate(t)

	resp := e.call(t, http.MethodGet, "/api/v1/dte?estado=Aceptado&limit=5", entity.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.DTEListResponse](t, resp)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Page.Total)
	assert.Equal(t, 5, page.Page.Limit)
}

func TestDTEAPI_ListarParametrosInvalidos(t *testing.T) {
	e := newAPI(t)
	for _, q := range []string{
		"desde=10-03-2026",
		"desde=2026-03-10&hasta=2026-03-01",
		"limit=500",
		"estado=Perdido",
	} {
		resp := e.call(t, http.MethodGet, "/api/v1/dte?"+q, entity.RoleVendedor, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		resp.Body.Close()
	}
}

func TestDTEAPI_Exportar(t *testing.T) {
	e := newAPI(t)

	resp := e.call(t, http.MethodGet, "/api/v1/dte/exportar", entity.RoleVendedor, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	e.generate(t)
	resp = e.call(t, http.MethodGet, "/api/v1/dte/exportar", entity.RoleVendedor, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="DTEs_`)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Envío, anulación y estado
// ──────────────────────────────────────────────────────────────────────────────

func TestDTEAPI_EnviarSinCuerpo(t *testing.T) {
	e := newAPI(t)
	created := e.generate(t)

	resp := e.call(t, http.MethodPost, "/api/v1/dte/"+created.ID+"/enviar", entity.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[dto.DeliveryReceiptResponse](t, resp)
	assert.Equal(t, "cliente@example.com", rec.Email)
	assert.Equal(t, 1, rec.Intentos)
	assert.Equal(t, mail.ModeSimulated, rec.Modo)
}

func TestDTEAPI_EnviarEmailInvalido(t *testing.T) {
	e := newAPI(t)
	created := e.generate(t)

	resp := e.call(t, http.MethodPost, "/api/v1/dte/"+created.ID+"/enviar", entity.RoleVendedor,
		dto.SendDTERequest{Email: "no-es-email"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDTEAPI_AnularYSimular(t *testing.T) {
	e := newAPI(t)
	created := e.generate(t)

	resp := e.call(t, http.MethodPost, "/api/v1/dte/"+created.ID+"/simular-estado", entity.RoleVendedor,
		dto.SimulateStatusRequest{Estado: "Observado"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ch := decode[dto.StatusChangeResponse](t, resp)
	assert.Equal(t, "Aceptado", ch.EstadoAnterior)
	assert.Equal(t, "Observado", ch.EstadoNuevo)

	resp = e.call(t, http.MethodPost, "/api/v1/dte/"+created.ID+"/anular", entity.RoleVendedor,
		dto.VoidDTERequest{Motivo: ""})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, domain.CodeIncompleteData, decode[dto.ErrorResponse](t, resp).Code)

	resp = e.call(t, http.MethodPost, "/api/v1/dte/"+created.ID+"/anular", entity.RoleVendedor,
		dto.VoidDTERequest{Motivo: "datos erróneos", NumeroNotaCredito: "NC-9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	voided := decode[dto.DTEResponse](t, resp)
	assert.Equal(t, "Anulado", voided.Estado)
	require.NotNil(t, voided.Anulacion)
	assert.Equal(t, "NC-9", voided.Anulacion.NumeroNotaCredito)

	resp = e.call(t, http.MethodPost, "/api/v1/dte/"+created.ID+"/simular-estado", entity.RoleVendedor,
		dto.SimulateStatusRequest{Estado: "Aceptado"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.CodeInvalidState, decode[dto.ErrorResponse](t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación de firma
// ──────────────────────────────────────────────────────────────────────────────

func TestDTEAPI_Validar(t *testing.T) {
	e := newAPI(t)
	created := e.generate(t)

	resp := e.call(t, http.MethodGet, "/api/v1/dte/"+created.ID+"/validar?strict=true", entity.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[dto.ValidationResponse](t, resp)
	assert.True(t, v.Valida)
	assert.Empty(t, v.Errores)
	assert.Equal(t, string(entity.CertificateValid), v.EstadoCertificado)
}

func TestDTEAPI_ValidarDTEAlterado(t *testing.T) {
	e := newAPI(t)
	created := e.generate(t)

	doc, err := e.dtes.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	doc.Totals = entity.NewTotals(decimal.NewFromInt(1), decimal.Zero)
	require.NoError(t, e.dtes.Update(context.Background(), doc))

	resp := e.call(t, http.MethodGet, "/api/v1/dte/"+created.ID+"/validar", entity.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[dto.ValidationResponse](t, resp)
	assert.False(t, v.Valida)
	assert.NotEmpty(t, v.Errores)

	resp = e.call(t, http.MethodGet, "/api/v1/dte/"+created.ID+"/validar?strict=true", entity.RoleVendedor, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, domain.CodeValidationFailure, body.Code)
	assert.Contains(t, body.Reasons, "El hash de la firma no coincide con los datos")
}

// ──────────────────────────────────────────────────────────────────────────────
// Certificados
// ──────────────────────────────────────────────────────────────────────────────

func TestCertificadosAPI_Listar(t *testing.T) {
	e := newAPI(t)
	resp := e.call(t, http.MethodGet, "/api/v1/certificados", entity.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	certs := decode[[]dto.CertificateResponse](t, resp)
	require.Len(t, certs, 2)
	assert.Equal(t, signer.DefaultIssuerTaxID, certs[0].NIT)
}

func TestCertificadosAPI_RevocarSoloAdmin(t *testing.T) {
	e := newAPI(t)

	resp := e.call(t, http.MethodPost, "/api/v1/certificados/12345678-9/revocar", entity.RoleVendedor, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = e.call(t, http.MethodPost, "/api/v1/certificados/12345678-9/revocar", entity.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[dto.RevocationResponse](t, resp)
	assert.Equal(t, "12345678-9", rec.NIT)

	resp = e.call(t, http.MethodPost, "/api/v1/certificados/no-existe/revocar", entity.RoleAdmin, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, domain.CodeNotFound, decode[dto.ErrorResponse](t, resp).Code)
}
