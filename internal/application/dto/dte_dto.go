package dto

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-dte/internal/application/billing"
	"github.com/jhoicas/facturacion-dte/internal/domain/dte"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// GenerateDTERequest body para POST /api/v1/dte/generar.
type GenerateDTERequest struct {
	SaleID  string `json:"sale_id" validate:"required"`
	TipoDTE string `json:"tipo_dte,omitempty" validate:"omitempty,len=2,numeric"`
}

// SendDTERequest body para POST /api/v1/dte/:id/enviar. Email opcional reemplaza al del cliente.
type SendDTERequest struct {
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// VoidDTERequest body para POST /api/v1/dte/:id/anular.
type VoidDTERequest struct {
	Motivo            string `json:"motivo" validate:"required"`
	NumeroNotaCredito string `json:"numero_nota_credito,omitempty"`
}

// SimulateStatusRequest body para POST /api/v1/dte/:id/simular-estado.
type SimulateStatusRequest struct {
	Estado string `json:"estado" validate:"required"`
}

// ListDTEQuery filtros de GET /api/v1/dte y /api/v1/dte/exportar.
// desde/hasta en formato YYYY-MM-DD; hasta incluye el día completo.
type ListDTEQuery struct {
	Estado  string `query:"estado"`
	TipoDTE string `query:"tipo_dte"`
	Desde   string `query:"desde" validate:"omitempty,datetime=2006-01-02"`
	Hasta   string `query:"hasta" validate:"omitempty,datetime=2006-01-02"`
	Limit   int    `query:"limit" validate:"min=0,max=100"`
	Offset  int    `query:"offset" validate:"min=0"`
}

// Page aplica los valores por defecto de paginación.
func (q *ListDTEQuery) Page() PageRequest {
	p := PageRequest{Limit: q.Limit, Offset: q.Offset}
	p.DefaultPage()
	return p
}

// PartyResponse emisor o receptor.
type PartyResponse struct {
	NIT       string `json:"nit"`
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion"`
}

// TotalsResponse totales del DTE.
type TotalsResponse struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Impuesto      decimal.Decimal `json:"impuesto"`
	Total         decimal.Decimal `json:"total"`
	TotalEnLetras string          `json:"total_en_letras"`
}

// SignatureResponse resumen de la firma aplicada.
type SignatureResponse struct {
	SignatureID    string    `json:"signature_id"`
	ValidationCode string    `json:"validation_code"`
	Algorithm      string    `json:"algorithm"`
	KeySize        int       `json:"key_size"`
	ContentHash    string    `json:"content_hash"`
	SignatureValue string    `json:"signature_value"`
	SignedAt       time.Time `json:"signed_at"`
	Resultado      string    `json:"resultado"`
	Certificado    string    `json:"certificado"`
	NumeroSerie    string    `json:"numero_serie"`
}

// FileResponse metadatos de un artefacto generado.
type FileResponse struct {
	Hash  string `json:"hash"`
	Ruta  string `json:"ruta,omitempty"`
	Bytes int    `json:"bytes"`
}

// DeliveryResponse estado del envío.
type DeliveryResponse struct {
	Enviado  bool       `json:"enviado"`
	Fecha    *time.Time `json:"fecha,omitempty"`
	Email    string     `json:"email,omitempty"`
	Intentos int        `json:"intentos"`
}

// VoidResponse datos de anulación.
type VoidResponse struct {
	Fecha             *time.Time `json:"fecha"`
	Motivo            string     `json:"motivo"`
	NumeroNotaCredito string     `json:"numero_nota_credito,omitempty"`
}

// DTEResponse DTE en respuestas.
type DTEResponse struct {
	ID            string             `json:"id"`
	NumeroDTE     string             `json:"numero_dte"`
	TipoDTE       string             `json:"tipo_dte"`
	NombreTipoDTE string             `json:"nombre_tipo_dte"`
	Estado        string             `json:"estado"`
	SaleID        string             `json:"sale_id"`
	Emisor        PartyResponse      `json:"emisor"`
	Receptor      PartyResponse      `json:"receptor"`
	Totales       TotalsResponse     `json:"totales"`
	Firma         *SignatureResponse `json:"firma,omitempty"`
	XML           *FileResponse      `json:"xml,omitempty"`
	PDF           *FileResponse      `json:"pdf,omitempty"`
	Envio         DeliveryResponse   `json:"envio"`
	Anulacion     *VoidResponse      `json:"anulacion,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// DTEListResponse página de DTE.
type DTEListResponse struct {
	Items []DTEResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}

// StatusChangeResponse resultado de simular-estado.
type StatusChangeResponse struct {
	ID             string    `json:"id"`
	NumeroDTE      string    `json:"numero_dte"`
	EstadoAnterior string    `json:"estado_anterior"`
	EstadoNuevo    string    `json:"estado_nuevo"`
	Fecha          time.Time `json:"fecha"`
}

// DeliveryReceiptResponse resultado de enviar.
type DeliveryReceiptResponse struct {
	ID        string    `json:"id"`
	NumeroDTE string    `json:"numero_dte"`
	Email     string    `json:"email"`
	Fecha     time.Time `json:"fecha"`
	Intentos  int       `json:"intentos"`
	Modo      string    `json:"modo"`
}

// ValidationResponse resultado de validar la firma.
type ValidationResponse struct {
	ID                string             `json:"id"`
	NumeroDTE         string             `json:"numero_dte"`
	Valida            bool               `json:"valida"`
	Errores           []string           `json:"errores"`
	Advertencias      []string           `json:"advertencias"`
	EstadoCertificado string             `json:"estado_certificado"`
	Algoritmo         string             `json:"algoritmo"`
	ValidadoEn        time.Time          `json:"validado_en"`
	Firma             *SignatureResponse `json:"firma,omitempty"`
}

// CertificateResponse certificado del registro.
type CertificateResponse struct {
	NIT         string     `json:"nit"`
	Emisor      string     `json:"emisor"`
	Sujeto      string     `json:"sujeto"`
	NumeroSerie string     `json:"numero_serie"`
	ValidoDesde time.Time  `json:"valido_desde"`
	ValidoHasta time.Time  `json:"valido_hasta"`
	Algoritmo   string     `json:"algoritmo"`
	TamanoLlave int        `json:"tamano_llave"`
	Revocado    bool       `json:"revocado"`
	RevocadoEn  *time.Time `json:"revocado_en,omitempty"`
}

// RevocationResponse resultado de revocar.
type RevocationResponse struct {
	NIT        string    `json:"nit"`
	RevocadoEn time.Time `json:"revocado_en"`
	Mensaje    string    `json:"mensaje"`
}

// ── Mapeos ────────────────────────────────────────────────────────────────────

// ToDTEResponse mapea la entidad a la respuesta (sin contenido binario).
func ToDTEResponse(d *entity.DTE) DTEResponse {
	out := DTEResponse{
		ID:            d.ID,
		NumeroDTE:     d.DocumentNumber,
		TipoDTE:       d.DocumentType,
		NombreTipoDTE: dte.DocumentTypeName(d.DocumentType),
		Estado:        string(d.Status()),
		SaleID:        d.SaleID,
		Emisor:        toParty(d.Issuer),
		Receptor:      toParty(d.Recipient),
		Totales: TotalsResponse{
			Subtotal:      d.Totals.Subtotal,
			Impuesto:      d.Totals.Tax,
			Total:         d.Totals.Total,
			TotalEnLetras: dte.AmountInWords(d.Totals.Total),
		},
		Firma: ToSignatureResponse(d.Signature),
		XML:   toFile(d.Files.XML),
		PDF:   toFile(d.Files.PDF),
		Envio: DeliveryResponse{
			Enviado:  d.Delivery.Sent,
			Fecha:    d.Delivery.SentAt,
			Email:    d.Delivery.RecipientEmail,
			Intentos: d.Delivery.Attempts,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.IsVoided() {
		out.Anulacion = &VoidResponse{
			Fecha:             d.VoidInfo.VoidedAt,
			Motivo:            d.VoidInfo.Reason,
			NumeroNotaCredito: d.VoidInfo.CreditNoteNumber,
		}
	}
	return out
}

// ToDTEListResponse mapea una página del orquestador.
func ToDTEListResponse(p *billing.DTEPage) DTEListResponse {
	return DTEListResponse{
		Items: lo.Map(p.Items, func(d *entity.DTE, _ int) DTEResponse { return ToDTEResponse(d) }),
		Page:  PageResponse{Limit: p.Limit, Offset: p.Offset, Total: p.Total},
	}
}

// ToSignatureResponse nil si no hay firma.
func ToSignatureResponse(s *entity.SignatureBundle) *SignatureResponse {
	if s == nil {
		return nil
	}
	return &SignatureResponse{
		SignatureID:    s.SignatureID,
		ValidationCode: s.ValidationCode,
		Algorithm:      s.Algorithm,
		KeySize:        s.KeySize,
		ContentHash:    s.ContentHash,
		SignatureValue: s.SignatureValue,
		SignedAt:       s.SignedAt,
		Resultado:      string(s.Status),
		Certificado:    s.Certificate.SubjectDN,
		NumeroSerie:    s.Certificate.SerialNumber,
	}
}

// ToStatusChangeResponse mapea el cambio de estado simulado.
func ToStatusChangeResponse(c *billing.StatusChange) StatusChangeResponse {
	return StatusChangeResponse{
		ID:             c.DTEID,
		NumeroDTE:      c.DocumentNumber,
		EstadoAnterior: string(c.Previous),
		EstadoNuevo:    string(c.New),
		Fecha:          c.ChangedAt,
	}
}

// ToDeliveryReceiptResponse mapea el comprobante de envío.
func ToDeliveryReceiptResponse(r *billing.DeliveryReceipt) DeliveryReceiptResponse {
	return DeliveryReceiptResponse{
		ID:        r.DTEID,
		NumeroDTE: r.DocumentNumber,
		Email:     r.RecipientEmail,
		Fecha:     r.SentAt,
		Intentos:  r.Attempts,
		Modo:      r.Mode,
	}
}

// ToValidationResponse mapea el reporte de firma. Errores y advertencias nunca son null.
func ToValidationResponse(r *billing.SignatureReport) ValidationResponse {
	return ValidationResponse{
		ID:                r.DTEID,
		NumeroDTE:         r.DocumentNumber,
		Valida:            r.Result.IsValid,
		Errores:           lo.Ternary(r.Result.Errors == nil, []string{}, r.Result.Errors),
		Advertencias:      lo.Ternary(r.Result.Warnings == nil, []string{}, r.Result.Warnings),
		EstadoCertificado: string(r.Result.CertificateStatus),
		Algoritmo:         r.Result.Algorithm,
		ValidadoEn:        r.Result.ValidatedAt,
		Firma:             ToSignatureResponse(r.Signature),
	}
}

// ToCertificateResponses mapea el registro completo.
func ToCertificateResponses(certs []entity.Certificate) []CertificateResponse {
	return lo.Map(certs, func(c entity.Certificate, _ int) CertificateResponse {
		return CertificateResponse{
			NIT:         c.IssuerTaxID,
			Emisor:      c.IssuerDN,
			Sujeto:      c.SubjectDN,
			NumeroSerie: c.SerialNumber,
			ValidoDesde: c.ValidFrom,
			ValidoHasta: c.ValidTo,
			Algoritmo:   c.Algorithm,
			TamanoLlave: c.KeySize,
			Revocado:    c.Revoked,
			RevocadoEn:  c.RevokedAt,
		}
	})
}

// ToRevocationResponse mapea el comprobante de revocación.
func ToRevocationResponse(r entity.RevocationReceipt) RevocationResponse {
	return RevocationResponse{NIT: r.IssuerTaxID, RevocadoEn: r.RevokedAt, Mensaje: r.Message}
}

func toParty(p entity.Party) PartyResponse {
	return PartyResponse{NIT: p.TaxID, Nombre: p.Name, Direccion: p.Address}
}

func toFile(f *entity.GeneratedFile) *FileResponse {
	if f == nil {
		return nil
	}
	return &FileResponse{Hash: f.Hash, Ruta: f.Path, Bytes: len(f.Content)}
}
