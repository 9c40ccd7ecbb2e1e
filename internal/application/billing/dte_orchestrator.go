package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/dte"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/domain/repository"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/archive"
	"github.com/jhoicas/facturacion-dte/pkg/logger"
)

// DefaultIssuerTaxID NIT usado cuando el vendedor no tiene uno registrado.
const DefaultIssuerTaxID = "00000000-0"

// DTEOrchestrator coordina el ciclo de vida del DTE:
//
//	venta → validaciones → consecutivo → firma → XML → persistencia → venta Facturada
//
// y las operaciones posteriores (envío, anulación, simulación de estado, validación de firma).
// Cada operación corre completa dentro de la petición; no lanza goroutines.
type DTEOrchestrator struct {
	dteRepo      repository.DTERepository
	saleRepo     repository.SaleRepository
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	signer       Signer
	pdf          PDFGenerator
	mailer       Mailer
	store        ArtifactStore // puede ser nil
	tx           InvoicingTxRunner
	log          *logger.Logger

	now      func() time.Time
	newID    func() string
	validate *validator.Validate
}

// OrchestratorOption configura el orquestador.
type OrchestratorOption func(*DTEOrchestrator)

// WithClock reemplaza el reloj.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *DTEOrchestrator) { o.now = now }
}

// WithIDGenerator reemplaza el generador de IDs de DTE.
func WithIDGenerator(fn func() string) OrchestratorOption {
	return func(o *DTEOrchestrator) { o.newID = fn }
}

// WithArtifactStore archiva XML/PDF en un almacén externo.
func WithArtifactStore(s ArtifactStore) OrchestratorOption {
	return func(o *DTEOrchestrator) { o.store = s }
}

// WithTxRunner persiste DTE y venta en una transacción.
func WithTxRunner(tx InvoicingTxRunner) OrchestratorOption {
	return func(o *DTEOrchestrator) { o.tx = tx }
}

// NewDTEOrchestrator construye el orquestador con sus dependencias.
func NewDTEOrchestrator(
	dteRepo repository.DTERepository,
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	signer Signer,
	pdf PDFGenerator,
	mailer Mailer,
	log *logger.Logger,
	opts ...OrchestratorOption,
) *DTEOrchestrator {
	o := &DTEOrchestrator{
		dteRepo:      dteRepo,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		signer:       signer,
		pdf:          pdf,
		mailer:       mailer,
		log:          log,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
		validate:     validator.New(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	if o.tx == nil {
		o.tx = directRunner{dtes: dteRepo, sales: saleRepo}
	}
	return o
}

// ──────────────────────────────────────────────────────────────────────────────
// Generación
// ──────────────────────────────────────────────────────────────────────────────

// Generate emite el DTE de una venta. documentType vacío = "01".
func (o *DTEOrchestrator) Generate(ctx context.Context, saleID, documentType string) (*entity.DTE, error) {
	if documentType == "" {
		documentType = dte.DefaultDocumentType
	}
	sale, err := o.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("obtener venta: %w", err)
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
	}
	if sale.Invoiced {
		return nil, fmt.Errorf("%w: la venta ya está facturada (%s)", domain.ErrInvalidState, sale.InvoiceNumber)
	}
	if !dte.IsValidDocumentType(documentType) {
		return nil, fmt.Errorf("%w: tipo de DTE no soportado %q", domain.ErrMalformedInput, documentType)
	}

	customer, err := o.customerRepo.GetByID(ctx, sale.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if !customer.HasTaxData() {
		return nil, fmt.Errorf("%w: el cliente debe tener NIT y nombre para generar el DTE", domain.ErrIncompleteData)
	}
	seller, err := o.userRepo.GetByID(ctx, sale.SellerID)
	if err != nil {
		return nil, fmt.Errorf("obtener vendedor: %w", err)
	}
	if seller == nil {
		return nil, fmt.Errorf("%w: vendedor %s", domain.ErrNotFound, sale.SellerID)
	}

	totals := entity.NewTotals(sale.Subtotal, sale.TaxTotal)
	if totals.IsNegative() {
		return nil, fmt.Errorf("%w: la venta tiene montos negativos", domain.ErrMalformedInput)
	}

	now := o.now()
	seq, err := o.dteRepo.NextSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("asignar consecutivo: %w", err)
	}
	number := FormatDocumentNumber(now, seq)

	issuer := entity.Party{TaxID: seller.TaxID, Name: seller.IssuerName(), Address: seller.Address.Line()}
	if issuer.TaxID == "" {
		issuer.TaxID = DefaultIssuerTaxID
	}
	recipient := entity.Party{TaxID: customer.TaxID, Name: customer.Name, Address: customer.Address.Line()}
	doc := entity.NewDTE(o.newID(), number, documentType, issuer, recipient, sale.ID, totals, now)

	bundle, err := o.signer.Sign(doc.SignableFields(), issuer.TaxID)
	if err != nil {
		return nil, fmt.Errorf("firmar DTE %s: %w", number, err)
	}
	if err := doc.ApplySignature(bundle, now); err != nil {
		return nil, err
	}

	xmlBytes, err := dte.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("generar XML: %w", err)
	}
	xmlHash, err := dte.ContentHash(xmlBytes)
	if err != nil {
		return nil, err
	}
	doc.Files.XML = &entity.GeneratedFile{Content: xmlBytes, Hash: xmlHash}
	xmlName, _ := archive.DTEFilenames(doc)
	doc.Files.XML.Path = o.archiveArtifact(ctx, "dtes/xml/"+xmlName, xmlBytes, "application/xml")

	sale.MarkInvoiced(number, now)
	created := false
	err = o.tx.RunInvoicing(ctx, func(dtes repository.DTERepository, sales repository.SaleRepository) error {
		if err := dtes.Create(ctx, doc); err != nil {
			return fmt.Errorf("guardar DTE: %w", err)
		}
		created = true
		if err := sales.UpdateInvoicing(ctx, sale); err != nil {
			return fmt.Errorf("actualizar venta %s: %w", sale.ID, err)
		}
		return nil
	})
	if err != nil {
		if created && o.persisted(ctx, doc.ID) {
			// Sin transacción el DTE queda guardado aunque la venta no se haya actualizado.
			o.log.Error().Err(err).Str("dte_id", doc.ID).Str("sale_id", sale.ID).Msg("DTE generado pero la venta no se actualizó")
			return doc, err
		}
		return nil, err
	}

	o.log.Info().
		Str("dte_id", doc.ID).
		Str("numero_dte", number).
		Str("estado", string(doc.Status())).
		Str("firma", bundle.SignatureID).
		Msg("DTE generado y firmado")
	return doc, nil
}

// FormatDocumentNumber YYYYMM + consecutivo de 8 dígitos.
func FormatDocumentNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("%s%08d", at.Format("200601"), seq)
}

// ──────────────────────────────────────────────────────────────────────────────
// Anulación y simulación de estado
// ──────────────────────────────────────────────────────────────────────────────

// Void anula el DTE y revierte la venta a Completada.
func (o *DTEOrchestrator) Void(ctx context.Context, dteID, reason, creditNoteNumber string) (*entity.DTE, error) {
	doc, err := o.getDTE(ctx, dteID)
	if err != nil {
		return nil, err
	}
	if doc.IsVoided() {
		return nil, fmt.Errorf("%w: el DTE %s ya está anulado", domain.ErrInvalidState, doc.DocumentNumber)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: el motivo de anulación es requerido", domain.ErrIncompleteData)
	}
	now := o.now()
	if err := doc.Void(reason, strings.TrimSpace(creditNoteNumber), now); err != nil {
		return nil, err
	}
	orphan := false
	err = o.tx.RunInvoicing(ctx, func(dtes repository.DTERepository, sales repository.SaleRepository) error {
		if err := dtes.Update(ctx, doc); err != nil {
			return fmt.Errorf("guardar DTE: %w", err)
		}
		sale, err := sales.GetByID(ctx, doc.SaleID)
		if err != nil {
			return fmt.Errorf("obtener venta: %w", err)
		}
		if sale == nil {
			orphan = true
			return nil
		}
		sale.RevertInvoice(now)
		if err := sales.UpdateInvoicing(ctx, sale); err != nil {
			return fmt.Errorf("revertir venta %s: %w", sale.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if orphan {
		o.log.Warn().Str("dte_id", doc.ID).Str("sale_id", doc.SaleID).Msg("DTE anulado sin venta asociada")
	}

	o.log.Info().Str("dte_id", doc.ID).Str("numero_dte", doc.DocumentNumber).Str("motivo", reason).Msg("DTE anulado")
	return doc, nil
}

// StatusChange resultado de una transición simulada.
type StatusChange struct {
	DTEID          string
	DocumentNumber string
	Previous       entity.DTEStatus
	New            entity.DTEStatus
	ChangedAt      time.Time
}

// SimulateStatusTransition fuerza uno de los estados Pendiente/Aceptado/Rechazado/Observado.
func (o *DTEOrchestrator) SimulateStatusTransition(ctx context.Context, dteID, newStatus string) (*StatusChange, error) {
	target, ok := entity.ParseDTEStatus(newStatus)
	if !ok || !target.IsSimulable() {
		return nil, fmt.Errorf("%w: estado no válido %q", domain.ErrInvalidState, newStatus)
	}
	doc, err := o.getDTE(ctx, dteID)
	if err != nil {
		return nil, err
	}
	now := o.now()
	prev, err := doc.TransitionTo(target, now)
	if err != nil {
		return nil, err
	}
	if err := o.dteRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("guardar DTE: %w", err)
	}
	o.log.Info().Str("dte_id", doc.ID).Str("anterior", string(prev)).Str("nuevo", string(target)).Msg("estado DTE simulado")
	return &StatusChange{
		DTEID:          doc.ID,
		DocumentNumber: doc.DocumentNumber,
		Previous:       prev,
		New:            target,
		ChangedAt:      now,
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Envío
// ──────────────────────────────────────────────────────────────────────────────

// DeliveryReceipt constancia de envío.
type DeliveryReceipt struct {
	DTEID          string
	DocumentNumber string
	RecipientEmail string
	SentAt         time.Time
	Attempts       int
	Mode           string
}

// Send envía XML y PDF al correo del receptor (o al indicado). Cada intento de
// transporte se cuenta y se persiste antes de devolver el resultado.
func (o *DTEOrchestrator) Send(ctx context.Context, dteID, emailOverride string) (*DeliveryReceipt, error) {
	doc, err := o.getDTE(ctx, dteID)
	if err != nil {
		return nil, err
	}
	if doc.IsVoided() {
		return nil, fmt.Errorf("%w: no se puede enviar un DTE anulado", domain.ErrInvalidState)
	}
	sale, err := o.saleRepo.GetByID(ctx, doc.SaleID)
	if err != nil {
		return nil, fmt.Errorf("obtener venta: %w", err)
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: el DTE no tiene venta asociada", domain.ErrIncompleteData)
	}
	customer, err := o.customerRepo.GetByID(ctx, sale.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: la venta no tiene cliente asociado", domain.ErrIncompleteData)
	}
	if doc.Files.XML == nil || len(doc.Files.XML.Content) == 0 {
		return nil, fmt.Errorf("%w: el DTE no tiene XML generado", domain.ErrIncompleteData)
	}
	email := strings.TrimSpace(emailOverride)
	if email == "" {
		email = strings.TrimSpace(customer.Email)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: no hay email de destino", domain.ErrIncompleteData)
	}
	if err := o.validate.Var(email, "email"); err != nil {
		return nil, fmt.Errorf("%w: formato de email inválido %q", domain.ErrMalformedInput, email)
	}

	pdfBytes, err := o.pdf.GenerateDTE(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("generar PDF: %w", err)
	}
	xmlName, pdfName := archive.DTEFilenames(doc)
	doc.Files.PDF = &entity.GeneratedFile{
		Content: pdfBytes,
		Hash:    sha256Hex(pdfBytes),
		Path:    o.archiveArtifact(ctx, "dtes/pdf/"+pdfName, pdfBytes, "application/pdf"),
	}

	mail := &OutgoingMail{
		To:       email,
		Subject:  fmt.Sprintf("DTE %s - Factura Electrónica", doc.DocumentNumber),
		HTMLBody: deliveryBody(doc, customer),
		Attachments: []Attachment{
			{Filename: xmlName, ContentType: "application/xml", Content: doc.Files.XML.Content},
			{Filename: pdfName, ContentType: "application/pdf", Content: pdfBytes},
		},
	}

	now := o.now()
	doc.RecordDeliveryAttempt(now)
	if sendErr := o.mailer.Send(ctx, mail); sendErr != nil {
		if err := o.dteRepo.Update(ctx, doc); err != nil {
			o.log.Error().Err(err).Str("dte_id", doc.ID).Msg("no se pudo registrar el intento de envío")
		}
		o.log.Warn().Err(sendErr).Str("dte_id", doc.ID).Int("intentos", doc.Delivery.Attempts).Msg("envío de DTE fallido")
		return nil, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, sendErr)
	}
	doc.RecordDelivery(email, now)
	if err := o.dteRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("guardar DTE: %w", err)
	}

	o.log.Info().Str("dte_id", doc.ID).Str("email", email).Str("modo", o.mailer.Mode()).Msg("DTE enviado")
	return &DeliveryReceipt{
		DTEID:          doc.ID,
		DocumentNumber: doc.DocumentNumber,
		RecipientEmail: email,
		SentAt:         now,
		Attempts:       doc.Delivery.Attempts,
		Mode:           o.mailer.Mode(),
	}, nil
}

func deliveryBody(d *entity.DTE, c *entity.Customer) string {
	var sb strings.Builder
	sb.WriteString("<h2>Documento Tributario Electrónico</h2>")
	sb.WriteString("<p>Estimado(a) " + htmlEscape(c.Name) + ",</p>")
	sb.WriteString("<p>Adjuntamos el DTE <strong>" + htmlEscape(d.DocumentNumber) + "</strong> (" + htmlEscape(dte.DocumentTypeName(d.DocumentType)) + ").</p>")
	sb.WriteString("<p>Total: $" + d.Totals.Total.StringFixed(2) + " (" + dte.AmountInWords(d.Totals.Total) + ")</p>")
	if d.Signature != nil {
		sb.WriteString("<p>Código de validación: " + d.Signature.ValidationCode + "</p>")
	}
	sb.WriteString("<p>Emisor: " + htmlEscape(d.Issuer.Name) + "</p>")
	return sb.String()
}

var htmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func htmlEscape(s string) string { return htmlReplacer.Replace(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Firma y certificados
// ──────────────────────────────────────────────────────────────────────────────

// SignatureReport resultado de validar la firma de un DTE.
type SignatureReport struct {
	DTEID          string
	DocumentNumber string
	Result         entity.ValidationResult
	Signature      *entity.SignatureBundle
}

// ValidateSignature valida el bundle del DTE contra sus datos actuales.
func (o *DTEOrchestrator) ValidateSignature(ctx context.Context, dteID string) (*SignatureReport, error) {
	doc, err := o.getDTE(ctx, dteID)
	if err != nil {
		return nil, err
	}
	if doc.Signature == nil {
		return nil, fmt.Errorf("%w: el DTE no tiene firma digital", domain.ErrIncompleteData)
	}
	res := o.signer.Validate(doc.Signature, doc.SignableFields())
	return &SignatureReport{
		DTEID:          doc.ID,
		DocumentNumber: doc.DocumentNumber,
		Result:         res,
		Signature:      doc.Signature,
	}, nil
}

// ListCertificates certificados registrados.
func (o *DTEOrchestrator) ListCertificates() []entity.Certificate {
	return o.signer.ListCertificates()
}

// RevokeCertificate revoca el certificado del NIT. No afecta firmas ya emitidas.
func (o *DTEOrchestrator) RevokeCertificate(issuerTaxID string) (entity.RevocationReceipt, error) {
	receipt, err := o.signer.RevokeCertificate(issuerTaxID)
	if err != nil {
		return receipt, err
	}
	o.log.Warn().Str("nit", issuerTaxID).Time("revocado", receipt.RevokedAt).Msg("certificado revocado")
	return receipt, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Consulta y exportación
// ──────────────────────────────────────────────────────────────────────────────

// Get devuelve un DTE o ErrNotFound.
func (o *DTEOrchestrator) Get(ctx context.Context, dteID string) (*entity.DTE, error) {
	return o.getDTE(ctx, dteID)
}

// DTEPage página de DTE.
type DTEPage struct {
	Items  []*entity.DTE
	Total  int
	Limit  int
	Offset int
}

// List lista DTE filtrados (estado, tipo, rango de fechas).
func (o *DTEOrchestrator) List(ctx context.Context, filter repository.DTEFilter) (*DTEPage, error) {
	if filter.Status != "" {
		if _, ok := entity.ParseDTEStatus(string(filter.Status)); !ok {
			return nil, fmt.Errorf("%w: estado %q", domain.ErrMalformedInput, filter.Status)
		}
	}
	items, total, err := o.dteRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar DTE: %w", err)
	}
	return &DTEPage{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ExportArchive ZIP con los artefactos de los DTE exportados.
type ExportArchive struct {
	Filename string
	Content  []byte
	Count    int
}

// Export empaqueta XML y PDF de los DTE que cumplen el filtro (sin paginar).
func (o *DTEOrchestrator) Export(ctx context.Context, filter repository.DTEFilter) (*ExportArchive, error) {
	filter.Limit, filter.Offset = 0, 0
	page, err := o.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("%w: no hay DTE para exportar con los filtros indicados", domain.ErrNotFound)
	}
	var files []archive.File
	for _, d := range page.Items {
		files = append(files, archive.DTEFiles(d)...)
	}
	content, err := archive.BuildZip(files)
	if err != nil {
		return nil, err
	}
	o.log.Info().Int("dtes", len(page.Items)).Int("archivos", len(files)).Msg("DTE exportados")
	return &ExportArchive{
		Filename: fmt.Sprintf("DTEs_%s.zip", o.now().Format("20060102-150405")),
		Content:  content,
		Count:    len(page.Items),
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// helpers
// ──────────────────────────────────────────────────────────────────────────────

func (o *DTEOrchestrator) getDTE(ctx context.Context, id string) (*entity.DTE, error) {
	doc, err := o.dteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener DTE: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: DTE %s", domain.ErrNotFound, id)
	}
	return doc, nil
}

// persisted indica si el DTE quedó guardado tras un fallo.
func (o *DTEOrchestrator) persisted(ctx context.Context, id string) bool {
	d, err := o.dteRepo.GetByID(ctx, id)
	return err == nil && d != nil
}

// archiveArtifact guarda el artefacto si hay almacén; un fallo no interrumpe la operación.
func (o *DTEOrchestrator) archiveArtifact(ctx context.Context, key string, content []byte, contentType string) string {
	if o.store == nil {
		return ""
	}
	path, err := o.store.Put(ctx, key, content, contentType)
	if err != nil {
		o.log.Warn().Err(err).Str("clave", key).Msg("no se pudo archivar el artefacto")
		return ""
	}
	return path
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
