package billing

import (
	"context"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/domain/repository"
)

// Signer motor de firma simulada y registro de certificados.
type Signer interface {
	Sign(fields entity.SignableFields, issuerTaxID string) (*entity.SignatureBundle, error)
	Validate(bundle *entity.SignatureBundle, fields entity.SignableFields) entity.ValidationResult
	ListCertificates() []entity.Certificate
	RevokeCertificate(issuerTaxID string) (entity.RevocationReceipt, error)
}

// Attachment adjunto de correo.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// OutgoingMail mensaje a entregar por el relay de correo.
type OutgoingMail struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Mailer relay de correo (externo). Mode identifica el transporte ("simulado", "smtp").
type Mailer interface {
	Send(ctx context.Context, mail *OutgoingMail) error
	Mode() string
}

// PDFGenerator genera la representación gráfica del DTE.
type PDFGenerator interface {
	GenerateDTE(ctx context.Context, dte *entity.DTE) ([]byte, error)
}

// ArtifactStore archiva XML/PDF y devuelve la ruta con la que quedaron guardados.
type ArtifactStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
}

// InvoicingTxRunner ejecuta fn con repositorios de DTE y venta atados a una misma transacción.
// Si fn devuelve error no queda ningún cambio persistido.
type InvoicingTxRunner interface {
	RunInvoicing(ctx context.Context, fn func(dtes repository.DTERepository, sales repository.SaleRepository) error) error
}

// directRunner ejecuta fn sobre los repos del orquestador sin transacción (almacén en memoria).
// Un fallo a mitad de fn deja persistido lo ya escrito.
type directRunner struct {
	dtes  repository.DTERepository
	sales repository.SaleRepository
}

func (r directRunner) RunInvoicing(_ context.Context, fn func(repository.DTERepository, repository.SaleRepository) error) error {
	return fn(r.dtes, r.sales)
}
