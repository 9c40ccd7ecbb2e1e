// Motor de firma SIMULADA de DTE. El valor de firma es un digest SHA-256,
// no una firma asimétrica; no tiene valor criptográfico.

package signer

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/ucarion/c14n"

	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/dte"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// RandomSource fuente pseudoaleatoria del dictamen simulado. *rand.Rand la satisface.
type RandomSource interface {
	Float64() float64
}

// Service firma y valida SignatureBundles usando el Registry.
type Service struct {
	registry *Registry
	now      func() time.Time
	entropy  io.Reader

	mu  sync.Mutex
	rnd RandomSource
}

// Option configura el Service.
type Option func(*Service)

// WithRandomSource inyecta la fuente del dictamen (tests fuerzan cada rama).
func WithRandomSource(r RandomSource) Option {
	return func(s *Service) { s.rnd = r }
}

// WithSeed usa una fuente PCG con semilla fija.
func WithSeed(seed uint64) Option {
	return func(s *Service) { s.rnd = mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithClock reemplaza el reloj.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEntropy reemplaza el lector de bytes aleatorios de identificadores y nonce.
func WithEntropy(r io.Reader) Option {
	return func(s *Service) { s.entropy = r }
}

// NewService crea el motor de firma.
func NewService(registry *Registry, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		now:      time.Now,
		entropy:  rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		seed := uint64(s.now().UnixNano())
		s.rnd = mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return s
}

// Sign construye el contenido firmable, lo resume y emite un SignatureBundle.
// La marca de emisión se toma al firmar y forma parte del hash: dos firmas de los
// mismos datos en instantes distintos producen hashes distintos.
func (s *Service) Sign(fields entity.SignableFields, issuerTaxID string) (*entity.SignatureBundle, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	cert := s.registry.Lookup(issuerTaxID)
	if cert.SerialNumber == "" {
		return nil, fmt.Errorf("%w: no hay certificado para el emisor %s", domain.ErrNotFound, issuerTaxID)
	}

	signedAt := s.now().UTC().Truncate(time.Millisecond)
	hash, err := ContentHash(fields, signedAt)
	if err != nil {
		return nil, err
	}
	nonce, err := s.randomHex(8)
	if err != nil {
		return nil, err
	}
	signatureValue := sha256Hex(fmt.Sprintf("%s-%s-%s-%d%s", cert.SerialNumber, hash, cert.SubjectDN, signedAt.UnixNano(), nonce))

	idSuffix, err := s.randomHex(4)
	if err != nil {
		return nil, err
	}
	validationCode, err := s.randomHex(8)
	if err != nil {
		return nil, err
	}

	return &entity.SignatureBundle{
		SignatureValue: signatureValue,
		SignedAt:       signedAt,
		Certificate:    cert,
		ContentHash:    hash,
		Algorithm:      entity.SignatureAlgorithm,
		KeySize:        entity.SignatureKeySize,
		Status:         s.drawOutcome(),
		SignatureID:    fmt.Sprintf("SIG-%d-%s", signedAt.UnixMilli(), idSuffix),
		ValidationCode: validationCode,
	}, nil
}

// Validate revisa certificado, fechas, algoritmo y hash del bundle contra los datos.
// El hash se recalcula con la marca de emisión guardada en el bundle.
// La revocación del certificado no se consulta.
func (s *Service) Validate(bundle *entity.SignatureBundle, fields entity.SignableFields) entity.ValidationResult {
	now := s.now().UTC()
	res := entity.ValidationResult{ValidatedAt: now}
	if bundle == nil {
		res.Errors = []string{msgNoSignature}
		res.CertificateStatus = entity.CertificateInvalid
		return res
	}
	res.Algorithm = bundle.Algorithm

	cert := bundle.Certificate
	res.CertificateStatus = entity.CertificateValid
	if now.Before(cert.ValidFrom) {
		res.Errors = append(res.Errors, msgNotYetValid)
		res.CertificateStatus = entity.CertificateNotYetValid
	}
	if now.After(cert.ValidTo) {
		res.Errors = append(res.Errors, msgExpired)
		res.CertificateStatus = entity.CertificateExpired
	}
	if missing := cert.MissingFields(); len(missing) > 0 {
		for _, f := range missing {
			res.Errors = append(res.Errors, fmt.Sprintf(msgMissingField, f))
		}
		res.CertificateStatus = entity.CertificateInvalid
	}

	if bundle.SignedAt.After(now) {
		res.Errors = append(res.Errors, msgFutureSignature)
	} else if now.Sub(bundle.SignedAt) > MaxSignatureAge {
		res.Warnings = append(res.Warnings, msgOldSignature)
	}

	if bundle.Algorithm != entity.SignatureAlgorithm {
		res.Errors = append(res.Errors, msgInvalidAlgorithm)
	}

	hash, err := ContentHash(fields, bundle.SignedAt)
	if err != nil || hash != bundle.ContentHash {
		res.Errors = append(res.Errors, msgHashMismatch)
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// ListCertificates delega en el Registry.
func (s *Service) ListCertificates() []entity.Certificate {
	return s.registry.ListAll()
}

// RevokeCertificate delega en el Registry.
func (s *Service) RevokeCertificate(issuerTaxID string) (entity.RevocationReceipt, error) {
	return s.registry.Revoke(issuerTaxID)
}

func (s *Service) drawOutcome() entity.SignatureOutcome {
	s.mu.Lock()
	r := s.rnd.Float64()
	s.mu.Unlock()
	switch {
	case r < acceptedThreshold:
		return entity.OutcomeAccepted
	case r < observedThreshold:
		return entity.OutcomeObserved
	default:
		return entity.OutcomeRejected
	}
}

func (s *Service) randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(s.entropy, b); err != nil {
		return "", fmt.Errorf("firma: generar bytes aleatorios: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// signableContent serialización estructurada del contenido firmado.
type signableContent struct {
	XMLName   xml.Name      `xml:"ContenidoFirmable"`
	NumeroDTE string        `xml:"NumeroDTE"`
	TipoDTE   string        `xml:"TipoDTE"`
	Emisor    signableParty `xml:"Emisor"`
	Receptor  signableParty `xml:"Receptor"`
	Totales   signableTotal `xml:"Totales"`
	Timestamp string        `xml:"Timestamp"`
}

type signableParty struct {
	NIT       string `xml:"NIT"`
	Nombre    string `xml:"Nombre"`
	Direccion string `xml:"Direccion"`
}

type signableTotal struct {
	SubTotal string `xml:"SubTotal"`
	IVA      string `xml:"IVA"`
	Total    string `xml:"Total"`
}

// CanonicalContent serialización C14N del contenido firmable con la marca de emisión dada.
func CanonicalContent(fields entity.SignableFields, issuedAt time.Time) ([]byte, error) {
	content := signableContent{
		NumeroDTE: fields.DocumentNumber,
		TipoDTE:   fields.DocumentType,
		Emisor:    toSignableParty(fields.Issuer),
		Receptor:  toSignableParty(fields.Recipient),
		Totales: signableTotal{
			SubTotal: fields.Totals.Subtotal.StringFixed(2),
			IVA:      fields.Totals.Tax.StringFixed(2),
			Total:    fields.Totals.Total.StringFixed(2),
		},
		Timestamp: issuedAt.UTC().Format(time.RFC3339Nano),
	}
	raw, err := xml.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("%w: serializar contenido firmable: %v", domain.ErrMalformedInput, err)
	}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: canonicalizar contenido firmable: %v", domain.ErrMalformedInput, err)
	}
	return canonical, nil
}

// ContentHash SHA-256 (hex) del contenido canónico.
func ContentHash(fields entity.SignableFields, issuedAt time.Time) (string, error) {
	canonical, err := CanonicalContent(fields, issuedAt)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func toSignableParty(p entity.Party) signableParty {
	return signableParty{NIT: p.TaxID, Nombre: p.Name, Direccion: p.Address}
}

func checkFields(f entity.SignableFields) error {
	if strings.TrimSpace(f.DocumentNumber) == "" {
		return fmt.Errorf("%w: número de DTE vacío", domain.ErrMalformedInput)
	}
	if !dte.IsValidDocumentType(f.DocumentType) {
		return fmt.Errorf("%w: tipo de DTE no soportado %q", domain.ErrMalformedInput, f.DocumentType)
	}
	if f.Totals.IsNegative() {
		return fmt.Errorf("%w: montos negativos", domain.ErrMalformedInput)
	}
	return nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
