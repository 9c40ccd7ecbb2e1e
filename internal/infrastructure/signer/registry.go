package signer

import (
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// Registry tabla compartida de certificados por NIT del emisor.
// Las revocaciones son visibles en la siguiente consulta; no hay caché.
type Registry struct {
	mu    sync.RWMutex
	order []string
	certs map[string]*entity.Certificate
	now   func() time.Time
}

// RegistryOption configura el Registry.
type RegistryOption func(*Registry)

// WithRegistryClock reemplaza el reloj usado para fechar revocaciones.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry crea el registro con los certificados semilla.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		certs: make(map[string]*entity.Certificate),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, s := range seedCertificates() {
		r.Register(entity.Certificate{
			IssuerTaxID:  s.taxID,
			IssuerDN:     seedIssuerDN,
			SubjectDN:    s.subject,
			SerialNumber: s.serial,
			ValidFrom:    seedValidFrom,
			ValidTo:      seedValidTo,
			Algorithm:    entity.SignatureAlgorithm,
			KeySize:      entity.SignatureKeySize,
		})
	}
	return r
}

// Register agrega o reemplaza un certificado conservando el orden de registro.
func (r *Registry) Register(cert entity.Certificate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.certs[cert.IssuerTaxID]; !exists {
		r.order = append(r.order, cert.IssuerTaxID)
	}
	c := cert
	r.certs[cert.IssuerTaxID] = &c
}

// Lookup devuelve el certificado del NIT o el certificado por defecto. Nunca falla.
func (r *Registry) Lookup(issuerTaxID string) entity.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.certs[issuerTaxID]; ok {
		return snapshot(c)
	}
	if c, ok := r.certs[DefaultIssuerTaxID]; ok {
		return snapshot(c)
	}
	return entity.Certificate{}
}

// ListAll todos los certificados (revocados incluidos) en orden de registro.
func (r *Registry) ListAll() []entity.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Certificate, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, snapshot(r.certs[id]))
	}
	return out
}

// Revoke marca el certificado como revocado. Requiere una entrada exacta (sin fallback).
func (r *Registry) Revoke(issuerTaxID string) (entity.RevocationReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.certs[issuerTaxID]
	if !ok {
		return entity.RevocationReceipt{}, fmt.Errorf("%w: certificado para NIT %s", domain.ErrNotFound, issuerTaxID)
	}
	at := r.now().UTC()
	c.Revoked = true
	c.RevokedAt = &at
	return entity.RevocationReceipt{
		IssuerTaxID: issuerTaxID,
		RevokedAt:   at,
		Message:     "Certificado revocado exitosamente",
	}, nil
}

func snapshot(c *entity.Certificate) entity.Certificate {
	out := *c
	if c.RevokedAt != nil {
		t := *c.RevokedAt
		out.RevokedAt = &t
	}
	return out
}
