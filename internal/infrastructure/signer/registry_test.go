package signer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/signer"
)

func TestRegistry_SemillasEnOrden(t *testing.T) {
	r := signer.NewRegistry()
	all := r.ListAll()
	require.Len(t, all, 2)
	assert.Equal(t, signer.DefaultIssuerTaxID, all[0].IssuerTaxID)
	assert.Equal(t, "12345678-9", all[1].IssuerTaxID)
	for _, c := range all {
		assert.False(t, c.Revoked)
		assert.Equal(t, entity.SignatureAlgorithm, c.Algorithm)
		assert.Empty(t, c.MissingFields())
	}
}

func TestRegistry_LookupConFallback(t *testing.T) {
	r := signer.NewRegistry()
	assert.Equal(t, "12345678-9", r.Lookup("12345678-9").IssuerTaxID)
	assert.Equal(t, signer.DefaultIssuerTaxID, r.Lookup("otro").IssuerTaxID)
}

func TestRegistry_RegisterReemplazaSinCambiarOrden(t *testing.T) {
	r := signer.NewRegistry()
	r.Register(entity.Certificate{IssuerTaxID: "nuevo", SerialNumber: "1"})
	r.Register(entity.Certificate{IssuerTaxID: signer.DefaultIssuerTaxID, SerialNumber: "2"})

	all := r.ListAll()
	require.Len(t, all, 3)
	assert.Equal(t, "2", all[0].SerialNumber)
	assert.Equal(t, "nuevo", all[2].IssuerTaxID)
}

func TestRegistry_Revoke(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r := signer.NewRegistry(signer.WithRegistryClock(func() time.Time { return at }))

	rec, err := r.Revoke("12345678-9")
	require.NoError(t, err)
	assert.Equal(t, "12345678-9", rec.IssuerTaxID)
	assert.Equal(t, at, rec.RevokedAt)
	assert.NotEmpty(t, rec.Message)

	c := r.Lookup("12345678-9")
	assert.True(t, c.Revoked)
	require.NotNil(t, c.RevokedAt)
	assert.Equal(t, at, *c.RevokedAt)

	assert.False(t, r.Lookup(signer.DefaultIssuerTaxID).Revoked)
}

func TestRegistry_RevokeDosVecesActualizaFecha(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r := signer.NewRegistry(signer.WithRegistryClock(func() time.Time { return at }))

	_, err := r.Revoke("12345678-9")
	require.NoError(t, err)
	at = at.Add(time.Hour)
	rec, err := r.Revoke("12345678-9")
	require.NoError(t, err)
	assert.Equal(t, at, rec.RevokedAt)
	assert.Equal(t, at, *r.Lookup("12345678-9").RevokedAt)
}

func TestRegistry_RevokeSinEntradaExacta(t *testing.T) {
	r := signer.NewRegistry()
	_, err := r.Revoke("no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, r.Lookup(signer.DefaultIssuerTaxID).Revoked, "no aplica fallback al revocar")
}

func TestRegistry_SnapshotsIndependientes(t *testing.T) {
	r := signer.NewRegistry()
	_, err := r.Revoke("12345678-9")
	require.NoError(t, err)

	c := r.Lookup("12345678-9")
	*c.RevokedAt = time.Time{}
	c.SubjectDN = "modificado"

	again := r.Lookup("12345678-9")
	assert.False(t, again.RevokedAt.IsZero())
	assert.NotEqual(t, "modificado", again.SubjectDN)
}
