package signer_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/signer"
)

func selfSignedPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(424242),
		Subject:      pkix.Name{CommonName: "Emisor Prueba", Country: []string{"SV"}},
		NotBefore:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestParsePEM_MapeaMetadatos(t *testing.T) {
	keyBlock := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1, 2, 3}})
	data := append(keyBlock, selfSignedPEM(t)...)

	c, err := signer.ParsePEM(data, "12345678-9")
	require.NoError(t, err)
	assert.Equal(t, "12345678-9", c.IssuerTaxID)
	assert.Equal(t, "424242", c.SerialNumber)
	assert.Equal(t, entity.SignatureAlgorithm, c.Algorithm)
	assert.Equal(t, 2048, c.KeySize)
	assert.Contains(t, c.SubjectDN, "CN=Emisor Prueba")
	assert.Equal(t, c.SubjectDN, c.IssuerDN, "autofirmado")
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), c.ValidFrom)
	assert.Empty(t, c.MissingFields())
}

func TestParsePEM_SinCertificado(t *testing.T) {
	_, err := signer.ParsePEM([]byte("no es pem"), "x")
	assert.Error(t, err)
}

func TestLoadCertificateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emisor.pem")
	require.NoError(t, os.WriteFile(path, selfSignedPEM(t), 0o600))

	c, err := signer.LoadCertificateFile(path, "", "12345678-9")
	require.NoError(t, err)
	assert.Equal(t, "424242", c.SerialNumber)

	_, err = signer.LoadCertificateFile(filepath.Join(t.TempDir(), "no-existe.pem"), "", "x")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "malo.p12")
	require.NoError(t, os.WriteFile(bad, []byte("basura"), 0o600))
	_, err = signer.LoadCertificateFile(bad, "clave", "x")
	assert.Error(t, err)
}
