// Importación de metadatos de certificados reales (.p12 o PEM) al Registry.
// Solo se usan los datos descriptivos; la firma sigue siendo simulada.

package signer

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// LoadCertificateFile lee un .p12/.pfx o un PEM y lo convierte en Certificate del emisor.
func LoadCertificateFile(path, password, issuerTaxID string) (entity.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Certificate{}, fmt.Errorf("leer certificado: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".p12", ".pfx":
		_, cert, err := pkcs12.Decode(data, password)
		if err != nil {
			return entity.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
		}
		return FromX509(cert, issuerTaxID), nil
	default:
		return ParsePEM(data, issuerTaxID)
	}
}

// ParsePEM toma el primer bloque CERTIFICATE del PEM.
func ParsePEM(data []byte, issuerTaxID string) (entity.Certificate, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return entity.Certificate{}, fmt.Errorf("PEM sin bloque CERTIFICATE")
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return entity.Certificate{}, fmt.Errorf("parsear certificado: %w", err)
		}
		return FromX509(cert, issuerTaxID), nil
	}
}

// FromX509 mapea un certificado X.509 a la entidad del Registry.
func FromX509(cert *x509.Certificate, issuerTaxID string) entity.Certificate {
	algorithm := cert.SignatureAlgorithm.String()
	if cert.SignatureAlgorithm == x509.SHA256WithRSA {
		algorithm = entity.SignatureAlgorithm
	}
	keySize := 0
	if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok {
		keySize = pub.N.BitLen()
	}
	return entity.Certificate{
		IssuerTaxID:  issuerTaxID,
		IssuerDN:     cert.Issuer.String(),
		SubjectDN:    cert.Subject.String(),
		SerialNumber: cert.SerialNumber.String(),
		ValidFrom:    cert.NotBefore.UTC(),
		ValidTo:      cert.NotAfter.UTC(),
		Algorithm:    algorithm,
		KeySize:      keySize,
	}
}
