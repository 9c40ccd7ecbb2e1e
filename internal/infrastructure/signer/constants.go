// Constantes de la firma simulada y certificados semilla.

package signer

import "time"

// DefaultIssuerTaxID certificado usado cuando el emisor no tiene uno propio.
const DefaultIssuerTaxID = "00000000-0"

// Umbrales del dictamen simulado: <0.80 aceptado, <0.90 observado, resto rechazado.
const (
	acceptedThreshold = 0.80
	observedThreshold = 0.90
)

// MaxSignatureAge antigüedad a partir de la cual la validación emite advertencia.
const MaxSignatureAge = 24 * time.Hour

// Emisor de los certificados semilla.
const seedIssuerDN = "CN=Autoridad Certificadora de El Salvador, O=Ministerio de Hacienda, C=SV"

// Mensajes de validación.
const (
	msgNoSignature      = "No hay firma para validar"
	msgNotYetValid      = "El certificado aún no es válido"
	msgExpired          = "El certificado ha expirado"
	msgMissingField     = "Falta campo requerido en certificado: %s"
	msgFutureSignature  = "La firma tiene una fecha futura"
	msgOldSignature     = "La firma es antigua (más de 24 horas)"
	msgInvalidAlgorithm = "Algoritmo de firma no válido"
	msgHashMismatch     = "El hash de la firma no coincide con los datos"
)

func seedCertificates() []struct {
	taxID, subject, serial string
} {
	return []struct {
		taxID, subject, serial string
	}{
		{DefaultIssuerTaxID, "CN=Sistema de Facturación Electrónica, O=Empresa Demo S.A. de C.V., C=SV", "12345678901234567890"},
		{"12345678-9", "CN=Empresa Ejemplo S.A. de C.V., O=Empresa Ejemplo, C=SV", "98765432109876543210"},
	}
}

var (
	seedValidFrom = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedValidTo   = time.Date(2030, 12, 31, 23, 59, 59, 0, time.UTC)
)
