package entity

import "time"

// Algoritmo y longitud de llave fijos para la firma simulada.
const (
	SignatureAlgorithm = "RSA-SHA256"
	SignatureKeySize   = 2048
)

// CertificateStatus resultado de la revisión de vigencia de un certificado.
type CertificateStatus string

const (
	CertificateValid       CertificateStatus = "VALID"
	CertificateNotYetValid CertificateStatus = "NOT_YET_VALID"
	CertificateExpired     CertificateStatus = "EXPIRED"
	CertificateInvalid     CertificateStatus = "INVALID"
)

// Certificate credencial simulada de firma de un emisor. Solo Revoked/RevokedAt cambian.
type Certificate struct {
	IssuerTaxID  string     `json:"issuer_tax_id"`
	IssuerDN     string     `json:"issuer_dn"`
	SubjectDN    string     `json:"subject_dn"`
	SerialNumber string     `json:"serial_number"`
	ValidFrom    time.Time  `json:"valid_from"`
	ValidTo      time.Time  `json:"valid_to"`
	Algorithm    string     `json:"algorithm"`
	KeySize      int        `json:"key_size"`
	Revoked      bool       `json:"revoked"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// MissingFields devuelve los campos obligatorios vacíos.
func (c Certificate) MissingFields() []string {
	var missing []string
	if c.IssuerDN == "" {
		missing = append(missing, "issuer")
	}
	if c.SubjectDN == "" {
		missing = append(missing, "subject")
	}
	if c.SerialNumber == "" {
		missing = append(missing, "serialNumber")
	}
	if c.Algorithm == "" {
		missing = append(missing, "algorithm")
	}
	return missing
}

// WindowStatus estado según la vigencia en now (no considera revocación ni campos).
func (c Certificate) WindowStatus(now time.Time) CertificateStatus {
	switch {
	case now.Before(c.ValidFrom):
		return CertificateNotYetValid
	case now.After(c.ValidTo):
		return CertificateExpired
	default:
		return CertificateValid
	}
}

// RevocationReceipt constancia de revocación.
type RevocationReceipt struct {
	IssuerTaxID string
	RevokedAt   time.Time
	Message     string
}
