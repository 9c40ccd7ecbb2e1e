package entity

import (
	"time"

	"github.com/jhoicas/facturacion-dte/internal/domain"
)

// SignatureOutcome dictamen simulado de la autoridad tributaria.
type SignatureOutcome string

const (
	OutcomeAccepted SignatureOutcome = "ACCEPTED"
	OutcomeRejected SignatureOutcome = "REJECTED"
	OutcomeObserved SignatureOutcome = "OBSERVED"
)

var outcomeStatus = map[SignatureOutcome]DTEStatus{
	OutcomeAccepted: DTEStatusAccepted,
	OutcomeRejected: DTEStatusRejected,
	OutcomeObserved: DTEStatusObserved,
}

// StatusForOutcome traduce el dictamen al estado del DTE; lo desconocido queda Pendiente.
func StatusForOutcome(o SignatureOutcome) DTEStatus {
	if s, ok := outcomeStatus[o]; ok {
		return s
	}
	return DTEStatusPending
}

// SignatureBundle paquete de firma simulada. Inmutable una vez creado.
// SignedAt es también la marca de emisión incluida en el contenido firmado.
type SignatureBundle struct {
	SignatureValue string           `json:"signature_value"`
	SignedAt       time.Time        `json:"signed_at"`
	Certificate    Certificate      `json:"certificate"`
	ContentHash    string           `json:"content_hash"`
	Algorithm      string           `json:"algorithm"`
	KeySize        int              `json:"key_size"`
	Status         SignatureOutcome `json:"status"`
	SignatureID    string           `json:"signature_id"`
	ValidationCode string           `json:"validation_code"`
}

// ValidationResult resultado de validar un SignatureBundle.
type ValidationResult struct {
	IsValid           bool
	Errors            []string
	Warnings          []string
	CertificateStatus CertificateStatus
	Algorithm         string
	ValidatedAt       time.Time
}

// Err devuelve un *domain.ValidationError con los motivos, o nil si la firma es válida.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return &domain.ValidationError{Reasons: append([]string(nil), r.Errors...)}
}
