package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-dte/internal/domain"
)

// DTEStatus estado del documento tributario electrónico.
type DTEStatus string

const (
	DTEStatusPending  DTEStatus = "Pendiente"
	DTEStatusAccepted DTEStatus = "Aceptado"
	DTEStatusRejected DTEStatus = "Rechazado"
	DTEStatusObserved DTEStatus = "Observado"
	DTEStatusVoided   DTEStatus = "Anulado"
)

// simulable: destinos permitidos para TransitionTo.
var simulable = []DTEStatus{DTEStatusPending, DTEStatusAccepted, DTEStatusRejected, DTEStatusObserved}

// dteTransitions tabla fija de transiciones. Anulado no tiene salidas.
var dteTransitions = map[DTEStatus][]DTEStatus{
	DTEStatusPending:  append(simulable, DTEStatusVoided),
	DTEStatusAccepted: append(simulable, DTEStatusVoided),
	DTEStatusRejected: append(simulable, DTEStatusVoided),
	DTEStatusObserved: append(simulable, DTEStatusVoided),
	DTEStatusVoided:   nil,
}

// ParseDTEStatus reconoce un estado por su valor textual.
func ParseDTEStatus(s string) (DTEStatus, bool) {
	st := DTEStatus(s)
	_, ok := dteTransitions[st]
	return st, ok
}

// IsSimulable indica si el estado es un destino válido de TransitionTo.
func (s DTEStatus) IsSimulable() bool {
	for _, v := range simulable {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransitionTo consulta la tabla de transiciones.
func (s DTEStatus) CanTransitionTo(target DTEStatus) bool {
	for _, v := range dteTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// Party emisor o receptor.
type Party struct {
	TaxID   string
	Name    string
	Address string
}

// Totals montos del documento. Total = Subtotal + Tax.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// NewTotals recalcula el total a 2 decimales; no confía en el total de origen.
func NewTotals(subtotal, tax decimal.Decimal) Totals {
	sub := subtotal.Round(2)
	t := tax.Round(2)
	return Totals{Subtotal: sub, Tax: t, Total: sub.Add(t)}
}

// IsNegative indica si algún monto es negativo.
func (t Totals) IsNegative() bool {
	return t.Subtotal.IsNegative() || t.Tax.IsNegative() || t.Total.IsNegative()
}

// SignableFields datos de negocio que entran en el contenido firmado.
type SignableFields struct {
	DocumentNumber string
	DocumentType   string
	Issuer         Party
	Recipient      Party
	Totals         Totals
}

// GeneratedFile artefacto generado (XML o PDF).
type GeneratedFile struct {
	Content []byte
	Hash    string
	Path    string // clave en el almacén de artefactos, vacío si no se archivó
}

// GeneratedFiles artefactos del DTE; cada uno opcional.
type GeneratedFiles struct {
	XML *GeneratedFile
	PDF *GeneratedFile
}

// Delivery datos del envío por correo.
type Delivery struct {
	Sent           bool
	SentAt         *time.Time
	RecipientEmail string
	Attempts       int
}

// VoidInfo datos de anulación.
type VoidInfo struct {
	VoidedAt         *time.Time
	Reason           string
	CreditNoteNumber string
}

// DTE documento tributario electrónico. El estado solo cambia mediante
// ApplySignature, TransitionTo y Void.
type DTE struct {
	ID             string
	DocumentNumber string
	DocumentType   string
	Issuer         Party
	Recipient      Party
	SaleID         string
	Totals         Totals
	Signature      *SignatureBundle
	Files          GeneratedFiles
	Delivery       Delivery
	VoidInfo       VoidInfo
	CreatedAt      time.Time
	UpdatedAt      time.Time

	status DTEStatus
}

// NewDTE crea un documento en estado Pendiente.
func NewDTE(id, documentNumber, documentType string, issuer, recipient Party, saleID string, totals Totals, at time.Time) *DTE {
	return &DTE{
		ID:             id,
		DocumentNumber: documentNumber,
		DocumentType:   documentType,
		Issuer:         issuer,
		Recipient:      recipient,
		SaleID:         saleID,
		Totals:         totals,
		CreatedAt:      at,
		UpdatedAt:      at,
		status:         DTEStatusPending,
	}
}

// Status estado actual.
func (d *DTE) Status() DTEStatus { return d.status }

// IsVoided indica si el documento fue anulado.
func (d *DTE) IsVoided() bool { return d.status == DTEStatusVoided }

// RestoreStatus rehidrata el estado desde persistencia. No valida transiciones.
func (d *DTE) RestoreStatus(s DTEStatus) { d.status = s }

// SignableFields extrae los campos firmables.
func (d *DTE) SignableFields() SignableFields {
	return SignableFields{
		DocumentNumber: d.DocumentNumber,
		DocumentType:   d.DocumentType,
		Issuer:         d.Issuer,
		Recipient:      d.Recipient,
		Totals:         d.Totals,
	}
}

// ApplySignature adjunta la firma y fija el estado según el dictamen.
func (d *DTE) ApplySignature(b *SignatureBundle, at time.Time) error {
	if b == nil {
		return fmt.Errorf("%w: firma vacía", domain.ErrIncompleteData)
	}
	target := StatusForOutcome(b.Status)
	if d.status != target && !d.status.CanTransitionTo(target) {
		return fmt.Errorf("%w: no se puede firmar un DTE en estado %s", domain.ErrInvalidState, d.status)
	}
	d.Signature = b
	d.status = target
	d.UpdatedAt = at
	return nil
}

// TransitionTo cambia a un estado simulable y devuelve el estado anterior.
func (d *DTE) TransitionTo(target DTEStatus, at time.Time) (DTEStatus, error) {
	prev := d.status
	if !target.IsSimulable() {
		return prev, fmt.Errorf("%w: estado no válido %q", domain.ErrInvalidState, target)
	}
	if !prev.CanTransitionTo(target) {
		return prev, fmt.Errorf("%w: el DTE %s está %s", domain.ErrInvalidState, d.DocumentNumber, prev)
	}
	d.status = target
	d.UpdatedAt = at
	return prev, nil
}

// Void anula el documento. Es terminal.
func (d *DTE) Void(reason, creditNoteNumber string, at time.Time) error {
	if !d.status.CanTransitionTo(DTEStatusVoided) {
		return fmt.Errorf("%w: el DTE %s ya está anulado", domain.ErrInvalidState, d.DocumentNumber)
	}
	voidedAt := at
	d.status = DTEStatusVoided
	d.VoidInfo = VoidInfo{VoidedAt: &voidedAt, Reason: reason, CreditNoteNumber: creditNoteNumber}
	d.UpdatedAt = at
	return nil
}

// RecordDeliveryAttempt cuenta un intento de envío, exitoso o no.
func (d *DTE) RecordDeliveryAttempt(at time.Time) {
	d.Delivery.Attempts++
	d.UpdatedAt = at
}

// RecordDelivery registra un envío exitoso.
func (d *DTE) RecordDelivery(email string, at time.Time) {
	sentAt := at
	d.Delivery.Sent = true
	d.Delivery.SentAt = &sentAt
	d.Delivery.RecipientEmail = email
	d.UpdatedAt = at
}
