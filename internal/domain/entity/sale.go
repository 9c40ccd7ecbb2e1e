package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado comercial de una venta.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "Pendiente"
	SaleStatusCompleted SaleStatus = "Completada"
	SaleStatusCancelled SaleStatus = "Cancelada"
	SaleStatusInvoiced  SaleStatus = "Facturada"
)

// Sale venta registrada; el ciclo DTE solo modifica Invoiced, InvoiceNumber y Status.
type Sale struct {
	ID            string
	CustomerID    string
	SellerID      string
	Subtotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	Total         decimal.Decimal
	Status        SaleStatus
	Invoiced      bool
	InvoiceNumber string // vacío = sin factura
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MarkInvoiced vincula la venta con el número de DTE emitido.
func (s *Sale) MarkInvoiced(documentNumber string, at time.Time) {
	s.Invoiced = true
	s.InvoiceNumber = documentNumber
	s.Status = SaleStatusInvoiced
	s.UpdatedAt = at
}

// RevertInvoice deshace la facturación tras anular el DTE.
func (s *Sale) RevertInvoice(at time.Time) {
	s.Invoiced = false
	s.InvoiceNumber = ""
	s.Status = SaleStatusCompleted
	s.UpdatedAt = at
}
