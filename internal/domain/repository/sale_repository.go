package repository

import (
	"context"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// SaleRepository puerto de lectura de ventas y actualización de sus campos de facturación.
type SaleRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// UpdateInvoicing persiste Invoiced, InvoiceNumber y Status.
	UpdateInvoicing(ctx context.Context, sale *entity.Sale) error
}
