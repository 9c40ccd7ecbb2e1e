package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// GetByID obtiene una venta por ID; nil, nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `
		SELECT id, customer_id, seller_id, subtotal, tax_total, total, status,
		       invoiced, invoice_number, created_at, updated_at
		FROM sales WHERE id = $1`
	var (
		s      entity.Sale
		status string
		number *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CustomerID, &s.SellerID, &s.Subtotal, &s.TaxTotal, &s.Total, &status,
		&s.Invoiced, &number, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	s.Status = entity.SaleStatus(status)
	s.InvoiceNumber = derefString(number)
	return &s, nil
}

// UpdateInvoicing actualiza invoiced, invoice_number (NULL si vacío) y status.
func (r *SaleRepo) UpdateInvoicing(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales
		SET invoiced       = $2,
		    invoice_number = $3,
		    status         = $4,
		    updated_at     = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, s.ID, s.Invoiced, nullIfEmpty(s.InvoiceNumber), string(s.Status), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sale invoicing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: venta %s", domain.ErrNotFound, s.ID)
	}
	return nil
}
