package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// DTEFilter criterios de listado/exportación. Campos vacíos no filtran.
type DTEFilter struct {
	Status       entity.DTEStatus
	DocumentType string
	From         *time.Time
	To           *time.Time
	Limit        int // 0 = sin límite
	Offset       int
}

// DTERepository define el puerto de persistencia para DTE.
type DTERepository interface {
	Create(ctx context.Context, dte *entity.DTE) error
	// Update reescribe estado, firma, artefactos, envío y anulación.
	Update(ctx context.Context, dte *entity.DTE) error
	GetByID(ctx context.Context, id string) (*entity.DTE, error)
	// List devuelve la página pedida (más recientes primero) y el total sin paginar.
	List(ctx context.Context, filter DTEFilter) ([]*entity.DTE, int, error)
	// NextSequence incrementa de forma atómica el consecutivo global de DTE.
	NextSequence(ctx context.Context) (int64, error)
}
