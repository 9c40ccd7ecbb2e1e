package repository

import (
	"context"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// UserRepository puerto de lectura de usuarios (vendedores emisores).
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
