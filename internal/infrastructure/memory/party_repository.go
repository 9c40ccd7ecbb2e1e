package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/domain/repository"
)

// SaleRepo ventas en memoria.
type SaleRepo struct {
	mu    sync.RWMutex
	items map[string]entity.Sale
}

// NewSaleRepository crea el repositorio vacío.
func NewSaleRepository() *SaleRepo {
	return &SaleRepo{items: make(map[string]entity.Sale)}
}

var _ repository.SaleRepository = (*SaleRepo)(nil)

// Save inserta o reemplaza una venta.
func (r *SaleRepo) Save(s *entity.Sale) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = *s
}

// GetByID devuelve nil, nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// UpdateInvoicing persiste solo los campos de facturación.
func (r *SaleRepo) UpdateInvoicing(ctx context.Context, s *entity.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[s.ID]
	if !ok {
		return fmt.Errorf("%w: venta %s", domain.ErrNotFound, s.ID)
	}
	cur.Invoiced = s.Invoiced
	cur.InvoiceNumber = s.InvoiceNumber
	cur.Status = s.Status
	cur.UpdatedAt = s.UpdatedAt
	r.items[s.ID] = cur
	return nil
}

// CustomerRepo clientes en memoria.
type CustomerRepo struct {
	mu    sync.RWMutex
	items map[string]entity.Customer
}

// NewCustomerRepository crea el repositorio vacío.
func NewCustomerRepository() *CustomerRepo {
	return &CustomerRepo{items: make(map[string]entity.Customer)}
}

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// Save inserta o reemplaza un cliente.
func (r *CustomerRepo) Save(c *entity.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID] = *c
}

// GetByID devuelve nil, nil si no existe.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// UserRepo usuarios (vendedores) en memoria.
type UserRepo struct {
	mu    sync.RWMutex
	items map[string]entity.User
}

// NewUserRepository crea el repositorio vacío.
func NewUserRepository() *UserRepo {
	return &UserRepo{items: make(map[string]entity.User)}
}

var _ repository.UserRepository = (*UserRepo)(nil)

// Save inserta o reemplaza un usuario.
func (r *UserRepo) Save(u *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[u.ID] = *u
}

// GetByID devuelve nil, nil si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
