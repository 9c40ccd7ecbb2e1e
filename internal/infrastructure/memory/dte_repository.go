package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/domain/repository"
)

// DTERepo almacén en memoria de DTE. Guarda copias: las entidades devueltas no
// comparten estado con el almacén.
type DTERepo struct {
	mu       sync.RWMutex
	items    map[string]*entity.DTE
	byNumber map[string]string
	seq      int64
}

// NewDTERepository crea el repositorio vacío.
func NewDTERepository() *DTERepo {
	return &DTERepo{
		items:    make(map[string]*entity.DTE),
		byNumber: make(map[string]string),
	}
}

var _ repository.DTERepository = (*DTERepo)(nil)

// NextSequence incrementa el consecutivo bajo el mismo mutex que protege los DTE.
func (r *DTERepo) NextSequence(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

// Create inserta el DTE; el número es único y una venta tiene a lo sumo un DTE no anulado.
func (r *DTERepo) Create(ctx context.Context, d *entity.DTE) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[d.ID]; ok {
		return fmt.Errorf("%w: DTE %s", domain.ErrDuplicate, d.ID)
	}
	if _, ok := r.byNumber[d.DocumentNumber]; ok {
		return fmt.Errorf("%w: numero_dte %s", domain.ErrDuplicate, d.DocumentNumber)
	}
	for _, existing := range r.items {
		if existing.SaleID == d.SaleID && !existing.IsVoided() {
			return fmt.Errorf("%w: la venta %s ya tiene el DTE %s", domain.ErrDuplicate, d.SaleID, existing.DocumentNumber)
		}
	}
	r.items[d.ID] = cloneDTE(d)
	r.byNumber[d.DocumentNumber] = d.ID
	return nil
}

// Update reemplaza el DTE existente.
func (r *DTERepo) Update(ctx context.Context, d *entity.DTE) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[d.ID]; !ok {
		return fmt.Errorf("%w: DTE %s", domain.ErrNotFound, d.ID)
	}
	r.items[d.ID] = cloneDTE(d)
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *DTERepo) GetByID(ctx context.Context, id string) (*entity.DTE, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return cloneDTE(d), nil
}

// List filtra, ordena (más recientes primero) y pagina.
func (r *DTERepo) List(ctx context.Context, f repository.DTEFilter) ([]*entity.DTE, int, error) {
	r.mu.RLock()
	var matched []*entity.DTE
	for _, d := range r.items {
		if matches(d, f) {
			matched = append(matched, cloneDTE(d))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].DocumentNumber > matched[j].DocumentNumber
	})
	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []*entity.DTE{}, total, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func matches(d *entity.DTE, f repository.DTEFilter) bool {
	if f.Status != "" && d.Status() != f.Status {
		return false
	}
	if f.DocumentType != "" && d.DocumentType != f.DocumentType {
		return false
	}
	if f.From != nil && d.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && d.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

func cloneDTE(d *entity.DTE) *entity.DTE {
	c := *d
	c.Files.XML = cloneFile(d.Files.XML)
	c.Files.PDF = cloneFile(d.Files.PDF)
	return &c
}

func cloneFile(f *entity.GeneratedFile) *entity.GeneratedFile {
	if f == nil {
		return nil
	}
	c := *f
	c.Content = append([]byte(nil), f.Content...)
	return &c
}
