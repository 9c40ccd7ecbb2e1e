package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/domain/repository"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/memory"
)

var (
	ctx  = context.Background()
	base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

func newDoc(i int, saleID string, at time.Time) *entity.DTE {
	return entity.NewDTE(fmt.Sprintf("id-%d", i), fmt.Sprintf("N%03d", i), "01",
		entity.Party{TaxID: "1", Name: "E"}, entity.Party{TaxID: "2", Name: "R"},
		saleID, entity.NewTotals(decimal.NewFromInt(10), decimal.NewFromInt(1)), at)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consecutivo
// ──────────────────────────────────────────────────────────────────────────────

func TestNextSequence_ConcurrenteSinRepetidos(t *testing.T) {
	r := memory.NewDTERepository()
	const n = 100
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.NextSequence(ctx)
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
	assert.True(t, seen[1])
	assert.True(t, seen[n])
}

// ──────────────────────────────────────────────────────────────────────────────
// Create / Update / GetByID
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_Duplicados(t *testing.T) {
	r := memory.NewDTERepository()
	require.NoError(t, r.Create(ctx, newDoc(1, "s1", base)))

	err := r.Create(ctx, newDoc(1, "s9", base))
	assert.ErrorIs(t, err, domain.ErrDuplicate, "mismo id")

	dup := newDoc(2, "s9", base)
	dup.DocumentNumber = "N001"
	err = r.Create(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicate, "mismo número")
}

func TestCreate_UnDTEActivoPorVenta(t *testing.T) {
	r := memory.NewDTERepository()
	first := newDoc(1, "s1", base)
	require.NoError(t, r.Create(ctx, first))

	err := r.Create(ctx, newDoc(2, "s1", base))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, first.Void("motivo", "", base))
	require.NoError(t, r.Update(ctx, first))
	assert.NoError(t, r.Create(ctx, newDoc(3, "s1", base)), "tras anular se puede volver a facturar")
}

func TestGetByID_DevuelveCopias(t *testing.T) {
	r := memory.NewDTERepository()
	d := newDoc(1, "s1", base)
	d.Files.XML = &entity.GeneratedFile{Content: []byte("<a/>"), Hash: "h"}
	require.NoError(t, r.Create(ctx, d))

	d.Files.XML.Content[0] = 'X'
	got, err := r.GetByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "<a/>", string(got.Files.XML.Content))

	got.DocumentNumber = "otro"
	again, _ := r.GetByID(ctx, "id-1")
	assert.Equal(t, "N001", again.DocumentNumber)

	missing, err := r.GetByID(ctx, "nada")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdate_NoExiste(t *testing.T) {
	r := memory.NewDTERepository()
	err := r.Update(ctx, newDoc(1, "s1", base))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// List
// ──────────────────────────────────────────────────────────────────────────────

func seedList(t *testing.T) *memory.DTERepo {
	t.Helper()
	r := memory.NewDTERepository()
	for i := 1; i <= 5; i++ {
		d := newDoc(i, fmt.Sprintf("s%d", i), base.Add(time.Duration(i)*24*time.Hour))
		if i%2 == 0 {
			d.DocumentType = "03"
		}
		require.NoError(t, r.Create(ctx, d))
	}
	return r
}

func TestList_OrdenYPaginacion(t *testing.T) {
	r := seedList(t)

	items, total, err := r.List(ctx, repository.DTEFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, "N004", items[0].DocumentNumber)
	assert.Equal(t, "N003", items[1].DocumentNumber)

	items, total, err = r.List(ctx, repository.DTEFilter{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, items)
}

func TestList_Filtros(t *testing.T) {
	r := seedList(t)

	items, total, err := r.List(ctx, repository.DTEFilter{DocumentType: "03"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "N004", items[0].DocumentNumber)

	from := base.Add(2 * 24 * time.Hour)
	to := base.Add(4 * 24 * time.Hour)
	_, total, err = r.List(ctx, repository.DTEFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	d, _ := r.GetByID(ctx, "id-1")
	require.NoError(t, d.Void("motivo", "", base))
	require.NoError(t, r.Update(ctx, d))
	items, total, err = r.List(ctx, repository.DTEFilter{Status: entity.DTEStatusVoided})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "id-1", items[0].ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas y datos de demostración
// ──────────────────────────────────────────────────────────────────────────────

func TestSaleRepo_UpdateInvoicingSoloCamposDeFacturacion(t *testing.T) {
	sales := memory.NewSaleRepository()
	customers := memory.NewCustomerRepository()
	users := memory.NewUserRepository()
	memory.SeedDemo(sales, customers, users, base)

	s, err := sales.GetByID(ctx, memory.DemoSaleID)
	require.NoError(t, err)
	s.MarkInvoiced("N1", base)
	s.Total = decimal.NewFromInt(1)
	require.NoError(t, sales.UpdateInvoicing(ctx, s))

	got, _ := sales.GetByID(ctx, memory.DemoSaleID)
	assert.True(t, got.Invoiced)
	assert.Equal(t, "N1", got.InvoiceNumber)
	assert.Equal(t, "226", got.Total.String())

	err = sales.UpdateInvoicing(ctx, &entity.Sale{ID: "nada"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c, _ := customers.GetByID(ctx, memory.DemoCustomerID)
	assert.True(t, c.HasTaxData())
	u, _ := users.GetByID(ctx, memory.DemoSellerID)
	assert.Equal(t, entity.RoleVendedor, u.Role)
}
