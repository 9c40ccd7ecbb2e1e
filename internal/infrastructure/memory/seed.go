package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// IDs de los datos de demostración.
const (
	DemoSellerID   = "00000000-0000-0000-0000-0000000000a1"
	DemoCustomerID = "00000000-0000-0000-0000-0000000000c1"
	DemoSaleID     = "00000000-0000-0000-0000-0000000000f1"
)

// DemoData vendedor, cliente y venta completada de demostración.
type DemoData struct {
	Seller   *entity.User
	Customer *entity.Customer
	Sale     *entity.Sale
}

// SeedDemo carga los datos de demostración (modo desarrollo).
func SeedDemo(sales *SaleRepo, customers *CustomerRepo, users *UserRepo, now time.Time) {
	d := NewDemoData(now)
	users.Save(d.Seller)
	customers.Save(d.Customer)
	sales.Save(d.Sale)
}

// NewDemoData construye los datos de demostración con fechas now.
func NewDemoData(now time.Time) DemoData {
	var d DemoData
	d.Seller = &entity.User{
		ID:           DemoSellerID,
		Email:        "ventas@empresademo.com.sv",
		Name:         "Vendedor Demo",
		BusinessName: "Empresa Demo S.A. de C.V.",
		TaxID:        "12345678-9",
		Address:      entity.Address{Street: "Av. Las Magnolias 123", City: "San Salvador"},
		Role:         entity.RoleVendedor,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.Customer = &entity.Customer{
		ID:        DemoCustomerID,
		Name:      "Cliente Demo",
		TaxID:     "0614-010190-101-1",
		Email:     "cliente@example.com",
		Address:   entity.Address{Street: "Calle El Mirador 45", City: "Santa Tecla"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.Sale = &entity.Sale{
		ID:         DemoSaleID,
		CustomerID: DemoCustomerID,
		SellerID:   DemoSellerID,
		Subtotal:   decimal.RequireFromString("200.00"),
		TaxTotal:   decimal.RequireFromString("26.00"),
		Total:      decimal.RequireFromString("226.00"),
		Status:     entity.SaleStatusCompleted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return d
}
