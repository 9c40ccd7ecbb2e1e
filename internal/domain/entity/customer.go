package entity

import "time"

// Customer representa un cliente (receptor del DTE).
type Customer struct {
	ID        string
	Name      string
	TaxID     string // NIT del receptor
	Email     string
	Phone     string
	Address   Address
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTaxData indica si el cliente tiene los datos mínimos para figurar como receptor.
func (c *Customer) HasTaxData() bool {
	return c != nil && c.TaxID != "" && c.Name != ""
}
