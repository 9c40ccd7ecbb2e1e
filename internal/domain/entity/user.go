package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"
	RoleVendedor = "vendedor"
)

// User representa un usuario del sistema; como vendedor actúa de emisor del DTE.
type User struct {
	ID           string
	Email        string
	Name         string
	BusinessName string // Razón social (opcional)
	TaxID        string // DUI/NIT del emisor
	Address      Address
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IssuerName razón social si existe, si no el nombre.
func (u *User) IssuerName() string {
	if u.BusinessName != "" {
		return u.BusinessName
	}
	return u.Name
}
