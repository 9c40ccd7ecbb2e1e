package entity

import "strings"

// DefaultAddress se usa cuando una parte no tiene dirección registrada.
const DefaultAddress = "Dirección no especificada"

// Address dirección postal simple.
type Address struct {
	Street string
	City   string
}

// Line devuelve "calle, ciudad" omitiendo partes vacías; DefaultAddress si no hay datos.
func (a Address) Line() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{a.Street, a.City} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return DefaultAddress
	}
	return strings.Join(parts, ", ")
}
