package dte

// DefaultDocumentType Factura.
const DefaultDocumentType = "01"

// DocumentTypes catálogo de tipos de DTE admitidos (código → nombre).
var DocumentTypes = map[string]string{
	"01": "Factura",
	"02": "Factura de Consumidor Final",
	"03": "Comprobante de Crédito Fiscal",
	"04": "Nota de Remisión",
	"05": "Nota de Crédito",
	"06": "Nota de Débito",
	"07": "Comprobante de Retención",
	"08": "Comprobante de Liquidación",
}

// IsValidDocumentType indica si el código pertenece al catálogo.
func IsValidDocumentType(code string) bool {
	_, ok := DocumentTypes[code]
	return ok
}

// DocumentTypeName nombre del tipo o el mismo código si no existe.
func DocumentTypeName(code string) string {
	if n, ok := DocumentTypes[code]; ok {
		return n
	}
	return code
}
