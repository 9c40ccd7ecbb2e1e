package dte

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoreThanOneHundred frase fija para montos enteros >= 100.
// La conversión solo cubre 0–99; es una limitación conocida y se conserva así.
const MoreThanOneHundred = "más de cien"

var units = [...]string{
	"cero", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve",
	"diez", "once", "doce", "trece", "catorce", "quince", "dieciséis", "diecisiete", "dieciocho", "diecinueve",
	"veinte", "veintiuno", "veintidós", "veintitrés", "veinticuatro", "veinticinco", "veintiséis", "veintisiete", "veintiocho", "veintinueve",
}

var tens = [...]string{"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa"}

// AmountInWords convierte un monto a letras: "<entero> dólares con NN/100 centavos".
func AmountInWords(amount decimal.Decimal) string {
	a := amount.Abs().Round(2)
	integer := a.Truncate(0)
	cents := a.Sub(integer).Mul(decimal.NewFromInt(100)).IntPart()
	return fmt.Sprintf("%s dólares con %02d/100 centavos", integerWords(integer.IntPart()), cents)
}

func integerWords(n int64) string {
	switch {
	case n >= 100:
		return MoreThanOneHundred
	case n < 30:
		return units[n]
	case n%10 == 0:
		return tens[n/10]
	default:
		return tens[n/10] + " y " + units[n%10]
	}
}
