package dte_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/facturacion-dte/internal/domain/dte"
)

func TestAmountInWords(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"0", "cero dólares con 00/100 centavos"},
		{"1", "uno dólares con 00/100 centavos"},
		{"16.5", "dieciséis dólares con 50/100 centavos"},
		{"21", "veintiuno dólares con 00/100 centavos"},
		{"30", "treinta dólares con 00/100 centavos"},
		{"45.07", "cuarenta y cinco dólares con 07/100 centavos"},
		{"99.99", "noventa y nueve dólares con 99/100 centavos"},
		{"100", "más de cien dólares con 00/100 centavos"},
		{"1234.56", "más de cien dólares con 56/100 centavos"},
		{"12.345", "doce dólares con 35/100 centavos"},
		{"-5.5", "cinco dólares con 50/100 centavos"},
	}
	for _, tc := range cases {
		got := dte.AmountInWords(decimal.RequireFromString(tc.amount))
		assert.Equal(t, tc.want, got, tc.amount)
	}
}

func TestDocumentTypes(t *testing.T) {
	assert.True(t, dte.IsValidDocumentType(dte.DefaultDocumentType))
	assert.True(t, dte.IsValidDocumentType("08"))
	assert.False(t, dte.IsValidDocumentType("99"))
	assert.Equal(t, "Factura", dte.DocumentTypeName("01"))
	assert.Equal(t, "99", dte.DocumentTypeName("99"))
}
