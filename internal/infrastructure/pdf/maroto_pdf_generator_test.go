package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/pdf"
)

func sampleDTE() *entity.DTE {
	at := time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)
	return entity.NewDTE("id-1", "20260300000001", "01",
		entity.Party{TaxID: "12345678-9", Name: "Empresa Demo", Address: "San Salvador"},
		entity.Party{TaxID: "0614-1", Name: "Cliente Demo"},
		"sale-1", entity.NewTotals(decimal.RequireFromString("40"), decimal.RequireFromString("5.20")), at)
}

func TestGenerateDTE_SinFirma(t *testing.T) {
	out, err := pdf.NewMarotoPDFGenerator().GenerateDTE(context.Background(), sampleDTE())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateDTE_FirmadoYAnulado(t *testing.T) {
	d := sampleDTE()
	require.NoError(t, d.ApplySignature(&entity.SignatureBundle{
		SignatureID:    "SIG-1-ABCD",
		ValidationCode: "ABCDEF0123456789",
		ContentHash:    "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		SignedAt:       d.CreatedAt,
		Status:         entity.OutcomeAccepted,
		Certificate:    entity.Certificate{SubjectDN: "CN=Empresa Demo"},
	}, d.CreatedAt))
	require.NoError(t, d.Void("error", "", d.CreatedAt))

	out, err := pdf.NewMarotoPDFGenerator().GenerateDTE(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateDTE_Nil(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator().GenerateDTE(context.Background(), nil)
	assert.Error(t, err)
}
