// Package pdf genera la representación gráfica del DTE.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + NIT        │  Tipo DTE + N° + Fecha + Estado │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Dirección                                           │
//	│  RECEPTOR: Nombre + NIT + Dirección                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / IVA / TOTAL + total en letras           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FIRMA: ID firma + código de validación + hash + QR          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appbilling "github.com/jhoicas/facturacion-dte/internal/application/billing"
	"github.com/jhoicas/facturacion-dte/internal/domain/dte"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var upperES = cases.Upper(language.Spanish)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.PDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

var _ appbilling.PDFGenerator = (*MarotoPDFGenerator)(nil)

// GenerateDTE genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateDTE(_ context.Context, d *entity.DTE) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("pdf: DTE nil")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("DTE "+d.DocumentNumber, true).
		WithAuthor(d.Issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(d))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partyRow("DATOS DEL EMISOR", d.Issuer))
	m.AddRows(partyRow("RECEPTOR", d.Recipient))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(totalsRow(d.Totals))
	m.AddRows(wordsRow(d.Totals))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range signatureRows(d) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(d *entity.DTE) core.Row {
	statusColor := colorGray
	if d.IsVoided() {
		statusColor = colorAlert
	}
	return row.New(22).Add(
		col.New(7).Add(
			text.New(d.Issuer.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIT: "+d.Issuer.TaxID, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(upperES.String(dte.DocumentTypeName(d.DocumentType)), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(d.DocumentNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+d.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
			text.New("Estado: "+string(d.Status()), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 18, Color: statusColor,
			}),
		),
	)
}

func partyRow(title string, p entity.Party) core.Row {
	return row.New(16).Add(
		col.New(12).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(p.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIT: %s   |   Dirección: %s", p.TaxID, nonEmpty(p.Address, "-")),
				props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func totalsRow(t entity.Totals) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:"),
			text.New("IVA:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 6}),
			text.New("TOTAL A PAGAR:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 12, Color: colorPrimary}),
		),
		col.New(3).Add(
			value("$"+t.Subtotal.StringFixed(2), 0),
			value("$"+t.Tax.StringFixed(2), 6),
			text.New("$"+t.Total.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 1, Top: 12, Color: colorPrimary}),
		),
	)
}

func wordsRow(t entity.Totals) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("SON: "+upperES.String(dte.AmountInWords(t.Total)), props.Text{
			Size: 8, Top: 2, Color: colorGray,
		}),
	))
}

func signatureRows(d *entity.DTE) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("FIRMA ELECTRÓNICA (SIMULADA)", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	if d.Signature == nil {
		return append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Documento sin firma", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}
	s := d.Signature
	rows = append(rows, row.New(40).Add(
		col.New(4).Add(code.NewQr(qrData(d), props.Rect{Percent: 95, Center: true})),
		col.New(8).Add(
			text.New("ID de firma: "+s.SignatureID, props.Text{Size: 8, Top: 2, Left: 3}),
			text.New("Código de validación: "+s.ValidationCode, props.Text{Style: fontstyle.Bold, Size: 8, Top: 7, Left: 3}),
			text.New("Certificado: "+s.Certificate.SubjectDN, props.Text{Size: 7, Top: 12, Left: 3, Color: colorGray}),
			text.New("Firmado: "+s.SignedAt.Format("02/01/2006 15:04:05")+" UTC", props.Text{Size: 7, Top: 17, Left: 3, Color: colorGray}),
			text.New("Hash: "+strings.Join(splitEvery(s.ContentHash, 32), " "), props.Text{Size: 6.5, Top: 22, Left: 3, Color: colorGray}),
		),
	))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func qrData(d *entity.DTE) string {
	return strings.Join([]string{
		d.DocumentNumber,
		d.CreatedAt.Format("2006-01-02"),
		d.Totals.Total.StringFixed(2),
		d.Signature.ValidationCode,
		d.Signature.ContentHash,
	}, "|")
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
