package dte

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
)

// Namespaces del documento.
const (
	NsDTE = "http://www.sat.gob.sv/dte/fel/0.1.0"
	NsDs  = "http://www.w3.org/2000/09/xmldsig#"
)

// XMLVersion versión del esquema del documento.
const XMLVersion = "1.0"

// SignaturePlaceholder valor de los campos de firma mientras el DTE no está firmado.
const SignaturePlaceholder = "PENDIENTE"

// Render genera el XML del DTE. Es función pura de los campos: sin firma deja
// marcadores PENDIENTE; con firma los reemplaza por los datos del SignatureBundle.
func Render(d *entity.DTE) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("dte: documento nil")
	}
	skeleton, err := buildSkeleton(d)
	if err != nil {
		return nil, err
	}
	if d.Signature == nil {
		return skeleton, nil
	}
	return injectSignature(skeleton, d.Signature)
}

func buildSkeleton(d *entity.DTE) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if err := enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}); err != nil {
		return nil, err
	}
	root := xml.StartElement{
		Name: xml.Name{Local: "dte:DTE"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:dte"}, Value: NsDTE},
			{Name: xml.Name{Local: "Id"}, Value: "DTE-" + d.DocumentNumber},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	created := d.CreatedAt.UTC()
	openDte(enc, "Encabezado")
	writeDte(enc, "Version", XMLVersion)
	writeDte(enc, "TipoDTE", d.DocumentType)
	writeDte(enc, "NombreTipoDTE", DocumentTypeName(d.DocumentType))
	writeDte(enc, "NumeroDTE", d.DocumentNumber)
	writeDte(enc, "FechaEmision", created.Format("2006-01-02"))
	writeDte(enc, "HoraEmision", created.Format("15:04:05"))
	writeDte(enc, "FechaActualizacion", d.UpdatedAt.UTC().Format(time.RFC3339))
	writeDte(enc, "Moneda", "USD")
	closeDte(enc, "Encabezado")

	writeParty(enc, "Emisor", d.Issuer)
	writeParty(enc, "Receptor", d.Recipient)

	openDte(enc, "Totales")
	writeDte(enc, "SubTotal", formatAmount(d.Totals.Subtotal))
	writeDte(enc, "IVA", formatAmount(d.Totals.Tax))
	writeDte(enc, "GranTotal", formatAmount(d.Totals.Total))
	writeDte(enc, "TotalEnLetras", AmountInWords(d.Totals.Total))
	closeDte(enc, "Totales")

	writeDte(enc, "Estado", string(d.Status()))

	// Bloque de firma con marcadores; injectSignature los reemplaza.
	sig := xml.StartElement{
		Name: xml.Name{Local: "dte:Signature"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: NsDs}},
	}
	_ = enc.EncodeToken(sig)
	for _, tag := range signatureFields {
		writePlain(enc, tag, SignaturePlaceholder)
	}
	_ = enc.EncodeToken(sig.End())

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// signatureFields hijos del bloque de firma, en orden.
var signatureFields = []string{
	"SignatureId", "SignatureMethod", "SigningTime", "DigestValue", "SignatureValue",
	"X509SubjectName", "X509IssuerName", "X509SerialNumber", "ValidationCode",
}

func signatureValues(b *entity.SignatureBundle) map[string]string {
	return map[string]string{
		"SignatureId":      b.SignatureID,
		"SignatureMethod":  b.Algorithm,
		"SigningTime":      b.SignedAt.UTC().Format(time.RFC3339Nano),
		"DigestValue":      b.ContentHash,
		"SignatureValue":   b.SignatureValue,
		"X509SubjectName":  b.Certificate.SubjectDN,
		"X509IssuerName":   b.Certificate.IssuerDN,
		"X509SerialNumber": b.Certificate.SerialNumber,
		"ValidationCode":   b.ValidationCode,
	}
}

func injectSignature(xmlBytes []byte, b *entity.SignatureBundle) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("dte: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("dte: documento sin raíz")
	}
	var sigEl *etree.Element
	for _, child := range root.ChildElements() {
		if child.FullTag() == "dte:Signature" {
			sigEl = child
			break
		}
	}
	if sigEl == nil {
		return nil, fmt.Errorf("dte: no se encontró dte:Signature")
	}
	values := signatureValues(b)
	for _, el := range sigEl.ChildElements() {
		if v, ok := values[el.Tag]; ok {
			el.SetText(v)
		}
	}
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("dte: serializar XML: %w", err)
	}
	return out.Bytes(), nil
}

// ContentHash SHA-256 (hex) del XML canonicalizado (C14N).
func ContentHash(xmlBytes []byte) (string, error) {
	canonical, err := canonicalizeXML(xmlBytes)
	if err != nil {
		return "", fmt.Errorf("dte: canonicalizar XML: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func writeParty(enc *xml.Encoder, block string, p entity.Party) {
	openDte(enc, block)
	writeDte(enc, "NIT", p.TaxID)
	writeDte(enc, "Nombre", p.Name)
	writeDte(enc, "Direccion", p.Address)
	closeDte(enc, block)
}

func openDte(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "dte:" + local}})
}

func closeDte(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "dte:" + local}})
}

func writeDte(enc *xml.Encoder, local, value string) {
	openDte(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	closeDte(enc, local)
}

func writePlain(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
