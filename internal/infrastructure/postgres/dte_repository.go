package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-dte/internal/domain"
	"github.com/jhoicas/facturacion-dte/internal/domain/entity"
	"github.com/jhoicas/facturacion-dte/internal/domain/repository"
)

var _ repository.DTERepository = (*DTERepo)(nil)

// dteSequenceName fila única del consecutivo global de DTE.
const dteSequenceName = "dte"

// DTERepo implementación de DTERepository (usable con pool o tx).
type DTERepo struct {
	q Querier
}

// NewDTERepository construye el adaptador. Pasar pool o tx (Querier).
func NewDTERepository(q Querier) *DTERepo {
	return &DTERepo{q: q}
}

const dteColumns = `id, numero_dte, tipo_dte,
	emisor_nit, emisor_nombre, emisor_direccion,
	receptor_nit, receptor_nombre, receptor_direccion,
	sale_id, subtotal, impuesto, total, estado, firma,
	xml_content, xml_hash, xml_ruta, pdf_content, pdf_hash, pdf_ruta,
	envio_enviado, envio_fecha, envio_email, envio_intentos,
	anulacion_fecha, anulacion_motivo, anulacion_nota_credito,
	created_at, updated_at`

// NextSequence upsert atómico: dos llamadas concurrentes nunca reciben el mismo valor.
func (r *DTERepo) NextSequence(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO dte_sequences (name, last_value, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (name) DO UPDATE
		SET last_value = dte_sequences.last_value + 1,
		    updated_at = NOW()
		RETURNING last_value`
	var next int64
	if err := r.q.QueryRow(ctx, query, dteSequenceName).Scan(&next); err != nil {
		return 0, fmt.Errorf("next dte sequence: %w", err)
	}
	return next, nil
}

// Create persiste el DTE completo.
func (r *DTERepo) Create(ctx context.Context, d *entity.DTE) error {
	xmlContent, xmlHash, xmlPath := fileColumns(d.Files.XML)
	pdfContent, pdfHash, pdfPath := fileColumns(d.Files.PDF)
	query := `INSERT INTO dtes (` + dteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.DocumentNumber, d.DocumentType,
		d.Issuer.TaxID, d.Issuer.Name, d.Issuer.Address,
		d.Recipient.TaxID, d.Recipient.Name, d.Recipient.Address,
		d.SaleID, d.Totals.Subtotal, d.Totals.Tax, d.Totals.Total, string(d.Status()), d.Signature,
		xmlContent, xmlHash, xmlPath, pdfContent, pdfHash, pdfPath,
		d.Delivery.Sent, d.Delivery.SentAt, nullIfEmpty(d.Delivery.RecipientEmail), d.Delivery.Attempts,
		d.VoidInfo.VoidedAt, nullIfEmpty(d.VoidInfo.Reason), nullIfEmpty(d.VoidInfo.CreditNoteNumber),
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: DTE %s (número o venta ya facturada)", domain.ErrDuplicate, d.DocumentNumber)
		}
		return fmt.Errorf("insert dte: %w", err)
	}
	return nil
}

// Update reescribe estado, firma, artefactos, envío y anulación.
func (r *DTERepo) Update(ctx context.Context, d *entity.DTE) error {
	xmlContent, xmlHash, xmlPath := fileColumns(d.Files.XML)
	pdfContent, pdfHash, pdfPath := fileColumns(d.Files.PDF)
	query := `
		UPDATE dtes
		SET estado                 = $2,
		    firma                  = $3,
		    xml_content            = $4,
		    xml_hash               = $5,
		    xml_ruta               = $6,
		    pdf_content            = $7,
		    pdf_hash               = $8,
		    pdf_ruta               = $9,
		    envio_enviado          = $10,
		    envio_fecha            = $11,
		    envio_email            = $12,
		    envio_intentos         = $13,
		    anulacion_fecha        = $14,
		    anulacion_motivo       = $15,
		    anulacion_nota_credito = $16,
		    updated_at             = $17
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		d.ID, string(d.Status()), d.Signature,
		xmlContent, xmlHash, xmlPath, pdfContent, pdfHash, pdfPath,
		d.Delivery.Sent, d.Delivery.SentAt, nullIfEmpty(d.Delivery.RecipientEmail), d.Delivery.Attempts,
		d.VoidInfo.VoidedAt, nullIfEmpty(d.VoidInfo.Reason), nullIfEmpty(d.VoidInfo.CreditNoteNumber),
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update dte: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: DTE %s", domain.ErrNotFound, d.ID)
	}
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *DTERepo) GetByID(ctx context.Context, id string) (*entity.DTE, error) {
	query := `SELECT ` + dteColumns + ` FROM dtes WHERE id = $1`
	d, err := scanDTE(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dte: %w", err)
	}
	return d, nil
}

// List filtra por estado, tipo y rango de creación; más recientes primero.
func (r *DTERepo) List(ctx context.Context, f repository.DTEFilter) ([]*entity.DTE, int, error) {
	where, args := buildDTEWhere(f)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM dtes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count dtes: %w", err)
	}

	query := `SELECT ` + dteColumns + ` FROM dtes` + where + ` ORDER BY created_at DESC, numero_dte DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list dtes: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.DTE, 0)
	for rows.Next() {
		d, err := scanDTE(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan dte: %w", err)
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func buildDTEWhere(f repository.DTEFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("estado = $%d", string(f.Status))
	}
	if f.DocumentType != "" {
		add("tipo_dte = $%d", f.DocumentType)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanDTE(row scanner) (*entity.DTE, error) {
	var (
		d                          entity.DTE
		status                     string
		sig                        *entity.SignatureBundle
		subtotal, tax, total       decimal.Decimal
		xmlContent, pdfContent     []byte
		xmlHash, xmlPath           *string
		pdfHash, pdfPath           *string
		sentAt, voidedAt           *time.Time
		email, reason, creditNote  *string
	)
	err := row.Scan(
		&d.ID, &d.DocumentNumber, &d.DocumentType,
		&d.Issuer.TaxID, &d.Issuer.Name, &d.Issuer.Address,
		&d.Recipient.TaxID, &d.Recipient.Name, &d.Recipient.Address,
		&d.SaleID, &subtotal, &tax, &total, &status, &sig,
		&xmlContent, &xmlHash, &xmlPath, &pdfContent, &pdfHash, &pdfPath,
		&d.Delivery.Sent, &sentAt, &email, &d.Delivery.Attempts,
		&voidedAt, &reason, &creditNote,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Totals = entity.Totals{Subtotal: subtotal, Tax: tax, Total: total}
	d.RestoreStatus(entity.DTEStatus(status))
	d.Signature = sig
	d.Files.XML = toFile(xmlContent, xmlHash, xmlPath)
	d.Files.PDF = toFile(pdfContent, pdfHash, pdfPath)
	d.Delivery.SentAt = sentAt
	d.Delivery.RecipientEmail = derefString(email)
	d.VoidInfo = entity.VoidInfo{VoidedAt: voidedAt, Reason: derefString(reason), CreditNoteNumber: derefString(creditNote)}
	return &d, nil
}

func fileColumns(f *entity.GeneratedFile) (content []byte, hash, path *string) {
	if f == nil {
		return nil, nil, nil
	}
	return f.Content, nullIfEmpty(f.Hash), nullIfEmpty(f.Path)
}

func toFile(content []byte, hash, path *string) *entity.GeneratedFile {
	if content == nil && hash == nil {
		return nil
	}
	return &entity.GeneratedFile{Content: content, Hash: derefString(hash), Path: derefString(path)}
}
