package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDocumentNotFound is returned when no document has the requested id.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore loads documents with their line items and writes them back.
type DocumentStore interface {
	// GetDocument returns the document and its line items ordered by order_index.
	// Stored line items are passed through the sanitizer again on load.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// SaveDocument persists the header, breakdown, status and audit trail.
	// When replaceItems is set all line items are deleted and re-inserted in
	// the same transaction.
	SaveDocument(ctx context.Context, d *Document, replaceItems bool) error
}

type documentStore struct {
	pool      *pgxpool.Pool
	sanitizer Sanitizer
}

// NewDocumentStore constructs a DocumentStore backed by PostgreSQL.
func NewDocumentStore(pool *pgxpool.Pool, sanitizer Sanitizer) DocumentStore {
	return &documentStore{pool: pool, sanitizer: sanitizer}
}

// GetDocument returns a document by id.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	d := &Document{}
	var (
		docNumber                                          *string
		header, breakdown, attachments, removed, auditLog []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, doc_type, kind, doc_number, status, header, financial_breakdown,
		       total, amount, advance_payment_deduction, holdback_deduction,
		       attachments, removed_items, audit_log, updated_at
		FROM procurement_documents
		WHERE id = $1`, id,
	).Scan(&d.ID, &d.Type, &d.Kind, &docNumber, &d.Status, &header, &breakdown,
		&d.Total, &d.Amount, &d.AdvancePaymentDeduction, &d.HoldbackDeduction,
		&attachments, &removed, &auditLog, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("fetch document %s: %w", id, err)
	}
	if docNumber != nil {
		d.Number = *docNumber
	}

	d.Header = decodeMap(header)
	d.Breakdown = ParseBreakdown(breakdown)
	if err := decodeList(attachments, &d.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments of document %s: %w", id, err)
	}
	if err := decodeList(removed, &d.RemovedItems); err != nil {
		return nil, fmt.Errorf("decode removed items of document %s: %w", id, err)
	}
	if err := decodeList(auditLog, &d.AuditLog); err != nil {
		return nil, fmt.Errorf("decode audit log of document %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT order_index, payload
		FROM document_line_items
		WHERE document_id = $1
		ORDER BY order_index, id`, id)
	if err != nil {
		return nil, fmt.Errorf("fetch line items of document %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderIndex int
		var payload []byte
		if err := rows.Scan(&orderIndex, &payload); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		raw := decodeMap(payload)
		if d.Kind == Labor {
			d.LaborItems = append(d.LaborItems, s.sanitizer.Labor(raw, orderIndex))
		} else {
			d.MaterialItems = append(d.MaterialItems, s.sanitizer.Material(raw, orderIndex))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line items: %w", err)
	}

	return d, nil
}

// SaveDocument writes d back. The breakdown is always stored as an object.
func (s *documentStore) SaveDocument(ctx context.Context, d *Document, replaceItems bool) error {
	header, err := json.Marshal(nonNilMap(d.Header))
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	breakdown, err := json.Marshal(d.Breakdown)
	if err != nil {
		return fmt.Errorf("encode financial breakdown: %w", err)
	}
	attachments, err := json.Marshal(nonNilSlice(d.Attachments))
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}
	removed, err := json.Marshal(nonNilSlice(d.RemovedItems))
	if err != nil {
		return fmt.Errorf("encode removed items: %w", err)
	}
	auditLog, err := json.Marshal(nonNilSlice(d.AuditLog))
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	updatedAt := d.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	tag, err := tx.Exec(ctx, `
		UPDATE procurement_documents
		SET status = $2, header = $3, financial_breakdown = $4, total = $5, amount = $6,
		    advance_payment_deduction = $7, holdback_deduction = $8,
		    attachments = $9, removed_items = $10, audit_log = $11, updated_at = $12
		WHERE id = $1`,
		d.ID, d.Status, header, breakdown, d.Total, d.Amount,
		d.AdvancePaymentDeduction, d.HoldbackDeduction,
		attachments, removed, auditLog, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document %s: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, d.ID)
	}

	if replaceItems {
		if err := replaceLineItems(ctx, tx, d); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit document %s: %w", d.ID, err)
	}
	return nil
}

func replaceLineItems(ctx context.Context, tx pgx.Tx, d *Document) error {
	if _, err := tx.Exec(ctx, "DELETE FROM document_line_items WHERE document_id = $1", d.ID); err != nil {
		return fmt.Errorf("delete line items of document %s: %w", d.ID, err)
	}

	type row struct {
		uuid       string
		orderIndex int
		payload    any
	}
	var items []row
	if d.Kind == Labor {
		for _, it := range d.LaborItems {
			items = append(items, row{it.UUID, it.OrderIndex, it})
		}
	} else {
		for _, it := range d.MaterialItems {
			items = append(items, row{it.UUID, it.OrderIndex, it})
		}
	}

	for _, it := range items {
		payload, err := json.Marshal(it.payload)
		if err != nil {
			return fmt.Errorf("encode line item %s: %w", it.uuid, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO document_line_items (document_id, item_uuid, order_index, payload)
			VALUES ($1, $2, $3, $4)`,
			d.ID, it.uuid, it.orderIndex, payload,
		); err != nil {
			return fmt.Errorf("insert line item %s: %w", it.uuid, err)
		}
	}
	return nil
}

func decodeMap(data []byte) map[string]any {
	out := map[string]any{}
	if len(data) == 0 {
		return out
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

func decodeList[T any](data []byte, dst *[]T) error {
	if len(data) == 0 || string(data) == "null" {
		*dst = []T{}
		return nil
	}
	return json.Unmarshal(data, dst)
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
