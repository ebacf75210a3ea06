package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "coldstore/internal/core/context"
	"coldstore/internal/core/id"
	"coldstore/internal/domain/posting"
)

// CompressionAlgo specifies how an audit payload is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const auditTable = "cs_audit"

// AuditRecord is a stored posting event.
type AuditRecord struct {
	ID                id.ID               `db:"id"`
	DocumentType      string              `db:"document_type"`
	DocumentID        id.ID               `db:"document_id"`
	Action            posting.AuditAction `db:"action"`
	Operator          string              `db:"operator"`
	RequestID         string              `db:"request_id"`
	Payload           json.RawMessage     `db:"payload"`
	PayloadCompressed []byte              `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo     `db:"compression_algo"`
	CreatedAt         time.Time           `db:"created_at"`
}

// AuditLog writes posting events to cs_audit inside the posting transaction.
// Payloads above the threshold are zstd-compressed.
type AuditLog struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var (
	_ posting.AuditLog    = (*AuditLog)(nil)
	_ posting.AuditReader = (*AuditLog)(nil)
)

// NewAuditLog creates an audit log. threshold <= 0 uses 4KB.
func NewAuditLog(txManager *TxManager, threshold int) (*AuditLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if threshold <= 0 {
		threshold = 4 * 1024
	}
	return &AuditLog{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: threshold,
	}, nil
}

// Record implements posting.AuditLog.
func (a *AuditLog) Record(ctx context.Context, entry posting.AuditEntry) error {
	rec, err := a.encode(ctx, entry)
	if err != nil {
		return err
	}

	sql := `
		INSERT INTO cs_audit (
			id, document_type, document_id, action, operator, request_id,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	querier := a.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql,
		rec.ID, rec.DocumentType, rec.DocumentID, rec.Action,
		rec.Operator, rec.RequestID,
		rec.Payload, rec.PayloadCompressed, rec.CompressionAlgo,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", auditTable, err)
	}
	return nil
}

// encode fills defaults and compresses large payloads.
func (a *AuditLog) encode(ctx context.Context, entry posting.AuditEntry) (AuditRecord, error) {
	rec := AuditRecord{
		ID:              entry.ID,
		DocumentType:    entry.DocumentType,
		DocumentID:      entry.DocumentID,
		Action:          entry.Action,
		Operator:        entry.Operator,
		RequestID:       appctx.RequestID(ctx),
		CompressionAlgo: CompressionNone,
		CreatedAt:       entry.CreatedAt,
	}
	if id.IsNil(rec.ID) {
		rec.ID = id.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if entry.Payload != nil {
		payload, err := json.Marshal(entry.Payload)
		if err != nil {
			return rec, fmt.Errorf("marshal audit payload: %w", err)
		}
		rec.Payload = payload
	}

	if len(rec.Payload) > a.compressThreshold {
		rec.PayloadCompressed = a.encoder.EncodeAll(rec.Payload, nil)
		rec.Payload = nil
		rec.CompressionAlgo = CompressionZstd
	}
	return rec, nil
}

// decode restores a compressed payload in place.
func (a *AuditLog) decode(rec *AuditRecord) error {
	if rec.CompressionAlgo != CompressionZstd || len(rec.PayloadCompressed) == 0 {
		return nil
	}
	payload, err := a.decoder.DecodeAll(rec.PayloadCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress payload: %w", err)
	}
	rec.Payload = payload
	rec.PayloadCompressed = nil
	return nil
}

// Entries implements posting.AuditReader.
func (a *AuditLog) Entries(ctx context.Context, filter posting.AuditFilter) ([]posting.AuditEntry, error) {
	sql, args, err := entriesQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []AuditRecord
	if err := pgxscan.Select(ctx, a.txManager.GetQuerier(ctx), &records, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", auditTable, err)
	}

	entries := make([]posting.AuditEntry, 0, len(records))
	for i := range records {
		r := &records[i]
		if err := a.decode(r); err != nil {
			return nil, err
		}
		entry := posting.AuditEntry{
			ID:           r.ID,
			DocumentType: r.DocumentType,
			DocumentID:   r.DocumentID,
			Action:       r.Action,
			Operator:     r.Operator,
			RequestID:    r.RequestID,
			CreatedAt:    r.CreatedAt,
		}
		if len(r.Payload) > 0 {
			entry.Payload = r.Payload
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func entriesQuery(f posting.AuditFilter) squirrel.SelectBuilder {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "document_type", "document_id", "action", "operator", "request_id",
			"payload", "payload_compressed", "compression_algo", "created_at").
		From(auditTable)
	if f.DocumentType != "" {
		q = q.Where(squirrel.Eq{"document_type": f.DocumentType})
	}
	if f.DocumentID != nil {
		q = q.Where(squirrel.Eq{"document_id": *f.DocumentID})
	}
	if f.Operator != "" {
		q = q.Where(squirrel.Eq{"operator": f.Operator})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.To})
	}
	return q.OrderBy("created_at DESC", "id").Limit(uint64(limit))
}
