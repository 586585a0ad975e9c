package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
)

// AuditEntry is one recorded posting. Large change payloads are stored
// zstd-compressed.
type AuditEntry struct {
	ID              id.ID           `db:"id"`
	DocumentType    string          `db:"document_type"`
	DocumentNumber  string          `db:"document_number"`
	Actor           string          `db:"actor"`
	Payload         json.RawMessage `db:"payload"`
	PayloadZstd     []byte          `db:"payload_zstd"`
	CompressionAlgo string          `db:"compression_algo"`
	CreatedAt       time.Time       `db:"created_at"`
}

const (
	compressionNone = "none"
	compressionZstd = "zstd"
)

// AuditStore records posting audit entries. It joins the ambient
// transaction, so a rolled-back posting leaves no audit row.
type AuditStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditStore creates an audit store.
func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// RecordPosting stores the posted document's change payload.
func (s *AuditStore) RecordPosting(ctx context.Context, docType, number, actor string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	entry := AuditEntry{
		ID:              id.New(),
		DocumentType:    docType,
		DocumentNumber:  number,
		Actor:           actor,
		Payload:         raw,
		CompressionAlgo: compressionNone,
		CreatedAt:       time.Now().UTC(),
	}

	if len(raw) > s.compressThreshold {
		entry.PayloadZstd = s.encoder.EncodeAll(raw, nil)
		entry.Payload = nil
		entry.CompressionAlgo = compressionZstd
	}

	sql := `
		INSERT INTO sys_audit (
			id, document_type, document_number, actor,
			payload, payload_zstd, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql,
		entry.ID, entry.DocumentType, entry.DocumentNumber, entry.Actor,
		entry.Payload, entry.PayloadZstd, entry.CompressionAlgo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// GetHistory retrieves audit entries for a document number, newest first.
func (s *AuditStore) GetHistory(ctx context.Context, number string, limit int) ([]AuditEntry, error) {
	sql := `
		SELECT id, document_type, document_number, actor,
			   payload, payload_zstd, compression_algo, created_at
		FROM sys_audit
		WHERE document_number = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, number, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.DocumentType, &e.DocumentNumber, &e.Actor,
			&e.Payload, &e.PayloadZstd, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if e.CompressionAlgo == compressionZstd && len(e.PayloadZstd) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.PayloadZstd, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress payload: %w", err)
			}
			e.Payload = decompressed
			e.PayloadZstd = nil
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
