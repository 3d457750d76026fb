package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "invoicer/internal/core/context"
	"invoicer/internal/core/id"
)

// AuditAction represents the type of audited operation.
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which changes are stored zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

// AuditEntry is one row of sys_audit.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	OwnerID           id.ID           `db:"owner_id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            AuditAction     `db:"action"`
	UserID            string          `db:"user_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService records document creation and removal snapshots.
type AuditService struct {
	txManager         *TxManager
	codec             *auditCodec
	compressThreshold int
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	codec, err := newAuditCodec()
	if err != nil {
		return nil, err
	}
	return &AuditService{
		txManager:         txManager,
		codec:             codec,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Log inserts entry, inside the context transaction when present.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if entry.UserID == "" {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if id.IsNil(entry.OwnerID) {
		if ownerID, ok := appctx.GetOwnerID(ctx); ok {
			entry.OwnerID = ownerID
		}
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo = s.codec.pack(entry.Changes, s.compressThreshold)

	const sql = `
		INSERT INTO sys_audit (
			id, owner_id, entity_type, entity_id, action, user_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.OwnerID, entry.EntityType, entry.EntityID, entry.Action, entry.UserID,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Record marshals snapshot and logs it for the entity.
func (s *AuditService) Record(ctx context.Context, entityType string, entityID id.ID, action AuditAction, snapshot any) error {
	changes, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}
	return s.Log(ctx, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
	})
}

// RecordCreate logs a created entity.
func (s *AuditService) RecordCreate(ctx context.Context, entityType string, entityID id.ID, snapshot any) error {
	return s.Record(ctx, entityType, entityID, AuditActionCreate, snapshot)
}

// RecordDelete logs a deleted entity.
func (s *AuditService) RecordDelete(ctx context.Context, entityType string, entityID id.ID, snapshot any) error {
	return s.Record(ctx, entityType, entityID, AuditActionDelete, snapshot)
}

// GetEntityHistory returns the newest entries for an entity, decompressed.
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	const sql = `
		SELECT id, owner_id, entity_type, entity_id, action, user_id,
			   changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID, &e.OwnerID, &e.EntityType, &e.EntityID, &e.Action, &e.UserID,
			&e.Changes, &e.ChangesCompressed, &e.CompressionAlgo, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Changes, err = s.codec.unpack(e.Changes, e.ChangesCompressed, e.CompressionAlgo); err != nil {
			return nil, err
		}
		e.ChangesCompressed = nil
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type auditCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newAuditCodec() (*auditCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &auditCodec{encoder: encoder, decoder: decoder}, nil
}

// pack compresses changes larger than threshold.
func (c *auditCodec) pack(changes json.RawMessage, threshold int) (json.RawMessage, []byte, CompressionAlgo) {
	if len(changes) <= threshold {
		return changes, nil, CompressionNone
	}
	return nil, c.encoder.EncodeAll(changes, nil), CompressionZstd
}

func (c *auditCodec) unpack(changes json.RawMessage, compressed []byte, algo CompressionAlgo) (json.RawMessage, error) {
	if algo != CompressionZstd || len(compressed) == 0 {
		return changes, nil
	}
	out, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress changes: %w", err)
	}
	return out, nil
}
