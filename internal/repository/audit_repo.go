package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/domain/order"
)

// AuditLogRepository is the optional higher-level audit collaborator, backed
// by the audit_logs table. It is deliberately independent of the transition
// log: disabling it must not affect the engine's own trail.
type AuditLogRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewAuditLogRepository(db *DB, logger *zap.Logger) *AuditLogRepository {
	return &AuditLogRepository{db: db, logger: logger}
}

func (r *AuditLogRepository) Log(ctx context.Context, actor *order.Actor, action, target string, metadata map[string]any) error {
	query := `
		INSERT INTO audit_logs (actor_id, actor_role, action, target, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var actorID, actorRole any
	if actor != nil {
		actorID = actor.ID.String()
		actorRole = string(actor.Role)
	}

	payload, err := marshalMetadata(metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	_, err = r.db.querier(ctx).ExecContext(ctx, query,
		actorID, actorRole, action, target, payload, time.Now().UTC())
	if err != nil {
		r.logger.Error("failed to write audit log", zap.String("target", target), zap.Error(err))
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// ListByTarget returns audit entries for a target, newest first.
func (r *AuditLogRepository) ListByTarget(ctx context.Context, target string) ([]port.AuditEntry, error) {
	query := `
		SELECT id, actor_id, actor_role, action, target, metadata, created_at
		FROM audit_logs
		WHERE target = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.querier(ctx).QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []port.AuditEntry
	for rows.Next() {
		var (
			e        port.AuditEntry
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.Target, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log entry: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ port.AuditLogger = (*AuditLogRepository)(nil)
var _ port.AuditReader = (*AuditLogRepository)(nil)
