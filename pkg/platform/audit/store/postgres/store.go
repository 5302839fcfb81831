package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "batchledger/pkg/platform/audit"
)

// Store persists audit events in the audit_events table. Inserts are
// idempotent on event id so a replaying consumer can materialize safely.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	id := event.ID
	if id == "" {
		id = uuid.NewString()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, subject, actor_id,
			height, reason, request_id, client_ip, client_kind
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		id,
		string(category),
		event.Timestamp,
		event.Action,
		event.Subject,
		event.ActorID,
		int64(event.Height),
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.ClientKind,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns events about subject, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query := `
		SELECT id, category, timestamp, action, subject, actor_id,
			   height, reason, request_id, client_ip, client_kind
		FROM audit_events
		WHERE subject = $1
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
			height   int64
		)
		if err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&event.Action,
			&event.Subject,
			&event.ActorID,
			&height,
			&event.Reason,
			&event.RequestID,
			&event.ClientIP,
			&event.ClientKind,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Height = uint64(height)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
