package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/securebridge/securebridge/internal/model"
)

const securityEventColumns = `id, event_id, event_type, actor_id, actor_type,
	subject, key_id, client_hash, occurred_at, created_at`

// BulkInsertSecurityEvents inserts a batch of audit trail entries.
// Replayed stream messages are skipped via the event_id unique constraint.
func (r *Repository) BulkInsertSecurityEvents(ctx context.Context, events []*model.SecurityEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO security_events (
			id, event_id, event_type, actor_id, actor_type,
			subject, key_id, client_hash, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			string(event.EventType),
			event.ActorID,
			event.ActorType,
			event.Subject,
			event.KeyID,
			event.ClientHash,
			event.OccurredAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert security event: %w", err)
		}
	}

	return nil
}

// ListSecurityEvents returns the most recent audit trail entries.
func (r *Repository) ListSecurityEvents(ctx context.Context, limit, offset int) ([]*model.SecurityEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM security_events
		ORDER BY occurred_at DESC
		LIMIT $1 OFFSET $2
	`, securityEventColumns)

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}
	defer rows.Close()

	return collectSecurityEvents(rows)
}

// ListSecurityEventsByActor returns recent audit trail entries for one actor.
func (r *Repository) ListSecurityEventsByActor(ctx context.Context, actorID int64, limit, offset int) ([]*model.SecurityEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM security_events
		WHERE actor_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3
	`, securityEventColumns)

	rows, err := r.pool.Query(ctx, query, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}
	defer rows.Close()

	return collectSecurityEvents(rows)
}

func collectSecurityEvents(rows pgx.Rows) ([]*model.SecurityEvent, error) {
	var events []*model.SecurityEvent
	for rows.Next() {
		var event model.SecurityEvent
		var eventType string

		if err := rows.Scan(
			&event.ID,
			&event.EventID,
			&eventType,
			&event.ActorID,
			&event.ActorType,
			&event.Subject,
			&event.KeyID,
			&event.ClientHash,
			&event.OccurredAt,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}

		event.EventType = model.EventType(eventType)
		events = append(events, &event)
	}

	return events, rows.Err()
}
