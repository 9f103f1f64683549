// Package postgres ships the kiosk audit trail to a central PostgreSQL
// database shared by every kiosk at a site.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"kiosk/internal/audit"
)

//go:embed schema.sql
var schema string

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store. Call EnsureSchema once at startup.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the audit_events table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Append inserts an event. Idempotent via ON CONFLICT DO NOTHING.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	// The action map is the source of truth for the category.
	category := event.Action.Category()

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, record_id, session_id,
			subject_id_hash, decision, reason, request_id, kiosk_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(category),
		event.Timestamp.UTC(),
		string(event.Action),
		event.RecordID,
		event.SessionID,
		event.SubjectIDHash,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.KioskID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, category, timestamp, action, record_id, session_id,
	       subject_id_hash, decision, reason, request_id, kiosk_id
	FROM audit_events
`

// ListByRecord returns events for one visitor record, oldest first.
func (s *Store) ListByRecord(ctx context.Context, recordID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE record_id = $1
		ORDER BY timestamp ASC
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// ListRecent returns the N most recent events. A non-positive limit
// returns everything; actions, when given, restrict the result.
func (s *Store) ListRecent(ctx context.Context, limit int, actions ...audit.AuditEvent) ([]audit.Event, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	var actionArg any
	if len(actions) > 0 {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = string(a)
		}
		actionArg = pq.Array(names)
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE $2::text[] IS NULL OR action = ANY($2)
		ORDER BY timestamp DESC
		LIMIT $1
	`, limitArg, actionArg)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *Store) scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event    audit.Event
			category string
			action   string
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&action,
			&event.RecordID,
			&event.SessionID,
			&event.SubjectIDHash,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.KioskID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Action = audit.AuditEvent(action)
		event.Timestamp = event.Timestamp.UTC()
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}
