package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kiosk/internal/audit"
)

// Store implements audit.Store on SQLite.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `
	SELECT id, category, timestamp_ms, action, record_id, session_id,
	       subject_id_hash, decision, reason, request_id, kiosk_id
	FROM audit_events`

// Append inserts an event. Re-appending the same id is a no-op.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, category, timestamp_ms, action, record_id, session_id,
			subject_id_hash, decision, reason, request_id, kiosk_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		event.ID.String(),
		string(event.Category),
		event.Timestamp.UTC().UnixMilli(),
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

// ListByRecord returns the events of one record, oldest first.
func (s *Store) ListByRecord(ctx context.Context, recordID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE record_id = ?
		ORDER BY timestamp_ms ASC`, recordID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events (all when limit <= 0),
// restricted to actions when any are given.
func (s *Store) ListRecent(ctx context.Context, limit int, actions ...audit.AuditEvent) ([]audit.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	var (
		where string
		args  []any
	)
	if len(actions) > 0 {
		where = `WHERE action IN (?` + strings.Repeat(`, ?`, len(actions)-1) + `)`
		for _, a := range actions {
			args = append(args, string(a))
		}
	}
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		`+where+`
		ORDER BY timestamp_ms DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e        audit.Event
			id       string
			category string
			action   string
			tsMillis int64
		)
		if err := rows.Scan(&id, &category, &tsMillis, &action, &e.RecordID, &e.SessionID,
			&e.SubjectIDHash, &e.Decision, &e.Reason, &e.RequestID, &e.KioskID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse audit event id: %w", err)
		}
		e.ID = parsed
		e.Category = audit.EventCategory(category)
		e.Action = audit.AuditEvent(action)
		e.Timestamp = time.UnixMilli(tsMillis).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
