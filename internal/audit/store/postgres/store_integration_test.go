//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kiosk/internal/audit"
	"kiosk/internal/audit/store/postgres"
	"kiosk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *PostgresStoreSuite) TestAppendAndListByRecord() {
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	recordID := uuid.NewString()

	granted := audit.Event{
		ID:            uuid.New(),
		Timestamp:     base,
		Action:        audit.EventConsentGranted,
		RecordID:      recordID,
		SubjectIDHash: "hash",
		KioskID:       "lobby-1",
	}
	submitted := audit.Event{
		ID:        uuid.New(),
		Timestamp: base.Add(time.Minute),
		Action:    audit.EventSubmissionSucceeded,
		RecordID:  recordID,
		RequestID: "req-1",
	}
	s.Require().NoError(s.store.Append(ctx, submitted))
	s.Require().NoError(s.store.Append(ctx, granted))

	events, err := s.store.ListByRecord(ctx, recordID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.EventConsentGranted, events[0].Action)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.Equal("lobby-1", events[0].KioskID)
	s.Equal("req-1", events[1].RequestID)
}

func (s *PostgresStoreSuite) TestAppendIsIdempotent() {
	ctx := context.Background()
	event := audit.Event{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Action:    audit.EventCaptureFailed,
		RecordID:  "rec",
	}
	s.Require().NoError(s.store.Append(ctx, event))
	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListRecent(ctx, 0)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *PostgresStoreSuite) TestListRecentNewestFirst() {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := range 5 {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Action:    audit.EventCaptureCompleted,
			Reason:    string(rune('a' + i)),
		}))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("e", events[0].Reason)
	s.Equal("d", events[1].Reason)
}

func (s *PostgresStoreSuite) TestListRecentFiltersByAction() {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	actions := []audit.AuditEvent{
		audit.EventSubmissionSucceeded,
		audit.EventCaptureCompleted,
		audit.EventSubmissionSucceeded,
	}
	for i, a := range actions {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Action:    a,
			RecordID:  string(rune('a' + i)),
		}))
	}

	events, err := s.store.ListRecent(ctx, 0, audit.EventSubmissionSucceeded)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("c", events[0].RecordID)
	s.Equal("a", events[1].RecordID)
}
