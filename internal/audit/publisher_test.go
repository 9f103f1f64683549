package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/audit"
	"kiosk/internal/audit/store/memory"
	"kiosk/pkg/platform/sentinel"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		RecordID: "rec-1",
		Action:   audit.EventConsentGranted,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventConsentGranted, events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category, "category derived from action")
	assert.NotEqual(t, [16]byte{}, [16]byte(events[0].ID))
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store, audit.WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			RecordID: "rec-2",
			Action:   audit.EventCaptureCompleted,
		}))
	}

	pub.Close()

	events, err := store.ListByRecord(context.Background(), "rec-2")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store, audit.WithAsyncBuffer(1))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), audit.Event{Action: audit.EventCaptureFailed})
		}()
	}
	wg.Wait()
	pub.Close()

	stored, err := store.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(50), int64(len(stored))+pub.Dropped(), "every event stored or counted as dropped")
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := audit.NewPublisher(memory.NewInMemoryStore(), audit.WithAsyncBuffer(4))
	pub.Close()
	pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Action: audit.EventConsentDeclined})
	assert.ErrorIs(t, err, sentinel.ErrClosed)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)
	defer pub.Close()

	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		RecordID:  "rec-3",
		Action:    audit.EventSubmissionSucceeded,
		Timestamp: custom,
	}))

	events, err := pub.List(context.Background(), "rec-3")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, custom, events[0].Timestamp)
}

func TestPublisher_RecentNewestFirst(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)
	defer pub.Close()

	base := time.Date(2025, 5, 5, 8, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			Action:    audit.EventCaptureCompleted,
			Reason:    string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := pub.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Reason)
	assert.Equal(t, "b", recent[1].Reason)
}

func TestPublisher_RecentFiltersByAction(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)
	defer pub.Close()

	base := time.Date(2025, 5, 5, 8, 0, 0, 0, time.UTC)
	actions := []audit.AuditEvent{
		audit.EventConsentGranted,
		audit.EventSubmissionSucceeded,
		audit.EventCaptureCompleted,
		audit.EventSubmissionSucceeded,
	}
	for i, a := range actions {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			Action:    a,
			RecordID:  string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	visits, err := pub.Recent(context.Background(), 10, audit.EventSubmissionSucceeded)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "d", visits[0].RecordID)
	assert.Equal(t, "b", visits[1].RecordID)

	one, err := pub.Recent(context.Background(), 1, audit.EventSubmissionSucceeded)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "d", one[0].RecordID)
}

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, audit.CategoryCompliance, audit.EventSubmissionSucceeded.Category())
	assert.Equal(t, audit.CategoryOperations, audit.EventSubmissionUnavailable.Category())
	assert.Equal(t, audit.CategoryOperations, audit.AuditEvent("unknown").Category())
}
