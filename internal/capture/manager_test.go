package capture

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/detector"
	dErrors "kiosk/pkg/domain-errors"
)

func newTestManager(det Detector) (*Manager, *PushSource) {
	src := NewPushSource()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(src, det, WithLogger(logger), WithPacer(immediate)), src
}

func TestManager_OneActiveSession(t *testing.T) {
	m, _ := newTestManager(&scriptedDetector{fn: noFace})
	ctx := context.Background()

	first, err := m.Begin(ctx)
	require.NoError(t, err)

	_, err = m.Begin(ctx)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = m.Still(ctx, pngBytes(solidFrame(4, 4)))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	first.Cancel()
	second, err := m.Begin(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	m.Teardown()
}

func TestManager_TeardownReleasesCamera(t *testing.T) {
	m, src := newTestManager(&scriptedDetector{fn: noFace})

	sess, err := m.Begin(context.Background())
	require.NoError(t, err)
	require.Eventually(t, src.AwaitingPermission, time.Second, time.Millisecond)
	require.NoError(t, src.Decide(true))
	require.Eventually(t, src.Held, time.Second, time.Millisecond)

	m.Teardown()

	assert.Equal(t, PhaseStopped, sess.Phase())
	assert.False(t, src.Held())
	assert.Nil(t, m.Active())
}

func TestManager_FailedStillAllowsRetry(t *testing.T) {
	calls := 0
	det := &scriptedDetector{fn: func(call int) (detector.Result, error) {
		calls = call
		if call == 1 {
			return noFace(call)
		}
		return withFace(call)
	}}
	m, _ := newTestManager(det)
	ctx := context.Background()

	_, err := m.Still(ctx, pngBytes(solidFrame(8, 8)))
	require.True(t, dErrors.HasCode(err, dErrors.CodeNoFaceInImage))
	assert.Nil(t, m.Active())

	blob, err := m.Still(ctx, pngBytes(solidFrame(8, 8)))
	require.NoError(t, err)
	assert.False(t, blob.IsZero())
	assert.Equal(t, 2, calls)
	assert.Equal(t, PhaseStopped, m.Active().Phase())
}
