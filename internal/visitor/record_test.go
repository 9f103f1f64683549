package visitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/raster"
	dErrors "kiosk/pkg/domain-errors"
)

func TestRecord_Setters(t *testing.T) {
	r := New()
	require.NoError(t, r.SetField(FieldName, "Thandi"))
	require.NoError(t, r.SetField(FieldPurpose, "Other"))
	require.NoError(t, r.SetField(FieldOtherReason, "Site survey"))
	require.NoError(t, r.SetConsent(true))
	require.NoError(t, r.SetSignature(&raster.Blob{Kind: raster.KindPNG, Data: []byte{1}}))

	snap := r.Snapshot()
	assert.Equal(t, "Thandi", snap.Name)
	assert.True(t, snap.Purpose.IsOther())
	assert.Equal(t, "Site survey", snap.Purpose.Resolve(snap.OtherReason))
	assert.True(t, snap.ConsentGranted)
	require.NotNil(t, snap.Signature)
	assert.Nil(t, snap.Face)
	assert.False(t, snap.ID.IsNil())
}

func TestRecord_SetFieldRejectsArtifacts(t *testing.T) {
	err := New().SetField(FieldSignature, "x")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestRecord_ZeroBlobClearsArtifact(t *testing.T) {
	r := New()
	require.NoError(t, r.SetFace(&raster.Blob{Kind: raster.KindJPEG, Data: []byte{1, 2}}))
	require.NoError(t, r.SetFace(&raster.Blob{}))
	assert.Nil(t, r.Snapshot().Face)
}

func TestRecord_MarkSubmittedOnce(t *testing.T) {
	r := New()
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, r.MarkSubmitted(at))
	assert.True(t, r.Submitted())
	assert.Equal(t, at, *r.Snapshot().SubmittedAt)

	err := r.MarkSubmitted(at.Add(time.Minute))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Equal(t, at, *r.Snapshot().SubmittedAt, "first timestamp kept")

	assert.True(t, dErrors.HasCode(r.SetField(FieldName, "late"), dErrors.CodeInvariantViolation))
	assert.True(t, dErrors.HasCode(r.SetConsent(false), dErrors.CodeInvariantViolation))
}

func TestRecord_SnapshotIsACopy(t *testing.T) {
	r := New()
	require.NoError(t, r.MarkSubmitted(time.Unix(100, 0)))
	snap := r.Snapshot()
	*snap.SubmittedAt = time.Unix(999, 0)

	assert.Equal(t, time.Unix(100, 0), *r.Snapshot().SubmittedAt)
}

func TestParseField(t *testing.T) {
	f, err := ParseField(" National_ID ")
	require.NoError(t, err)
	assert.Equal(t, FieldNationalID, f)

	_, err = ParseField("signature")
	assert.Error(t, err, "artifacts are not text fields")
	_, err = ParseField("shoe_size")
	assert.Error(t, err)
}
