package enrolment_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kiosk/internal/audit"
	auditmemory "kiosk/internal/audit/store/memory"
	"kiosk/internal/capture"
	"kiosk/internal/consent"
	"kiosk/internal/detector"
	"kiosk/internal/enrolment"
	"kiosk/internal/notify"
	"kiosk/internal/raster"
	"kiosk/internal/submission"
	"kiosk/internal/submission/mocks"
	"kiosk/internal/visitor"
	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/testutil"
)

type immediatePacer struct{}

func (immediatePacer) Wait(ctx context.Context) error { return ctx.Err() }
func (immediatePacer) Stop()                          {}

type stubDetector struct {
	mu    sync.Mutex
	faces []detector.Face
}

func (d *stubDetector) set(faces []detector.Face) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faces = faces
}

func (d *stubDetector) Detect(_ context.Context, _ image.Image, ts time.Duration) (detector.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return detector.Result{Faces: d.faces, FrameTimestamp: ts}, nil
}

type deferred struct {
	mu    sync.Mutex
	funcs []func()
}

func (d *deferred) schedule(_ time.Duration, f func()) func() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.funcs = append(d.funcs, f)
	return func() bool { return false }
}

func (d *deferred) fire() {
	d.mu.Lock()
	funcs := d.funcs
	d.funcs = nil
	d.mu.Unlock()
	for _, f := range funcs {
		f()
	}
}

type ControllerSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	transport *mocks.MockTransport
	source    *capture.PushSource
	detector  *stubDetector
	feed      *notify.Feed
	store     *auditmemory.InMemoryStore
	deferred  *deferred
	c         *enrolment.Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.transport = mocks.NewMockTransport(s.ctrl)
	s.source = capture.NewPushSource()
	s.detector = &stubDetector{faces: oneFace()}
	s.feed = notify.NewFeed(64)
	s.store = auditmemory.NewInMemoryStore()
	s.deferred = &deferred{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := capture.NewManager(s.source, s.detector,
		capture.WithLogger(logger),
		capture.WithPacer(func() capture.Pacer { return immediatePacer{} }),
	)

	c, err := enrolment.New(enrolment.Deps{
		Capture:   manager,
		Transport: s.transport,
		Sink:      s.feed,
		Navigator: s.feed,
		Auditor:   audit.NewPublisher(s.store),
	},
		enrolment.WithLogger(logger),
		enrolment.WithKioskID("lobby-1"),
		enrolment.WithSubmissionOptions(submission.WithScheduler(s.deferred.schedule)),
	)
	s.Require().NoError(err)
	s.c = c
}

func (s *ControllerSuite) TearDownTest() {
	s.c.Close()
	s.ctrl.Finish()
}

func oneFace() []detector.Face {
	return []detector.Face{{Landmarks: []raster.Point{{X: 4, Y: 4}, {X: 8, Y: 6}}}}
}

func frame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := range 24 {
		for x := range 32 {
			img.Set(x, y, color.RGBA{R: 200, G: 150, B: 120, A: 255})
		}
	}
	return img
}

func pngBytes(s *ControllerSuite) []byte {
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, frame()))
	return buf.Bytes()
}

func (s *ControllerSuite) notifications() []notify.Event {
	return s.feed.Drain(0)
}

func (s *ControllerSuite) fillForm() {
	fields := map[visitor.Field]string{
		visitor.FieldName:         "Thandi",
		visitor.FieldSurname:      "Nkosi",
		visitor.FieldContact:      "0821234567",
		visitor.FieldEmail:        "thandi@example.com",
		visitor.FieldNationalID:   "9001015009087",
		visitor.FieldPurpose:      "Meeting",
		visitor.FieldOrganization: "Acme",
	}
	for f, v := range fields {
		_, err := s.c.SetField(f, v)
		s.Require().NoError(err)
	}
}

func (s *ControllerSuite) sign() {
	pad := s.c.Pad()
	pad.PointerDown(raster.Point{X: 10, Y: 10})
	pad.PointerMove(raster.Point{X: 60, Y: 40})
	pad.PointerUp()
}

func (s *ControllerSuite) captureLive() {
	session, err := s.c.StartCapture(s.ctx)
	s.Require().NoError(err)
	s.Require().Eventually(s.source.AwaitingPermission, time.Second, 5*time.Millisecond)
	s.Require().NoError(s.source.Decide(true))
	s.Require().Eventually(func() bool { return s.source.Push(frame()) == nil }, time.Second, 5*time.Millisecond)

	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		s.FailNow("capture did not finish")
	}
	s.Equal(capture.PhaseStopped, session.Phase())
	s.False(s.source.Held(), "camera released after capture")
}

func (s *ControllerSuite) TestCaptureAndSubmitRequireConsent() {
	_, err := s.c.StartCapture(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeMissingConsent))

	_, err = s.c.UploadStill(s.ctx, pngBytes(s))
	s.True(dErrors.HasCode(err, dErrors.CodeMissingConsent))

	s.Empty(s.notifications())
}

func (s *ControllerSuite) TestSubmitWithoutConsentReportsEveryProblem() {
	_, err := s.c.Submit(s.ctx)

	var serr *submission.Error
	s.Require().True(errors.As(err, &serr))
	s.Equal(submission.KindValidationFailed, serr.Kind)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal(s.c.Validate().Problems, serr.Problems)
	s.Len(serr.Problems, 10)

	fields := make([]visitor.Field, len(serr.Problems))
	for i, p := range serr.Problems {
		fields[i] = p.Field
	}
	s.Contains(fields, visitor.FieldConsent)
	s.Contains(fields, visitor.FieldName)
	s.Contains(fields, visitor.FieldFace)

	events := s.notifications()
	s.Require().Len(events, 1)
	s.Equal(notify.KindError, events[0].Kind)
	s.Contains(events[0].Message, "You must accept the POPIA terms to proceed.")
	s.Contains(events[0].Message, "Name is required.")
}

func (s *ControllerSuite) TestAuditCarriesRequestContext() {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	ctx := testutil.WithRequest(s.ctx, "req-7", at)

	_, err := s.c.SetField(visitor.FieldNationalID, "9001015009087")
	s.Require().NoError(err)
	s.Require().NoError(s.c.GrantConsent(ctx))

	trail, err := s.store.ListByRecord(s.ctx, s.c.Record().ID().String())
	s.Require().NoError(err)
	s.Require().Len(trail, 1)
	s.Equal("req-7", trail[0].RequestID)
	s.Equal("lobby-1", trail[0].KioskID)
	s.True(at.Equal(trail[0].Timestamp))
	s.NotEmpty(trail[0].SubjectIDHash)
	s.NotContains(trail[0].SubjectIDHash, "9001015009087")
}

func (s *ControllerSuite) TestDeclineConsentNotifiesAndGoesHome() {
	before := s.c.Record().ID()

	s.c.DeclineConsent(s.ctx)

	events := s.notifications()
	s.Require().Len(events, 2)
	s.Equal(notify.EventNotification, events[0].Type)
	s.Equal(notify.KindInfo, events[0].Kind)
	s.Equal(consent.MessageDeclined, events[0].Message)
	s.Equal(notify.EventNavigateHome, events[1].Type)

	s.NotEqual(before, s.c.Record().ID(), "a fresh record replaces the declined one")
	s.False(s.c.ConsentGranted())

	trail, err := s.store.ListByRecord(s.ctx, before.String())
	s.Require().NoError(err)
	s.Require().Len(trail, 1)
	s.Equal(audit.EventConsentDeclined, trail[0].Action)
}

func (s *ControllerSuite) TestFullCheckIn() {
	s.Require().NoError(s.c.GrantConsent(s.ctx))
	s.fillForm()
	s.sign()
	s.captureLive()

	record := s.c.Record()
	snap := record.Snapshot()
	s.Require().NotNil(snap.Signature)
	s.Require().NotNil(snap.Face)
	s.Equal(raster.KindJPEG, snap.Face.Kind)
	s.True(s.c.Validate().Valid)

	events := s.notifications()
	s.Require().Len(events, 1)
	s.Equal(capture.MessageCaptured, events[0].Message)

	s.transport.EXPECT().Send(gomock.Any(), gomock.Any()).
		Return(submission.Response{StatusCode: http.StatusOK}, nil)

	ack, err := s.c.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal(record.ID(), ack.RecordID)
	s.True(record.Submitted())

	events = s.notifications()
	s.Require().Len(events, 1)
	s.Equal(submission.MessageSuccess, events[0].Message)

	s.deferred.fire()
	events = s.notifications()
	s.Require().Len(events, 1)
	s.Equal(notify.EventNavigateHome, events[0].Type)
	s.NotEqual(record.ID(), s.c.Record().ID(), "navigation home starts a new visitor")

	trail, err := s.store.ListByRecord(s.ctx, record.ID().String())
	s.Require().NoError(err)
	var actions []audit.AuditEvent
	for _, e := range trail {
		actions = append(actions, e.Action)
	}
	s.Equal([]audit.AuditEvent{
		audit.EventConsentGranted,
		audit.EventCaptureCompleted,
		audit.EventSubmissionSucceeded,
	}, actions)
}

func (s *ControllerSuite) TestPermissionDeniedIsReported() {
	s.Require().NoError(s.c.GrantConsent(s.ctx))

	session, err := s.c.StartCapture(s.ctx)
	s.Require().NoError(err)
	s.Require().Eventually(s.source.AwaitingPermission, time.Second, 5*time.Millisecond)
	s.Require().NoError(s.source.Decide(false))
	<-session.Done()

	s.Equal(capture.PhaseFailed, session.Phase())
	events := s.notifications()
	s.Require().Len(events, 1)
	s.Equal(notify.KindError, events[0].Kind)
	s.Equal(capture.MessagePermissionDenied, events[0].Message)
	s.Nil(s.c.Record().Snapshot().Face)
}

func (s *ControllerSuite) TestStillUpload() {
	s.Require().NoError(s.c.GrantConsent(s.ctx))

	_, err := s.c.UploadStill(s.ctx, []byte("%PDF-1.4"))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	s.detector.set(nil)
	_, err = s.c.UploadStill(s.ctx, pngBytes(s))
	s.True(dErrors.HasCode(err, dErrors.CodeNoFaceInImage))

	s.detector.set(oneFace())
	blob, err := s.c.UploadStill(s.ctx, pngBytes(s))
	s.Require().NoError(err)
	s.Equal(raster.KindJPEG, blob.Kind)
	s.Require().NotNil(s.c.Record().Snapshot().Face)

	events := s.notifications()
	s.Require().Len(events, 3)
	s.Equal(enrolment.MessageInvalidUpload, events[0].Message)
	s.Equal(capture.MessageNoFace, events[1].Message)
	s.Equal(capture.MessageCaptured, events[2].Message)
}

func (s *ControllerSuite) TestLeaveReleasesCameraAndResets() {
	s.Require().NoError(s.c.GrantConsent(s.ctx))
	s.fillForm()
	s.sign()
	before := s.c.Record()

	_, err := s.c.StartCapture(s.ctx)
	s.Require().NoError(err)
	s.Require().Eventually(s.source.AwaitingPermission, time.Second, 5*time.Millisecond)
	s.Require().NoError(s.source.Decide(true))
	s.Require().Eventually(s.source.Held, time.Second, 5*time.Millisecond)

	s.Require().NoError(s.c.Leave(s.ctx))

	s.False(s.source.Held())
	s.NotEqual(before.ID(), s.c.Record().ID())
	s.False(s.c.ConsentGranted())
	_, ok := s.c.Pad().Signature()
	s.False(ok)
	s.Empty(s.c.Record().Snapshot().Name)
}
