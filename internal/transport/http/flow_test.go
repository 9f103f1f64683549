package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/capture"
	"kiosk/internal/detector"
	"kiosk/internal/enrolment"
	"kiosk/internal/notify"
	"kiosk/internal/raster"
	"kiosk/internal/submission"
	httptransport "kiosk/internal/transport/http"
)

type instantPacer struct{}

func (instantPacer) Wait(ctx context.Context) error { return ctx.Err() }
func (instantPacer) Stop()                          {}

type faceDetector struct{}

func (faceDetector) Detect(_ context.Context, _ image.Image, ts time.Duration) (detector.Result, error) {
	return detector.Result{
		Faces:          []detector.Face{{Landmarks: []raster.Point{{X: 3, Y: 3}}}},
		FrameTimestamp: ts,
	}, nil
}

type enrollmentServer struct {
	mu       sync.Mutex
	payloads []submission.Payload
	kioskIDs []string
}

func (e *enrollmentServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p submission.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	e.mu.Lock()
	e.payloads = append(e.payloads, p)
	e.kioskIDs = append(e.kioskIDs, r.Header.Get(submission.HeaderKioskID))
	e.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}

func pngFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := range 30 {
		for x := range 40 {
			img.Set(x, y, color.RGBA{R: 180, G: 140, B: 110, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func call(t *testing.T, router http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckInOverHTTP(t *testing.T) {
	upstream := &enrollmentServer{}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := capture.NewPushSource()
	feed := notify.NewFeed(32)
	manager := capture.NewManager(source, faceDetector{},
		capture.WithLogger(logger),
		capture.WithPacer(func() capture.Pacer { return instantPacer{} }),
	)
	ctrl, err := enrolment.New(enrolment.Deps{
		Capture:   manager,
		Transport: submission.NewHTTPTransport(srv.URL, 2*time.Second),
		Sink:      feed,
		Navigator: feed,
	},
		enrolment.WithLogger(logger),
		enrolment.WithKioskID("gate-2"),
		enrolment.WithSubmissionOptions(submission.WithNavigationDelay(time.Hour)),
	)
	require.NoError(t, err)
	defer ctrl.Close()

	router := httptransport.NewRouter(httptransport.New(ctrl, source, feed, logger), logger, nil)
	jsonCall := func(method, path, body string) *httptest.ResponseRecorder {
		return call(t, router, method, path, "application/json", []byte(body))
	}

	require.Equal(t, http.StatusOK, jsonCall(http.MethodPost, "/api/consent", `{"accepted":true}`).Code)

	fields := map[string]string{
		"name":         "Sipho",
		"surname":      "Dlamini",
		"contact":      "0731234567",
		"email":        "sipho@example.com",
		"national_id":  "8501015009088",
		"purpose":      "Other",
		"other_reason": "Delivery",
		"organization": "Courier Co",
	}
	for field, value := range fields {
		w := jsonCall(http.MethodPut, "/api/visitor/fields/"+field, `{"value":"`+value+`"}`)
		require.Equal(t, http.StatusOK, w.Code, field)
	}

	for _, ev := range []string{
		`{"type":"down","x":20,"y":20}`,
		`{"type":"move","x":120,"y":60}`,
		`{"type":"up"}`,
	} {
		require.Equal(t, http.StatusOK, jsonCall(http.MethodPost, "/api/signature/pointer", ev).Code)
	}

	require.Equal(t, http.StatusAccepted, call(t, router, http.MethodPost, "/api/capture", "", nil).Code)
	require.Eventually(t, source.AwaitingPermission, time.Second, 5*time.Millisecond)
	require.Equal(t, http.StatusNoContent, jsonCall(http.MethodPost, "/api/capture/permission", `{"granted":true}`).Code)

	frame := pngFrame(t)
	require.Eventually(t, func() bool {
		return call(t, router, http.MethodPost, "/api/capture/frames", "image/png", frame).Code == http.StatusAccepted
	}, time.Second, 5*time.Millisecond)

	var visitor httptransport.VisitorResponse
	require.Eventually(t, func() bool {
		w := call(t, router, http.MethodGet, "/api/visitor", "", nil)
		return json.Unmarshal(w.Body.Bytes(), &visitor) == nil && visitor.HasSelfie
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, visitor.HasSignature)
	assert.True(t, visitor.Validation.Valid)

	w := call(t, router, http.MethodPost, "/api/submit", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ack httptransport.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, visitor.RecordID, ack.RecordID)
	assert.Equal(t, http.StatusCreated, ack.StatusCode)

	upstream.mu.Lock()
	require.Len(t, upstream.payloads, 1)
	sent := upstream.payloads[0]
	assert.Equal(t, "gate-2", upstream.kioskIDs[0])
	upstream.mu.Unlock()
	assert.Equal(t, "Delivery", sent.Purpose)
	assert.True(t, sent.AcceptedPOPIA)
	assert.True(t, strings.HasPrefix(sent.Selfie, "data:image/jpeg;base64,"))
	assert.True(t, strings.HasPrefix(sent.Signature, "data:image/png;base64,"))

	w = call(t, router, http.MethodGet, "/api/events?wait=0s", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events httptransport.EventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	var messages []string
	for _, e := range events.Events {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{capture.MessageCaptured, submission.MessageSuccess}, messages)

	w = call(t, router, http.MethodPost, "/api/submit", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "a submitted record is sealed")
}
