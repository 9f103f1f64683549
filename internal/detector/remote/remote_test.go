package remote

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/detector"
	"kiosk/internal/detector/contract"
)

func testFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: 90, G: 120, B: 150, A: 255})
		}
	}
	return img
}

type fakeService struct {
	detectStatus int
	detectBody   string
	detects      atomic.Int32
	deletes      atomic.Int32
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/landmarkers", func(w http.ResponseWriter, r *http.Request) {
		var req loadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ModelURL == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"lm-1"}`))
	})
	mux.HandleFunc("POST /v1/landmarkers/lm-1/detect", func(w http.ResponseWriter, r *http.Request) {
		f.detects.Add(1)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Frame-Timestamp-Ms"))
		w.WriteHeader(f.detectStatus)
		_, _ = w.Write([]byte(f.detectBody))
	})
	mux.HandleFunc("DELETE /v1/landmarkers/lm-1", func(w http.ResponseWriter, r *http.Request) {
		f.deletes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func loadRemote(t *testing.T, svc *fakeService) detector.Landmarker {
	t.Helper()
	srv := httptest.NewServer(svc.handler(t))
	t.Cleanup(srv.Close)
	lm, err := NewLoader(srv.URL, 2*time.Second).Load(context.Background(), detector.DefaultModelSource())
	require.NoError(t, err)
	return lm
}

func TestRemoteLandmarkerContract(t *testing.T) {
	withFace := &fakeService{
		detectStatus: http.StatusOK,
		detectBody:   `{"faces":[{"landmarks":[{"x":0.5,"y":0.5},{"x":0.25,"y":0.75}]}]}`,
	}
	noFace := &fakeService{detectStatus: http.StatusOK, detectBody: `{"faces":[]}`}

	suite := &contract.ContractSuite{
		Backend: "remote",
		Tests: []contract.ContractTest{
			{
				Name:       "scales normalized landmarks to frame pixels",
				Landmarker: loadRemote(t, withFace),
				Frame:      testFrame(),
				ExpectFace: true,
				ValidateFunc: func(faces []detector.Face) error {
					if faces[0].Landmarks[0].X != 100 || faces[0].Landmarks[1].Y != 75 {
						return assert.AnError
					}
					return nil
				},
			},
			{
				Name:       "empty face list is not adequate",
				Landmarker: loadRemote(t, noFace),
				Frame:      testFrame(),
				ExpectFace: false,
			},
		},
	}
	suite.Run(t)
}

func TestRemoteLandmarkerErrorContract(t *testing.T) {
	cases := []contract.ErrorContractTest{
		{
			Name:          "5xx is a retryable outage",
			Landmarker:    loadRemote(t, &fakeService{detectStatus: http.StatusServiceUnavailable}),
			Frame:         testFrame(),
			ExpectedError: detector.ErrorBackendOutage,
			ExpectedRetry: true,
		},
		{
			Name:          "gateway timeout is retryable",
			Landmarker:    loadRemote(t, &fakeService{detectStatus: http.StatusGatewayTimeout}),
			Frame:         testFrame(),
			ExpectedError: detector.ErrorTimeout,
			ExpectedRetry: true,
		},
		{
			Name:          "malformed body is bad data",
			Landmarker:    loadRemote(t, &fakeService{detectStatus: http.StatusOK, detectBody: `{"faces":`}),
			Frame:         testFrame(),
			ExpectedError: detector.ErrorBadData,
			ExpectedRetry: false,
		},
		{
			Name:          "unknown landmarker id is a lost session",
			Landmarker:    loadRemote(t, &fakeService{detectStatus: http.StatusNotFound}),
			Frame:         testFrame(),
			ExpectedError: detector.ErrorSessionLost,
			ExpectedRetry: true,
		},
	}
	for i := range cases {
		cases[i].Run(t)
	}
}

func TestLoaderFailures(t *testing.T) {
	t.Run("unreachable service is an outage", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		_, err := NewLoader(srv.URL, time.Second).Load(context.Background(), detector.DefaultModelSource())
		require.Error(t, err)
		assert.Equal(t, detector.ErrorBackendOutage, detector.GetCategory(err))
	})

	t.Run("missing id is bad data", func(t *testing.T) {
		_, err := parseLoadResponse(http.StatusCreated, []byte(`{}`))
		require.Error(t, err)
		assert.Equal(t, detector.ErrorBadData, detector.GetCategory(err))
	})

	t.Run("rejected model is bad data", func(t *testing.T) {
		_, err := parseLoadResponse(http.StatusUnprocessableEntity, []byte(`{"error":"bad model"}`))
		require.Error(t, err)
		assert.Equal(t, detector.ErrorBadData, detector.GetCategory(err))
	})
}

func TestParseDetectResponse(t *testing.T) {
	t.Run("offsets by frame origin", func(t *testing.T) {
		faces, err := parseDetectResponse(http.StatusOK,
			[]byte(`{"faces":[{"landmarks":[{"x":0,"y":0},{"x":1,"y":1}]}]}`),
			image.Rect(10, 20, 110, 70))
		require.NoError(t, err)
		require.Len(t, faces, 1)
		assert.Equal(t, 10.0, faces[0].Landmarks[0].X)
		assert.Equal(t, 20.0, faces[0].Landmarks[0].Y)
		assert.Equal(t, 110.0, faces[0].Landmarks[1].X)
		assert.Equal(t, 70.0, faces[0].Landmarks[1].Y)
	})

	t.Run("gone landmarker is a lost session", func(t *testing.T) {
		_, err := parseDetectResponse(http.StatusGone, nil, image.Rect(0, 0, 1, 1))
		require.Error(t, err)
		assert.Equal(t, detector.ErrorSessionLost, detector.GetCategory(err))
		assert.False(t, detector.IsFatal(err))
	})

	t.Run("too many requests is retryable", func(t *testing.T) {
		_, err := parseDetectResponse(http.StatusTooManyRequests, nil, image.Rect(0, 0, 1, 1))
		assert.True(t, detector.IsRetryable(err))
	})
}

func TestLandmarkerClose(t *testing.T) {
	svc := &fakeService{detectStatus: http.StatusOK, detectBody: `{"faces":[]}`}
	lm := loadRemote(t, svc)

	require.NoError(t, lm.Close())
	assert.Equal(t, int32(1), svc.deletes.Load())
	assert.True(t, strings.HasPrefix(lm.(*Landmarker).ID(), "lm-"))
}
