// Package remote talks to an out-of-process landmark inference service over
// HTTP. The service hosts the model; the kiosk only ships frames.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kiosk/internal/detector"
	"kiosk/internal/raster"
)

const (
	landmarkersPath = "/v1/landmarkers"
	maxResponseSize = 4 << 20
	frameQuality    = 85
)

// Loader creates landmarker sessions on the inference service.
type Loader struct {
	baseURL    string
	httpClient *http.Client
}

// NewLoader creates a loader for the service at baseURL.
func NewLoader(baseURL string, timeout time.Duration) *Loader {
	return &Loader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type loadRequest struct {
	ModelURL    string `json:"model_url"`
	RuntimeURL  string `json:"runtime_url,omitempty"`
	Delegate    string `json:"delegate,omitempty"`
	RunningMode string `json:"running_mode,omitempty"`
	NumFaces    int    `json:"num_faces,omitempty"`
}

type loadResponse struct {
	ID string `json:"id"`
}

// Load asks the service to load src and returns a handle to the session.
func (l *Loader) Load(ctx context.Context, src detector.ModelSource) (detector.Landmarker, error) {
	body, err := json.Marshal(loadRequest{
		ModelURL:    src.ModelURL,
		RuntimeURL:  src.RuntimeURL,
		Delegate:    src.Delegate,
		RunningMode: src.RunningMode,
		NumFaces:    src.NumFaces,
	})
	if err != nil {
		return nil, detector.NewDetectionError(detector.ErrorInternal, "encode load request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+landmarkersPath, bytes.NewReader(body))
	if err != nil {
		return nil, detector.NewDetectionError(detector.ErrorInternal, "build load request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, respBody, err := l.do(req)
	if err != nil {
		return nil, err
	}
	id, err := parseLoadResponse(status, respBody)
	if err != nil {
		return nil, err
	}
	return &Landmarker{loader: l, id: id}, nil
}

func (l *Loader) do(req *http.Request) (int, []byte, error) {
	resp, err := l.httpClient.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return 0, nil, detector.NewDetectionError(detector.ErrorTimeout, "inference service request cancelled", err)
		}
		return 0, nil, detector.NewDetectionError(detector.ErrorBackendOutage, "inference service unreachable", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, detector.NewDetectionError(detector.ErrorBadData, "read inference response", err)
	}
	return resp.StatusCode, body, nil
}

// Landmarker is one loaded model session on the inference service.
type Landmarker struct {
	loader *Loader
	id     string
}

// ID returns the service-side session id.
func (m *Landmarker) ID() string {
	return m.id
}

// DetectLandmarks uploads frame as JPEG and returns faces in frame pixel
// coordinates.
func (m *Landmarker) DetectLandmarks(ctx context.Context, frame image.Image, ts time.Duration) ([]detector.Face, error) {
	if frame == nil {
		return nil, detector.NewDetectionError(detector.ErrorBadData, "nil frame", nil)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: frameQuality}); err != nil {
		return nil, detector.NewDetectionError(detector.ErrorBadData, "encode frame", err)
	}

	url := fmt.Sprintf("%s%s/%s/detect", m.loader.baseURL, landmarkersPath, m.id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, detector.NewDetectionError(detector.ErrorInternal, "build detect request", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("X-Frame-Timestamp-Ms", strconv.FormatInt(ts.Milliseconds(), 10))

	status, body, err := m.loader.do(req)
	if err != nil {
		return nil, err
	}
	return parseDetectResponse(status, body, frame.Bounds())
}

// Close drops the session on the service.
func (m *Landmarker) Close() error {
	url := fmt.Sprintf("%s%s/%s", m.loader.baseURL, landmarkersPath, m.id)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	status, _, err := m.loader.do(req)
	if err != nil {
		return err
	}
	if status >= 300 && status != http.StatusNotFound {
		return statusError(status, "close landmarker session")
	}
	return nil
}

type normalizedPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type detectResponse struct {
	Faces []struct {
		Landmarks []normalizedPoint `json:"landmarks"`
	} `json:"faces"`
}

func parseLoadResponse(status int, body []byte) (string, error) {
	if status != http.StatusOK && status != http.StatusCreated {
		return "", statusError(status, "load model")
	}
	var resp loadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", detector.NewDetectionError(detector.ErrorBadData, "decode load response", err)
	}
	if resp.ID == "" {
		return "", detector.NewDetectionError(detector.ErrorBadData, "load response missing id", nil)
	}
	return resp.ID, nil
}

// parseDetectResponse maps normalized landmarks onto bounds.
func parseDetectResponse(status int, body []byte, bounds image.Rectangle) ([]detector.Face, error) {
	switch status {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, detector.NewDetectionError(detector.ErrorSessionLost,
			fmt.Sprintf("detect landmarks: landmarker session gone (status %d)", status), nil)
	default:
		return nil, statusError(status, "detect landmarks")
	}
	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, detector.NewDetectionError(detector.ErrorBadData, "decode detect response", err)
	}
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	faces := make([]detector.Face, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		face := detector.Face{Landmarks: make([]raster.Point, 0, len(f.Landmarks))}
		for _, p := range f.Landmarks {
			face.Landmarks = append(face.Landmarks, raster.Point{
				X: float64(bounds.Min.X) + p.X*w,
				Y: float64(bounds.Min.Y) + p.Y*h,
			})
		}
		faces = append(faces, face)
	}
	return faces, nil
}

func statusError(status int, op string) error {
	msg := fmt.Sprintf("%s: unexpected status %d", op, status)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return detector.NewDetectionError(detector.ErrorTimeout, msg, nil)
	case status == http.StatusTooManyRequests || status >= 500:
		return detector.NewDetectionError(detector.ErrorBackendOutage, msg, nil)
	case status >= 400:
		return detector.NewDetectionError(detector.ErrorBadData, msg, nil)
	default:
		return detector.NewDetectionError(detector.ErrorInternal, msg, nil)
	}
}
