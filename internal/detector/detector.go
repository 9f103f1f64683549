// Package detector wraps an external face-landmark detection capability.
//
// The capability itself is opaque: a Loader turns a ModelSource into a
// Landmarker, and the Adapter serializes access to it so at most one
// detection runs at a time.
package detector

import (
	"context"
	"image"
	"time"

	"kiosk/internal/raster"
)

// Running modes understood by landmark backends.
const (
	RunningModeVideo = "VIDEO"
	RunningModeImage = "IMAGE"
)

// ModelSource locates the detection model and its runtime.
type ModelSource struct {
	ModelURL    string `yaml:"model_url" json:"model_url"`
	RuntimeURL  string `yaml:"runtime_url" json:"runtime_url"`
	Delegate    string `yaml:"delegate" json:"delegate"`
	RunningMode string `yaml:"running_mode" json:"running_mode"`
	NumFaces    int    `yaml:"num_faces" json:"num_faces"`
}

// DefaultModelSource points at the public float16 face landmarker bundle.
func DefaultModelSource() ModelSource {
	return ModelSource{
		ModelURL:    "https://storage.googleapis.com/mediapipe-models/face_landmarker/face_landmarker/float16/1/face_landmarker.task",
		RuntimeURL:  "https://cdn.jsdelivr.net/npm/@mediapipe/tasks-vision@latest/wasm",
		Delegate:    "GPU",
		RunningMode: RunningModeVideo,
		NumFaces:    1,
	}
}

// Key identifies the source for load de-duplication.
func (s ModelSource) Key() string {
	return s.ModelURL + "|" + s.RuntimeURL + "|" + s.Delegate + "|" + s.RunningMode
}

// Face is one detected face in pixel coordinates of the frame.
type Face struct {
	Landmarks []raster.Point `json:"landmarks"`
}

// Result is the output of one detection call. It is never persisted.
type Result struct {
	Faces          []Face        `json:"faces"`
	FrameTimestamp time.Duration `json:"frame_timestamp"`
}

// Adequate reports whether at least one face carries landmarks.
func (r Result) Adequate() bool {
	for _, f := range r.Faces {
		if len(f.Landmarks) > 0 {
			return true
		}
	}
	return false
}

// Landmarks flattens the landmarks of every face, for overlay drawing.
func (r Result) Landmarks() []raster.Point {
	var out []raster.Point
	for _, f := range r.Faces {
		out = append(out, f.Landmarks...)
	}
	return out
}

// Landmarker is a loaded detection capability. Implementations may block.
type Landmarker interface {
	DetectLandmarks(ctx context.Context, frame image.Image, ts time.Duration) ([]Face, error)
	Close() error
}

// Loader turns a ModelSource into a ready Landmarker.
type Loader interface {
	Load(ctx context.Context, src ModelSource) (Landmarker, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, src ModelSource) (Landmarker, error)

func (f LoaderFunc) Load(ctx context.Context, src ModelSource) (Landmarker, error) {
	return f(ctx, src)
}
