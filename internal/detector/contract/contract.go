// Package contract holds reusable checks that any Landmarker
// implementation must pass.
package contract

import (
	"context"
	"image"
	"testing"
	"time"

	"kiosk/internal/detector"
)

// ContractTest is one detection scenario against a landmarker.
type ContractTest struct {
	Name         string
	Landmarker   detector.Landmarker
	Frame        image.Image
	ExpectFace   bool
	ValidateFunc func(faces []detector.Face) error
}

// ContractSuite is a collection of contract tests for one landmarker.
type ContractSuite struct {
	Backend string
	Tests   []ContractTest
}

// Run executes all contract tests in the suite.
func (s *ContractSuite) Run(t *testing.T) {
	for i, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			ctx := context.Background()

			faces, err := test.Landmarker.DetectLandmarks(ctx, test.Frame, time.Duration(i)*time.Millisecond)
			if err != nil {
				t.Fatalf("%s: detect failed: %v", s.Backend, err)
			}

			res := detector.Result{Faces: faces}
			if res.Adequate() != test.ExpectFace {
				t.Errorf("expected adequate=%v, got %v", test.ExpectFace, res.Adequate())
			}

			// Landmarks must land inside the frame.
			bounds := test.Frame.Bounds()
			for _, p := range res.Landmarks() {
				if p.X < float64(bounds.Min.X) || p.X > float64(bounds.Max.X) ||
					p.Y < float64(bounds.Min.Y) || p.Y > float64(bounds.Max.Y) {
					t.Errorf("landmark (%.1f,%.1f) outside frame %v", p.X, p.Y, bounds)
					break
				}
			}

			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(faces); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
}

// ErrorContractTest validates that landmarker errors follow the taxonomy.
type ErrorContractTest struct {
	Name          string
	Landmarker    detector.Landmarker
	Frame         image.Image
	ExpectedError detector.ErrorCategory
	ExpectedRetry bool
}

// Run executes an error contract test.
func (ect *ErrorContractTest) Run(t *testing.T) {
	t.Run(ect.Name, func(t *testing.T) {
		_, err := ect.Landmarker.DetectLandmarks(context.Background(), ect.Frame, 0)
		if err == nil {
			t.Fatal("expected error but got none")
		}
		if category := detector.GetCategory(err); category != ect.ExpectedError {
			t.Errorf("expected error category %s, got %s", ect.ExpectedError, category)
		}
		if retry := detector.IsRetryable(err); retry != ect.ExpectedRetry {
			t.Errorf("expected retryable=%v, got %v", ect.ExpectedRetry, retry)
		}
	})
}
