package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"time"

	"kiosk/internal/detector"
	"kiosk/internal/raster"
	"kiosk/pkg/platform/sentinel"
)

type scriptedDetector struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) (detector.Result, error)
}

func (d *scriptedDetector) Detect(_ context.Context, _ image.Image, ts time.Duration) (detector.Result, error) {
	d.mu.Lock()
	d.calls++
	n := d.calls
	d.mu.Unlock()
	res, err := d.fn(n)
	res.FrameTimestamp = ts
	return res, err
}

func (d *scriptedDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func noFace(int) (detector.Result, error) { return detector.Result{}, nil }

func withFace(int) (detector.Result, error) {
	return detector.Result{Faces: []detector.Face{{Landmarks: []raster.Point{{X: 4, Y: 4}, {X: 8, Y: 6}}}}}, nil
}

type immediatePacer struct{}

func (immediatePacer) Wait(ctx context.Context) error { return ctx.Err() }
func (immediatePacer) Stop()                          {}

func immediate() Pacer { return immediatePacer{} }

type fakeStream struct {
	frames chan Frame
	closes atomic.Int32
	once   sync.Once
	done   chan struct{}
}

func newFakeStream() *fakeStream {
	return &fakeStream{frames: make(chan Frame, 16), done: make(chan struct{})}
}

func (s *fakeStream) Next(ctx context.Context) (Frame, error) {
	select {
	case f := <-s.frames:
		return f, nil
	case <-s.done:
		return Frame{}, sentinel.ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (s *fakeStream) Close() error {
	s.closes.Add(1)
	s.once.Do(func() { close(s.done) })
	return nil
}

type fakeSource struct {
	opens  atomic.Int32
	stream *fakeStream
	err    error
}

func (f *fakeSource) Open(context.Context) (Stream, error) {
	f.opens.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func solidFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 160, B: 140, A: 255})
		}
	}
	return img
}

func frameAt(ms int) Frame {
	return Frame{Image: solidFrame(16, 12), Timestamp: time.Duration(ms) * time.Millisecond}
}

func pngBytes(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// transitions records every phase change.
type transitions struct {
	mu  sync.Mutex
	log [][2]Phase
}

func (t *transitions) hook(from, to Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, [2]Phase{from, to})
}

func (t *transitions) count(to Phase) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, tr := range t.log {
		if tr[1] == to {
			n++
		}
	}
	return n
}
