// Package signature turns pointer gestures into a rasterized handwritten
// signature.
package signature

import (
	"log/slog"
	"sync"

	"kiosk/internal/raster"
)

// Default canvas geometry for the kiosk signature box.
const (
	DefaultWidth  = 340
	DefaultHeight = 150
)

// State of the pad's gesture machine.
type State int

const (
	StateIdle State = iota
	StateDrawing
)

func (s State) String() string {
	if s == StateDrawing {
		return "drawing"
	}
	return "idle"
}

// Sink receives every exported signature. A nil blob means the signature
// was cleared.
type Sink func(blob *raster.Blob)

// Pad tracks strokes on a Surface. It is safe for concurrent use; pointer
// events from the host may arrive on different goroutines.
//
// Invariants:
//   - a signature exists only after at least one completed stroke
//   - Clear discards both the pixels and the last exported blob
//   - after Close no further exports reach the sink
type Pad struct {
	mu      sync.Mutex
	surface *raster.Surface
	kind    raster.Kind
	sink    Sink
	logger  *slog.Logger

	state     State
	lastPoint raster.Point
	strokes   int
	exported  *raster.Blob
	closed    bool
}

// Option configures a Pad.
type Option func(*Pad)

// WithLogger sets a logger for export failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pad) {
		p.logger = logger
	}
}

// WithKind selects the export encoding (PNG by default).
func WithKind(kind raster.Kind) Option {
	return func(p *Pad) {
		p.kind = kind
	}
}

// New binds a pad to surface and sink. The sink may be nil.
func New(surface *raster.Surface, sink Sink, opts ...Option) *Pad {
	p := &Pad{
		surface: surface,
		sink:    sink,
		kind:    raster.KindPNG,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PointerDown starts a new stroke anchored at pt.
func (p *Pad) PointerDown(pt raster.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.state = StateDrawing
	p.lastPoint = pt
	p.surface.DrawPath([]raster.Point{pt})
}

// PointerMove extends the current stroke. The new segment is drawn
// immediately so a partial stroke stays visible if the gesture is lost.
func (p *Pad) PointerMove(pt raster.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.state != StateDrawing {
		return
	}
	p.surface.DrawPath([]raster.Point{p.lastPoint, pt})
	p.lastPoint = pt
}

// PointerUp completes the stroke and exports the signature.
func (p *Pad) PointerUp() {
	p.finishStroke()
}

// PointerLeave behaves like PointerUp: leaving the canvas ends the stroke.
func (p *Pad) PointerLeave() {
	p.finishStroke()
}

func (p *Pad) finishStroke() {
	p.mu.Lock()
	if p.closed || p.state != StateDrawing {
		p.mu.Unlock()
		return
	}
	p.state = StateIdle
	p.strokes++

	blob, err := p.surface.Export(p.kind)
	if err != nil {
		p.mu.Unlock()
		p.logger.Error("signature export failed", "error", err)
		return
	}
	p.exported = &blob
	sink := p.sink
	p.mu.Unlock()

	if sink != nil {
		out := blob
		sink(&out)
	}
}

// Clear wipes the canvas and forgets the exported signature.
func (p *Pad) Clear() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.surface.Clear()
	p.state = StateIdle
	p.strokes = 0
	p.exported = nil
	sink := p.sink
	p.mu.Unlock()

	if sink != nil {
		sink(nil)
	}
}

// Signature returns the last exported image, if any stroke has completed
// since the last Clear.
func (p *Pad) Signature() (raster.Blob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exported == nil {
		return raster.Blob{}, false
	}
	return *p.exported, true
}

// State returns the gesture state.
func (p *Pad) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Strokes returns the number of completed strokes since the last Clear.
func (p *Pad) Strokes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strokes
}

// Close unbinds the sink. Further pointer events are ignored.
func (p *Pad) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.sink = nil
	p.state = StateIdle
}
