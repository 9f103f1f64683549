// Package raster is the mutable pixel canvas behind the signature pad and the
// capture session. Drawing goes through gg; exports produce encoded blobs.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	dErrors "kiosk/pkg/domain-errors"
)

// Point is a canvas-local coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const jpegQuality = 92

// Surface is a 2D RGBA canvas. It is not safe for concurrent use; owners
// (SignaturePad, CaptureSession) serialize access.
type Surface struct {
	dc          *gg.Context
	strokeWidth float64
	strokeColor color.Color
}

// Option configures a Surface.
type Option func(*Surface)

// WithStroke sets the pen used by DrawPath.
func WithStroke(width float64, c color.Color) Option {
	return func(s *Surface) {
		if width > 0 {
			s.strokeWidth = width
		}
		if c != nil {
			s.strokeColor = c
		}
	}
}

// NewSurface returns a transparent surface of the given size.
// Errors: CodeInvalidGeometry for non-positive dimensions.
func NewSurface(width, height int, opts ...Option) (*Surface, error) {
	s := &Surface{
		strokeWidth: 2,
		strokeColor: color.Black,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Resize(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// Resize replaces the backing canvas. Like an HTML canvas, resizing
// discards the current content.
func (s *Surface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return dErrors.New(dErrors.CodeInvalidGeometry,
			fmt.Sprintf("surface dimensions must be positive, got %dx%d", width, height))
	}
	s.dc = gg.NewContext(width, height)
	return nil
}

func (s *Surface) Width() int  { return s.dc.Width() }
func (s *Surface) Height() int { return s.dc.Height() }

// Bounds returns the canvas rectangle anchored at the origin.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.dc.Width(), s.dc.Height())
}

// DrawPath strokes the polyline through points with round caps and joins.
// A single point renders as a dot so taps stay visible.
func (s *Surface) DrawPath(points []Point) {
	if len(points) == 0 {
		return
	}
	s.dc.SetColor(s.strokeColor)
	if len(points) == 1 {
		s.dc.DrawCircle(points[0].X, points[0].Y, s.strokeWidth/2)
		s.dc.Fill()
		return
	}
	s.dc.SetLineWidth(s.strokeWidth)
	s.dc.SetLineCapRound()
	s.dc.SetLineJoinRound()
	s.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		s.dc.LineTo(p.X, p.Y)
	}
	s.dc.Stroke()
}

// DrawPoints fills a disc of radius r at every point. Used for landmark
// overlays on captured faces.
func (s *Surface) DrawPoints(points []Point, r float64, c color.Color) {
	if len(points) == 0 || r <= 0 {
		return
	}
	s.dc.SetColor(c)
	for _, p := range points {
		s.dc.DrawCircle(p.X, p.Y, r)
	}
	s.dc.Fill()
}

// DrawImage scales src into dest.
// Errors: CodeInvalidGeometry when dest is empty or src has no pixels.
func (s *Surface) DrawImage(src image.Image, dest image.Rectangle) error {
	if dest.Empty() {
		return dErrors.New(dErrors.CodeInvalidGeometry, "destination rectangle is empty")
	}
	if src == nil || src.Bounds().Empty() {
		return dErrors.New(dErrors.CodeInvalidGeometry, "source image is empty")
	}
	if src.Bounds().Dx() == dest.Dx() && src.Bounds().Dy() == dest.Dy() {
		s.dc.DrawImage(src, dest.Min.X, dest.Min.Y)
		return nil
	}
	scaled := image.NewRGBA(image.Rect(0, 0, dest.Dx(), dest.Dy()))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	s.dc.DrawImage(scaled, dest.Min.X, dest.Min.Y)
	return nil
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	s.dc.SetColor(color.Transparent)
	s.dc.Clear()
}

// Image returns the live backing image. Callers must not retain it across
// further drawing.
func (s *Surface) Image() image.Image {
	return s.dc.Image()
}

// Export encodes the current canvas.
// Errors: CodeInvalidInput for unsupported kinds, CodeInternal on encoder failure.
func (s *Surface) Export(kind Kind) (Blob, error) {
	var buf bytes.Buffer
	switch kind {
	case KindPNG:
		if err := png.Encode(&buf, s.dc.Image()); err != nil {
			return Blob{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode png")
		}
	case KindJPEG:
		if err := jpeg.Encode(&buf, flatten(s.dc.Image()), &jpeg.Options{Quality: jpegQuality}); err != nil {
			return Blob{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode jpeg")
		}
	default:
		return Blob{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unsupported export kind %q", kind))
	}
	return Blob{Kind: kind, Data: buf.Bytes()}, nil
}

// flatten composites img onto white; JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	xdraw.Draw(out, b, image.White, image.Point{}, xdraw.Src)
	xdraw.Draw(out, b, img, b.Min, xdraw.Over)
	return out
}
