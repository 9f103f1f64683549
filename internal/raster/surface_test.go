package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kiosk/pkg/domain-errors"
)

func alphaAt(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a
}

func TestNewSurface_RejectsInvalidGeometry(t *testing.T) {
	for _, dims := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		_, err := NewSurface(dims[0], dims[1])
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidGeometry))
	}
}

func TestSurface_DrawPathAndClear(t *testing.T) {
	s, err := NewSurface(40, 20)
	require.NoError(t, err)
	assert.Zero(t, alphaAt(s.Image(), 20, 10), "new surface is transparent")

	s.DrawPath([]Point{{X: 2, Y: 10}, {X: 38, Y: 10}})
	assert.NotZero(t, alphaAt(s.Image(), 20, 10), "stroke crosses the middle")

	s.Clear()
	assert.Zero(t, alphaAt(s.Image(), 20, 10))
}

func TestSurface_SinglePointDrawsDot(t *testing.T) {
	s, err := NewSurface(20, 20, WithStroke(6, color.Black))
	require.NoError(t, err)
	s.DrawPath([]Point{{X: 10, Y: 10}})
	assert.NotZero(t, alphaAt(s.Image(), 10, 10))
}

func TestSurface_Resize(t *testing.T) {
	s, err := NewSurface(10, 10)
	require.NoError(t, err)
	s.DrawPath([]Point{{X: 0, Y: 5}, {X: 10, Y: 5}})

	require.NoError(t, s.Resize(30, 15))
	assert.Equal(t, 30, s.Width())
	assert.Equal(t, 15, s.Height())
	assert.Zero(t, alphaAt(s.Image(), 5, 5), "resize discards content")

	err = s.Resize(0, 15)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidGeometry))
	assert.Equal(t, 30, s.Width(), "failed resize keeps the old canvas")
}

func TestSurface_DrawImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	t.Run("scales into destination", func(t *testing.T) {
		s, err := NewSurface(20, 20)
		require.NoError(t, err)
		require.NoError(t, s.DrawImage(src, image.Rect(0, 0, 10, 10)))
		r, _, _, a := s.Image().At(5, 5).RGBA()
		assert.NotZero(t, a)
		assert.NotZero(t, r)
		assert.Zero(t, alphaAt(s.Image(), 15, 15))
	})

	t.Run("empty destination is invalid geometry", func(t *testing.T) {
		s, err := NewSurface(20, 20)
		require.NoError(t, err)
		err = s.DrawImage(src, image.Rect(5, 5, 5, 10))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidGeometry))
	})
}

func TestSurface_Export(t *testing.T) {
	s, err := NewSurface(16, 8)
	require.NoError(t, err)
	s.DrawPath([]Point{{X: 1, Y: 4}, {X: 15, Y: 4}})

	t.Run("png round-trips dimensions", func(t *testing.T) {
		blob, err := s.Export(KindPNG)
		require.NoError(t, err)
		assert.Equal(t, KindPNG, blob.Kind)
		img, err := png.Decode(bytes.NewReader(blob.Data))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
	})

	t.Run("jpeg decodes", func(t *testing.T) {
		blob, err := s.Export(KindJPEG)
		require.NoError(t, err)
		img, err := Decode(blob.Data)
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
	})

	t.Run("unsupported kind", func(t *testing.T) {
		_, err := s.Export(Kind("image/gif"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
