package raster

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kiosk/pkg/domain-errors"
)

// forgedPNG is a PNG whose IHDR declares w×h RGBA pixels but carries no
// image data.
func forgedPNG(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(typ), data...)
		buf.Write(body)
		_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestDecode_RejectsOversizedHeaders(t *testing.T) {
	cases := map[string][2]uint32{
		"over budget":   {16000, 16000},
		"far over":      {50000, 50000},
		"one long side": {MaxDecodePixels + 1, 1},
	}
	for name, dims := range cases {
		t.Run(name, func(t *testing.T) {
			data := forgedPNG(dims[0], dims[1])
			require.Less(t, len(data), 100)

			_, err := Decode(data)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			assert.Equal(t, "The image is too large. Please use a smaller photo.", dErrors.MessageOf(err))
		})
	}
}

func TestDecode_AcceptsImagesWithinBudget(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48))))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestDecode_TruncatedBodyWithinBudget(t *testing.T) {
	_, err := Decode(forgedPNG(32, 32))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Equal(t, "Unable to process the image. Please try again.", dErrors.MessageOf(err))
}
