package raster

import (
	"bytes"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder

	dErrors "kiosk/pkg/domain-errors"
)

// MaxDecodePixels bounds the area of an uploaded image. Headers are checked
// against it before any pixel memory is allocated.
const MaxDecodePixels = 4096 * 4096

// Decode sniffs and decodes an uploaded image. Anything that does not sniff
// as image/*, or whose header declares more than MaxDecodePixels, is
// rejected before decoding is attempted.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "Please upload a valid image file.")
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "Please upload a valid image file.")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "Please upload a valid image file.")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "The image is too large. Please use a smaller photo.")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "Unable to process the image. Please try again.")
	}
	return img, nil
}
