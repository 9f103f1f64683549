package raster

import (
	"encoding/base64"
	"strings"

	"github.com/dustin/go-humanize"

	dErrors "kiosk/pkg/domain-errors"
)

// Kind is the MIME type of an encoded image.
type Kind string

const (
	KindPNG  Kind = "image/png"
	KindJPEG Kind = "image/jpeg"
)

// Blob is an encoded image payload. Ownership passes with the value: the
// exporter hands it over and keeps no reference to Data.
type Blob struct {
	Kind Kind
	Data []byte
}

// IsZero reports whether the blob carries no image.
func (b Blob) IsZero() bool {
	return len(b.Data) == 0
}

// Size is a human-readable payload size for logs.
func (b Blob) Size() string {
	return humanize.Bytes(uint64(len(b.Data)))
}

// DataURL renders the blob as an RFC 2397 base64 data URL, the format the
// enrollment service stores.
func (b Blob) DataURL() string {
	if b.IsZero() {
		return ""
	}
	return "data:" + string(b.Kind) + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// ParseDataURL is the inverse of DataURL.
func ParseDataURL(s string) (Blob, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Blob{}, dErrors.New(dErrors.CodeInvalidInput, "not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Blob{}, dErrors.New(dErrors.CodeInvalidInput, "data URL has no payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return Blob{}, dErrors.New(dErrors.CodeInvalidInput, "data URL must be base64 encoded")
	}
	if !strings.HasPrefix(mime, "image/") {
		return Blob{}, dErrors.New(dErrors.CodeInvalidInput, "data URL is not an image")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Blob{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "decode data URL payload")
	}
	return Blob{Kind: Kind(mime), Data: data}, nil
}
