package httptransport

import (
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"

	"kiosk/internal/raster"
	dErrors "kiosk/pkg/domain-errors"
)

// maxFieldLength bounds a single form field value, in characters.
const maxFieldLength = 256

// ConsentRequest is the body of POST /api/consent.
type ConsentRequest struct {
	Accepted *bool `json:"accepted"`
}

func (r *ConsentRequest) Validate() error {
	if r.Accepted == nil {
		return dErrors.New(dErrors.CodeValidation, "accepted is required")
	}
	return nil
}

// FieldRequest is the body of PUT /api/visitor/fields/{field}.
type FieldRequest struct {
	Value string `json:"value"`
}

func (r *FieldRequest) Validate() error {
	if !govalidator.StringLength(r.Value, "0", strconv.Itoa(maxFieldLength)) {
		return dErrors.New(dErrors.CodeValidation, "value is too long")
	}
	return nil
}

// PointerType is a signature pad input event.
type PointerType string

const (
	PointerDown  PointerType = "down"
	PointerMove  PointerType = "move"
	PointerUp    PointerType = "up"
	PointerLeave PointerType = "leave"
)

// PointerRequest is the body of POST /api/signature/pointer. Coordinates are
// in canvas pixels.
type PointerRequest struct {
	Type PointerType `json:"type"`
	X    float64     `json:"x"`
	Y    float64     `json:"y"`
}

func (r *PointerRequest) Validate() error {
	r.Type = PointerType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	switch r.Type {
	case PointerDown, PointerMove, PointerUp, PointerLeave:
		return nil
	default:
		return dErrors.New(dErrors.CodeValidation, "type must be one of down, move, up, leave")
	}
}

func (r *PointerRequest) point() raster.Point {
	return raster.Point{X: r.X, Y: r.Y}
}

// PermissionRequest answers the camera permission prompt.
type PermissionRequest struct {
	Granted *bool `json:"granted"`
}

func (r *PermissionRequest) Validate() error {
	if r.Granted == nil {
		return dErrors.New(dErrors.CodeValidation, "granted is required")
	}
	return nil
}

// ImageRequest carries an image as a data URL, for clients that cannot send
// a raw image body.
type ImageRequest struct {
	DataURL string `json:"data_url"`

	blob raster.Blob
}

func (r *ImageRequest) Validate() error {
	blob, err := raster.ParseDataURL(strings.TrimSpace(r.DataURL))
	if err != nil {
		return err
	}
	if len(blob.Data) > maxImageBytes {
		return dErrors.New(dErrors.CodeBadRequest, "image body too large or unreadable")
	}
	r.blob = blob
	return nil
}
