package submission

import (
	"strings"
	"time"

	"kiosk/internal/raster"
	"kiosk/internal/visitor"
)

// Payload is the JSON body the enrollment service accepts. Images travel
// as base64 data URLs.
type Payload struct {
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	Contact       string `json:"contact"`
	Email         string `json:"email"`
	IDN           string `json:"idn"`
	Purpose       string `json:"purpose"`
	Organization  string `json:"organization"`
	Signature     string `json:"signature"`
	Selfie        string `json:"selfie"`
	AcceptedPOPIA bool   `json:"accepted_popia"`
	DateOfEntry   string `json:"date_of_entry"`
}

// BuildPayload serializes a snapshot. The purpose is the free-text reason
// when the visitor chose Other.
func BuildPayload(s visitor.Snapshot, now time.Time) Payload {
	return Payload{
		Name:          strings.TrimSpace(s.Name),
		Surname:       strings.TrimSpace(s.Surname),
		Contact:       strings.TrimSpace(s.Contact),
		Email:         strings.TrimSpace(s.Email),
		IDN:           strings.TrimSpace(s.NationalID),
		Purpose:       strings.TrimSpace(s.Purpose.Resolve(s.OtherReason)),
		Organization:  strings.TrimSpace(s.Organization),
		Signature:     dataURL(s.Signature),
		Selfie:        dataURL(s.Face),
		AcceptedPOPIA: s.ConsentGranted,
		DateOfEntry:   now.UTC().Format(time.RFC3339Nano),
	}
}

func dataURL(b *raster.Blob) string {
	if b == nil {
		return ""
	}
	return b.DataURL()
}
