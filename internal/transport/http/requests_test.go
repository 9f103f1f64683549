package httptransport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/raster"
	dErrors "kiosk/pkg/domain-errors"
)

func TestFieldRequest_LengthCountsCharacters(t *testing.T) {
	cases := map[string]struct {
		value string
		ok    bool
	}{
		"empty":               {"", true},
		"ascii at limit":      {strings.Repeat("a", maxFieldLength), true},
		"ascii over limit":    {strings.Repeat("a", maxFieldLength+1), false},
		"multibyte at limit":  {strings.Repeat("é", maxFieldLength), true},
		"multibyte over":      {strings.Repeat("ü", maxFieldLength+1), false},
		"isiZulu name":        {"Nomvula Dlamini-Ngcobo", true},
		"emoji within budget": {strings.Repeat("🙂", 100), true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := FieldRequest{Value: tc.value}
			err := req.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestImageRequest_SizeMatchesRawBodyLimit(t *testing.T) {
	within := raster.Blob{Kind: raster.KindPNG, Data: make([]byte, 1024)}
	req := ImageRequest{DataURL: within.DataURL()}
	require.NoError(t, req.Validate())
	assert.Len(t, req.blob.Data, 1024)

	over := raster.Blob{Kind: raster.KindPNG, Data: make([]byte, maxImageBytes+1)}
	req = ImageRequest{DataURL: over.DataURL()}
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeBadRequest))
}

func TestImageJSONLimitFitsEncodedImage(t *testing.T) {
	full := raster.Blob{Kind: raster.KindJPEG, Data: make([]byte, maxImageBytes)}
	body := `{"data_url":"` + full.DataURL() + `"}`
	assert.LessOrEqual(t, int64(len(body)), int64(maxImageJSONBytes))
}
