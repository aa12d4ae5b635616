package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestValidate(t *testing.T) {
	n := New(DefaultConfig())

	tests := map[string]struct {
		mimeType string
		size     int64
		wantErr  bool
	}{
		"jpeg ok":         {mimeType: "image/jpeg", size: 1000, wantErr: false},
		"png ok":          {mimeType: "image/png", size: 1000, wantErr: false},
		"webp ok":         {mimeType: "image/webp", size: 1000, wantErr: false},
		"gif rejected":    {mimeType: "image/gif", size: 1000, wantErr: true},
		"text rejected":   {mimeType: "text/plain", size: 10, wantErr: true},
		"empty rejected":  {mimeType: "", size: 10, wantErr: true},
		"oversize":        {mimeType: "image/jpeg", size: DefaultMaxFileBytes + 1, wantErr: true},
		"exactly at cap":  {mimeType: "image/jpeg", size: DefaultMaxFileBytes, wantErr: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := n.Validate("photo.bin", tc.mimeType, tc.size)
			if tc.wantErr {
				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeKeepsImagesWithinBound(t *testing.T) {
	n := New(Config{MaxDimension: 200, Quality: 0.85, OutputFormat: "image/jpeg"})

	data := encodePNG(t, 150, 80, color.White)
	got, err := n.Normalize("small.png", data)
	require.NoError(t, err)

	assert.Equal(t, 150, got.Width)
	assert.Equal(t, 80, got.Height)
	assert.Equal(t, "image/jpeg", got.MIMEType)

	w, h := decodeDims(t, got.Data)
	assert.Equal(t, 150, w)
	assert.Equal(t, 80, h)
}

func TestNormalizeDownscalesLongestEdge(t *testing.T) {
	n := New(Config{MaxDimension: 100, Quality: 0.85, OutputFormat: "image/jpeg"})

	data := encodePNG(t, 400, 200, color.White)
	got, err := n.Normalize("wide.png", data)
	require.NoError(t, err)

	assert.Equal(t, 100, got.Width)
	assert.Equal(t, 50, got.Height)

	w, h := decodeDims(t, got.Data)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestNormalizeRoundsEdgesIndependently(t *testing.T) {
	n := New(Config{MaxDimension: 100, Quality: 0.85, OutputFormat: "image/jpeg"})

	// 333x111 scaled by 100/333: height 33.33 rounds down to 33.
	data := encodePNG(t, 333, 111, color.White)
	got, err := n.Normalize("odd.png", data)
	require.NoError(t, err)

	assert.Equal(t, 100, got.Width)
	assert.Equal(t, 33, got.Height)
}

func TestNormalizePortraitOrientation(t *testing.T) {
	n := New(Config{MaxDimension: 100, Quality: 0.85, OutputFormat: "image/jpeg"})

	data := encodePNG(t, 200, 400, color.White)
	got, err := n.Normalize("tall.png", data)
	require.NoError(t, err)

	assert.Equal(t, 50, got.Width)
	assert.Equal(t, 100, got.Height)
}

func TestNormalizeFlattensAlphaOntoWhite(t *testing.T) {
	n := New(Config{MaxDimension: 0, Quality: 1, OutputFormat: "image/jpeg"})

	data := encodePNG(t, 10, 10, color.NRGBA{0, 0, 0, 0})
	got, err := n.Normalize("transparent.png", data)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)

	// Fully transparent source should come out white, not black.
	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestNormalizePNGOutput(t *testing.T) {
	n := New(Config{MaxDimension: 100, Quality: 0.85, OutputFormat: "image/png"})

	data := encodePNG(t, 50, 50, color.NRGBA{10, 20, 30, 255})
	got, err := n.Normalize("keep.png", data)
	require.NoError(t, err)

	assert.Equal(t, "image/png", got.MIMEType)
	_, format, err := image.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestNormalizeRejectsUndecodableData(t *testing.T) {
	n := New(DefaultConfig())

	_, err := n.Normalize("garbage.jpg", []byte("definitely not an image"))
	var normErr *NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, "decode", normErr.Stage)
}
