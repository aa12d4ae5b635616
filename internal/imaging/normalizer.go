// Package imaging normalizes uploaded product photos: decode, optional
// downscale to a maximum edge, re-encode at a target format and quality.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"

	// Registers WebP decoding for image.Decode.
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1600
	DefaultQuality      = 0.85
	DefaultOutputFormat = "image/jpeg"

	// DefaultMaxFileBytes is the upload size ceiling (20 MiB).
	DefaultMaxFileBytes = 20 * 1024 * 1024
)

// supportedFormats are the MIME types accepted for upload.
var supportedFormats = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Config controls normalization.
type Config struct {
	// MaxDimension bounds the longest edge. Zero means no downscaling.
	MaxDimension int
	// Quality in [0,1], applied to lossy output formats.
	Quality float64
	// OutputFormat is the target MIME type (image/jpeg or image/png).
	OutputFormat string
	// MaxFileBytes rejects larger uploads before decoding.
	MaxFileBytes int64
}

// DefaultConfig returns the configuration matching the original tool.
func DefaultConfig() Config {
	return Config{
		MaxDimension: DefaultMaxDimension,
		Quality:      DefaultQuality,
		OutputFormat: DefaultOutputFormat,
		MaxFileBytes: DefaultMaxFileBytes,
	}
}

// Normalized is the result of a successful normalization.
type Normalized struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// Normalizer validates and normalizes uploaded images.
type Normalizer struct {
	cfg Config
}

func New(cfg Config) *Normalizer {
	if cfg.Quality <= 0 || cfg.Quality > 1 {
		cfg.Quality = DefaultQuality
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	return &Normalizer{cfg: cfg}
}

// Validate checks the declared MIME type and byte size of an upload.
// It must pass before Normalize is attempted; a failure is per-file and
// never blocks other files in the same batch.
func (n *Normalizer) Validate(name, mimeType string, size int64) error {
	if !supportedFormats[mimeType] {
		return &ValidationError{Name: name, Reason: fmt.Sprintf("unsupported format %q", mimeType)}
	}
	if size > n.cfg.MaxFileBytes {
		return &ValidationError{Name: name, Reason: fmt.Sprintf("file too large (max %s)", humanize.IBytes(uint64(n.cfg.MaxFileBytes)))}
	}
	return nil
}

// Normalize decodes data, downscales it so the longest edge does not
// exceed MaxDimension (aspect ratio preserved; images already within the
// bound are left unscaled) and re-encodes it at the configured format and
// quality.
func (n *Normalizer) Normalize(name string, data []byte) (*Normalized, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &NormalizationError{Name: name, Stage: "decode", Err: err}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if n.cfg.MaxDimension > 0 {
		longest := width
		if height > longest {
			longest = height
		}
		if longest > n.cfg.MaxDimension {
			scale := float64(n.cfg.MaxDimension) / float64(longest)
			// Both edges round independently; the minor aspect-ratio
			// drift this can cause is the observed behavior.
			width = int(math.Round(float64(bounds.Dx()) * scale))
			height = int(math.Round(float64(bounds.Dy()) * scale))
			img = imaging.Resize(img, width, height, imaging.Lanczos)
		}
	}

	// JPEG has no alpha channel. Composite onto white first so
	// transparent regions don't render as black.
	if n.cfg.OutputFormat == "image/jpeg" {
		background := imaging.New(width, height, color.White)
		img = imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
	}

	encoded, err := n.encode(img)
	if err != nil {
		return nil, &NormalizationError{Name: name, Stage: "encode", Err: err}
	}

	return &Normalized{
		Data:     encoded,
		MIMEType: n.cfg.OutputFormat,
		Width:    width,
		Height:   height,
	}, nil
}

func (n *Normalizer) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	switch n.cfg.OutputFormat {
	case "image/png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, err
		}
	case "image/jpeg", "image/jpg":
		quality := int(math.Round(n.cfg.Quality * 100))
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported output format %q", n.cfg.OutputFormat)
	}
	return buf.Bytes(), nil
}
