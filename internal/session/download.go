package session

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Downloader fetches remote images for URL imports.
type Downloader struct {
	client   *resty.Client
	maxBytes int64
}

func NewDownloader(maxBytes int64) *Downloader {
	return &Downloader{
		client:   resty.New().SetDebug(false),
		maxBytes: maxBytes,
	}
}

// Fetch downloads an image and returns a file name derived from the URL
// path, the response content type and the raw bytes. The result still
// goes through the normal validate/normalize path afterwards.
func (d *Downloader) Fetch(ctx context.Context, imageURL string) (string, string, []byte, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Host == "" {
		return "", "", nil, fmt.Errorf("invalid image URL %q", imageURL)
	}

	log.Info().Str("url", imageURL).Msg("fetching remote image")

	res, err := d.client.R().SetContext(ctx).Get(imageURL)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if res.IsError() {
		return "", "", nil, fmt.Errorf("fetch failed with status %d", res.StatusCode())
	}

	contentType := res.Header().Get("Content-Type")
	if i := strings.Index(contentType, ";"); i != -1 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", nil, fmt.Errorf("expected an image, got %q", contentType)
	}

	body := res.Body()
	if int64(len(body)) > d.maxBytes {
		return "", "", nil, fmt.Errorf("image exceeds %d byte limit", d.maxBytes)
	}

	name := path.Base(parsed.Path)
	if name == "" || name == "/" || name == "." {
		name = "image"
	}

	return name, contentType, body, nil
}
