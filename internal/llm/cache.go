package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/snaplist/snaplist/internal/storage"
)

// CachedAnalyzer wraps an Analyzer with SQLite caching.
type CachedAnalyzer struct {
	inner Analyzer
	store storage.Store
}

// NewCachedAnalyzer creates a cached analyzer.
func NewCachedAnalyzer(inner Analyzer, store storage.Store) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, store: store}
}

// hashImages creates a SHA256 hash from image data.
// Includes length prefix for each image to prevent boundary collisions.
func hashImages(images []ImageInput) string {
	h := sha256.New()
	for _, img := range images {
		// Write length to prevent boundary collisions (e.g. [A,B] vs [AB])
		binary.Write(h, binary.LittleEndian, int64(len(img.Data)))
		h.Write(img.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyzeImages implements the Analyzer interface with caching.
func (c *CachedAnalyzer) AnalyzeImages(ctx context.Context, images []ImageInput) (Analysis, error) {
	if len(images) == 0 {
		return nil, &EmptyInputError{}
	}

	hash := hashImages(images)

	if c.store != nil {
		cached, err := c.store.GetAnalysisCache(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check analysis cache")
		} else if cached != nil {
			var fields map[string]any
			if err := json.Unmarshal([]byte(cached.ResultJSON), &fields); err != nil {
				log.Warn().Err(err).Msg("discarding corrupt analysis cache entry")
			} else {
				log.Debug().Str("hash", hash[:16]).Msg("analysis cache hit")
				return Analysis(fields), nil
			}
		}
	}

	result, err := c.inner.AnalyzeImages(ctx, images)
	if err != nil {
		return nil, err
	}

	if c.store != nil && result != nil {
		resultJSON, err := json.Marshal(result)
		if err != nil {
			log.Warn().Err(err).Msg("failed to marshal analysis result for cache")
		} else if err := c.store.SetAnalysisCache(hash, &storage.AnalysisCacheEntry{ResultJSON: string(resultJSON)}); err != nil {
			log.Warn().Err(err).Msg("failed to cache analysis result")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached analysis result")
		}
	}

	return result, nil
}
