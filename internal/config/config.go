package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/snaplist/snaplist/internal/imaging"
	"github.com/snaplist/snaplist/internal/listing"
)

const (
	AppName     = "snaplist"
	EnvFileName = "config.env"
)

// Config holds the runtime configuration, sourced from the environment.
type Config struct {
	// Addr is the listen address of the local web UI.
	Addr string
	// DBPath is the SQLite analysis-cache location.
	DBPath string
	// GeminiAPIKey authenticates analysis calls. Required.
	GeminiAPIKey string

	Imaging           imaging.Config
	MaxDescriptionLen int
}

// LoadEnvFile loads environment variables from a local .env file and the
// config file in the user's config directory. Errors are ignored since
// the files may not exist.
func LoadEnvFile() {
	_ = godotenv.Load()
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
}

// Load reads configuration from the environment with defaults.
func Load() Config {
	cfg := Config{
		Addr:              envStr("SNAPLIST_ADDR", "127.0.0.1:8383"),
		DBPath:            envStr("SNAPLIST_DB_PATH", "snaplist.db"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		Imaging:           imaging.DefaultConfig(),
		MaxDescriptionLen: envInt("SNAPLIST_MAX_DESCRIPTION", listing.DefaultMaxDescriptionLen),
	}
	cfg.Imaging.MaxDimension = envInt("SNAPLIST_MAX_DIMENSION", cfg.Imaging.MaxDimension)
	if q, err := strconv.ParseFloat(os.Getenv("SNAPLIST_JPEG_QUALITY"), 64); err == nil && q > 0 && q <= 1 {
		cfg.Imaging.Quality = q
	}
	return cfg
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
