package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/snaplist/snaplist/internal/api"
	"github.com/snaplist/snaplist/internal/config"
	"github.com/snaplist/snaplist/internal/imaging"
	"github.com/snaplist/snaplist/internal/listing"
	"github.com/snaplist/snaplist/internal/llm"
	"github.com/snaplist/snaplist/internal/session"
	"github.com/snaplist/snaplist/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg := config.Load()

	if cfg.GeminiAPIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY environment variable is required")
	}

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analysis cache store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("analysis cache store initialized")

	geminiAnalyzer, err := llm.NewGeminiAnalyzer(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini analyzer")
	}
	analyzer := llm.NewCachedAnalyzer(geminiAnalyzer, store)
	log.Info().Msg("gemini analyzer initialized with caching")

	sess := session.New(
		imaging.New(cfg.Imaging),
		analyzer,
		listing.Options{MaxDescriptionLen: cfg.MaxDescriptionLen},
	)

	server := api.NewServer(cfg.Addr, sess)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}
