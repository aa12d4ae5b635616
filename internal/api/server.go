// Package api exposes the session over a local HTTP surface: a JSON API
// plus the embedded single-page UI.
package api

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/snaplist/snaplist/internal/session"
)

//go:embed static/index.html
var staticFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	session *session.Session
	http    *http.Server
}

func NewServer(addr string, sess *session.Session) *Server {
	s := &Server{session: sess}
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.setupRouter(),
	}
	return s
}

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/images", s.handleUpload)
		r.Post("/images/url", s.handleImportURL)
		r.Delete("/images/{id}", s.handleRemove)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/listing", s.handleListing)
		r.Get("/listing/artifact", s.handleArtifact)
		r.Get("/listing/download", s.handleDownload)
	})

	return r
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// --- Helper functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
