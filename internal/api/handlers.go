package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/snaplist/snaplist/internal/llm"
	"github.com/snaplist/snaplist/internal/session"
)

// maxUploadMemory bounds in-memory multipart parsing; larger parts spill
// to temp files.
const maxUploadMemory = 32 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

type imageView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MIMEType   string `json:"mimeType"`
	ApproxSize int    `json:"approxSizeBytes"`
	SizeLabel  string `json:"sizeLabel"`
	DataURI    string `json:"dataUri"`
}

type stateView struct {
	State         session.State          `json:"state"`
	Revision      int64                  `json:"revision"`
	CanAnalyze    bool                   `json:"canAnalyze"`
	HasListing    bool                   `json:"hasListing"`
	Images        []imageView            `json:"images"`
	Notifications []session.Notification `json:"notifications"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	images := s.session.Images()
	views := make([]imageView, len(images))
	for i, img := range images {
		views[i] = imageView{
			ID:         img.ID,
			Name:       img.Name,
			MIMEType:   img.MIMEType,
			ApproxSize: img.ApproxSize,
			SizeLabel:  humanize.Bytes(uint64(img.ApproxSize)),
			DataURI:    img.DataURI(),
		}
	}

	notes := s.session.DrainNotifications()
	if notes == nil {
		notes = []session.Notification{}
	}

	s.respondWithJSON(w, http.StatusOK, stateView{
		State:         s.session.State(),
		Revision:      s.session.Revision(),
		CanAnalyze:    s.session.CanAnalyze(),
		HasListing:    s.session.Document() != nil,
		Images:        views,
		Notifications: notes,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "no images in request")
		return
	}

	files := make([]session.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			log.Warn().Err(err).Str("name", header.Filename).Msg("failed to open upload part")
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			log.Warn().Err(err).Str("name", header.Filename).Msg("failed to read upload part")
			continue
		}
		files = append(files, session.UploadFile{
			Name:     header.Filename,
			MIMEType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Data:     data,
		})
	}

	added := s.session.AddFiles(r.Context(), files)
	s.respondWithJSON(w, http.StatusOK, map[string]int{
		"added":    added,
		"rejected": len(headers) - added,
	})
}

func (s *Server) handleImportURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &req); err != nil || req.URL == "" {
		s.respondWithError(w, http.StatusBadRequest, "url is required")
		return
	}

	if err := s.session.AddFromURL(r.Context(), req.URL); err != nil {
		s.respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	s.session.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	doc, err := s.session.Analyze(r.Context())
	if err != nil {
		var emptyErr *llm.EmptyInputError
		var transportErr *llm.TransportError
		var malformedErr *llm.MalformedResponseError
		switch {
		case errors.As(err, &emptyErr):
			s.respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, session.ErrAnalysisInFlight):
			s.respondWithError(w, http.StatusConflict, err.Error())
		case errors.As(err, &transportErr), errors.As(err, &malformedErr):
			s.respondWithError(w, http.StatusBadGateway, err.Error())
		default:
			s.respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondWithJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	doc := s.session.Document()
	if doc == nil {
		s.respondWithError(w, http.StatusNotFound, "no listing has been generated yet")
		return
	}
	s.respondWithJSON(w, http.StatusOK, doc)
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	text, err := s.session.Artifact(r.URL.Query().Get("kind"))
	if err != nil {
		if errors.Is(err, session.ErrNoListing) {
			s.respondWithError(w, http.StatusNotFound, err.Error())
		} else {
			s.respondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name, content, err := s.session.ExportHTML()
	if err != nil {
		s.respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	io.WriteString(w, content)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
