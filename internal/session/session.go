// Package session orchestrates the pipeline in response to user actions:
// upload, remove, analyze, copy, download. It owns the registry and the
// latest analysis/document pair.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/snaplist/snaplist/internal/imaging"
	"github.com/snaplist/snaplist/internal/listing"
	"github.com/snaplist/snaplist/internal/llm"
	"github.com/snaplist/snaplist/internal/registry"
)

// State is the user-visible session state.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateAnalyzing State = "analyzing"
)

// ErrAnalysisInFlight is returned when Analyze is called while a previous
// analysis is still running. The guard lives here, not in the UI.
var ErrAnalysisInFlight = errors.New("analysis already in progress")

// ErrNoListing is returned when an artifact is requested before any
// successful analysis.
var ErrNoListing = errors.New("no listing has been generated yet")

// maxNotifications caps the retained notification backlog.
const maxNotifications = 20

// Notification is a short transient user-facing message.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Name     string
	MIMEType string
	Size     int64
	Data     []byte
}

// Session owns the upload registry and the latest analysis result and
// listing document. All failures are session-local: they surface as
// notifications and the session returns to a ready state.
type Session struct {
	reg        *registry.Registry
	normalizer *imaging.Normalizer
	analyzer   llm.Analyzer
	downloader *Downloader
	opts       listing.Options

	mu        sync.Mutex
	state     State
	analyzing bool
	analysis  llm.Analysis
	document  *listing.Document
	notes     []Notification

	revision atomic.Int64
}

// New creates a session. The registry change feed bumps a revision
// counter so the UI can cheaply detect that dependent state (previews,
// analyze enablement) needs refreshing.
func New(normalizer *imaging.Normalizer, analyzer llm.Analyzer, opts listing.Options) *Session {
	s := &Session{
		reg:        registry.New(),
		normalizer: normalizer,
		analyzer:   analyzer,
		downloader: NewDownloader(imaging.DefaultMaxFileBytes),
		opts:       opts,
		state:      StateIdle,
	}
	s.reg.Subscribe(func() {
		s.revision.Add(1)
	})
	return s
}

// AddFiles validates and normalizes every file of a batch concurrently
// and appends the survivors to the registry. Registry order is
// normalization-completion order, which for multi-file batches is not
// guaranteed to match submission order. One bad file never blocks the
// rest; each rejection is reported individually.
func (s *Session) AddFiles(ctx context.Context, files []UploadFile) int {
	if len(files) == 0 {
		return 0
	}

	s.setState(StateUploading)
	defer s.setState(StateIdle)

	var added atomic.Int64
	g := new(errgroup.Group)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := s.ingest(ctx, file); err != nil {
				log.Warn().Err(err).Str("name", file.Name).Msg("file rejected")
				s.notify("error", err.Error())
				return nil
			}
			added.Add(1)
			return nil
		})
	}
	g.Wait()

	return int(added.Load())
}

func (s *Session) ingest(_ context.Context, file UploadFile) error {
	if err := s.normalizer.Validate(file.Name, file.MIMEType, file.Size); err != nil {
		return err
	}
	normalized, err := s.normalizer.Normalize(file.Name, file.Data)
	if err != nil {
		return err
	}

	img := registry.NewImage(file.Name, normalized.MIMEType, normalized.Data, file.Size)
	s.reg.Add(img)

	log.Info().
		Str("id", img.ID).
		Str("name", img.Name).
		Int("width", normalized.Width).
		Int("height", normalized.Height).
		Int("approxSize", img.ApproxSize).
		Msg("image added")
	return nil
}

// AddFromURL imports a remote image through the normal validate and
// normalize path.
func (s *Session) AddFromURL(ctx context.Context, imageURL string) error {
	name, mimeType, data, err := s.downloader.Fetch(ctx, imageURL)
	if err != nil {
		s.notify("error", fmt.Sprintf("could not fetch image: %v", err))
		return err
	}
	if err := s.ingest(ctx, UploadFile{Name: name, MIMEType: mimeType, Size: int64(len(data)), Data: data}); err != nil {
		s.notify("error", err.Error())
		return err
	}
	return nil
}

// Remove deletes an image by id. Unknown ids are a no-op.
func (s *Session) Remove(id string) {
	s.reg.Remove(id)
}

// Images returns the current registry contents in order.
func (s *Session) Images() []registry.Image {
	return s.reg.List()
}

// Analyze runs one analysis round-trip over the current registry and
// recomputes the listing document wholesale on success. At most one
// analysis is in flight at a time; an empty registry is rejected before
// any network work.
func (s *Session) Analyze(ctx context.Context) (*listing.Document, error) {
	images := s.reg.List()
	if len(images) == 0 {
		return nil, &llm.EmptyInputError{}
	}

	s.mu.Lock()
	if s.analyzing {
		s.mu.Unlock()
		return nil, ErrAnalysisInFlight
	}
	s.analyzing = true
	s.state = StateAnalyzing
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.analyzing = false
		s.state = StateIdle
		s.mu.Unlock()
	}()

	inputs := make([]llm.ImageInput, len(images))
	for i, img := range images {
		inputs[i] = llm.ImageInput{Data: img.Data, MIMEType: img.MIMEType}
	}

	result, err := s.analyzer.AnalyzeImages(ctx, inputs)
	if err != nil {
		s.notify("error", fmt.Sprintf("Analysis failed: %v", err))
		return nil, err
	}

	doc := listing.Compose(result, images, s.opts)

	s.mu.Lock()
	s.analysis = result
	s.document = doc
	s.mu.Unlock()

	s.notify("success", "eBay listing generated successfully!")
	return doc, nil
}

// Document returns the latest composed listing, or nil before the first
// successful analysis.
func (s *Session) Document() *listing.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

// Artifact returns one listing artifact as plain text for clipboard
// export, selected by kind: title, specs, description or html.
func (s *Session) Artifact(kind string) (string, error) {
	s.mu.Lock()
	doc := s.document
	s.mu.Unlock()
	if doc == nil {
		return "", ErrNoListing
	}

	switch kind {
	case "title":
		return doc.Title, nil
	case "specs":
		return doc.SpecsText(), nil
	case "description":
		return doc.Description, nil
	case "html":
		return doc.CompleteHTML, nil
	default:
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
}

// ExportHTML returns the fixed download file name and the complete
// document for file export.
func (s *Session) ExportHTML() (string, string, error) {
	s.mu.Lock()
	doc := s.document
	s.mu.Unlock()
	if doc == nil {
		return "", "", ErrNoListing
	}
	return listing.DownloadFileName, doc.CompleteHTML, nil
}

// State returns the current user-visible state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CanAnalyze reports whether the analyze action should be enabled: a
// non-empty registry and no analysis in flight.
func (s *Session) CanAnalyze() bool {
	s.mu.Lock()
	analyzing := s.analyzing
	s.mu.Unlock()
	return !analyzing && s.reg.Len() > 0
}

// Revision increases on every registry change.
func (s *Session) Revision() int64 {
	return s.revision.Load()
}

// DrainNotifications returns and clears the pending notifications.
func (s *Session) DrainNotifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := s.notes
	s.notes = nil
	return notes
}

func (s *Session) notify(level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, Notification{Level: level, Message: message})
	if len(s.notes) > maxNotifications {
		s.notes = s.notes[len(s.notes)-maxNotifications:]
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
