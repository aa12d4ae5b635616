// Package registry holds the ordered collection of uploaded, normalized
// images that feed both analysis requests and the rendered listing.
package registry

import (
	"encoding/base64"
	"sync"

	"github.com/google/uuid"
)

// Image is an uploaded image that has passed validation and
// normalization. Images are never mutated after being added.
type Image struct {
	ID           string
	Name         string
	MIMEType     string
	Data         []byte
	OriginalSize int64
	// ApproxSize is the base64-encoded length of Data, a display-only
	// estimate of the embedded size.
	ApproxSize int
}

// NewImage assigns an opaque id and the embedded-size estimate.
func NewImage(name, mimeType string, data []byte, originalSize int64) Image {
	return Image{
		ID:           uuid.NewString(),
		Name:         name,
		MIMEType:     mimeType,
		Data:         data,
		OriginalSize: originalSize,
		ApproxSize:   base64.StdEncoding.EncodedLen(len(data)),
	}
}

// DataURI renders the image as a self-describing embeddable blob.
func (img Image) DataURI() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Registry is an ordered, id-keyed image collection. It is only ever
// mutated by the session controller, but is safe for concurrent use since
// per-file normalizations complete on separate goroutines.
type Registry struct {
	mu          sync.RWMutex
	images      []Image
	subscribers []func()
}

func New() *Registry {
	return &Registry{}
}

// Add appends an image. Insertion order is normalization-completion
// order, not submission order.
func (r *Registry) Add(img Image) {
	r.mu.Lock()
	r.images = append(r.images, img)
	r.mu.Unlock()
	r.notify()
}

// Remove deletes the image with the given id. Unknown ids are a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	removed := false
	for i, img := range r.images {
		if img.ID == id {
			r.images = append(r.images[:i], r.images[i+1:]...)
			removed = true
			break
		}
	}
	r.mu.Unlock()
	if removed {
		r.notify()
	}
}

// List returns the current images in order. The returned slice is a copy.
func (r *Registry) List() []Image {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Image, len(r.images))
	copy(out, r.images)
	return out
}

// Len returns the number of images.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.images)
}

// Subscribe registers fn to run after every add or remove.
func (r *Registry) Subscribe(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

func (r *Registry) notify() {
	r.mu.RLock()
	subs := make([]func(), len(r.subscribers))
	copy(subs, r.subscribers)
	r.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}
