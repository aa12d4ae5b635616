// Package llm sends product photos to a multimodal model and extracts a
// structured listing analysis from its free-form response.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Analysis is the untrusted structured result of one analysis call. No
// field is guaranteed present or well-typed; everything is advisory.
// Known keys: productName, brand, category, condition, specifications,
// keyFeatures, suggestedTitle, description, estimatedValue.
type Analysis map[string]any

// Str returns the trimmed string value for key, or "" when the field is
// missing or not a string.
func (a Analysis) Str(key string) string {
	if v, ok := a[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// ImageInput is one image of an analysis request.
type ImageInput struct {
	Data     []byte
	MIMEType string
}

// Usage contains token usage and cost information for one model call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Analyzer analyzes an ordered set of product images.
type Analyzer interface {
	AnalyzeImages(ctx context.Context, images []ImageInput) (Analysis, error)
}

// EmptyInputError means analysis was requested with no images. It is
// returned before any network work happens.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "no images to analyze"
}

// TransportError means the remote call could not be completed or returned
// a non-success status.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("analysis request failed: %s", e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("analysis request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("analysis request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError means the model responded but no analysis could
// be extracted. Raw holds the unparsed text for diagnostic logging; it is
// never shown to the user.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "could not parse analysis from model response"
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
