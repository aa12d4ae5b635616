package listing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaplist/snaplist/internal/llm"
	"github.com/snaplist/snaplist/internal/registry"
)

func TestComposeEmptyResult(t *testing.T) {
	doc := Compose(llm.Analysis{}, nil, Options{})

	assert.Equal(t, "Product", doc.Title)
	assert.Equal(t, []Row{
		{Label: "Brand", Value: "N/A"},
		{Label: "Condition", Value: "Used"},
		{Label: "Category", Value: "Other"},
	}, doc.Rows)
	assert.Equal(t, "Quality product in good condition.", doc.Description)
	assert.Contains(t, doc.CompleteHTML, "<!DOCTYPE html>")
}

func TestComposeTitle(t *testing.T) {
	tests := map[string]struct {
		result llm.Analysis
		want   string
	}{
		"suggested title wins": {
			result: llm.Analysis{"suggestedTitle": "Acme Widget Pro 2000", "brand": "Acme", "productName": "Widget"},
			want:   "Acme Widget Pro 2000",
		},
		"brand and product fallback": {
			result: llm.Analysis{"brand": "Acme", "productName": "Widget"},
			want:   "Acme Widget",
		},
		"brand only": {
			result: llm.Analysis{"brand": "Acme"},
			want:   "Acme",
		},
		"product only": {
			result: llm.Analysis{"productName": "Widget"},
			want:   "Widget",
		},
		"nothing": {
			result: llm.Analysis{},
			want:   "Product",
		},
		"non-string title ignored": {
			result: llm.Analysis{"suggestedTitle": float64(42), "brand": "Acme"},
			want:   "Acme",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compose(tc.result, nil, Options{}).Title)
		})
	}
}

func TestComposeRowsNormalizesLabels(t *testing.T) {
	doc := Compose(llm.Analysis{
		"specifications": map[string]any{
			"battery_life": "10 hours",
			"screen-size":  "6.1 inch",
		},
	}, nil, Options{})

	assert.Equal(t, []Row{
		{Label: "Battery Life", Value: "10 hours"},
		{Label: "Screen Size", Value: "6.1 inch"},
	}, doc.Rows)
}

func TestComposeRowsCoercion(t *testing.T) {
	doc := Compose(llm.Analysis{
		"specifications": map[string]any{
			"colors":    []any{"red", "blue", "green"},
			"weight":    float64(1.5),
			"count":     float64(3),
			"wireless":  true,
			"warranty":  nil,
			"ports":     map[string]any{"usb_c": float64(2), "hdmi": float64(1)},
			"blank":     "   ",
			"empty_arr": []any{},
		},
	}, nil, Options{})

	byLabel := map[string]string{}
	for _, row := range doc.Rows {
		byLabel[row.Label] = row.Value
	}

	assert.Equal(t, "red, blue, green", byLabel["Colors"])
	assert.Equal(t, "1.5", byLabel["Weight"])
	assert.Equal(t, "3", byLabel["Count"])
	assert.Equal(t, "true", byLabel["Wireless"])
	assert.Equal(t, "—", byLabel["Warranty"])
	assert.Equal(t, "Hdmi: 1; Usb C: 2", byLabel["Ports"])
	assert.NotContains(t, byLabel, "Blank")
	assert.NotContains(t, byLabel, "Empty Arr")
}

func TestComposeRowsSortedByLabel(t *testing.T) {
	doc := Compose(llm.Analysis{
		"specifications": map[string]any{
			"zoom":       "8x",
			"aperture":   "f/1.8",
			"megapixels": float64(48),
		},
	}, nil, Options{})

	labels := make([]string, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		labels = append(labels, row.Label)
	}
	assert.Equal(t, []string{"Aperture", "Megapixels", "Zoom"}, labels)
}

func TestComposeDescriptionFallback(t *testing.T) {
	tests := map[string]struct {
		result llm.Analysis
		want   string
	}{
		"description wins": {
			result: llm.Analysis{"description": "Lovely gadget.", "brand": "Acme"},
			want:   "Lovely gadget.",
		},
		"built from parts": {
			result: llm.Analysis{
				"brand":       "Acme",
				"productName": "Widget",
				"keyFeatures": []any{"fast", "light"},
				"condition":   "Like new",
			},
			want: "Acme Widget. Key features: fast, light. Condition: Like new",
		},
		"brand without product omitted": {
			result: llm.Analysis{"brand": "Acme", "condition": "Used"},
			want:   "Condition: Used",
		},
		"generic": {
			result: llm.Analysis{},
			want:   "Quality product in good condition.",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compose(tc.result, nil, Options{}).Description)
		})
	}
}

func TestComposeTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", 600)
	doc := Compose(llm.Analysis{"description": long}, nil, Options{})
	assert.Len(t, doc.Description, DefaultMaxDescriptionLen)

	short := Compose(llm.Analysis{"description": long}, nil, Options{MaxDescriptionLen: 10})
	assert.Equal(t, strings.Repeat("a", 10), short.Description)
}

func TestComposeTruncatesByRunesNotBytes(t *testing.T) {
	long := strings.Repeat("ä", 20)
	doc := Compose(llm.Analysis{"description": long}, nil, Options{MaxDescriptionLen: 5})
	assert.Equal(t, strings.Repeat("ä", 5), doc.Description)
}

func TestComposeIsDeterministic(t *testing.T) {
	result := llm.Analysis{
		"brand":       "Acme",
		"productName": "Widget",
		"specifications": map[string]any{
			"color":  "red",
			"weight": "1 kg",
			"sizes":  []any{"S", "M", "L"},
		},
	}
	images := []registry.Image{
		{ID: "1", Name: "a.jpg", MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}},
	}

	first := Compose(result, images, Options{})
	second := Compose(result, images, Options{})
	assert.Equal(t, first, second)
	assert.Equal(t, first.CompleteHTML, second.CompleteHTML)
}

func TestRenderHTMLEscapesUntrustedText(t *testing.T) {
	doc := Compose(llm.Analysis{
		"suggestedTitle": `<script>alert("x")</script>`,
		"description":    `click <a href="evil">here</a>`,
	}, nil, Options{})

	assert.NotContains(t, doc.CompleteHTML, "<script>")
	assert.Contains(t, doc.CompleteHTML, "&lt;script&gt;")
	assert.NotContains(t, doc.CompleteHTML, `<a href="evil">`)
}

func TestRenderHTMLEmbedsImages(t *testing.T) {
	images := []registry.Image{
		registry.NewImage("a.jpg", "image/jpeg", []byte("one"), 3),
		registry.NewImage("b.jpg", "image/jpeg", []byte("two"), 3),
		registry.NewImage("c.jpg", "image/jpeg", []byte("three"), 5),
	}

	doc := Compose(llm.Analysis{}, images, Options{})

	assert.Contains(t, doc.CompleteHTML, "hero-image")
	assert.Contains(t, doc.CompleteHTML, "gallery-grid")
	for _, img := range images {
		assert.Contains(t, doc.CompleteHTML, img.DataURI())
	}
	// No external references: the document is self-contained.
	assert.NotContains(t, doc.CompleteHTML, `src="http`)
}

func TestRenderHTMLNoImages(t *testing.T) {
	doc := Compose(llm.Analysis{}, nil, Options{})

	assert.NotContains(t, doc.CompleteHTML, "hero-image")
	assert.NotContains(t, doc.CompleteHTML, "gallery-grid")
	assert.Contains(t, doc.CompleteHTML, "Product Specifications")
}

func TestRenderHTMLFixedSections(t *testing.T) {
	doc := Compose(llm.Analysis{"brand": "Acme", "condition": "Used", "category": "Electronics"}, nil, Options{})

	assert.Contains(t, doc.CompleteHTML, "Shipping &amp; Service")
	assert.Contains(t, doc.CompleteHTML, "cta-banner")
	assert.Contains(t, doc.CompleteHTML, `<span class="badge">Acme</span>`)
	assert.Contains(t, doc.CompleteHTML, "Acme · Electronics")
}

func TestSpecsText(t *testing.T) {
	doc := &Document{Rows: []Row{
		{Label: "Brand", Value: "Acme"},
		{Label: "Condition", Value: "Used"},
	}}
	assert.Equal(t, "Brand: Acme\nCondition: Used", doc.SpecsText())

	empty := &Document{}
	assert.Equal(t, "", empty.SpecsText())
}

func TestComposeDefaultsMaxLenWhenZero(t *testing.T) {
	long := strings.Repeat("b", DefaultMaxDescriptionLen+50)
	doc := Compose(llm.Analysis{"description": long}, nil, Options{MaxDescriptionLen: 0})
	require.Len(t, doc.Description, DefaultMaxDescriptionLen)
}
