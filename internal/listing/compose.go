// Package listing turns an analysis result and the current images into a
// rendered eBay-style listing document. Everything here is a pure
// function of its inputs.
package listing

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/snaplist/snaplist/internal/llm"
	"github.com/snaplist/snaplist/internal/registry"
)

// DefaultMaxDescriptionLen is the hard character cap on descriptions.
const DefaultMaxDescriptionLen = 500

// DownloadFileName is the fixed name for the exported document.
const DownloadFileName = "ebay-listing.html"

// missingValue is the placeholder for null spec values.
const missingValue = "—"

// Row is one label/value pair of the specification table.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Document is a rendered listing. It has no identity of its own: it is
// recomputed wholesale from the current analysis and images.
type Document struct {
	Title        string `json:"title"`
	Rows         []Row  `json:"specificationRows"`
	Description  string `json:"description"`
	CompleteHTML string `json:"completeHtml"`
}

// SpecsText renders the specification table as plain text for clipboard
// export.
func (d *Document) SpecsText() string {
	lines := make([]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		lines = append(lines, row.Label+": "+row.Value)
	}
	return strings.Join(lines, "\n")
}

// Options configures composition.
type Options struct {
	// MaxDescriptionLen is a hard character cut, not word-aware.
	MaxDescriptionLen int
}

// Compose builds a Document from an untrusted analysis result and the
// registry images. It is total: every missing or ill-typed field
// degrades to a fallback, and an empty result with no images still
// produces a valid document.
func Compose(result llm.Analysis, images []registry.Image, opts Options) *Document {
	maxLen := opts.MaxDescriptionLen
	if maxLen <= 0 {
		maxLen = DefaultMaxDescriptionLen
	}

	title := composeTitle(result)
	rows := composeRows(result)
	description := truncate(composeDescription(result), maxLen)

	return &Document{
		Title:        title,
		Rows:         rows,
		Description:  description,
		CompleteHTML: renderHTML(title, rows, description, result, images),
	}
}

func composeTitle(result llm.Analysis) string {
	if t := result.Str("suggestedTitle"); t != "" {
		return t
	}
	title := strings.TrimSpace(result.Str("brand") + " " + result.Str("productName"))
	if title == "" {
		return "Product"
	}
	return title
}

func composeRows(result llm.Analysis) []Row {
	specs, ok := result["specifications"].(map[string]any)
	if !ok {
		brand := result.Str("brand")
		if brand == "" {
			brand = "N/A"
		}
		condition := result.Str("condition")
		if condition == "" {
			condition = "Used"
		}
		category := result.Str("category")
		if category == "" {
			category = "Other"
		}
		return []Row{
			{Label: "Brand", Value: brand},
			{Label: "Condition", Value: condition},
			{Label: "Category", Value: category},
		}
	}

	rows := make([]Row, 0, len(specs))
	for key, value := range specs {
		coerced := coerceValue(value)
		if strings.TrimSpace(coerced) == "" {
			continue
		}
		rows = append(rows, Row{Label: normalizeLabel(key), Value: coerced})
	}
	// JSON object order does not survive decoding into a map, so rows
	// sort by label to keep composition deterministic.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
	return rows
}

// normalizeLabel turns a raw spec key into a display label:
// underscores and hyphens become spaces, each word is capitalized.
func normalizeLabel(key string) string {
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	words := strings.Fields(key)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// coerceValue renders an untrusted spec value: arrays join their
// elements, one level of nested mapping flattens to "Key: value" pairs,
// null becomes an em dash.
func coerceValue(value any) string {
	switch v := value.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, elem := range v {
			parts = append(parts, coerceScalar(elem))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, normalizeLabel(k)+": "+coerceScalar(v[k]))
		}
		return strings.Join(parts, "; ")
	default:
		return coerceScalar(value)
	}
}

func coerceScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return missingValue
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func composeDescription(result llm.Analysis) string {
	if d := result.Str("description"); d != "" {
		return d
	}

	var parts []string
	brand := result.Str("brand")
	productName := result.Str("productName")
	if brand != "" && productName != "" {
		parts = append(parts, brand+" "+productName)
	}
	if features := keyFeatures(result); len(features) > 0 {
		parts = append(parts, "Key features: "+strings.Join(features, ", "))
	}
	if condition := result.Str("condition"); condition != "" {
		parts = append(parts, "Condition: "+condition)
	}

	if len(parts) == 0 {
		return "Quality product in good condition."
	}
	return strings.Join(parts, ". ")
}

func keyFeatures(result llm.Analysis) []string {
	raw, ok := result["keyFeatures"].([]any)
	if !ok {
		return nil
	}
	features := make([]string, 0, len(raw))
	for _, elem := range raw {
		if f := strings.TrimSpace(coerceScalar(elem)); f != "" && f != missingValue {
			features = append(features, f)
		}
	}
	return features
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

func esc(s string) string {
	return html.EscapeString(s)
}
