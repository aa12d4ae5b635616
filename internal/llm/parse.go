package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ExtractAnalysis pulls a JSON object out of free-form model output. The
// model is told to respond with bare JSON but may wrap it in prose or
// markdown fences, so the grammar is: strip code-fence markers, then take
// the span from the first '{' through the last '}' and parse it.
func ExtractAnalysis(text string) (Analysis, error) {
	cleaned := stripFences(text)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return nil, &MalformedResponseError{Raw: text, Err: errors.New("no JSON object found")}
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &fields); err != nil {
		return nil, &MalformedResponseError{Raw: text, Err: err}
	}

	return Analysis(fields), nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
