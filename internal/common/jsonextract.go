package common

import (
	"encoding/json"
	"regexp"
	"strings"
)

// markdownFenceRegex matches a complete markdown code fence block with optional json language tag
var markdownFenceRegex = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// CleanMarkdownFences removes markdown code fences from LLM responses.
// Handles ```json ... ``` and plain ``` ... ``` blocks.
func CleanMarkdownFences(response string) string {
	trimmed := strings.TrimSpace(response)

	if matches := markdownFenceRegex.FindStringSubmatch(trimmed); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	// Fallback for partial fences
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	return strings.TrimSpace(trimmed)
}

// ExtractJSON unmarshals the first JSON object found in an LLM response into v.
// It strips markdown fences first, then falls back to scanning from the first
// '{' to the last '}' when the whole response is not valid JSON.
func ExtractJSON(response string, v interface{}) error {
	cleaned := CleanMarkdownFences(response)

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return json.Unmarshal([]byte(cleaned), v) // return the original error shape
	}

	return json.Unmarshal([]byte(cleaned[start:end+1]), v)
}
