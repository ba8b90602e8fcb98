package common

import (
	"testing"
)

func TestCleanMarkdownFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json fence",
			input:    "```json\n{\"score\": 85}\n```",
			expected: `{"score": 85}`,
		},
		{
			name:     "plain fence",
			input:    "```\n{\"score\": 85}\n```",
			expected: `{"score": 85}`,
		},
		{
			name:     "uppercase JSON fence",
			input:    "```JSON\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "no fence",
			input:    `{"score": 85}`,
			expected: `{"score": 85}`,
		},
		{
			name:     "leading whitespace",
			input:    "   ```json\n{\"x\": true}\n```   ",
			expected: `{"x": true}`,
		},
		{
			name:     "unterminated fence",
			input:    "```json\n{\"x\": true}",
			expected: `{"x": true}`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanMarkdownFences(tt.input)
			if result != tt.expected {
				t.Errorf("CleanMarkdownFences() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	type payload struct {
		Score int    `json:"score"`
		Grade string `json:"grade"`
	}

	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantScore int
	}{
		{
			name:      "clean object",
			input:     `{"score": 85, "grade": "B"}`,
			wantScore: 85,
		},
		{
			name:      "fenced object",
			input:     "```json\n{\"score\": 92, \"grade\": \"A\"}\n```",
			wantScore: 92,
		},
		{
			name:      "object embedded in prose",
			input:     "Here is the result:\n{\"score\": 70, \"grade\": \"C\"}\nHope that helps!",
			wantScore: 70,
		},
		{
			name:    "no json at all",
			input:   "I cannot evaluate this chapter.",
			wantErr: true,
		},
		{
			name:    "truncated object",
			input:   `{"score": 85, "grade":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := ExtractJSON(tt.input, &p)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ExtractJSON() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON() unexpected error: %v", err)
			}
			if p.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", p.Score, tt.wantScore)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("# Chapter One\n\nSome content.")
	b := Fingerprint("# Chapter One\n\nSome content.")
	c := Fingerprint("# Chapter One\n\nSome content!")

	if a != b {
		t.Error("identical content must produce identical fingerprints")
	}
	if a == c {
		t.Error("different content must produce different fingerprints")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}
