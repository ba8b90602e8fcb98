package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
)

func newTestFactory() *ProviderFactory {
	cfg := common.NewDefaultConfig()
	return NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, arbor.NewLogger())
}

func TestDetectProvider(t *testing.T) {
	f := newTestFactory()

	tests := []struct {
		model    string
		expected ProviderType
	}{
		{"claude-haiku-3-5-20241022", ProviderClaude},
		{"claude/claude-haiku-3-5-20241022", ProviderClaude},
		{"anthropic/claude-sonnet-4", ProviderClaude},
		{"gemini-2.0-flash", ProviderGemini},
		{"gemini/gemini-2.0-flash", ProviderGemini},
		{"google/gemini-2.0-flash", ProviderGemini},
		{"", ProviderGemini}, // default provider
		{"some-unknown-model", ProviderGemini},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := f.DetectProvider(tt.model); got != tt.expected {
				t.Errorf("DetectProvider(%q) = %s, want %s", tt.model, got, tt.expected)
			}
		})
	}
}

func TestNormalizeModel(t *testing.T) {
	f := newTestFactory()

	tests := []struct {
		model    string
		expected string
	}{
		{"claude/claude-haiku-3-5-20241022", "claude-haiku-3-5-20241022"},
		{"gemini/gemini-2.0-flash", "gemini-2.0-flash"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}

	for _, tt := range tests {
		if got := f.NormalizeModel(tt.model); got != tt.expected {
			t.Errorf("NormalizeModel(%q) = %q, want %q", tt.model, got, tt.expected)
		}
	}
}

func TestClientGettersConcurrent(t *testing.T) {
	f := newTestFactory()

	// No API keys configured: every call errors, and concurrent callers
	// exercise the lazy-init guard
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.GetGeminiClient(context.Background()); err == nil {
				t.Error("expected error without Gemini api key")
			}
			if _, err := f.GetClaudeClient(context.Background()); err == nil {
				t.Error("expected error without Anthropic api key")
			}
		}()
	}
	wg.Wait()

	if err := f.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"429", errors.New("Error 429: too many requests"), true},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED"), true},
		{"quota", errors.New("quota exceeded for model"), true},
		{"other", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimitError(tt.err); got != tt.expected {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Message: rate limited. Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED")
	delay := ExtractRetryDelay(err)
	if delay < 45*time.Second || delay > 46*time.Second {
		t.Errorf("delay = %v, want ~45.4s", delay)
	}

	if ExtractRetryDelay(errors.New("no delay here")) != 0 {
		t.Error("expected 0 for message without delay")
	}
	if ExtractRetryDelay(nil) != 0 {
		t.Error("expected 0 for nil error")
	}
}

func TestCalculateBackoff(t *testing.T) {
	c := NewDefaultRetryConfig()

	// First attempt uses the initial backoff
	if got := c.CalculateBackoff(0, 0); got != c.InitialBackoff {
		t.Errorf("attempt 0 backoff = %v, want %v", got, c.InitialBackoff)
	}

	// API-provided delay plus buffer wins over initial backoff
	if got := c.CalculateBackoff(0, 30*time.Second); got != 35*time.Second {
		t.Errorf("api delay backoff = %v, want 35s", got)
	}

	// Growth is capped at MaxBackoff
	if got := c.CalculateBackoff(10, 0); got != c.MaxBackoff {
		t.Errorf("capped backoff = %v, want %v", got, c.MaxBackoff)
	}
}
