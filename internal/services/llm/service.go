package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
)

// Service implements interfaces.LLMService on top of the provider factory.
// Every Chat call is paced by a rate limiter and bounded by the configured
// per-call timeout, so a slow provider degrades one stage instead of
// hanging the whole run.
type Service struct {
	factory   *ProviderFactory
	limiter   *rate.Limiter
	timeout   time.Duration
	model     string
	logger    arbor.ILogger
}

// NewService creates a new LLM service for the configured default provider
func NewService(config *common.Config, logger arbor.ILogger) *Service {
	factory := NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, logger)

	// Pick pacing and timeout from the active provider's config
	var rateLimitStr, timeoutStr, model string
	switch config.LLM.DefaultProvider {
	case common.LLMProviderClaude:
		rateLimitStr = config.Claude.RateLimit
		timeoutStr = config.Claude.Timeout
		model = config.Claude.Model
	default:
		rateLimitStr = config.Gemini.RateLimit
		timeoutStr = config.Gemini.Timeout
		model = config.Gemini.Model
	}

	interval, err := time.ParseDuration(rateLimitStr)
	if err != nil || interval <= 0 {
		interval = 4 * time.Second
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Service{
		factory: factory,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		timeout: timeout,
		model:   model,
		logger:  logger,
	}
}

// Chat generates a completion response for the conversation history
func (s *Service) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.factory.GenerateContent(callCtx, &ContentRequest{
		Messages: messages,
		Model:    s.model,
	})
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}

// HealthCheck verifies the configured provider client can be constructed
func (s *Service) HealthCheck(ctx context.Context) error {
	switch s.factory.DetectProvider(s.model) {
	case ProviderClaude:
		_, err := s.factory.GetClaudeClient(ctx)
		return err
	default:
		_, err := s.factory.GetGeminiClient(ctx)
		return err
	}
}

// Close releases provider clients
func (s *Service) Close() error {
	return s.factory.Close()
}
