package review

import (
	"context"
	"fmt"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/interfaces"
)

// chatJSON sends a single-turn prompt and unmarshals the JSON payload from
// the response into out. Evaluation stages fall back to neutral defaults
// when this fails, so one flaky model response never sinks a chapter.
func chatJSON(ctx context.Context, llm interfaces.LLMService, prompt string, out any) error {
	response, err := llm.Chat(ctx, []interfaces.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return fmt.Errorf("llm call failed: %w", err)
	}
	if response == "" {
		return fmt.Errorf("empty llm response")
	}

	if err := common.ExtractJSON(response, out); err != nil {
		return fmt.Errorf("failed to parse llm response: %w", err)
	}

	return nil
}

// Response payloads use pointer fields so an absent key falls back to the
// neutral default instead of the zero value.

func intVal(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolVal(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func strVal(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
