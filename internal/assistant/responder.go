package assistant

import (
	"context"
	"errors"
	"fmt"

	"cyber-assist-backend/internal/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one line of conversation history.
type Turn struct {
	Role    string
	Content string
}

// Responder answers ordinary (non-intake) conversation.
type Responder interface {
	Name() string
	Reply(ctx context.Context, history []Turn) (string, error)
	// Stream calls onChunk for every text delta and returns the full reply.
	Stream(ctx context.Context, history []Turn, onChunk func(string)) (string, error)
}

var ErrNoChoices = errors.New("model returned no choices")

// NewResponder builds the Responder selected by cfg.Provider.
func NewResponder(ctx context.Context, cfg config.Config, spec *PromptSpec) (Responder, error) {
	if spec == nil {
		spec = DefaultPromptSpec()
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIResponder(cfg.OpenAIAPIKey, cfg.OpenAIModel, spec), nil
	case config.ProviderGemini:
		return NewGeminiResponder(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, spec)
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}
