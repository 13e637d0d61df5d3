package assistant

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiResponder talks to the Gemini API, the model the chat UI was built against.
type GeminiResponder struct {
	cli   *genai.Client
	model string
	spec  *PromptSpec
}

func NewGeminiResponder(ctx context.Context, apiKey, model string, spec *PromptSpec) (*GeminiResponder, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &GeminiResponder{cli: cli, model: model, spec: spec}, nil
}

func (g *GeminiResponder) Name() string { return "gemini:" + g.model }

func (g *GeminiResponder) Reply(ctx context.Context, history []Turn) (string, error) {
	contents, cfg := g.request(history)
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (g *GeminiResponder) Stream(ctx context.Context, history []Turn, onChunk func(string)) (string, error) {
	contents, cfg := g.request(history)
	var b strings.Builder
	for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
		if err != nil {
			return b.String(), err
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		b.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	return b.String(), nil
}

func (g *GeminiResponder) request(history []Turn) ([]*genai.Content, *genai.GenerateContentConfig) {
	temp := g.spec.Style.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(g.spec.Style.MaxTokens),
	}
	system := g.spec.System
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		switch t.Role {
		case RoleSystem:
			// Gemini takes one system instruction; per-request system lines are appended to it.
			system = strings.TrimSpace(system + "\n\n" + t.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		}
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return contents, cfg
}
