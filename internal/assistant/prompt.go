package assistant

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptSpec is the system prompt and generation style for ordinary conversation.
// Greeting opens a new chat session.
type PromptSpec struct {
	System   string `yaml:"system"`
	Greeting string `yaml:"greeting"`
	Style    struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
	Fallback struct {
		Empty string `yaml:"empty"`
		Error string `yaml:"error"`
	} `yaml:"fallback"`
}

const (
	defaultGreeting   = "Hello! I'm Cyber AI Assistant, your 24/7 cybersecurity support system."
	defaultEmptyReply = "I could not generate a response right now. Please try again."
	defaultErrorReply = "Something went wrong while contacting the assistant. Please try again."
)

func LoadPromptSpec(path string) (*PromptSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec PromptSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse prompt spec %s: %w", path, err)
	}
	spec.applyDefaults()
	return &spec, nil
}

// DefaultPromptSpec is used when no prompt file is present.
func DefaultPromptSpec() *PromptSpec {
	spec := &PromptSpec{
		System: "You are Cyber AI Assistant, a 24/7 cybersecurity support system for incident response and threat analysis. Answer concisely and remind users to verify suggestions before applying them.",
	}
	spec.applyDefaults()
	return spec
}

func (p *PromptSpec) applyDefaults() {
	if strings.TrimSpace(p.Greeting) == "" {
		p.Greeting = defaultGreeting
	}
	if p.Style.Temperature <= 0 {
		p.Style.Temperature = 0.4
	}
	if p.Style.MaxTokens <= 0 {
		p.Style.MaxTokens = 800
	}
	if strings.TrimSpace(p.Fallback.Empty) == "" {
		p.Fallback.Empty = defaultEmptyReply
	}
	if strings.TrimSpace(p.Fallback.Error) == "" {
		p.Fallback.Error = defaultErrorReply
	}
}
