package assistant

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIResponder struct {
	client *openai.Client
	model  string
	spec   *PromptSpec
}

func NewOpenAIResponder(apiKey, model string, spec *PromptSpec) *OpenAIResponder {
	return &OpenAIResponder{client: openai.NewClient(apiKey), model: model, spec: spec}
}

func (o *OpenAIResponder) Name() string { return "openai:" + o.model }

func (o *OpenAIResponder) Reply(ctx context.Context, history []Turn) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.request(history, false))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAIResponder) Stream(ctx context.Context, history []Turn, onChunk func(string)) (string, error) {
	stream, err := o.client.CreateChatCompletionStream(ctx, o.request(history, true))
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return b.String(), err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
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

func (o *OpenAIResponder) request(history []Turn, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if o.spec.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: o.spec.System})
	}
	for _, t := range history {
		role := t.Role
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.spec.Style.Temperature,
		MaxTokens:   o.spec.Style.MaxTokens,
		Messages:    msgs,
		Stream:      stream,
	}
}
