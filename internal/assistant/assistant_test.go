package assistant

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyber-assist-backend/internal/config"
)

func TestDetectAction(t *testing.T) {
	triggers := []string{"File Report", "start report"}
	cases := map[string]Action{
		"File Report":      ActionFileReport,
		"  file report ":   ActionFileReport,
		"START REPORT":     ActionFileReport,
		"file report now":  ActionNone,
		"Check Status":     ActionCheckStatus,
		"escalate":         ActionEscalate,
		"Playbooks":        ActionPlaybooks,
		"what is phishing": ActionNone,
		"":                 ActionNone,
	}
	for in, want := range cases {
		assert.Equal(t, want, DetectAction(in, triggers), in)
	}
	assert.Equal(t, ActionNone, DetectAction("File Report", nil))
}

func TestLoadPromptSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system: be brief\nstyle:\n  max_tokens: 50\n"), 0o600))

	spec, err := LoadPromptSpec(path)
	require.NoError(t, err)
	assert.Equal(t, "be brief", spec.System)
	assert.Equal(t, 50, spec.Style.MaxTokens)
	assert.InDelta(t, 0.4, spec.Style.Temperature, 1e-6)
	assert.Equal(t, defaultEmptyReply, spec.Fallback.Empty)
	assert.Equal(t, defaultErrorReply, spec.Fallback.Error)
	assert.Equal(t, defaultGreeting, spec.Greeting)

	_, err = LoadPromptSpec(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRepoPromptFileParses(t *testing.T) {
	spec, err := LoadPromptSpec("../../prompts/assistant.yaml")
	require.NoError(t, err)
	assert.Contains(t, spec.System, "Cyber AI Assistant")
	assert.Equal(t, defaultGreeting, spec.Greeting)
}

func TestNewResponderOpenAI(t *testing.T) {
	r, err := NewResponder(context.Background(), config.Config{Provider: config.ProviderOpenAI, OpenAIModel: "gpt-4o-mini"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-4o-mini", r.Name())

	_, err = NewResponder(context.Background(), config.Config{Provider: "other"}, nil)
	assert.Error(t, err)
}

func TestOpenAIRequestShape(t *testing.T) {
	o := NewOpenAIResponder("k", "m", DefaultPromptSpec())
	req := o.request([]Turn{{Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}, true)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, RoleSystem, req.Messages[0].Role)
	assert.Equal(t, RoleUser, req.Messages[1].Role)
	assert.Equal(t, RoleAssistant, req.Messages[2].Role)
	assert.True(t, req.Stream)
	assert.Equal(t, 800, req.MaxTokens)
}
