package anyllm

import (
	"strings"
	"testing"

	"github.com/MrWong99/vitavox/pkg/provider/llm"
)

// completionRequest builds a single-user-message request for tests.
func completionRequest(systemPrompt, question string) llm.CompletionRequest {
	return llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: question}},
	}
}

// ── New ───────────────────────────────────────────────────────────────────────

// TestNew_EmptyProviderName checks that an empty provider name is rejected.
func TestNew_EmptyProviderName(t *testing.T) {
	_, err := New("", "gpt-4o-mini")
	if err == nil {
		t.Fatal("expected error for empty provider name, got nil")
	}
}

// TestNew_EmptyModel checks that an empty model is rejected.
func TestNew_EmptyModel(t *testing.T) {
	_, err := New("openai", "")
	if err == nil {
		t.Fatal("expected error for empty model, got nil")
	}
}

// TestNew_UnsupportedProvider checks the error message for unknown providers.
func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New("watson", "some-model")
	if err == nil {
		t.Fatal("expected error for unsupported provider, got nil")
	}
	if !strings.Contains(err.Error(), "watson") {
		t.Errorf("error should name the unsupported provider: %v", err)
	}
}

// ── modelCapabilities ─────────────────────────────────────────────────────────

// TestModelCapabilities_GPT4oMini checks gpt-4o-mini capabilities.
func TestModelCapabilities_GPT4oMini(t *testing.T) {
	caps := modelCapabilities("gpt-4o-mini")
	if caps.ContextWindow != 128_000 {
		t.Errorf("gpt-4o-mini: expected context window 128000, got %d", caps.ContextWindow)
	}
	if caps.MaxOutputTokens != 16_384 {
		t.Errorf("gpt-4o-mini: expected MaxOutputTokens 16384, got %d", caps.MaxOutputTokens)
	}
}

// TestModelCapabilities_Gemini15Flash checks gemini-1.5-flash capabilities.
func TestModelCapabilities_Gemini15Flash(t *testing.T) {
	caps := modelCapabilities("gemini-1.5-flash")
	if caps.ContextWindow != 1_048_576 {
		t.Errorf("gemini-1.5-flash: expected context window 1048576, got %d", caps.ContextWindow)
	}
	if caps.MaxOutputTokens != 8_192 {
		t.Errorf("gemini-1.5-flash: expected MaxOutputTokens 8192, got %d", caps.MaxOutputTokens)
	}
}

// TestModelCapabilities_Unknown checks defaults for unrecognised models.
func TestModelCapabilities_Unknown(t *testing.T) {
	caps := modelCapabilities("starfruit-9000")
	if caps.ContextWindow != 128_000 {
		t.Errorf("unknown model: expected default context window 128000, got %d", caps.ContextWindow)
	}
	if !caps.SupportsStreaming {
		t.Error("unknown model: expected SupportsStreaming=true by default")
	}
}

// ── buildParams ───────────────────────────────────────────────────────────────

// TestBuildParams_SystemPromptFirst checks that the system prompt becomes the
// first message.
func TestBuildParams_SystemPromptFirst(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(completionRequest("You are a persona.", "What's your superpower?"))

	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].Content != "You are a persona." {
		t.Errorf("first message should carry the system prompt, got %q", params.Messages[0].Content)
	}
	if params.Messages[1].Role != "user" {
		t.Errorf("second message role = %q, want user", params.Messages[1].Role)
	}
}

// TestBuildParams_MaxTokensAndTemperature checks optional parameter plumbing.
func TestBuildParams_MaxTokensAndTemperature(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	req := completionRequest("", "hello")
	req.MaxTokens = 256
	req.Temperature = 0.7

	params := p.buildParams(req)
	if params.MaxTokens == nil || *params.MaxTokens != 256 {
		t.Errorf("MaxTokens not forwarded: %v", params.MaxTokens)
	}
	if params.Temperature == nil || *params.Temperature != 0.7 {
		t.Errorf("Temperature not forwarded: %v", params.Temperature)
	}
}

// TestBuildParams_ZeroOptionalsOmitted checks that zero values stay nil.
func TestBuildParams_ZeroOptionalsOmitted(t *testing.T) {
	p := &Provider{model: "gpt-4o-mini"}
	params := p.buildParams(completionRequest("", "hello"))
	if params.MaxTokens != nil {
		t.Errorf("expected nil MaxTokens, got %v", *params.MaxTokens)
	}
	if params.Temperature != nil {
		t.Errorf("expected nil Temperature, got %v", *params.Temperature)
	}
}
