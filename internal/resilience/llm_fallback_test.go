package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/vitavox/pkg/provider/llm"
	llmmock "github.com/MrWong99/vitavox/pkg/provider/llm/mock"
)

func llmFallbackConfig() FallbackConfig {
	return FallbackConfig{
		Breaker: BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute},
	}
}

// TestLLMFallback_PrimarySuccess verifies the primary answers when healthy.
func TestLLMFallback_PrimarySuccess(t *testing.T) {
	primary := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "from primary"},
	}
	secondary := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "from secondary"},
	}
	f := NewLLMFallback(primary, "primary", llmFallbackConfig())
	f.AddFallback("secondary", secondary)

	resp, err := f.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "from primary" {
		t.Errorf("expected primary content, got %q", resp.Content)
	}
	if len(secondary.CompleteCalls) != 0 {
		t.Error("secondary should not be called when the primary succeeds")
	}
}

// TestLLMFallback_FailsOver verifies a failing primary yields the fallback's
// answer.
func TestLLMFallback_FailsOver(t *testing.T) {
	primary := &llmmock.Provider{CompleteErr: errBoom}
	secondary := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "from secondary"},
	}
	f := NewLLMFallback(primary, "primary", llmFallbackConfig())
	f.AddFallback("secondary", secondary)

	resp, err := f.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "from secondary" {
		t.Errorf("expected secondary content, got %q", resp.Content)
	}
}

// TestLLMFallback_AllFail verifies ErrAllFailed surfaces when every backend
// fails.
func TestLLMFallback_AllFail(t *testing.T) {
	f := NewLLMFallback(&llmmock.Provider{CompleteErr: errBoom}, "primary", llmFallbackConfig())
	f.AddFallback("secondary", &llmmock.Provider{CompleteErr: errBoom})

	_, err := f.Complete(context.Background(), llm.CompletionRequest{})
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("expected ErrAllFailed, got %v", err)
	}
}

// TestLLMFallback_CapabilitiesFromPrimary verifies capabilities come from
// the primary only.
func TestLLMFallback_CapabilitiesFromPrimary(t *testing.T) {
	primary := &llmmock.Provider{
		ModelCapabilities: llm.ModelCapabilities{ContextWindow: 128000},
	}
	f := NewLLMFallback(primary, "primary", llmFallbackConfig())
	f.AddFallback("secondary", &llmmock.Provider{
		ModelCapabilities: llm.ModelCapabilities{ContextWindow: 1},
	})

	if got := f.Capabilities().ContextWindow; got != 128000 {
		t.Errorf("expected primary capabilities, got context window %d", got)
	}
}
