package config

import (
	"errors"
	"testing"

	"github.com/MrWong99/vitavox/pkg/provider/stt"
	sttmock "github.com/MrWong99/vitavox/pkg/provider/stt/mock"
)

// TestRegistry_UnregisteredProvider verifies the sentinel error for unknown
// names.
func TestRegistry_UnregisteredProvider(t *testing.T) {
	r := NewRegistry()

	if _, err := r.CreateLLM(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got %v", err)
	}
	if _, err := r.CreateSTT(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got %v", err)
	}
}

// TestDefaultRegistry_KnownNamesRegistered verifies every advertised
// provider name has a factory.
func TestDefaultRegistry_KnownNamesRegistered(t *testing.T) {
	r := DefaultRegistry()

	for _, name := range ValidProviderNames["llm"] {
		// A registered factory fails on missing model, never on missing
		// registration.
		_, err := r.CreateLLM(ProviderEntry{Name: name})
		if errors.Is(err, ErrProviderNotRegistered) {
			t.Errorf("llm/%q is not registered", name)
		}
	}
	for _, name := range ValidProviderNames["stt"] {
		_, err := r.CreateSTT(ProviderEntry{Name: name})
		if errors.Is(err, ErrProviderNotRegistered) {
			t.Errorf("stt/%q is not registered", name)
		}
	}
}

// TestDefaultRegistry_LLMRequiresModel verifies the shared LLM factory
// rejects entries without a model.
func TestDefaultRegistry_LLMRequiresModel(t *testing.T) {
	r := DefaultRegistry()
	if _, err := r.CreateLLM(ProviderEntry{Name: "openai", APIKey: "k"}); err == nil {
		t.Error("expected error for missing model")
	}
}

// TestDefaultRegistry_WhisperRequiresServerURL verifies the whisper factory
// propagates constructor validation.
func TestDefaultRegistry_WhisperRequiresServerURL(t *testing.T) {
	r := DefaultRegistry()
	if _, err := r.CreateSTT(ProviderEntry{Name: "whisper"}); err == nil {
		t.Error("expected error for missing server_url")
	}
}

// TestDefaultRegistry_WhisperCreates verifies a complete whisper entry
// builds a provider.
func TestDefaultRegistry_WhisperCreates(t *testing.T) {
	r := DefaultRegistry()
	p, err := r.CreateSTT(ProviderEntry{
		Name:      "whisper",
		ServerURL: "http://localhost:8080",
		Language:  "en",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected a provider")
	}
}

// TestRegistry_OverwriteFactory verifies re-registration replaces the old
// factory.
func TestRegistry_OverwriteFactory(t *testing.T) {
	r := NewRegistry()
	first := &sttmock.Provider{}
	second := &sttmock.Provider{}
	r.RegisterSTT("custom", func(ProviderEntry) (stt.Provider, error) { return first, nil })
	r.RegisterSTT("custom", func(ProviderEntry) (stt.Provider, error) { return second, nil })

	p, err := r.CreateSTT(ProviderEntry{Name: "custom"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != second {
		t.Error("expected the later registration to win")
	}
}
