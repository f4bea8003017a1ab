package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/vitavox/pkg/provider/llm"
	"github.com/MrWong99/vitavox/pkg/provider/llm/anyllm"
	"github.com/MrWong99/vitavox/pkg/provider/stt"
	sttopenai "github.com/MrWong99/vitavox/pkg/provider/stt/openai"
	"github.com/MrWong99/vitavox/pkg/provider/stt/whisper"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory
// has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider kind. It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	llm map[string]func(ProviderEntry) (llm.Provider, error)
	stt map[string]func(ProviderEntry) (stt.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm: make(map[string]func(ProviderEntry) (llm.Provider, error)),
		stt: make(map[string]func(ProviderEntry) (stt.Provider, error)),
	}
}

// RegisterLLM registers an LLM provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// RegisterSTT registers an STT provider factory under name.
func (r *Registry) RegisterSTT(name string, factory func(ProviderEntry) (stt.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = factory
}

// CreateLLM instantiates an LLM provider using the factory registered under
// entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSTT instantiates an STT provider using the factory registered under
// entry.Name.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	r.mu.RLock()
	factory, ok := r.stt[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stt/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// DefaultRegistry returns a [Registry] with all built-in providers
// registered: every any-llm-go backend under its own name, plus the
// whisper.cpp HTTP server, the whisper.cpp CGO bindings, and the OpenAI
// transcription API.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	for _, name := range ValidProviderNames["llm"] {
		r.RegisterLLM(name, anyLLMFactory(name))
	}

	r.RegisterSTT("whisper", func(entry ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, whisper.WithLanguage(entry.Language))
		}
		return whisper.New(entry.ServerURL, opts...)
	})
	r.RegisterSTT("whisper-native", func(entry ProviderEntry) (stt.Provider, error) {
		var opts []whisper.NativeOption
		if entry.Language != "" {
			opts = append(opts, whisper.WithNativeLanguage(entry.Language))
		}
		return whisper.NewNative(entry.ModelPath, opts...)
	})
	r.RegisterSTT("openai", func(entry ProviderEntry) (stt.Provider, error) {
		var opts []sttopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, sttopenai.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, sttopenai.WithLanguage(entry.Language))
		}
		opts = append(opts, sttopenai.WithTimeout(30*time.Second))
		return sttopenai.New(entry.APIKey, opts...)
	})

	return r
}

// anyLLMFactory builds the shared any-llm-go factory for one backend name.
func anyLLMFactory(name string) func(ProviderEntry) (llm.Provider, error) {
	return func(entry ProviderEntry) (llm.Provider, error) {
		if entry.Model == "" {
			return nil, fmt.Errorf("config: llm/%q requires a model", name)
		}
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New(name, entry.Model, opts...)
	}
}
