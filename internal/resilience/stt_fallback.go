package resilience

import (
	"context"
	"errors"

	"github.com/MrWong99/vitavox/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] with automatic failover across
// multiple transcription backends. [stt.ErrNoSpeech] is treated as a
// terminal outcome: a silent clip is silent on every backend, so it is
// returned immediately and does not count against any breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred
// backend. cfg.Terminal is extended to always include [stt.ErrNoSpeech].
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	caller := cfg.Terminal
	cfg.Terminal = func(err error) bool {
		if errors.Is(err, stt.ErrNoSpeech) {
			return true
		}
		return caller != nil && caller(err)
	}
	return &STTFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional STT provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Transcribe sends the clip to the first healthy provider. If the primary
// fails, subsequent fallbacks are tried with the same clip.
func (f *STTFallback) Transcribe(ctx context.Context, clip stt.Clip) (stt.Transcript, error) {
	return ExecuteWithResult(f.group, func(p stt.Provider) (stt.Transcript, error) {
		return p.Transcribe(ctx, clip)
	})
}
