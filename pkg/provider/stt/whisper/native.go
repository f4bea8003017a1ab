// This file contains the NativeProvider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/MrWong99/vitavox/pkg/audio"
	"github.com/MrWong99/vitavox/pkg/provider/stt"
)

// Compile-time assertion that NativeProvider satisfies stt.Provider.
var _ stt.Provider = (*NativeProvider)(nil)

// NativeProvider implements stt.Provider using whisper.cpp Go bindings
// (CGO), eliminating HTTP overhead entirely. The model is loaded once at
// startup and shared across all Transcribe calls.
type NativeProvider struct {
	model    whisperlib.Model
	language string

	// whisper.cpp contexts are not safe for concurrent use, and creating
	// one per call is expensive. A single context is reused under mu.
	mu sync.Mutex
}

// NativeOption is a functional option for configuring a NativeProvider.
type NativeOption func(*NativeProvider)

// WithNativeLanguage sets the BCP-47 language code for transcription
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(p *NativeProvider) { p.language = lang }
}

// NewNative creates a NativeProvider that loads the whisper.cpp model from
// the given file path. The caller must call Close when the provider is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeProvider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &NativeProvider{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *NativeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model != nil {
		err := p.model.Close()
		p.model = nil
		return err
	}
	return nil
}

// Ping reports whether the model is still loaded.
func (p *NativeProvider) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return fmt.Errorf("%w: provider is closed", stt.ErrUnavailable)
	}
	return nil
}

// Transcribe runs whisper.cpp inference over the whole clip and returns the
// concatenated segment text. Clips below the speech energy threshold, or
// clips producing no segments, map to [stt.ErrNoSpeech]. Inference runs
// serially; concurrent callers queue on an internal lock.
func (p *NativeProvider) Transcribe(ctx context.Context, clip stt.Clip) (stt.Transcript, error) {
	if len(clip.PCM) == 0 {
		return stt.Transcript{}, fmt.Errorf("whisper: empty clip")
	}
	if audio.ComputeRMS(clip.PCM) < minSpeechRMS {
		return stt.Transcript{}, stt.ErrNoSpeech
	}
	if err := ctx.Err(); err != nil {
		return stt.Transcript{}, err
	}

	pcm := clip.PCM
	if clip.Channels == 2 {
		pcm = audio.StereoToMono(pcm)
	}
	if clip.SampleRate > 0 && clip.SampleRate != defaultSampleRate {
		pcm = audio.ResampleMono16(pcm, clip.SampleRate, defaultSampleRate)
	}
	samples := audio.PCMToFloat32(pcm)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return stt.Transcript{}, fmt.Errorf("%w: provider is closed", stt.ErrUnavailable)
	}

	wctx, err := p.model.NewContext()
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(p.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", p.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stt.Transcript{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	text := strings.Join(parts, " ")
	if text == "" {
		return stt.Transcript{}, stt.ErrNoSpeech
	}
	return stt.Transcript{Text: text}, nil
}
