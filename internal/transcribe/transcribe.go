// Package transcribe turns uploaded audio into question text.
//
// The adapter spools the raw upload to a temp file, decodes it to 16 kHz
// mono PCM, and hands the clip to an STT provider. Spool files are removed
// on every exit path. Outcomes are normalised to a small error taxonomy so
// the HTTP layer can pick the right status and message without inspecting
// provider internals.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/vitavox/internal/observe"
	"github.com/MrWong99/vitavox/pkg/audio"
	"github.com/MrWong99/vitavox/pkg/provider/stt"
)

// ErrNoSpeech is returned when the clip decoded fine but contained no
// recognisable speech. Terminal outcome; callers answer with an apology
// instead of classifying an empty transcript.
var ErrNoSpeech = errors.New("transcribe: no speech detected")

// ErrServiceUnavailable is returned when the STT backend cannot be reached
// or fails upstream.
var ErrServiceUnavailable = errors.New("transcribe: speech service unavailable")

// defaultProviderLabel tags metrics when no backend name is configured.
const defaultProviderLabel = "unknown"

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithSpoolDir overrides where temp spool files are created. Defaults to
// the system temp directory.
func WithSpoolDir(dir string) Option {
	return func(t *Transcriber) { t.spoolDir = dir }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transcriber) { t.logger = l }
}

// WithMetrics replaces the default metrics instance, mainly for tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(t *Transcriber) {
		if m != nil {
			t.metrics = m
		}
	}
}

// WithProviderName sets the backend name used as the "provider" metric
// attribute. Empty values are ignored.
func WithProviderName(name string) Option {
	return func(t *Transcriber) {
		if name != "" {
			t.providerName = name
		}
	}
}

// Transcriber converts raw audio uploads into text via an STT provider.
type Transcriber struct {
	provider     stt.Provider
	spoolDir     string
	logger       *slog.Logger
	metrics      *observe.Metrics
	providerName string
}

// New constructs a Transcriber. provider must be non-nil.
func New(provider stt.Provider, opts ...Option) (*Transcriber, error) {
	if provider == nil {
		return nil, errors.New("transcribe: provider must not be nil")
	}
	t := &Transcriber{
		provider:     provider,
		logger:       slog.Default(),
		metrics:      observe.DefaultMetrics(),
		providerName: defaultProviderLabel,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Transcribe decodes the upload and returns the recognised text.
//
// Error outcomes: [ErrNoSpeech] when the provider found no speech,
// [ErrServiceUnavailable] (wrapped) when the backend is unreachable, and
// plain wrapped errors for undecodable input or anything else.
func (t *Transcriber) Transcribe(ctx context.Context, data []byte, formatHint string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("transcribe: empty audio payload")
	}

	path, cleanup, err := spool(t.spoolDir, data, ".audio")
	if err != nil {
		return "", err
	}
	defer cleanup()

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("transcribe: read spool file: %w", err)
	}

	pcm, err := audio.Decode(raw, formatHint)
	if err != nil {
		return "", fmt.Errorf("transcribe: decode audio: %w", err)
	}

	start := time.Now()
	transcript, err := t.provider.Transcribe(ctx, stt.Clip{
		PCM:        pcm,
		SampleRate: audio.TargetSampleRate,
		Channels:   1,
	})
	t.metrics.STTDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("provider", t.providerName)))

	switch {
	case err == nil:
		t.metrics.RecordProviderRequest(ctx, t.providerName, "stt", "ok")
		return transcript.Text, nil
	case errors.Is(err, stt.ErrNoSpeech):
		// A definitive answer from a healthy backend, not an error.
		t.metrics.RecordProviderRequest(ctx, t.providerName, "stt", "no_speech")
		return "", ErrNoSpeech
	case errors.Is(err, stt.ErrUnavailable):
		t.metrics.RecordProviderRequest(ctx, t.providerName, "stt", "error")
		t.metrics.RecordProviderError(ctx, t.providerName, "stt")
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	default:
		t.metrics.RecordProviderRequest(ctx, t.providerName, "stt", "error")
		t.metrics.RecordProviderError(ctx, t.providerName, "stt")
		return "", fmt.Errorf("transcribe: provider failed: %w", err)
	}
}
