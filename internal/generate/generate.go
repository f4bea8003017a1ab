// Package generate adapts an LLM provider into the single-question
// generative path of the voice bot.
//
// The adapter is strictly best-effort: one attempt, a hard timeout, no
// retries. Callers that receive any error fall back to canned output, so a
// slow or broken provider can never stall the request path beyond the
// timeout.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/vitavox/internal/observe"
	"github.com/MrWong99/vitavox/internal/persona"
	"github.com/MrWong99/vitavox/pkg/provider/llm"
)

// ErrNotConfigured is returned when no LLM provider is wired in. It marks
// the generative path as absent rather than failed; callers should not log
// it as an error.
var ErrNotConfigured = errors.New("generate: no provider configured")

const (
	// defaultTimeout bounds a single generation attempt.
	defaultTimeout = 15 * time.Second

	// defaultMaxTokens caps answer length. Interview answers are a few
	// sentences; anything longer is the model rambling.
	defaultMaxTokens = 512

	defaultTemperature = 0.7

	// defaultProviderLabel tags metrics when no backend name is configured.
	defaultProviderLabel = "unknown"
)

// Option is a functional option for configuring a Generator.
type Option func(*Generator)

// WithTimeout overrides the per-attempt timeout. Defaults to 15 s.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMaxTokens overrides the completion token cap. Defaults to 512.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature overrides the sampling temperature. Defaults to 0.7.
func WithTemperature(t float64) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// WithMetrics replaces the default metrics instance, mainly for tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Generator) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithProviderName sets the backend name used as the "provider" metric
// attribute. Empty values are ignored.
func WithProviderName(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.providerName = name
		}
	}
}

// Generator produces free-form persona answers via an LLM provider. The
// zero value is usable and always returns ErrNotConfigured.
type Generator struct {
	provider     llm.Provider
	profile      persona.Profile
	timeout      time.Duration
	maxTokens    int
	temperature  float64
	metrics      *observe.Metrics
	providerName string
}

// New constructs a Generator. provider may be nil, in which case every
// Generate call returns [ErrNotConfigured].
func New(provider llm.Provider, profile persona.Profile, opts ...Option) *Generator {
	g := &Generator{
		provider:     provider,
		profile:      profile,
		timeout:      defaultTimeout,
		maxTokens:    defaultMaxTokens,
		temperature:  defaultTemperature,
		metrics:      observe.DefaultMetrics(),
		providerName: defaultProviderLabel,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Configured reports whether a provider is wired in.
func (g *Generator) Configured() bool {
	return g != nil && g.provider != nil
}

// Generate asks the provider to answer the question in the persona's voice.
// A single attempt is made, bounded by the configured timeout. Empty
// questions and empty completions are errors; [ErrNotConfigured] signals
// that no provider exists at all.
func (g *Generator) Generate(ctx context.Context, question string) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("generate: empty question")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: g.profile.SystemPrompt(),
		Messages: []llm.Message{
			{Role: "user", Content: question},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	g.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("provider", g.providerName)))

	if err != nil {
		g.recordOutcome(ctx, "error")
		return "", fmt.Errorf("generate: completion failed: %w", err)
	}
	if resp == nil {
		g.recordOutcome(ctx, "error")
		return "", fmt.Errorf("generate: provider returned no response")
	}

	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		g.recordOutcome(ctx, "error")
		return "", fmt.Errorf("generate: provider returned empty completion")
	}
	g.recordOutcome(ctx, "ok")
	return answer, nil
}

// recordOutcome counts one provider round trip, incrementing the error
// counter for anything other than a usable completion.
func (g *Generator) recordOutcome(ctx context.Context, status string) {
	g.metrics.RecordProviderRequest(ctx, g.providerName, "llm", status)
	if status != "ok" {
		g.metrics.RecordProviderError(ctx, g.providerName, "llm")
	}
}
