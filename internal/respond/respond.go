// Package respond resolves questions to answers: classify the question,
// serve the canned answer for a matched topic, and otherwise hand the
// question to the generative path or the fallback line.
//
// Matched topics always resolve to their canned answer, never to generated
// text, so the persona's core answers stay word-for-word stable. Generation
// failures never escape the resolver; they degrade to the fallback.
package respond

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/MrWong99/vitavox/internal/generate"
	"github.com/MrWong99/vitavox/internal/intent"
	"github.com/MrWong99/vitavox/internal/persona"
)

// Source records which path produced an answer.
type Source string

const (
	// SourceCanned means the answer came verbatim from the answer bank.
	SourceCanned Source = "canned"
	// SourceGenerated means an LLM produced the answer.
	SourceGenerated Source = "generated"
	// SourceFallback means no topic matched and no generation succeeded.
	SourceFallback Source = "fallback"
)

// Answer is a resolved response.
type Answer struct {
	// Text is the response body. Never empty.
	Text string
	// Topic is the matched topic. Empty when Matched is false.
	Topic persona.Topic
	// Matched reports whether a keyword rule applied.
	Matched bool
	// Source records which path produced Text.
	Source Source
}

// Generator is the generative path consulted for unmatched questions.
// [generate.Generator] satisfies it; tests substitute their own.
type Generator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// Picker selects one fallback line from the configured set. Implementations
// must be safe for concurrent use.
type Picker interface {
	Pick(options []string) string
}

// randomPicker selects uniformly using an injectable seed, so tests can pin
// the choice.
type randomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker returns a Picker seeded with the given value.
func NewRandomPicker(seed int64) Picker {
	return &randomPicker{rng: rand.New(rand.NewSource(seed))}
}

func (p *randomPicker) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return options[p.rng.Intn(len(options))]
}

// Option is a functional option for configuring a Resolver.
type Option func(*Resolver)

// WithGenerator wires in the generative path for unmatched questions.
func WithGenerator(g Generator) Option {
	return func(r *Resolver) { r.generator = g }
}

// WithPicker replaces the fallback selection strategy.
func WithPicker(p Picker) Option {
	return func(r *Resolver) { r.picker = p }
}

// WithExtraFallbacks adds fallback lines alongside the bank's own.
func WithExtraFallbacks(lines ...string) Option {
	return func(r *Resolver) { r.fallbacks = append(r.fallbacks, lines...) }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// Resolver turns questions into answers. Construct with New; the zero value
// is not usable.
type Resolver struct {
	classifier *intent.Classifier
	bank       *persona.Bank
	generator  Generator
	picker     Picker
	fallbacks  []string
	logger     *slog.Logger
}

// New constructs a Resolver over the given classifier and bank. Both must be
// non-nil.
func New(classifier *intent.Classifier, bank *persona.Bank, opts ...Option) (*Resolver, error) {
	if classifier == nil {
		return nil, errors.New("respond: classifier must not be nil")
	}
	if bank == nil {
		return nil, errors.New("respond: bank must not be nil")
	}
	r := &Resolver{
		classifier: classifier,
		bank:       bank,
		picker:     NewRandomPicker(rand.Int63()),
		fallbacks:  []string{bank.Fallback()},
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Resolve answers the question. Matched topics return their canned answer.
// Unmatched questions try the generative path when one is configured and
// degrade to a fallback line on any failure. The only error Resolve returns
// is for empty input.
func (r *Resolver) Resolve(ctx context.Context, question string) (Answer, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return Answer{}, fmt.Errorf("respond: empty question")
	}

	m := r.classifier.Classify(q)
	if m.Matched {
		text, ok := r.bank.Answer(m.Topic)
		if !ok {
			// Unreachable with a validated bank; fall through rather than 500.
			r.logger.Error("answer bank missing matched topic", "topic", m.Topic)
			return r.fallback(m), nil
		}
		return Answer{Text: text, Topic: m.Topic, Matched: true, Source: SourceCanned}, nil
	}

	if r.generator != nil {
		text, err := r.generator.Generate(ctx, q)
		switch {
		case err == nil:
			return Answer{Text: text, Source: SourceGenerated}, nil
		case errors.Is(err, generate.ErrNotConfigured):
			// Absent, not broken. Nothing to log.
		default:
			r.logger.Warn("generation failed, using fallback", "error", err)
		}
	}

	return r.fallback(m), nil
}

func (r *Resolver) fallback(m intent.Match) Answer {
	text := r.picker.Pick(r.fallbacks)
	if text == "" {
		text = r.bank.Fallback()
	}
	return Answer{Text: text, Topic: m.Topic, Matched: m.Matched, Source: SourceFallback}
}
