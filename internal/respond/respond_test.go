package respond

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/vitavox/internal/generate"
	"github.com/MrWong99/vitavox/internal/intent"
	"github.com/MrWong99/vitavox/internal/persona"
)

// stubGenerator returns a fixed answer or error.
type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (s *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func newResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(intent.NewClassifier(nil), persona.DefaultBank(), opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

// ─── canned path ───

// TestResolve_MatchedTopicReturnsCanned verifies a matched topic resolves to
// its bank answer.
func TestResolve_MatchedTopicReturnsCanned(t *testing.T) {
	r := newResolver(t)
	a, err := r.Resolve(context.Background(), "What's your #1 superpower?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want, _ := persona.DefaultBank().Answer(persona.TopicSuperpower)
	if a.Text != want {
		t.Errorf("expected canned answer, got %q", a.Text)
	}
	if a.Source != SourceCanned || !a.Matched || a.Topic != persona.TopicSuperpower {
		t.Errorf("unexpected answer metadata: %+v", a)
	}
}

// TestResolve_CannedWinsOverGenerator verifies the generative path is never
// consulted for matched topics.
func TestResolve_CannedWinsOverGenerator(t *testing.T) {
	gen := &stubGenerator{answer: "generated text"}
	r := newResolver(t, WithGenerator(gen))

	a, err := r.Resolve(context.Background(), "tell me about yourself")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Source != SourceCanned {
		t.Errorf("expected canned source, got %q", a.Source)
	}
	if gen.calls != 0 {
		t.Errorf("generator should not be called for matched topics, got %d calls", gen.calls)
	}
}

// TestResolve_Idempotent verifies repeated resolution of the same question
// yields identical canned answers.
func TestResolve_Idempotent(t *testing.T) {
	r := newResolver(t)
	const q = "What misconception do your coworkers have about you?"

	first, err := r.Resolve(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 5 {
		next, err := r.Resolve(context.Background(), q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next != first {
			t.Fatalf("expected identical answers, got %+v then %+v", first, next)
		}
	}
}

// ─── generative path ───

// TestResolve_UnmatchedUsesGenerator verifies unmatched questions reach the
// generative path.
func TestResolve_UnmatchedUsesGenerator(t *testing.T) {
	gen := &stubGenerator{answer: "I enjoy hiking."}
	r := newResolver(t, WithGenerator(gen))

	a, err := r.Resolve(context.Background(), "What do you do on weekends?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Source != SourceGenerated || a.Text != "I enjoy hiking." {
		t.Errorf("expected generated answer, got %+v", a)
	}
	if a.Matched {
		t.Error("generated answers should not report a matched topic")
	}
}

// TestResolve_GenerationFailureFallsBack verifies generator errors degrade
// to the fallback line instead of surfacing.
func TestResolve_GenerationFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream exploded")}
	r := newResolver(t, WithGenerator(gen))

	a, err := r.Resolve(context.Background(), "What do you do on weekends?")
	if err != nil {
		t.Fatalf("generation failure must not surface, got %v", err)
	}
	if a.Source != SourceFallback {
		t.Errorf("expected fallback source, got %q", a.Source)
	}
	if a.Text != persona.DefaultBank().Fallback() {
		t.Errorf("expected the bank fallback, got %q", a.Text)
	}
}

// TestResolve_NotConfiguredFallsBack verifies the absent-provider sentinel
// degrades quietly to the fallback.
func TestResolve_NotConfiguredFallsBack(t *testing.T) {
	gen := &stubGenerator{err: generate.ErrNotConfigured}
	r := newResolver(t, WithGenerator(gen))

	a, err := r.Resolve(context.Background(), "What do you do on weekends?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Source != SourceFallback {
		t.Errorf("expected fallback source, got %q", a.Source)
	}
}

// ─── fallback path ───

// TestResolve_NoGeneratorFallsBack verifies unmatched questions without a
// generator go straight to the fallback.
func TestResolve_NoGeneratorFallsBack(t *testing.T) {
	r := newResolver(t)
	a, err := r.Resolve(context.Background(), "What's the weather like?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Source != SourceFallback || a.Matched {
		t.Errorf("expected unmatched fallback, got %+v", a)
	}
}

// TestResolve_SeededPickerDeterministic verifies two resolvers with the same
// seed pick the same fallback sequence.
func TestResolve_SeededPickerDeterministic(t *testing.T) {
	lines := []string{"extra one", "extra two", "extra three"}

	pick := func(seed int64) []string {
		r := newResolver(t, WithPicker(NewRandomPicker(seed)), WithExtraFallbacks(lines...))
		var got []string
		for range 10 {
			a, err := r.Resolve(context.Background(), "unrelated question")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got = append(got, a.Text)
		}
		return got
	}

	first, second := pick(42), pick(42)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sequence diverged at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

// TestResolve_EmptyQuestion verifies blank input is the one error case.
func TestResolve_EmptyQuestion(t *testing.T) {
	r := newResolver(t)
	if _, err := r.Resolve(context.Background(), "   "); err == nil {
		t.Error("expected error for empty question")
	}
}

// TestNew_NilArguments verifies constructor validation.
func TestNew_NilArguments(t *testing.T) {
	if _, err := New(nil, persona.DefaultBank()); err == nil {
		t.Error("expected error for nil classifier")
	}
	if _, err := New(intent.NewClassifier(nil), nil); err == nil {
		t.Error("expected error for nil bank")
	}
}
