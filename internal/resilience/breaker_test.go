package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failingBreaker(t *testing.T, cooldown time.Duration) *Breaker {
	t.Helper()
	return NewBreaker(BreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		Cooldown:         cooldown,
		ProbeBudget:      2,
	})
}

// TestBreaker_StaysClosedOnSuccess verifies successful calls keep the
// breaker closed.
func TestBreaker_StaysClosedOnSuccess(t *testing.T) {
	b := failingBreaker(t, time.Minute)
	for range 10 {
		if err := b.Do(func() error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}

// TestBreaker_OpensAfterThreshold verifies consecutive failures trip the
// breaker and further calls are rejected without running fn.
func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := failingBreaker(t, time.Minute)
	for range 3 {
		b.Do(func() error { return errBoom })
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while the breaker is open")
	}
}

// TestBreaker_SuccessResetsFailureCount verifies interleaved successes
// prevent the breaker from opening.
func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := failingBreaker(t, time.Minute)
	for range 5 {
		b.Do(func() error { return errBoom })
		b.Do(func() error { return errBoom })
		b.Do(func() error { return nil })
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}

// TestBreaker_HalfOpenClosesAfterProbes verifies successful probes after the
// cooldown close the breaker.
func TestBreaker_HalfOpenClosesAfterProbes(t *testing.T) {
	b := failingBreaker(t, 10*time.Millisecond)
	for range 3 {
		b.Do(func() error { return errBoom })
	}
	time.Sleep(20 * time.Millisecond)

	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after cooldown, got %v", b.State())
	}
	for range 2 { // probe budget
		if err := b.Do(func() error { return nil }); err != nil {
			t.Fatalf("unexpected probe error: %v", err)
		}
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probes, got %v", b.State())
	}
}

// TestBreaker_HalfOpenReopensOnFailure verifies one failed probe re-opens
// the breaker.
func TestBreaker_HalfOpenReopensOnFailure(t *testing.T) {
	b := failingBreaker(t, 10*time.Millisecond)
	for range 3 {
		b.Do(func() error { return errBoom })
	}
	time.Sleep(20 * time.Millisecond)

	b.Do(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Errorf("expected open after failed probe, got %v", b.State())
	}
}

// TestBreaker_Reset verifies a manual reset restores the closed state.
func TestBreaker_Reset(t *testing.T) {
	b := failingBreaker(t, time.Minute)
	for range 3 {
		b.Do(func() error { return errBoom })
	}
	b.Reset()
	if b.State() != StateClosed {
		t.Errorf("expected closed after reset, got %v", b.State())
	}
	if err := b.Do(func() error { return nil }); err != nil {
		t.Errorf("unexpected error after reset: %v", err)
	}
}

// TestState_String covers the state labels.
func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(99):     "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String(): expected %q, got %q", s, want, got)
		}
	}
}
