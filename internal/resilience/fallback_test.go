package resilience

import (
	"errors"
	"testing"
	"time"
)

func testGroup(names ...string) *FallbackGroup[string] {
	fg := NewFallbackGroup(names[0], names[0], FallbackConfig{
		Breaker: BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute},
	})
	for _, n := range names[1:] {
		fg.AddFallback(n, n)
	}
	return fg
}

// TestExecuteWithResult_PrimaryWins verifies a healthy primary answers
// without touching fallbacks.
func TestExecuteWithResult_PrimaryWins(t *testing.T) {
	fg := testGroup("primary", "secondary")

	var tried []string
	got, err := ExecuteWithResult(fg, func(v string) (string, error) {
		tried = append(tried, v)
		return v + "-result", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "primary-result" {
		t.Errorf("expected primary result, got %q", got)
	}
	if len(tried) != 1 {
		t.Errorf("expected only the primary to be tried, got %v", tried)
	}
}

// TestExecuteWithResult_FailsOver verifies a failing primary falls through
// to the next entry.
func TestExecuteWithResult_FailsOver(t *testing.T) {
	fg := testGroup("primary", "secondary")

	got, err := ExecuteWithResult(fg, func(v string) (string, error) {
		if v == "primary" {
			return "", errBoom
		}
		return v + "-result", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "secondary-result" {
		t.Errorf("expected secondary result, got %q", got)
	}
}

// TestExecuteWithResult_AllFail verifies ErrAllFailed wraps the last error.
func TestExecuteWithResult_AllFail(t *testing.T) {
	fg := testGroup("primary", "secondary")

	_, err := ExecuteWithResult(fg, func(string) (string, error) {
		return "", errBoom
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("expected ErrAllFailed, got %v", err)
	}
}

// TestExecuteWithResult_SkipsOpenBreaker verifies a tripped primary is
// bypassed on later calls.
func TestExecuteWithResult_SkipsOpenBreaker(t *testing.T) {
	fg := testGroup("primary", "secondary")

	// Trip the primary's breaker (threshold 2).
	for range 2 {
		ExecuteWithResult(fg, func(v string) (string, error) {
			if v == "primary" {
				return "", errBoom
			}
			return v, nil
		})
	}

	var tried []string
	if _, err := ExecuteWithResult(fg, func(v string) (string, error) {
		tried = append(tried, v)
		return v, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tried) != 1 || tried[0] != "secondary" {
		t.Errorf("expected only the secondary to be tried, got %v", tried)
	}
}

// TestExecuteWithResult_TerminalStopsFailover verifies a terminal error is
// returned as-is, skips remaining entries, and leaves the breaker closed.
func TestExecuteWithResult_TerminalStopsFailover(t *testing.T) {
	errTerminal := errors.New("definitive negative outcome")
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{
		Breaker:  BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute},
		Terminal: func(err error) bool { return errors.Is(err, errTerminal) },
	})
	fg.AddFallback("secondary", "secondary")

	var tried []string
	_, err := ExecuteWithResult(fg, func(v string) (string, error) {
		tried = append(tried, v)
		return "", errTerminal
	})
	if !errors.Is(err, errTerminal) {
		t.Errorf("expected the terminal error unchanged, got %v", err)
	}
	if len(tried) != 1 {
		t.Errorf("terminal error must stop failover, tried %v", tried)
	}
	if fg.entries[0].breaker.State() != StateClosed {
		t.Error("terminal error must not count as a breaker failure")
	}
}

// TestNames reports entries in try order.
func TestNames(t *testing.T) {
	fg := testGroup("a", "b", "c")
	names := fg.Names()
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}
