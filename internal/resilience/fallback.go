package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [FallbackGroup] fails or
// has an open circuit breaker.
var ErrAllFailed = errors.New("resilience: all providers failed")

// FallbackConfig configures a [FallbackGroup].
type FallbackConfig struct {
	// Breaker is the per-entry circuit breaker template.
	Breaker BreakerConfig

	// Terminal reports errors that are definitive answers from a healthy
	// backend (e.g. "this clip contains no speech"). A terminal error is
	// returned to the caller unchanged: no failover to the next entry and
	// no breaker failure recorded. Nil means no error is terminal.
	Terminal func(error) bool
}

// entry pairs a provider value with its dedicated breaker.
type entry[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// FallbackGroup wraps a primary and zero or more fallback instances of the
// same provider type. When the primary fails (or its breaker is open), the
// next healthy fallback is tried in registration order.
//
// FallbackGroup is safe for concurrent use after registration is complete;
// AddFallback must not race with Execute.
type FallbackGroup[T any] struct {
	entries []entry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a group with primary as the first entry.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	bc := cfg.Breaker
	bc.Name = primaryName
	return &FallbackGroup[T]{
		entries: []entry[T]{{
			name:    primaryName,
			value:   primary,
			breaker: NewBreaker(bc),
		}},
		cfg: cfg,
	}
}

// AddFallback appends a fallback provider. Fallbacks are tried in the order
// they are added, after the primary.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	bc := fg.cfg.Breaker
	bc.Name = name
	fg.entries = append(fg.entries, entry[T]{
		name:    name,
		value:   fallback,
		breaker: NewBreaker(bc),
	})
}

// Names returns the entry names in try order.
func (fg *FallbackGroup[T]) Names() []string {
	names := make([]string, len(fg.entries))
	for i, e := range fg.entries {
		names[i] = e.name
	}
	return names
}

// ExecuteWithResult tries fn against each entry in order until one succeeds
// or returns a terminal error. Circuit-open entries are skipped. Returns
// [ErrAllFailed] wrapped with the last error if every entry fails. This is
// a package-level function because Go does not support method-level type
// parameters.
func ExecuteWithResult[T any, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range fg.entries {
		e := &fg.entries[i]

		var (
			result   R
			terminal error
		)
		err := e.breaker.Do(func() error {
			r, innerErr := fn(e.value)
			if innerErr != nil && fg.cfg.Terminal != nil && fg.cfg.Terminal(innerErr) {
				// The backend is healthy; only the outcome is negative.
				terminal = innerErr
				return nil
			}
			result = r
			return innerErr
		})
		if terminal != nil {
			return zero, terminal
		}
		if err == nil {
			return result, nil
		}

		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping provider (circuit open)", "provider", e.name)
		} else {
			slog.Warn("provider failed, trying next", "provider", e.name, "error", err)
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
