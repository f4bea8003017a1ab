// Package resilience provides circuit breaker and provider failover
// primitives for the STT and LLM backends.
//
// The central type is [Breaker], a three-state circuit breaker
// (closed → open → half-open). [FallbackGroup] composes multiple instances
// of any provider type with per-entry breakers so a failing primary is
// bypassed in favour of healthy fallbacks. Terminal outcomes such as
// "no speech in this clip" come from a healthy backend and are exempt from
// both breaker accounting and failover.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [Breaker.Do] when the breaker is open and
// the cooldown has not yet elapsed.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards all calls.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen] until the cooldown
	// elapses.
	StateOpen

	// StateHalfOpen lets a bounded number of probe calls through; enough
	// successes close the breaker, any failure re-opens it.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds tuning knobs for a [Breaker].
type BreakerConfig struct {
	// Name labels the breaker in log messages.
	Name string

	// FailureThreshold is the number of consecutive failures in the closed
	// state before the breaker opens. Default: 5.
	FailureThreshold int

	// Cooldown is how long the breaker stays open before allowing probes.
	// Default: 30s.
	Cooldown time.Duration

	// ProbeBudget is the number of probe calls permitted in the half-open
	// state. Default: 3.
	ProbeBudget int
}

// Breaker implements the three-state circuit breaker pattern.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	budget    int

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
	probeBad int
}

// NewBreaker creates a [Breaker]; zero-value config fields get defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ProbeBudget <= 0 {
		cfg.ProbeBudget = 3
	}
	return &Breaker{
		name:      cfg.Name,
		threshold: cfg.FailureThreshold,
		cooldown:  cfg.Cooldown,
		budget:    cfg.ProbeBudget,
		state:     StateClosed,
	}
}

// Do runs fn if the breaker allows it. In the open state it returns
// [ErrCircuitOpen] without calling fn; in the half-open state only the probe
// budget's worth of calls go through.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case StateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.probes = 0
		b.probeBad = 0
		slog.Info("circuit breaker transitioning to half-open", "name", b.name)

	case StateHalfOpen:
		if b.probes >= b.budget {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
	}

	probing := b.state == StateHalfOpen
	if probing {
		b.probes++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure(probing)
	} else {
		b.onSuccess(probing)
	}
	return err
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure(probing bool) {
	b.openedAt = time.Now()

	if probing {
		b.probeBad++
		// Any failed probe re-opens immediately.
		b.state = StateOpen
		b.failures = b.threshold
		slog.Warn("circuit breaker re-opened from half-open", "name", b.name)
		return
	}

	b.failures++
	if b.failures >= b.threshold {
		b.state = StateOpen
		slog.Warn("circuit breaker opened",
			"name", b.name,
			"consecutive_failures", b.failures)
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess(probing bool) {
	if probing {
		if b.probes-b.probeBad >= b.budget {
			b.state = StateClosed
			b.failures = 0
			b.probes = 0
			b.probeBad = 0
			slog.Info("circuit breaker closed after successful probes", "name", b.name)
		}
		return
	}
	b.failures = 0
}

// State returns the current [State]. An open breaker whose cooldown has
// elapsed reports [StateHalfOpen]; the actual transition happens on the next
// [Breaker.Do] call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to [StateClosed] and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.probes = 0
	b.probeBad = 0
	slog.Info("circuit breaker manually reset", "name", b.name)
}
