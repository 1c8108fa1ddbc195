// Package circuitbreaker implements the circuit breaker pattern for
// protecting the remote document store from repeated failing calls.
// No external dependencies - uses only standard library.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows all requests through (normal operation).
	StateClosed State = iota
	// StateOpen rejects all requests (too many failures).
	StateOpen
	// StateHalfOpen allows a limited number of probe requests.
	StateHalfOpen
)

// String returns the string representation of the state.
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

// ErrOpen is returned when the circuit is open and calls are rejected.
var ErrOpen = errors.New("circuit breaker: open")

// Config holds circuit breaker configuration.
type Config struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int

	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration

	// HalfOpenMax is the maximum number of probe requests in half-open state.
	HalfOpenMax int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		OpenTimeout:      60 * time.Second,
		HalfOpenMax:      3,
	}
}

// Breaker is a circuit breaker.
type Breaker struct {
	mu sync.Mutex

	config Config
	state  State

	consecutiveFailures int
	halfOpenInFlight    int
	openedAt            time.Time

	// now is swappable for tests.
	now func() time.Time
}

// New creates a new Breaker with the given configuration.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultConfig().OpenTimeout
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = DefaultConfig().HalfOpenMax
	}
	return &Breaker{
		config: cfg,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Allow reports whether a request may proceed. It returns ErrOpen when the
// circuit is open and the open timeout has not yet elapsed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.config.OpenTimeout {
			b.state = StateHalfOpen
			b.halfOpenInFlight = 1
			return nil
		}
		return ErrOpen
	case StateHalfOpen:
		if b.halfOpenInFlight >= b.config.HalfOpenMax {
			return ErrOpen
		}
		b.halfOpenInFlight++
		return nil
	}
	return nil
}

// RecordSuccess records a successful call, closing the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.halfOpenInFlight = 0
	b.state = StateClosed
}

// RecordFailure records a failed call, opening the circuit when the
// failure threshold is reached or a half-open probe fails.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++

	if b.state == StateHalfOpen || b.consecutiveFailures >= b.config.FailureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
		b.halfOpenInFlight = 0
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset returns the breaker to the closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.consecutiveFailures = 0
	b.halfOpenInFlight = 0
}
