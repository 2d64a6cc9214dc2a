// Package resilience guards the remote chat service with a circuit breaker
// so a flapping backend degrades into fast local failures instead of a stack
// of hung requests.
package resilience

import (
	"sync"
	"time"

	"ai-character-chat/widget/pkg/errors"
	"ai-character-chat/widget/pkg/logger"
)

// BreakerState is the breaker's position.
type BreakerState string

const (
	// StateClosed lets requests through.
	StateClosed BreakerState = "closed"
	// StateOpen short-circuits requests until the retry window passes.
	StateOpen BreakerState = "open"
	// StateHalfOpen lets a few probes through to test recovery.
	StateHalfOpen BreakerState = "half-open"
)

// ErrOpen is returned for requests rejected while the circuit is open.
var ErrOpen = errors.NewRemoteError("chat service temporarily unavailable")

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	RetryTimeout     time.Duration
}

// DefaultBreakerConfig returns the tuning used for the chat service calls.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     30 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern over arbitrary calls.
// Validation errors never trip it; they are local rejections, not evidence
// the service is unhealthy.
type Breaker struct {
	mu  sync.Mutex
	cfg BreakerConfig
	log *logger.Logger

	state       BreakerState
	failures    uint
	successes   uint
	nextAttempt time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig, log *logger.Logger) *Breaker {
	return &Breaker{
		cfg:   cfg,
		log:   log.WithComponent("breaker"),
		state: StateClosed,
	}
}

// Execute runs fn if the circuit allows it and records the outcome.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		b.log.Warn("request short-circuited", "name", b.cfg.Name)
		return ErrOpen
	}

	err := fn()
	if err != nil && !errors.IsValidation(err) {
		b.recordFailure(err)
		return err
	}
	b.recordSuccess()
	return err
}

// State returns the breaker's current position.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Now().After(b.nextAttempt) {
			b.state = StateHalfOpen
			b.successes = 0
			b.log.Info("circuit half-open", "name", b.cfg.Name)
			return true
		}
		return false
	case StateHalfOpen:
		return b.successes < b.cfg.SuccessThreshold
	}
	return false
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
			b.log.Info("circuit closed", "name", b.cfg.Name)
		}
	}
}

func (b *Breaker) recordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.open()
		}
	case StateHalfOpen:
		b.open()
	}
	b.log.Debug("circuit recorded failure", "name", b.cfg.Name, "error", err.Error())
}

// open transitions to open. Caller must hold the lock.
func (b *Breaker) open() {
	b.state = StateOpen
	b.nextAttempt = time.Now().Add(b.cfg.RetryTimeout)
	b.log.Warn("circuit opened",
		"name", b.cfg.Name,
		"failures", b.failures,
		"retry_at", b.nextAttempt.Format(time.RFC3339),
	)
}
