package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Config describes a breaker in front of one remote dependency.
type Config struct {
	Enabled          bool
	Name             string
	FailureThreshold int
	OpenTimeout      time.Duration
	// HalfOpenProbes is both the number of concurrent trial calls allowed
	// after the timeout and the number of successes needed to close again.
	HalfOpenProbes int
	OnTransition   func(name string, from, to State)
}

// New builds the breaker, filling unset limits. A disabled config yields
// nil, which admits every call.
func (cfg Config) New() *Breaker {
	if !cfg.Enabled {
		return nil
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 15 * time.Second
	}
	if cfg.HalfOpenProbes < 1 {
		cfg.HalfOpenProbes = 1
	}
	return &Breaker{cfg: cfg, state: StateClosed, now: time.Now}
}

// Breaker stops calling a dependency after consecutive failures and
// probes it again once OpenTimeout has passed.
type Breaker struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	probing   int
	recovered int
}

// Do runs fn if the breaker admits it and records the outcome. Errors for
// which permanent reports true, such as a replay that does not exist,
// count as successes.
func (b *Breaker) Do(fn func() error, permanent func(error) bool) error {
	if b == nil {
		return fn()
	}
	if !b.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	b.settle(err == nil || (permanent != nil && permanent(err)))
	return err
}

// State reports an expired open breaker as half open.
func (b *Breaker) State() State {
	if b == nil {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.cooled() {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) cooled() bool {
	return b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if !b.cooled() {
			return false
		}
		b.move(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if b.probing >= b.cfg.HalfOpenProbes {
			return false
		}
		b.probing++
	}
	return true
}

func (b *Breaker) settle(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if ok {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.move(StateOpen)
		}
	case StateHalfOpen:
		b.probing = max(b.probing-1, 0)
		if !ok {
			b.move(StateOpen)
			return
		}
		b.recovered++
		if b.recovered >= b.cfg.HalfOpenProbes && b.probing == 0 {
			b.move(StateClosed)
		}
	case StateOpen:
		if !ok {
			b.openedAt = b.now()
		}
	}
}

// move must be called with mu held.
func (b *Breaker) move(to State) {
	from := b.state
	b.state = to
	b.failures, b.probing, b.recovered = 0, 0, 0
	if to == StateOpen {
		b.openedAt = b.now()
	}
	if from != to && b.cfg.OnTransition != nil {
		b.cfg.OnTransition(b.cfg.Name, from, to)
	}
}
