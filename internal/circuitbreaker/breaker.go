// Package circuitbreaker stops hammering an exchange that keeps failing.
// The breaker opens after consecutive failures, lets a probe through after
// a cool-down, and closes again after enough probe successes.
package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	FailThreshold    int
	SuccessThreshold int
	Timeout          time.Duration
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	mu        sync.Mutex
	config    Config
	state     State
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time

	totalCalls   int64
	failedCalls  int64
	stateChanges int64
}

func New(config Config) *Breaker {
	return &Breaker{config: config, now: time.Now}
}

// Allow reports whether a call may proceed. An open breaker admits one
// probe once the cool-down has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalCalls++
	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.config.Timeout {
			return false
		}
		b.setState(StateHalfOpen)
	}
	return true
}

// Record feeds the outcome of a call back into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.onSuccess()
	} else {
		b.onFailure()
	}
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.setState(StateClosed)
			b.failures = 0
			b.successes = 0
		}
	}
}

func (b *Breaker) onFailure() {
	b.failedCalls++
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.config.FailThreshold {
			b.trip()
		}
	case StateHalfOpen:
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.openedAt = b.now()
	b.successes = 0
	b.setState(StateOpen)
}

func (b *Breaker) setState(s State) {
	if b.state == s {
		return
	}
	b.state = s
	b.stateChanges++
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset force-closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

// Snapshot is a point-in-time capture of breaker statistics.
type Snapshot struct {
	TotalCalls   int64
	FailedCalls  int64
	StateChanges int64
	State        string
}

func (b *Breaker) Metrics() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		TotalCalls:   b.totalCalls,
		FailedCalls:  b.failedCalls,
		StateChanges: b.stateChanges,
		State:        b.state.String(),
	}
}
