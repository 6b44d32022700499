package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrCircuitOpen rejects calls while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests rejects calls beyond the half-open trial budget.
	ErrTooManyRequests = errors.New("too many requests")
)

// State of a breaker.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

// Settings tune a breaker. Zero values take the defaults noted per field.
type Settings struct {
	// MaxRequests is the half-open trial budget, and the number of trial
	// successes that closes the breaker again. Default 1.
	MaxRequests uint32
	// Interval clears the closed-state counts periodically. Default 1m.
	Interval time.Duration
	// Timeout is how long the breaker stays open. Default 30s.
	Timeout time.Duration
	// ReadyToTrip sees the counts after each closed-state failure.
	// Default: five consecutive failures.
	ReadyToTrip func(counts Counts) bool
	// IsSuccessful classifies call errors. Default err == nil.
	IsSuccessful func(err error) bool
	// OnStateChange runs under the breaker lock on every transition.
	OnStateChange func(name string, from State, to State)
	// Now is the clock. Default time.Now.
	Now func() time.Time
}

// Counts tallies calls since the last transition or interval reset.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Breaker guards calls to one remote dependency. Outcomes of calls that
// started before a transition are discarded.
type Breaker struct {
	name string
	s    Settings

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	// deadline ends the closed-state interval or the open timeout; zero
	// while half-open.
	deadline time.Time
}

// New returns a closed breaker.
func New(name string, s Settings) *Breaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.ReadyToTrip == nil {
		s.ReadyToTrip = func(c Counts) bool { return c.ConsecutiveFailures >= 5 }
	}
	if s.IsSuccessful == nil {
		s.IsSuccessful = func(err error) bool { return err == nil }
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return &Breaker{
		name:     name,
		s:        s,
		deadline: s.Now().Add(s.Interval),
	}
}

func (b *Breaker) Name() string {
	return b.name
}

// State reports the state at the current time, applying any due
// open to half-open transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(b.s.Now())
	return b.state
}

// Counts returns a snapshot of the tallies.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs req if the breaker admits it and records the outcome. The error
// from req is returned unchanged; a rejected call returns ErrCircuitOpen or
// ErrTooManyRequests without running req. A panic in req counts as a
// failure and is re-raised.
func (b *Breaker) Do(req func() error) error {
	gen, err := b.admit()
	if err != nil {
		return err
	}

	done := false
	defer func() {
		if !done {
			b.record(gen, false)
		}
	}()

	err = req()
	done = true
	b.record(gen, b.s.IsSuccessful(err))
	return err
}

// Execute runs req through b and returns its result.
func Execute[T any](b *Breaker, req func() (T, error)) (T, error) {
	var result T
	err := b.Do(func() error {
		var err error
		result, err = req()
		return err
	})
	return result, err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance(b.s.Now())
	switch {
	case b.state == StateOpen:
		return 0, ErrCircuitOpen
	case b.state == StateHalfOpen && b.counts.Requests >= b.s.MaxRequests:
		return 0, ErrTooManyRequests
	}
	b.counts.Requests++
	return b.generation, nil
}

func (b *Breaker) record(gen uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.s.Now()
	b.advance(now)
	if gen != b.generation {
		return
	}

	switch b.state {
	case StateClosed:
		if ok {
			b.counts.success()
			return
		}
		b.counts.failure()
		if b.s.ReadyToTrip(b.counts) {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		if !ok {
			b.transition(StateOpen, now)
			return
		}
		b.counts.success()
		if b.counts.ConsecutiveSuccesses >= b.s.MaxRequests {
			b.transition(StateClosed, now)
		}
	}
}

// advance applies time-driven changes: the closed-state interval reset and
// the end of the open timeout.
func (b *Breaker) advance(now time.Time) {
	switch b.state {
	case StateClosed:
		if now.After(b.deadline) {
			b.newGeneration()
			b.deadline = now.Add(b.s.Interval)
		}
	case StateOpen:
		if now.After(b.deadline) {
			b.transition(StateHalfOpen, now)
		}
	}
}

func (b *Breaker) transition(to State, now time.Time) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.newGeneration()

	switch to {
	case StateClosed:
		b.deadline = now.Add(b.s.Interval)
	case StateOpen:
		b.deadline = now.Add(b.s.Timeout)
	default:
		b.deadline = time.Time{}
	}

	if b.s.OnStateChange != nil {
		b.s.OnStateChange(b.name, from, to)
	}
}

func (b *Breaker) newGeneration() {
	b.generation++
	b.counts = Counts{}
}
