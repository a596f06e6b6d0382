package guard

import (
	"sync"
	"sync/atomic"
	"time"
)

// Circuit breaker states as constants
const (
	stateClosed   = 0
	stateHalfOpen = 1
	stateOpen     = 2
)

// CircuitBreaker stops calling a foreign routine that keeps failing until
// resetTimeout has passed since the last failure.
type CircuitBreaker struct {
	failures         int32
	lastFailure      atomic.Value
	state            int32
	failureThreshold int32
	resetTimeout     time.Duration
	mutex            sync.Mutex
	now              func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	cb := &CircuitBreaker{
		failureThreshold: int32(failureThreshold),
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
	cb.lastFailure.Store(cb.now())
	return cb
}

// RecordSuccess closes a half-open circuit and clears the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	if atomic.LoadInt32(&cb.state) == stateOpen {
		return
	}
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	atomic.StoreInt32(&cb.failures, 0)
	atomic.StoreInt32(&cb.state, stateClosed)
}

// RecordFailure records a failed call and returns true if the circuit is now
// open. A failure while half-open reopens it immediately.
func (cb *CircuitBreaker) RecordFailure() bool {
	newCount := atomic.AddInt32(&cb.failures, 1)
	cb.lastFailure.Store(cb.now())

	state := atomic.LoadInt32(&cb.state)
	if state == stateHalfOpen || (state == stateClosed && newCount >= cb.failureThreshold) {
		cb.mutex.Lock()
		defer cb.mutex.Unlock()
		atomic.StoreInt32(&cb.state, stateOpen)
	}

	return atomic.LoadInt32(&cb.state) == stateOpen
}

// IsOpen checks if the circuit is currently open.
// If the reset timeout has expired, transitions to half-open state.
func (cb *CircuitBreaker) IsOpen() bool {
	if atomic.LoadInt32(&cb.state) != stateOpen {
		return false
	}

	lastFailureTime := cb.lastFailure.Load().(time.Time)
	if cb.now().Sub(lastFailureTime) > cb.resetTimeout {
		cb.mutex.Lock()
		defer cb.mutex.Unlock()

		if atomic.LoadInt32(&cb.state) == stateOpen &&
			cb.now().Sub(cb.lastFailure.Load().(time.Time)) > cb.resetTimeout {
			atomic.StoreInt32(&cb.state, stateHalfOpen)
			return false
		}
	}

	return atomic.LoadInt32(&cb.state) == stateOpen
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() string {
	switch atomic.LoadInt32(&cb.state) {
	case stateClosed:
		return "closed"
	case stateHalfOpen:
		return "half-open"
	case stateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// FailureCount returns the current failure count.
func (cb *CircuitBreaker) FailureCount() int {
	return int(atomic.LoadInt32(&cb.failures))
}
