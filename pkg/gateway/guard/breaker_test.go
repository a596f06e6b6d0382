package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(threshold, reset)
	cb.now = clock.now
	cb.lastFailure.Store(clock.now())
	return cb, clock
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.RecordFailure())
	assert.True(t, cb.RecordFailure())
	assert.True(t, cb.IsOpen())
	assert.Equal(t, "open", cb.State())
	assert.Equal(t, 3, cb.FailureCount())
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)

	cb.RecordFailure()
	cb.RecordSuccess()
	assert.Equal(t, 0, cb.FailureCount())
	assert.False(t, cb.RecordFailure())
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreakerHalfOpenAfterReset(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Minute)

	assert.True(t, cb.RecordFailure())
	clock.t = clock.t.Add(30 * time.Second)
	assert.True(t, cb.IsOpen())

	clock.t = clock.t.Add(31 * time.Second)
	assert.False(t, cb.IsOpen())
	assert.Equal(t, "half-open", cb.State())

	cb.RecordSuccess()
	assert.Equal(t, "closed", cb.State())
	assert.Equal(t, 0, cb.FailureCount())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	clock.t = clock.t.Add(2 * time.Minute)
	assert.False(t, cb.IsOpen())

	assert.True(t, cb.RecordFailure())
	assert.True(t, cb.IsOpen())
}

func TestCircuitBreakerSuccessWhileOpenIsIgnored(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)

	cb.RecordFailure()
	cb.RecordSuccess()
	assert.True(t, cb.IsOpen())
}
