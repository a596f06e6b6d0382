// Package guard decorates a gateway with per-function circuit breakers and an
// invocation timeout. It never retries.
package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/gateway"
	"github.com/ignitionstack/polytree/pkg/logging"
)

// Options configures the decorator. A zero FailureThreshold disables the
// breakers and a zero Timeout disables the deadline.
type Options struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	Timeout          time.Duration
}

// Gateway wraps another gateway.
type Gateway struct {
	next     gateway.Gateway
	opts     Options
	logger   logging.Logger
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

var _ gateway.Gateway = (*Gateway)(nil)

// New wraps next.
func New(next gateway.Gateway, opts Options, logger logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gateway{
		next:     next,
		opts:     opts,
		logger:   logger,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Load implements gateway.Loader
func (g *Gateway) Load(ctx context.Context, language, source string) error {
	return g.next.Load(ctx, language, source)
}

// Invoke implements gateway.Invoker. Resolution failures do not count
// against the breaker; the routine never ran.
func (g *Gateway) Invoke(ctx context.Context, function string, args ...any) (any, error) {
	cb := g.breaker(function)
	if cb != nil && cb.IsOpen() {
		return nil, perrors.New(perrors.DomainGateway, perrors.CodeCircuitOpen, "circuit breaker is open").WithFunction(function)
	}

	start := time.Now()
	result, err := g.execute(ctx, function, args)
	elapsed := time.Since(start)

	if err != nil {
		if cb != nil && !perrors.Is(err, perrors.CodeResolutionFailure) && cb.RecordFailure() {
			g.logger.Printf("Circuit breaker opened for function %s", function)
		}
		g.logger.Debugf("Call %s failed after %v: %v", function, elapsed, err)
		return nil, err
	}

	if cb != nil {
		cb.RecordSuccess()
	}
	g.logger.Debugf("Call %s succeeded in %v", function, elapsed)
	return result, nil
}

func (g *Gateway) execute(ctx context.Context, function string, args []any) (any, error) {
	if g.opts.Timeout <= 0 {
		return g.next.Invoke(ctx, function, args...)
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	result, err := ExecuteWithContext(ctx, func() (any, error) {
		return g.next.Invoke(ctx, function, args...)
	})
	if ctx.Err() == context.DeadlineExceeded && perrors.CodeOf(err) == perrors.CodeTimeout {
		return nil, perrors.Wrap(perrors.DomainGateway, perrors.CodeTimeout,
			fmt.Sprintf("call timed out after %v", g.opts.Timeout), ctx.Err()).WithFunction(function)
	}
	return result, err
}

func (g *Gateway) breaker(function string) *CircuitBreaker {
	if g.opts.FailureThreshold <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	cb, ok := g.breakers[function]
	if !ok {
		cb = NewCircuitBreaker(g.opts.FailureThreshold, g.opts.ResetTimeout)
		g.breakers[function] = cb
	}
	return cb
}

// BreakerState reports the breaker state for function, or "disabled".
func (g *Gateway) BreakerState(function string) string {
	cb := g.breaker(function)
	if cb == nil {
		return "disabled"
	}
	return cb.State()
}

// Close implements gateway.Gateway
func (g *Gateway) Close(ctx context.Context) error {
	return g.next.Close(ctx)
}
