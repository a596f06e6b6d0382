package guard

import (
	"context"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
)

// Result represents a generic result with error.
type Result[T any] struct {
	Value T
	Err   error
}

// ExecuteWithContext runs operation in a goroutine and returns early when ctx
// is done. The goroutine is left to finish on its own in that case.
func ExecuteWithContext[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	var zero T

	// Buffered so the goroutine never blocks after we stop listening
	resultCh := make(chan Result[T], 1)

	go func() {
		value, err := operation()
		resultCh <- Result[T]{Value: value, Err: err}
	}()

	select {
	case result := <-resultCh:
		return result.Value, result.Err

	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return zero, perrors.Wrap(perrors.DomainGateway, perrors.CodeTimeout, "operation timed out", ctx.Err())
		}
		return zero, perrors.Wrap(perrors.DomainGateway, perrors.CodeInvocationFailure,
			"operation was cancelled", ctx.Err())
	}
}
