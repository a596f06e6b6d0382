// Package gatewaytest provides a scriptable gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/gateway"
)

// Call is one recorded invocation.
type Call struct {
	Function string
	Args     []any
}

type response struct {
	value any
	err   error
}

// Stub is an in-memory gateway. Responses are keyed by function name and the
// printed form of the arguments, so Respond("f", "L", 4) matches Invoke(ctx, "f", 4)
// and Invoke(ctx, "f", int64(4)) alike.
type Stub struct {
	mu        sync.Mutex
	responses map[string]response
	calls     []Call
	loads     []gateway.Source

	// LoadErr, when set, is returned by every Load
	LoadErr error
}

var _ gateway.Gateway = (*Stub)(nil)

// NewStub creates an empty stub.
func NewStub() *Stub {
	return &Stub{responses: make(map[string]response)}
}

func key(function string, args []any) string {
	return fmt.Sprintf("%s%v", function, args)
}

// Respond scripts a successful result for function called with args.
func (s *Stub) Respond(function string, value any, args ...any) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[key(function, args)] = response{value: value}
	return s
}

// Fail scripts an error for function called with args.
func (s *Stub) Fail(function string, err error, args ...any) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[key(function, args)] = response{err: err}
	return s
}

// Load implements gateway.Loader
func (s *Stub) Load(_ context.Context, language, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return s.LoadErr
	}
	s.loads = append(s.loads, gateway.Source{Language: language, Source: source})
	return nil
}

// Invoke implements gateway.Invoker. Unscripted calls fail with a
// resolution failure.
func (s *Stub) Invoke(_ context.Context, function string, args ...any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Function: function, Args: append([]any(nil), args...)})

	resp, ok := s.responses[key(function, args)]
	if !ok {
		return nil, perrors.ResolutionFailure(function)
	}
	return resp.value, resp.err
}

// Close implements gateway.Gateway
func (s *Stub) Close(context.Context) error {
	return nil
}

// Calls returns a copy of the recorded invocations in order.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Loads returns a copy of the recorded loads in order.
func (s *Stub) Loads() []gateway.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.Source(nil), s.loads...)
}

// Reset forgets recorded calls but keeps scripted responses.
func (s *Stub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.loads = nil
}
