package tree

import (
	"context"
	"errors"
	"math"
	"testing"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/gateway/gatewaytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessRootScenarios(t *testing.T) {
	tests := []struct {
		name  string
		node  int64
		left  string
		right string
		want  string
	}{
		{name: "node two", node: 2, left: "L", right: "R", want: "Root(2) LR"},
		{name: "node zero", node: 0, left: "A", right: "B", want: "Root(0) AB"},
		{name: "empty results", node: 7, left: "", right: "", want: "Root(7) "},
		{name: "multi word", node: 1, left: "Middle(2) ", right: "Middle(3) ", want: "Root(1) Middle(2) Middle(3) "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := gatewaytest.NewStub().
				Respond(MiddleFunction, tt.left, 2*tt.node).
				Respond(MiddleFunction, tt.right, 2*tt.node+1)

			got, err := NewRootProcessor(stub).ProcessRoot(context.Background(), tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessRootIssuesTwoOrderedCalls(t *testing.T) {
	for _, n := range []int64{0, 1, 5, 1000} {
		stub := gatewaytest.NewStub().
			Respond(MiddleFunction, "x", 2*n).
			Respond(MiddleFunction, "y", 2*n+1)

		_, err := NewRootProcessor(stub).ProcessRoot(context.Background(), n)
		require.NoError(t, err)

		calls := stub.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, gatewaytest.Call{Function: MiddleFunction, Args: []any{2 * n}}, calls[0])
		assert.Equal(t, gatewaytest.Call{Function: MiddleFunction, Args: []any{2*n + 1}}, calls[1])
	}
}

func TestProcessRootLeftFailureShortCircuits(t *testing.T) {
	boom := perrors.InvocationFailure(MiddleFunction, errors.New("boom"))
	stub := gatewaytest.NewStub().
		Fail(MiddleFunction, boom, int64(4)).
		Respond(MiddleFunction, "R", int64(5))

	got, err := NewRootProcessor(stub).ProcessRoot(context.Background(), 2)
	assert.Empty(t, got)
	assert.Same(t, boom, err)
	assert.Len(t, stub.Calls(), 1)
}

func TestProcessRootRightFailureReturnsNoPartialResult(t *testing.T) {
	boom := perrors.InvocationFailure(MiddleFunction, errors.New("boom"))
	stub := gatewaytest.NewStub().
		Respond(MiddleFunction, "L", int64(4)).
		Fail(MiddleFunction, boom, int64(5))

	got, err := NewRootProcessor(stub).ProcessRoot(context.Background(), 2)
	assert.Empty(t, got)
	assert.Same(t, boom, err)
	assert.Len(t, stub.Calls(), 2)
}

func TestProcessRootPropagatesResolutionFailure(t *testing.T) {
	stub := gatewaytest.NewStub()

	_, err := NewRootProcessor(stub).ProcessRoot(context.Background(), 3)
	assert.True(t, perrors.Is(err, perrors.CodeResolutionFailure))
	assert.True(t, perrors.IsForeignCallFailure(err))
}

func TestProcessRootNonStringResult(t *testing.T) {
	stub := gatewaytest.NewStub().
		Respond(MiddleFunction, 42, int64(2)).
		Respond(MiddleFunction, "R", int64(3))

	_, err := NewRootProcessor(stub).ProcessRoot(context.Background(), 1)
	assert.True(t, perrors.Is(err, perrors.CodeForeignCallFailure))
	assert.True(t, perrors.IsForeignCallFailure(err))
	assert.Len(t, stub.Calls(), 1)
}

func TestProcessRootAcceptsBytes(t *testing.T) {
	stub := gatewaytest.NewStub().
		Respond(MiddleFunction, []byte("L"), int64(2)).
		Respond(MiddleFunction, "R", int64(3))

	got, err := NewRootProcessor(stub).ProcessRoot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Root(1) LR", got)
}

func TestProcessRootInvalidArgument(t *testing.T) {
	for _, n := range []int64{-1, math.MinInt64, MaxNode + 1, math.MaxInt64} {
		stub := gatewaytest.NewStub()

		_, err := NewRootProcessor(stub).ProcessRoot(context.Background(), n)
		assert.True(t, perrors.Is(err, perrors.CodeInvalidArgument), "node %d", n)
		assert.Empty(t, stub.Calls(), "node %d", n)
	}
}

func TestProcessRootLargestNode(t *testing.T) {
	stub := gatewaytest.NewStub().
		Respond(MiddleFunction, "a", int64(2*MaxNode)).
		Respond(MiddleFunction, "b", int64(2*MaxNode+1))

	got, err := NewRootProcessor(stub).ProcessRoot(context.Background(), MaxNode)
	require.NoError(t, err)
	assert.Equal(t, "Root(4611686018427387903) ab", got)
}

func TestProcessRootIsIdempotent(t *testing.T) {
	stub := gatewaytest.NewStub().
		Respond(MiddleFunction, "L", int64(4)).
		Respond(MiddleFunction, "R", int64(5))
	p := NewRootProcessor(stub)

	first, err := p.ProcessRoot(context.Background(), 2)
	require.NoError(t, err)
	second, err := p.ProcessRoot(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, stub.Calls(), 4)
}

func TestWithFunction(t *testing.T) {
	stub := gatewaytest.NewStub().
		Respond("combine", "L", int64(0)).
		Respond("combine", "R", int64(1))

	p := NewRootProcessor(stub, WithFunction("combine"), WithFunction(""))
	assert.Equal(t, "combine", p.Function())

	got, err := p.ProcessRoot(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Root(0) LR", got)
}

func TestChildren(t *testing.T) {
	left, right, err := Children(3)
	require.NoError(t, err)
	assert.Equal(t, int64(6), left)
	assert.Equal(t, int64(7), right)

	for _, n := range []int64{0, 1, 2, 10, MaxNode} {
		left, right, err := Children(n)
		require.NoError(t, err)
		assert.NotEqual(t, left, right)
		assert.Greater(t, right, n)
		if n > 0 {
			assert.Greater(t, left, n)
		}
	}
}
