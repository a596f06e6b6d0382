package native

import (
	"context"
	"errors"
	"testing"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndInvokeLeaf(t *testing.T) {
	g := New(nil, LeafLibrary())
	ctx := context.Background()

	require.NoError(t, g.Load(ctx, "c", LeafLibraryName))
	require.NoError(t, g.Load(ctx, "c", LeafLibraryName))

	got, err := g.Invoke(ctx, LeafFunction, int64(4))
	require.NoError(t, err)
	assert.Equal(t, "Leaf(4) ", got)
	assert.Equal(t, []string{LeafFunction}, g.Functions())
}

func TestLoadFailures(t *testing.T) {
	g := New(nil, LeafLibrary())
	ctx := context.Background()

	err := g.Load(ctx, "c", "missing")
	assert.True(t, perrors.Is(err, perrors.CodeLoadFailure))

	err = g.Load(ctx, "python", LeafLibraryName)
	assert.True(t, perrors.Is(err, perrors.CodeLoadFailure))
}

func TestLoadDuplicateFunction(t *testing.T) {
	twin := LeafLibrary()
	twin.Name = "leaf-twin"
	g := New(nil, LeafLibrary(), twin)
	ctx := context.Background()

	require.NoError(t, g.Load(ctx, "c", LeafLibraryName))
	err := g.Load(ctx, "c", "leaf-twin")
	assert.True(t, perrors.Is(err, perrors.CodeLoadFailure))
}

func TestFailedLoadLeavesNoFunctions(t *testing.T) {
	noop := func(context.Context, []any) (any, error) { return "", nil }
	functions := map[string]Func{"shared": noop}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		functions[name] = noop
	}

	g := New(nil,
		Library{Language: "python", Name: "first", Functions: map[string]Func{"shared": noop}},
		Library{Language: "python", Name: "second", Functions: functions},
	)
	ctx := context.Background()

	require.NoError(t, g.Load(ctx, "python", "first"))
	for i := 0; i < 2; i++ {
		err := g.Load(ctx, "python", "second")
		require.Error(t, err)
		assert.True(t, perrors.Is(err, perrors.CodeLoadFailure))
		assert.Contains(t, err.Error(), `"shared" is already defined`)
		assert.Equal(t, []string{"shared"}, g.Functions())
	}

	_, err := g.Invoke(ctx, "a")
	assert.True(t, perrors.Is(err, perrors.CodeResolutionFailure))
}

func TestInvokeUnloaded(t *testing.T) {
	g := New(nil, LeafLibrary())

	_, err := g.Invoke(context.Background(), LeafFunction, 1)
	assert.True(t, perrors.Is(err, perrors.CodeResolutionFailure))
}

func TestInvokeWrapsPlainErrors(t *testing.T) {
	boom := errors.New("boom")
	g := New(nil, Library{
		Language: "python",
		Name:     "broken",
		Functions: map[string]Func{
			"explode": func(context.Context, []any) (any, error) { return nil, boom },
		},
	})
	ctx := context.Background()
	require.NoError(t, g.Load(ctx, "python", "broken"))

	_, err := g.Invoke(ctx, "explode")
	assert.True(t, perrors.Is(err, perrors.CodeInvocationFailure))
	assert.ErrorIs(t, err, boom)
}

func TestLeafRejectsBadArgument(t *testing.T) {
	g := New(nil, LeafLibrary())
	ctx := context.Background()
	require.NoError(t, g.Load(ctx, "c", LeafLibraryName))

	_, err := g.Invoke(ctx, LeafFunction, "four")
	assert.True(t, perrors.Is(err, perrors.CodeMarshalFailure))

	_, err = g.Invoke(ctx, LeafFunction)
	assert.True(t, perrors.Is(err, perrors.CodeMarshalFailure))
}

func TestMiddleCallsLeavesThroughGateway(t *testing.T) {
	router := gateway.NewRouter(map[string]string{"c": gateway.BackendNative, "js": gateway.BackendNative}, nil)
	g := New(nil, LeafLibrary(), MiddleLibrary(router))
	router.Register(gateway.BackendNative, g)
	ctx := context.Background()

	require.NoError(t, gateway.Bootstrap(ctx, router, []gateway.Source{
		{Language: "c", Source: LeafLibraryName},
		{Language: "js", Source: MiddleLibraryName},
	}))

	got, err := router.Invoke(ctx, MiddleFunction, int64(2))
	require.NoError(t, err)
	assert.Equal(t, "Middle(2) Leaf(4) Leaf(5) ", got)
}

func TestMiddleWithoutLeaf(t *testing.T) {
	g := New(nil)
	g.Register(MiddleLibrary(g))
	ctx := context.Background()
	require.NoError(t, g.Load(ctx, "js", MiddleLibraryName))

	_, err := g.Invoke(ctx, MiddleFunction, 3)
	assert.True(t, perrors.Is(err, perrors.CodeResolutionFailure))
}

func TestMiddleRejectsNegative(t *testing.T) {
	g := New(nil)
	g.Register(MiddleLibrary(g))
	ctx := context.Background()
	require.NoError(t, g.Load(ctx, "js", MiddleLibraryName))

	_, err := g.Invoke(ctx, MiddleFunction, -1)
	assert.True(t, perrors.Is(err, perrors.CodeInvocationFailure))
}

func TestClose(t *testing.T) {
	g := New(nil, LeafLibrary())
	ctx := context.Background()
	require.NoError(t, g.Load(ctx, "c", LeafLibraryName))
	require.NoError(t, g.Close(ctx))

	_, err := g.Invoke(ctx, LeafFunction, 1)
	assert.True(t, perrors.Is(err, perrors.CodeResolutionFailure))
}
