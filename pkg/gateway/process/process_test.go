package process

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const middleScript = `#!/bin/sh
case "$POLYTREE_FUNCTION" in
  process_middle)
    printf '{"result":"M%s"}' "$POLYTREE_ARGS"
    ;;
  explode)
    printf '{"error":"kaboom","kind":"invocation"}'
    ;;
  crash)
    echo "segfault" >&2
    exit 3
    ;;
  garbage)
    printf 'not json'
    ;;
  number)
    printf '{"result":42}'
    ;;
  sleep)
    exec sleep 5
    ;;
  *)
    printf '{"error":"unknown function %s","kind":"resolution"}' "$POLYTREE_FUNCTION"
    ;;
esac
`

const leafScript = `#!/bin/sh
if [ "$POLYTREE_FUNCTION" = "process_leaf" ]; then
  printf '{"result":"Leaf%s"}' "$POLYTREE_ARGS"
else
  printf '{"kind":"resolution"}'
fi
`

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func setupGateway(t *testing.T) (*Gateway, string) {
	t.Helper()
	requireShell(t)
	dir := t.TempDir()

	g := New(DefaultInterpreters(), nil)
	middle := writeScript(t, dir, "middle.sh", middleScript)
	require.NoError(t, g.Load(context.Background(), "sh", middle))
	return g, dir
}

func TestInvokeResult(t *testing.T) {
	g, _ := setupGateway(t)

	got, err := g.Invoke(context.Background(), "process_middle", int64(4))
	require.NoError(t, err)
	assert.Equal(t, "M[4]", got)
}

func TestInvokeNumberResult(t *testing.T) {
	g, _ := setupGateway(t)

	got, err := g.Invoke(context.Background(), "number")
	require.NoError(t, err)
	assert.Equal(t, float64(42), got)
}

func TestInvokeErrors(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()

	tests := []struct {
		function string
		code     perrors.Code
	}{
		{"explode", perrors.CodeInvocationFailure},
		{"crash", perrors.CodeInvocationFailure},
		{"garbage", perrors.CodeMarshalFailure},
		{"missing", perrors.CodeResolutionFailure},
	}

	for _, tt := range tests {
		t.Run(tt.function, func(t *testing.T) {
			_, err := g.Invoke(ctx, tt.function)
			require.Error(t, err)
			assert.Equal(t, tt.code, perrors.CodeOf(err))
		})
	}
}

func TestInvokeCrashIncludesStderr(t *testing.T) {
	g, _ := setupGateway(t)

	_, err := g.Invoke(context.Background(), "crash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segfault")
}

func TestInvokeFallsThroughSources(t *testing.T) {
	g, dir := setupGateway(t)
	leaf := writeScript(t, dir, "leaf.sh", leafScript)
	require.NoError(t, g.Load(context.Background(), "sh", leaf))

	got, err := g.Invoke(context.Background(), "process_leaf", 9)
	require.NoError(t, err)
	assert.Equal(t, "Leaf[9]", got)
}

func TestInvokeCancelled(t *testing.T) {
	g, _ := setupGateway(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := g.Invoke(ctx, "sleep")
	assert.True(t, perrors.Is(err, perrors.CodeInvocationFailure))
}

func TestInvokeNothingLoaded(t *testing.T) {
	g := New(DefaultInterpreters(), nil)

	_, err := g.Invoke(context.Background(), "process_middle", 1)
	assert.True(t, perrors.Is(err, perrors.CodeResolutionFailure))
}

func TestLoadFailures(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	g := New(map[string][]string{
		"sh":    {"sh"},
		"ghost": {"definitely-not-an-interpreter-xyz"},
	}, nil)
	ctx := context.Background()
	script := writeScript(t, dir, "ok.sh", leafScript)

	tests := []struct {
		name     string
		language string
		source   string
	}{
		{"unknown language", "cobol", script},
		{"missing interpreter", "ghost", script},
		{"missing file", "sh", filepath.Join(dir, "nope.sh")},
		{"directory", "sh", dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Load(ctx, tt.language, tt.source)
			assert.True(t, perrors.Is(err, perrors.CodeLoadFailure))
		})
	}
}

func TestDecodeEnvelope(t *testing.T) {
	got, err := decodeEnvelope("f", []byte(`  {"result": "x"}`+"\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	_, err = decodeEnvelope("f", []byte(`{}`))
	assert.True(t, perrors.Is(err, perrors.CodeMarshalFailure))

	_, err = decodeEnvelope("f", []byte(`{"kind":"invocation"}`))
	assert.True(t, perrors.Is(err, perrors.CodeInvocationFailure))

	got, err = decodeEnvelope("f", []byte(`{"result": null}`))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCloseForgetsSources(t *testing.T) {
	g, _ := setupGateway(t)
	require.NoError(t, g.Close(context.Background()))

	_, err := g.Invoke(context.Background(), "process_middle", 1)
	assert.True(t, perrors.Is(err, perrors.CodeResolutionFailure))
}
