package builders

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, lang := range []string{"js", "JavaScript", "python", "rust", "go", "c", "zig", "assemblyscript"} {
		b, err := New(lang, nil)
		require.NoError(t, err, lang)
		assert.NotNil(t, b)
	}

	_, err := New("cobol", nil)
	assert.ErrorContains(t, err, "no builder")
	assert.Contains(t, Languages(), "c")
}

func TestPipelineBuild(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	p := &pipeline{
		language: "sh",
		steps: fixed(
			Step{Name: "compile", Command: []string{"sh", "-c", "echo compiling; printf wasm > plugin.wasm"}},
		),
		output: inDir(defaultOutput),
		out:    &out,
	}

	result, err := p.Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, defaultOutput), result.OutputPath)
	assert.Equal(t, "sh", result.Language)
	assert.Contains(t, out.String(), "compiling")
}

func TestPipelineBuildFailure(t *testing.T) {
	p := &pipeline{
		steps: fixed(
			Step{Name: "compile", Command: []string{"sh", "-c", "echo 'syntax error' >&2; exit 3"}},
			Step{Name: "never", Command: []string{"sh", "-c", "touch ran"}},
		),
		output: inDir(defaultOutput),
		out:    &bytes.Buffer{},
	}

	dir := t.TempDir()
	_, err := p.Build(context.Background(), dir)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "compile", buildErr.Step)
	assert.Contains(t, buildErr.Stderr, "syntax error")
	assert.NoFileExists(t, filepath.Join(dir, "ran"))
}

func TestPipelineMissingOutput(t *testing.T) {
	p := &pipeline{
		steps:  fixed(Step{Name: "noop", Command: []string{"true"}}),
		output: inDir(defaultOutput),
		out:    &bytes.Buffer{},
	}
	_, err := p.Build(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "without producing")
}

func TestFindSource(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.c", "leaf.c", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	source, err := findSource(dir, ".c", "leaf.c")
	require.NoError(t, err)
	assert.Equal(t, "leaf.c", source)

	source, err = findSource(dir, ".c")
	require.NoError(t, err)
	assert.Equal(t, "a.c", source)

	_, err = findSource(dir, ".zig")
	assert.Error(t, err)
}

func TestRustOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname = \"process-middle\"\n"), 0644))

	out, err := rustOutput(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "target", "wasm32-unknown-unknown", "release", "process_middle.wasm"), out)

	_, err = rustOutput(t.TempDir())
	assert.Error(t, err)
}
