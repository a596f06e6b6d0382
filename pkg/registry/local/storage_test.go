package local

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ignitionstack/polytree/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	storage := NewLocalStorage(dir)

	path := storage.ModulePath("demo", "leaf", "abc123")
	assert.Equal(t, filepath.Join(dir, "storage", "demo", "leaf", "versions", "abc123.wasm"), path)

	require.NoError(t, storage.WriteModule(path, []byte("bytes")))
	data, err := storage.ReadModule(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), data)

	_, err = storage.ReadModule(filepath.Join(dir, "missing.wasm"))
	assert.ErrorIs(t, err, registry.ErrModuleNotFound)
}

func TestLocalStorageWriteIntoFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "storage")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	storage := NewLocalStorage(dir)
	err := storage.WriteModule(storage.ModulePath("demo", "leaf", "abc"), []byte("bytes"))
	assert.Error(t, err)
}

func TestLocalStorageReplacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	storage := NewLocalStorage(dir)
	path := storage.ModulePath("demo", "leaf", "abc")

	require.NoError(t, storage.WriteModule(path, []byte("first")))
	require.NoError(t, storage.WriteModule(path, []byte("second")))

	data, err := storage.ReadModule(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc.wasm", entries[0].Name())
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	storage := NewLocalStorage(dir)

	err := storage.WriteModule(storage.ModulePath("..", "..", "abc"), []byte("bytes"))
	assert.ErrorIs(t, err, registry.ErrInvalidReference)

	err = storage.WriteModule(filepath.Join(dir, "elsewhere.wasm"), []byte("bytes"))
	assert.ErrorIs(t, err, registry.ErrInvalidReference)
	assert.NoFileExists(t, filepath.Join(dir, "elsewhere.wasm"))
}
