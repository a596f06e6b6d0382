package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRegistry struct {
	lists  int
	closes int
}

func (r *countingRegistry) Get(string, string) (*ModuleMetadata, error) {
	return nil, ErrModuleNotFound
}

func (r *countingRegistry) Push(string, string, []byte, string, ModuleSettings) (string, error) {
	return "digest", nil
}

func (r *countingRegistry) Pull(string, string, string) ([]byte, *VersionInfo, error) {
	return nil, nil, ErrModuleNotFound
}

func (r *countingRegistry) ListAll() ([]ModuleMetadata, error) {
	r.lists++
	return nil, nil
}

func (r *countingRegistry) Close() error {
	r.closes++
	return nil
}

func TestLazyOpensOnFirstUse(t *testing.T) {
	inner := &countingRegistry{}
	opens := 0
	lazy := NewLazy(func() (Registry, error) {
		opens++
		return inner, nil
	})

	assert.False(t, lazy.Opened())
	assert.Equal(t, 0, opens)

	_, err := lazy.ListAll()
	require.NoError(t, err)
	_, err = lazy.Push("demo", "leaf", []byte("x"), "latest", ModuleSettings{})
	require.NoError(t, err)
	_, err = lazy.Get("demo", "leaf")
	assert.ErrorIs(t, err, ErrModuleNotFound)

	assert.True(t, lazy.Opened())
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, inner.lists)

	require.NoError(t, lazy.Close())
	require.NoError(t, lazy.Close())
	assert.Equal(t, 1, inner.closes)

	_, err = lazy.ListAll()
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestLazyCloseWithoutUse(t *testing.T) {
	lazy := NewLazy(func() (Registry, error) {
		t.Fatal("registry must not be opened")
		return nil, nil
	})

	require.NoError(t, lazy.Close())
	_, _, err := lazy.Pull("demo", "leaf", "latest")
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestLazyRetriesFailedOpen(t *testing.T) {
	locked := errors.New("directory is locked")
	attempts := 0
	lazy := NewLazy(func() (Registry, error) {
		attempts++
		if attempts == 1 {
			return nil, locked
		}
		return &countingRegistry{}, nil
	})

	_, err := lazy.ListAll()
	assert.ErrorIs(t, err, locked)
	assert.False(t, lazy.Opened())

	_, err = lazy.ListAll()
	require.NoError(t, err)
	assert.True(t, lazy.Opened())
	assert.Equal(t, 2, attempts)
}
