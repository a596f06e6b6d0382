package local

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ignitionstack/polytree/pkg/registry"
)

// fileStorage keeps one file per module version:
// <root>/storage/<namespace>/<name>/versions/<short digest>.wasm
type fileStorage struct {
	root string
}

func NewLocalStorage(rootDir string) registry.Storage {
	return &fileStorage{root: filepath.Join(rootDir, "storage")}
}

func (s *fileStorage) ModulePath(namespace, name, shortDigest string) string {
	return filepath.Join(s.root, namespace, name, "versions", shortDigest+".wasm")
}

func (s *fileStorage) ReadModule(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no file at %s", registry.ErrModuleNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// WriteModule stores data at path. The bytes go to a temporary file in the
// same directory first, so a reader never sees a partial module.
func (s *fileStorage) WriteModule(path string, data []byte) error {
	if err := s.contains(path); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".module-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary module file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing module: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing module: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("writing module: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving module into place: %w", err)
	}
	return nil
}

// contains rejects paths that escape the storage root, e.g. through a
// namespace of "..".
func (s *fileStorage) contains(path string) error {
	rel, err := filepath.Rel(s.root, filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s is outside the module storage", registry.ErrInvalidReference, path)
	}
	return nil
}
