package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/ignitionstack/polytree/internal/repository"
	"github.com/ignitionstack/polytree/pkg/registry"
)

type localRegistry struct {
	dbRepo  repository.DBRepository
	storage registry.Storage
}

// NewLocalRegistry keeps metadata in dbRepo and module bytes under rootDir.
func NewLocalRegistry(rootDir string, dbRepo repository.DBRepository) registry.Registry {
	return &localRegistry{
		dbRepo:  dbRepo,
		storage: NewLocalStorage(rootDir),
	}
}

func (r *localRegistry) Get(namespace, name string) (*registry.ModuleMetadata, error) {
	var metadata *registry.ModuleMetadata

	err := r.dbRepo.View(func(txn *badger.Txn) error {
		var err error
		metadata, err = r.getMetadata(txn, namespace, name)
		return err
	})

	return metadata, err
}

func (r *localRegistry) Pull(namespace, name, reference string) ([]byte, *registry.VersionInfo, error) {
	// Try to pull by digest first
	wasmBytes, versionInfo, digestErr := r.pullByDigest(namespace, name, reference)
	if digestErr == nil {
		return wasmBytes, versionInfo, nil
	}
	if errors.Is(digestErr, registry.ErrModuleNotFound) {
		return nil, nil, digestErr
	}

	wasmBytes, versionInfo, tagErr := r.pullByTag(namespace, name, reference)
	if tagErr == nil {
		return wasmBytes, versionInfo, nil
	}

	if errors.Is(tagErr, registry.ErrTagNotFound) && errors.Is(digestErr, registry.ErrDigestNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", registry.ErrInvalidReference, reference)
	}

	return nil, nil, tagErr
}

// Push stores payload and returns its full digest. Pushing identical bytes
// again only moves the tag.
func (r *localRegistry) Push(namespace, name string, payload []byte, tag string, settings registry.ModuleSettings) (string, error) {
	fullDigest := registry.Digest(payload)
	shortDigest := registry.TruncateDigest(fullDigest, registry.ShortDigestLength)
	path := r.storage.ModulePath(namespace, name, shortDigest)

	err := r.dbRepo.Update(func(txn *badger.Txn) error {
		metadata, err := r.getMetadata(txn, namespace, name)
		if errors.Is(err, registry.ErrModuleNotFound) {
			metadata = &registry.ModuleMetadata{
				Namespace: namespace,
				Name:      name,
				CreatedAt: time.Now(),
				Versions:  make([]registry.VersionInfo, 0),
			}
		} else if err != nil {
			return err
		}

		if tag != "" {
			registry.RemoveTagFromVersions(metadata.Versions, tag)
		}

		if findVersion(metadata, shortDigest) == nil {
			if err := r.storage.WriteModule(path, payload); err != nil {
				return err
			}
			metadata.Versions = append(metadata.Versions, registry.CreateVersionInfo(fullDigest, payload, tag, settings))
		} else if tag != "" {
			registry.AddTagToVersion(metadata.Versions, shortDigest, tag)
		}

		return r.putMetadata(txn, metadata)
	})
	if err != nil {
		return "", err
	}
	return fullDigest, nil
}

func (r *localRegistry) ListAll() ([]registry.ModuleMetadata, error) {
	var modules []registry.ModuleMetadata

	err := r.dbRepo.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var metadata registry.ModuleMetadata
				if err := json.Unmarshal(val, &metadata); err != nil {
					return fmt.Errorf("failed to unmarshal metadata: %w", err)
				}
				modules = append(modules, metadata)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	return modules, nil
}

func (r *localRegistry) Close() error {
	return r.dbRepo.Close()
}

func (r *localRegistry) getMetadata(txn *badger.Txn, namespace, name string) (*registry.ModuleMetadata, error) {
	item, err := txn.Get(moduleKey(namespace, name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, registry.ErrModuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	metadata := &registry.ModuleMetadata{}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, metadata)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}

func (r *localRegistry) putMetadata(txn *badger.Txn, metadata *registry.ModuleMetadata) error {
	metadata.UpdatedAt = time.Now()

	val, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := txn.Set(moduleKey(metadata.Namespace, metadata.Name), val); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (r *localRegistry) pullByDigest(namespace, name, digest string) ([]byte, *registry.VersionInfo, error) {
	shortDigest := registry.TruncateDigest(digest, registry.ShortDigestLength)

	var versionInfo *registry.VersionInfo
	err := r.dbRepo.View(func(txn *badger.Txn) error {
		metadata, err := r.getMetadata(txn, namespace, name)
		if err != nil {
			return err
		}
		v := findVersion(metadata, shortDigest)
		if v == nil || (len(digest) > registry.ShortDigestLength && v.FullDigest != digest) {
			return registry.ErrDigestNotFound
		}
		versionCopy := *v
		versionInfo = &versionCopy
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	wasmBytes, err := r.storage.ReadModule(r.storage.ModulePath(namespace, name, versionInfo.Hash))
	if err != nil {
		return nil, nil, err
	}
	return wasmBytes, versionInfo, nil
}

func (r *localRegistry) pullByTag(namespace, name, tag string) ([]byte, *registry.VersionInfo, error) {
	var versionInfo *registry.VersionInfo

	err := r.dbRepo.View(func(txn *badger.Txn) error {
		metadata, err := r.getMetadata(txn, namespace, name)
		if err != nil {
			return err
		}
		for _, v := range metadata.Versions {
			if registry.HasTag(v.Tags, tag) {
				versionCopy := v
				versionInfo = &versionCopy
				return nil
			}
		}
		return registry.ErrTagNotFound
	})
	if err != nil {
		return nil, nil, err
	}

	wasmBytes, err := r.storage.ReadModule(r.storage.ModulePath(namespace, name, versionInfo.Hash))
	if err != nil {
		return nil, nil, err
	}
	return wasmBytes, versionInfo, nil
}

func findVersion(metadata *registry.ModuleMetadata, shortDigest string) *registry.VersionInfo {
	for i := range metadata.Versions {
		if metadata.Versions[i].Hash == shortDigest {
			return &metadata.Versions[i]
		}
	}
	return nil
}

const keyPrefix = "module:"

func moduleKey(namespace, name string) []byte {
	return []byte(fmt.Sprintf("%s%s/%s", keyPrefix, namespace, name))
}
