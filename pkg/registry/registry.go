// Package registry stores WebAssembly modules by namespace, name, digest and
// tag so the wasm gateway can load them by reference.
package registry

// Registry is a store of versioned modules.
type Registry interface {
	Get(namespace, name string) (*ModuleMetadata, error)
	Push(namespace, name string, payload []byte, tag string, settings ModuleSettings) (string, error)
	Pull(namespace, name, reference string) ([]byte, *VersionInfo, error)
	ListAll() ([]ModuleMetadata, error)
	Close() error
}

// Storage persists module bytes.
type Storage interface {
	ReadModule(path string) ([]byte, error)
	WriteModule(path string, data []byte) error
	ModulePath(namespace, name, shortDigest string) string
}
