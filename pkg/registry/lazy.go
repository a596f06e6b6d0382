package registry

import "sync"

// Opener opens a registry, usually taking a lock on its storage.
type Opener func() (Registry, error)

// Lazy is a Registry that opens the real one on first use. Commands that
// never touch a module never take the storage lock.
type Lazy struct {
	mu     sync.Mutex
	open   Opener
	reg    Registry
	closed bool
}

var _ Registry = (*Lazy)(nil)

func NewLazy(open Opener) *Lazy {
	return &Lazy{open: open}
}

// Opened reports whether the underlying registry has been opened.
func (l *Lazy) Opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg != nil
}

func (l *Lazy) get() (Registry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrRegistryClosed
	}
	if l.reg == nil {
		reg, err := l.open()
		if err != nil {
			return nil, err
		}
		l.reg = reg
	}
	return l.reg, nil
}

func (l *Lazy) Get(namespace, name string) (*ModuleMetadata, error) {
	reg, err := l.get()
	if err != nil {
		return nil, err
	}
	return reg.Get(namespace, name)
}

func (l *Lazy) Push(namespace, name string, payload []byte, tag string, settings ModuleSettings) (string, error) {
	reg, err := l.get()
	if err != nil {
		return "", err
	}
	return reg.Push(namespace, name, payload, tag, settings)
}

func (l *Lazy) Pull(namespace, name, reference string) ([]byte, *VersionInfo, error) {
	reg, err := l.get()
	if err != nil {
		return nil, nil, err
	}
	return reg.Pull(namespace, name, reference)
}

func (l *Lazy) ListAll() ([]ModuleMetadata, error) {
	reg, err := l.get()
	if err != nil {
		return nil, err
	}
	return reg.ListAll()
}

// Close closes the underlying registry if it was ever opened. Later calls
// fail with ErrRegistryClosed.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.reg == nil {
		return nil
	}
	return l.reg.Close()
}
