package gateway

import (
	"context"
	"fmt"
	"sync"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/logging"
)

// Backend kinds a language can be routed to
const (
	BackendNative  = "native"
	BackendWasm    = "wasm"
	BackendProcess = "process"
)

// Router dispatches loads by language and invocations across every backend
// that has loaded something.
type Router struct {
	mu        sync.RWMutex
	backends  map[string]Gateway
	languages map[string]string
	loaded    []string
	closed    bool
	logger    logging.Logger
}

// NewRouter creates a router; languages maps a language identifier to a
// backend kind.
func NewRouter(languages map[string]string, logger logging.Logger) *Router {
	langs := make(map[string]string, len(languages))
	for k, v := range languages {
		langs[k] = v
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Router{
		backends:  make(map[string]Gateway),
		languages: langs,
		logger:    logger,
	}
}

// Register adds a backend under kind. Registering a kind twice replaces it.
func (r *Router) Register(kind string, backend Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[kind] = backend
}

// Route maps a language to a backend kind.
func (r *Router) Route(language, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[language] = kind
}

// Load implements Loader
func (r *Router) Load(ctx context.Context, language, source string) error {
	r.mu.RLock()
	kind, ok := r.languages[language]
	backend := r.backends[kind]
	closed := r.closed
	r.mu.RUnlock()

	if closed {
		return perrors.LoadFailure(language, source, perrors.ErrGatewayClosed)
	}
	if !ok {
		return perrors.LoadFailure(language, source, fmt.Errorf("no backend configured for language %q", language))
	}
	if backend == nil {
		return perrors.LoadFailure(language, source, fmt.Errorf("backend %q is not available", kind))
	}

	r.logger.Debugf("Loading %s source %q through %s backend", language, source, kind)
	if err := backend.Load(ctx, language, source); err != nil {
		r.logger.Errorf("Failed to load %s source %q: %v", language, source, err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.loaded {
		if k == kind {
			return nil
		}
	}
	r.loaded = append(r.loaded, kind)
	return nil
}

// Invoke implements Invoker. Backends are asked in the order they first
// loaded a source; a resolution failure moves on to the next one.
func (r *Router) Invoke(ctx context.Context, function string, args ...any) (any, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, perrors.ErrGatewayClosed
	}
	backends := make([]Gateway, 0, len(r.loaded))
	for _, kind := range r.loaded {
		backends = append(backends, r.backends[kind])
	}
	r.mu.RUnlock()

	if len(backends) == 0 {
		return nil, perrors.ResolutionFailure(function).WithCause(perrors.ErrNothingLoaded)
	}

	for _, backend := range backends {
		result, err := backend.Invoke(ctx, function, args...)
		if perrors.Is(err, perrors.CodeResolutionFailure) {
			continue
		}
		return result, err
	}

	return nil, perrors.ResolutionFailure(function)
}

// Close closes every registered backend and reports the first error.
func (r *Router) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	backends := make([]Gateway, 0, len(r.backends))
	for _, b := range r.backends {
		backends = append(backends, b)
	}
	r.mu.Unlock()

	var first error
	for _, b := range backends {
		if err := b.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
