// Package native hosts foreign routines implemented in Go inside the current
// process. A library stands in for a source written in another language and
// is loaded by name.
package native

import (
	"context"
	"fmt"
	"sort"
	"sync"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/gateway"
	"github.com/ignitionstack/polytree/pkg/logging"
)

// Func is a routine callable through the gateway.
type Func func(ctx context.Context, args []any) (any, error)

// Library is a named set of routines that claims to come from Language.
type Library struct {
	Language  string
	Name      string
	Functions map[string]Func
}

// Gateway is the in-process adapter.
type Gateway struct {
	mu        sync.RWMutex
	libraries map[string]Library
	functions map[string]Func
	loaded    map[string]bool
	logger    logging.Logger
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates an adapter with the given libraries available for loading.
func New(logger logging.Logger, libraries ...Library) *Gateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	g := &Gateway{
		libraries: make(map[string]Library),
		functions: make(map[string]Func),
		loaded:    make(map[string]bool),
		logger:    logger,
	}
	for _, lib := range libraries {
		g.Register(lib)
	}
	return g
}

// Register makes a library available to Load. It does not load it.
func (g *Gateway) Register(lib Library) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.libraries[lib.Name] = lib
}

// Load implements gateway.Loader. Loading the same library twice is a no-op.
func (g *Gateway) Load(_ context.Context, language, source string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	lib, ok := g.libraries[source]
	if !ok {
		return perrors.LoadFailure(language, source, fmt.Errorf("no native library named %q", source))
	}
	if lib.Language != language {
		return perrors.LoadFailure(language, source,
			fmt.Errorf("library %q is written in %s, not %s", source, lib.Language, language))
	}
	if g.loaded[source] {
		return nil
	}

	// a library loads whole or not at all
	names := make([]string, 0, len(lib.Functions))
	for name := range lib.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, exists := g.functions[name]; exists {
			return perrors.LoadFailure(language, source, fmt.Errorf("function %q is already defined", name))
		}
	}
	for name, fn := range lib.Functions {
		g.functions[name] = fn
	}
	g.loaded[source] = true
	g.logger.Debugf("Loaded native library %s (%s) with %d functions", source, language, len(lib.Functions))
	return nil
}

// Invoke implements gateway.Invoker.
func (g *Gateway) Invoke(ctx context.Context, function string, args ...any) (any, error) {
	g.mu.RLock()
	fn, ok := g.functions[function]
	g.mu.RUnlock()

	if !ok {
		return nil, perrors.ResolutionFailure(function)
	}

	result, err := fn(ctx, args)
	if err != nil {
		if perrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, perrors.InvocationFailure(function, err)
	}
	return result, nil
}

// Functions lists the currently resolvable names, sorted.
func (g *Gateway) Functions() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.functions))
	for name := range g.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close implements gateway.Gateway
func (g *Gateway) Close(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.functions = make(map[string]Func)
	g.loaded = make(map[string]bool)
	return nil
}
