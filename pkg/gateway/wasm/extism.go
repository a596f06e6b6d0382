// Package wasm loads WebAssembly modules through extism and exposes their
// exports as foreign routines.
package wasm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	extism "github.com/extism/go-sdk"
	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/gateway"
	"github.com/ignitionstack/polytree/pkg/logging"
	"github.com/ignitionstack/polytree/pkg/registry"
)

// HostFunctionName is the import a guest calls to reach any routine loaded
// in the gateway.
const HostFunctionName = "polytree_invoke"

const hostNamespace = "extism:host/user"

// Options apply to modules loaded from a file or a URL. Registry modules
// add their own settings on top.
type Options struct {
	EnableWasi   bool
	AllowedHosts []string
	Config       map[string]string
}

type module struct {
	id     string
	mu     sync.Mutex
	plugin *extism.Plugin
	digest string
}

// Gateway is the extism adapter.
type Gateway struct {
	mu       sync.RWMutex
	modules  []*module
	byID     map[string]*module
	closed   bool
	registry registry.Registry
	callback gateway.Invoker
	opts     Options
	logger   logging.Logger
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates the adapter. reg may be nil, in which case registry
// references cannot be loaded.
func New(reg registry.Registry, opts Options, logger logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gateway{
		byID:     make(map[string]*module),
		registry: reg,
		opts:     opts,
		logger:   logger,
	}
}

// SetCallback sets the invoker polytree_invoke forwards to, usually the
// router this adapter is registered in.
func (g *Gateway) SetCallback(inv gateway.Invoker) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.callback = inv
}

// Load implements gateway.Loader. Loading a source twice is a no-op.
func (g *Gateway) Load(ctx context.Context, language, source string) error {
	g.mu.RLock()
	_, exists := g.byID[source]
	closed := g.closed
	g.mu.RUnlock()

	if closed {
		return perrors.LoadFailure(language, source, perrors.ErrGatewayClosed)
	}
	if exists {
		return nil
	}

	loc, err := ParseLocator(source)
	if err != nil {
		return perrors.LoadFailure(language, source, err)
	}

	manifest, config, digest, err := g.manifestFor(loc)
	if err != nil {
		return perrors.LoadFailure(language, source, err)
	}

	plugin, err := extism.NewPlugin(ctx, manifest, config, []extism.HostFunction{g.hostFunction()})
	if err != nil {
		return perrors.LoadFailure(language, source, fmt.Errorf("failed to create extism plugin: %w", err))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, raced := g.byID[source]; raced {
		plugin.CloseWithContext(context.Background())
		return nil
	}
	m := &module{id: source, plugin: plugin, digest: digest}
	g.modules = append(g.modules, m)
	g.byID[source] = m

	g.logger.Debugf("Loaded wasm module %s from %s", source, loc.Kind)
	return nil
}

func (g *Gateway) manifestFor(loc Locator) (extism.Manifest, extism.PluginConfig, string, error) {
	manifest := extism.Manifest{
		AllowedHosts: append([]string(nil), g.opts.AllowedHosts...),
		Config:       copyConfig(g.opts.Config),
	}
	config := extism.PluginConfig{EnableWasi: g.opts.EnableWasi}

	switch loc.Kind {
	case LocatorFile:
		path, err := filepath.Abs(loc.Path)
		if err != nil {
			return manifest, config, "", err
		}
		info, err := os.Stat(path)
		if err != nil {
			return manifest, config, "", err
		}
		if info.IsDir() {
			return manifest, config, "", fmt.Errorf("%s is a directory", path)
		}
		manifest.Wasm = []extism.Wasm{extism.WasmFile{Path: path}}
		return manifest, config, "", nil

	case LocatorURL:
		manifest.Wasm = []extism.Wasm{extism.WasmUrl{Url: loc.URL}}
		return manifest, config, "", nil

	case LocatorRegistry:
		if g.registry == nil {
			return manifest, config, "", fmt.Errorf("no module registry configured for %s", loc.Reference)
		}
		ref := loc.Reference
		data, info, err := g.registry.Pull(ref.Namespace, ref.Name, ref.Version)
		if err != nil {
			return manifest, config, "", fmt.Errorf("failed to pull %s: %w", ref, err)
		}
		manifest.Wasm = []extism.Wasm{extism.WasmData{Data: data, Name: ref.Name}}
		manifest.AllowedHosts = append(manifest.AllowedHosts, info.Settings.AllowedHosts...)
		config.EnableWasi = config.EnableWasi || info.Settings.Wasi
		return manifest, config, info.FullDigest, nil
	}

	return manifest, config, "", fmt.Errorf("unsupported locator %s", loc.Kind)
}

// Invoke implements gateway.Invoker. Modules are searched in load order.
func (g *Gateway) Invoke(ctx context.Context, function string, args ...any) (any, error) {
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return nil, perrors.ErrGatewayClosed
	}
	modules := append([]*module(nil), g.modules...)
	g.mu.RUnlock()

	for _, m := range modules {
		if !m.plugin.FunctionExists(function) {
			continue
		}
		if calling(ctx, m.id) {
			return nil, perrors.InvocationFailure(function,
				fmt.Errorf("module %s cannot call back into itself", m.id))
		}
		return g.call(ctx, m, function, args)
	}

	return nil, perrors.ResolutionFailure(function)
}

func (g *Gateway) call(ctx context.Context, m *module, function string, args []any) (any, error) {
	payload, err := encodeArgs(args)
	if err != nil {
		return nil, perrors.MarshalFailure(function, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	g.logger.Debugf("Calling %s in wasm module %s", function, m.id)
	code, output, err := m.plugin.CallWithContext(withCaller(ctx, m.id), function, payload)
	if err != nil {
		return nil, perrors.InvocationFailure(function, err)
	}
	if code != 0 {
		return nil, perrors.InvocationFailure(function, fmt.Errorf("guest returned non-zero exit code: %d", code))
	}

	return decodeOutput(output), nil
}

func (g *Gateway) hostFunction() extism.HostFunction {
	hf := extism.NewHostFunctionWithStack(
		HostFunctionName,
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			var reply []byte
			input, err := p.ReadBytes(stack[0])
			if err != nil {
				reply = errorReply(perrors.MarshalFailure(HostFunctionName, err))
			} else {
				reply = g.handleHostCall(ctx, input)
			}

			offset, err := p.WriteBytes(reply)
			if err != nil {
				g.logger.Errorf("Failed to write %s reply: %v", HostFunctionName, err)
				stack[0] = 0
				return
			}
			stack[0] = offset
		},
		[]extism.ValueType{extism.ValueTypePTR},
		[]extism.ValueType{extism.ValueTypePTR},
	)
	hf.SetNamespace(hostNamespace)
	return hf
}

// handleHostCall serves one polytree_invoke request and returns the JSON
// reply for the guest.
func (g *Gateway) handleHostCall(ctx context.Context, input []byte) []byte {
	var req hostRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return errorReply(perrors.MarshalFailure(HostFunctionName, err))
	}
	if req.Function == "" {
		return errorReply(perrors.InvalidArgument("%s needs a function name", HostFunctionName))
	}

	args, err := decodeHostArgs(req.Args)
	if err != nil {
		return errorReply(perrors.MarshalFailure(req.Function, err))
	}

	g.mu.RLock()
	callback := g.callback
	g.mu.RUnlock()
	if callback == nil {
		return errorReply(perrors.ResolutionFailure(req.Function).WithCause(perrors.ErrNothingLoaded))
	}

	result, err := callback.Invoke(ctx, req.Function, args...)
	if err != nil {
		return errorReply(err)
	}

	reply, err := json.Marshal(hostResponse{Result: normalize(result)})
	if err != nil {
		return errorReply(perrors.MarshalFailure(req.Function, err))
	}
	return reply
}

func errorReply(err error) []byte {
	reply, _ := json.Marshal(hostResponse{Error: err.Error(), Code: string(perrors.CodeOf(err))})
	return reply
}

// normalize keeps []byte results readable on the guest side instead of
// base64.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Modules lists loaded module ids in load order.
func (g *Gateway) Modules() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.modules))
	for _, m := range g.modules {
		ids = append(ids, m.id)
	}
	return ids
}

// Close implements gateway.Gateway
func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	modules := g.modules
	g.modules = nil
	g.byID = make(map[string]*module)
	g.mu.Unlock()

	var first error
	for _, m := range modules {
		m.mu.Lock()
		if err := m.plugin.CloseWithContext(ctx); err != nil && first == nil {
			first = err
		}
		m.mu.Unlock()
	}
	return first
}

func copyConfig(config map[string]string) map[string]string {
	if config == nil {
		return nil
	}
	out := make(map[string]string, len(config))
	for k, v := range config {
		out[k] = v
	}
	return out
}

type callerKey struct{}

// withCaller marks ctx as running inside module id.
func withCaller(ctx context.Context, id string) context.Context {
	var chain []string
	if existing, ok := ctx.Value(callerKey{}).([]string); ok {
		chain = append(chain, existing...)
	}
	return context.WithValue(ctx, callerKey{}, append(chain, id))
}

// calling reports whether module id is already on the call stack of ctx.
func calling(ctx context.Context, id string) bool {
	chain, _ := ctx.Value(callerKey{}).([]string)
	for _, c := range chain {
		if c == id {
			return true
		}
	}
	return false
}
