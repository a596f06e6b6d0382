// Package app wires configuration, the gateway stack and the root processor
// together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ignitionstack/polytree/internal/repository"
	"github.com/ignitionstack/polytree/pkg/config"
	"github.com/ignitionstack/polytree/pkg/gateway"
	"github.com/ignitionstack/polytree/pkg/gateway/guard"
	"github.com/ignitionstack/polytree/pkg/gateway/native"
	"github.com/ignitionstack/polytree/pkg/gateway/process"
	"github.com/ignitionstack/polytree/pkg/gateway/wasm"
	"github.com/ignitionstack/polytree/pkg/logging"
	"github.com/ignitionstack/polytree/pkg/manifest"
	"github.com/ignitionstack/polytree/pkg/registry"
	"github.com/ignitionstack/polytree/pkg/registry/local"
	"github.com/ignitionstack/polytree/pkg/tree"
)

// NewLogger builds the zap logger described by cfg.
func NewLogger(cfg *config.Config) (*logging.ZapLogger, error) {
	return logging.New(logging.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.Log.Development,
	})
}

// NewRegistry returns the module registry under cfg.Registry.Dir. The
// badger database is opened, and its directory locked, only when a module
// is first pushed, pulled or listed.
func NewRegistry(cfg *config.Config) (registry.Registry, error) {
	dir := cfg.Registry.Dir
	return registry.NewLazy(func() (registry.Registry, error) {
		return OpenRegistry(dir)
	}), nil
}

// OpenRegistry opens the badger-backed registry in dir right away.
func OpenRegistry(dir string) (registry.Registry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	dbRepo, err := repository.OpenBadger(filepath.Join(dir, "registry.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}

	return local.NewLocalRegistry(dir, dbRepo), nil
}

// Gateway is the assembled gateway stack: a router over the native, wasm
// and process adapters, behind the guard.
type Gateway struct {
	*guard.Gateway

	Router  *gateway.Router
	Native  *native.Gateway
	Wasm    *wasm.Gateway
	Process *process.Gateway
}

// NewGateway assembles the gateway stack. reg may be nil. Routines that call
// other routines (the middle library, wasm guests) go back through the
// guarded gateway.
func NewGateway(cfg *config.Config, reg registry.Registry, logger logging.Logger) *Gateway {
	gc := cfg.Gateway

	router := gateway.NewRouter(gc.Languages, logger)
	guarded := guard.New(router, guard.Options{
		FailureThreshold: gc.CircuitBreaker.FailureThreshold,
		ResetTimeout:     gc.CircuitBreaker.ResetTimeout,
		Timeout:          gc.DefaultTimeout,
	}, logger)

	nativeGateway := native.New(logger, native.LeafLibrary(), native.MiddleLibrary(guarded))

	wasmGateway := wasm.New(reg, wasm.Options{
		EnableWasi:   gc.Wasm.EnableWasi,
		AllowedHosts: gc.Wasm.AllowedHosts,
	}, logger)
	wasmGateway.SetCallback(guarded)

	processGateway := process.New(gc.Interpreters, logger)

	router.Register(gateway.BackendNative, nativeGateway)
	router.Register(gateway.BackendWasm, wasmGateway)
	router.Register(gateway.BackendProcess, processGateway)

	return &Gateway{
		Gateway: guarded,
		Router:  router,
		Native:  nativeGateway,
		Wasm:    wasmGateway,
		Process: processGateway,
	}
}

// LoadBridge reads the bridge manifest named in cfg, or the default one.
func LoadBridge(cfg *config.Config) (*manifest.BridgeManifest, error) {
	return manifest.ParseBridgeFile(cfg.Manifest)
}

// NewRootProcessor creates the processor. The bridge manifest's function,
// when set, wins over the configured one.
func NewRootProcessor(gw *Gateway, cfg *config.Config, bridge *manifest.BridgeManifest, logger logging.Logger) *tree.RootProcessor {
	function := cfg.Gateway.Function
	if bridge != nil && bridge.Function != "" {
		function = bridge.Function
	}
	return tree.NewRootProcessor(gw, tree.WithFunction(function), tree.WithLogger(logger))
}

// Init loads every source of the bridge manifest. It must run before the
// root processor is used.
func Init(ctx context.Context, gw gateway.Loader, bridge *manifest.BridgeManifest, logger logging.Logger) error {
	logger.Printf("Loading %d sources", len(bridge.Sources))
	if err := gateway.Bootstrap(ctx, gw, bridge.Sources); err != nil {
		logger.Errorf("Bootstrap failed: %v", err)
		return err
	}
	return nil
}
