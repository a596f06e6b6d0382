package app

import (
	"context"
	"errors"

	"github.com/ignitionstack/polytree/pkg/config"
	"github.com/ignitionstack/polytree/pkg/logging"
	"github.com/ignitionstack/polytree/pkg/manifest"
	"github.com/ignitionstack/polytree/pkg/registry"
	"github.com/ignitionstack/polytree/pkg/tree"
	"go.uber.org/dig"
)

// BuildContainer builds the dependency injection container with all services.
func BuildContainer(cfg *config.Config, logger logging.Logger) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *config.Config {
		return cfg
	}); err != nil {
		return nil, err
	}

	if err := container.Provide(func() logging.Logger {
		return logger
	}); err != nil {
		return nil, err
	}

	if err := container.Provide(NewRegistry); err != nil {
		return nil, err
	}

	if err := container.Provide(NewGateway); err != nil {
		return nil, err
	}

	if err := container.Provide(LoadBridge); err != nil {
		return nil, err
	}

	if err := container.Provide(NewRootProcessor); err != nil {
		return nil, err
	}

	return container, nil
}

// GetRootProcessor retrieves the RootProcessor from the container.
func GetRootProcessor(container *dig.Container) (*tree.RootProcessor, error) {
	var processor *tree.RootProcessor
	if err := container.Invoke(func(p *tree.RootProcessor) {
		processor = p
	}); err != nil {
		return nil, err
	}
	return processor, nil
}

// GetGateway retrieves the gateway stack from the container.
func GetGateway(container *dig.Container) (*Gateway, error) {
	var gw *Gateway
	if err := container.Invoke(func(g *Gateway) {
		gw = g
	}); err != nil {
		return nil, err
	}
	return gw, nil
}

// GetRegistry retrieves the module registry from the container.
func GetRegistry(container *dig.Container) (registry.Registry, error) {
	var reg registry.Registry
	if err := container.Invoke(func(r registry.Registry) {
		reg = r
	}); err != nil {
		return nil, err
	}
	return reg, nil
}

// Bootstrap runs Init with the container's gateway and bridge manifest.
func Bootstrap(ctx context.Context, container *dig.Container) error {
	return container.Invoke(func(gw *Gateway, bridge *manifest.BridgeManifest, logger logging.Logger) error {
		return Init(ctx, gw, bridge, logger)
	})
}

// Shutdown closes the gateway and the registry.
func Shutdown(ctx context.Context, container *dig.Container) error {
	return container.Invoke(func(gw *Gateway, reg registry.Registry) error {
		return errors.Join(gw.Close(ctx), reg.Close())
	})
}
