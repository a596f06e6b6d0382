// Package di provides the fx module the CLI commands run in.
package di

import (
	"context"
	"errors"

	"github.com/ignitionstack/polytree/pkg/app"
	"github.com/ignitionstack/polytree/pkg/config"
	"github.com/ignitionstack/polytree/pkg/logging"
	"github.com/ignitionstack/polytree/pkg/registry"
	"go.uber.org/fx"
)

// Module provides the logger, registry, gateway stack, bridge manifest and
// root processor. Resources are closed when the fx app stops; constructors
// run only for what a command asks for.
var Module = fx.Module("polytree",
	fx.Provide(
		provideLogger,
		provideRegistry,
		provideGateway,
		app.LoadBridge,
		app.NewRootProcessor,
	),
)

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (logging.Logger, error) {
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stderr cannot be synced on some platforms
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

func provideRegistry(lc fx.Lifecycle, cfg *config.Config) (registry.Registry, error) {
	reg, err := app.NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return reg.Close()
		},
	})
	return reg, nil
}

func provideGateway(lc fx.Lifecycle, cfg *config.Config, reg registry.Registry, logger logging.Logger) *app.Gateway {
	gw := app.NewGateway(cfg, reg, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return gw.Close(ctx)
		},
	})
	return gw
}

// Run starts an fx app around cfg, populates targets, calls fn and stops the
// app again whatever fn returned.
func Run(ctx context.Context, cfg *config.Config, fn func() error, targets ...interface{}) error {
	fxApp := fx.New(
		fx.Supply(cfg),
		Module,
		fx.Populate(targets...),
		fx.NopLogger,
	)
	if err := fxApp.Err(); err != nil {
		return err
	}

	if err := fxApp.Start(ctx); err != nil {
		return err
	}

	runErr := fn()
	stopErr := fxApp.Stop(context.Background())
	return errors.Join(runErr, stopErr)
}
