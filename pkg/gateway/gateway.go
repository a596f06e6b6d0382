// Package gateway defines the capability through which every cross-language
// call passes, and the router that spreads it over concrete adapters.
package gateway

import (
	"context"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
)

// Invoker calls a previously loaded foreign routine by name.
type Invoker interface {
	// Invoke looks up function among loaded sources and calls it with
	// positional args. Unknown names fail with a resolution failure; a
	// routine that raises fails with an invocation failure.
	Invoke(ctx context.Context, function string, args ...any) (any, error)
}

// Loader makes the routines of an external source available by name.
type Loader interface {
	Load(ctx context.Context, language, source string) error
}

// Gateway is the full foreign call capability.
type Gateway interface {
	Loader
	Invoker

	// Close frees every resource held for loaded sources
	Close(ctx context.Context) error
}

// Source names something a Loader can load.
type Source struct {
	Language string `yaml:"language" toml:"language" json:"language" validate:"required"`
	Source   string `yaml:"source" toml:"source" json:"source" validate:"required"`
}

// Bootstrap loads every source in order and stops at the first failure.
// It must succeed before the gateway is handed to a processor.
func Bootstrap(ctx context.Context, loader Loader, sources []Source) error {
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return perrors.LoadFailure(src.Language, src.Source, err)
		}
		if err := loader.Load(ctx, src.Language, src.Source); err != nil {
			return err
		}
	}
	return nil
}
