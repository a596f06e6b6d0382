package module

import (
	"context"
	"fmt"
	"os"

	"github.com/ignitionstack/polytree/internal/di"
	"github.com/ignitionstack/polytree/internal/ui"
	"github.com/ignitionstack/polytree/internal/ui/operations"
	"github.com/ignitionstack/polytree/pkg/builders"
	"github.com/ignitionstack/polytree/pkg/registry"
	"github.com/spf13/cobra"
)

func NewModuleBuildCommand(configFn ConfigFunc, plainFn func() bool) *cobra.Command {
	var (
		name     string
		tag      string
		language string
	)

	cmd := &cobra.Command{
		Use:   "build [dir]",
		Short: "Compile a source directory to WebAssembly and push it",
		Long: `Compile a source directory with the extism toolchain of its language and
push the resulting module to the local registry.

The toolchain must be installed: extism-js, extism-py, cargo, tinygo, clang
with a wasi sysroot, zig or the AssemblyScript compiler.`,
		Example: `  polytree module build ./leaf --language c --name demo/leaf
  polytree module build ./middle --language js --name demo/middle --tag v1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			namespace, moduleName, err := parseNamespaceAndName(name)
			if err != nil {
				return err
			}

			builder, err := builders.New(language, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var result *builders.BuildResult
			err = operations.WithSpinner("Building...", plainFn(), func() (interface{}, error) {
				return builder.Build(ctx, dir)
			}, func(r operations.Result) {
				result, _ = r.Data.(*builders.BuildResult)
			})
			if err != nil {
				return err
			}
			if result == nil {
				return fmt.Errorf("build produced no result")
			}

			payload, err := os.ReadFile(result.OutputPath)
			if err != nil {
				return fmt.Errorf("failed to read build output: %w", err)
			}

			var reg registry.Registry
			return di.Run(ctx, configFn(), func() error {
				settings := registry.ModuleSettings{Language: result.Language, Wasi: true}
				digest, err := reg.Push(namespace, moduleName, payload, tag, settings)
				if err != nil {
					return fmt.Errorf("failed to push module: %w", err)
				}

				if plainFn() {
					fmt.Println(digest)
					return nil
				}
				ui.PrintSuccess(fmt.Sprintf("Built and pushed %s/%s:%s", namespace, moduleName, tag))
				ui.PrintInfo("Digest", registry.TruncateDigest(digest, registry.ShortDigestLength))
				ui.PrintInfo("Size", formatSize(int64(len(payload))))
				return nil
			}, &reg)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Module name as namespace/name")
	cmd.Flags().StringVarP(&tag, "tag", "t", registry.DefaultTag, "Tag to point at the pushed version")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Source language")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("language")

	return cmd
}
