package builders

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

func init() {
	register(newJSBuilder, "js", "javascript")
	register(newPythonBuilder, "python", "py")
	register(newRustBuilder, "rust")
	register(newGoBuilder, "go")
	register(newCBuilder, "c")
	register(newZigBuilder, "zig")
	register(newAssemblyScriptBuilder, "assemblyscript")
}

func newJSBuilder(out io.Writer) Builder {
	return &pipeline{
		language: "js",
		steps: fixed(
			Step{Name: "dependency installation", Command: []string{"npm", "install"}},
			Step{Name: "esbuild", Command: []string{"node", "esbuild.js"}},
			Step{Name: "WASM compilation", Command: []string{"extism-js", "dist/index.js", "-i", "src/index.d.ts", "-o", "dist/plugin.wasm"}},
		),
		output: inDir(filepath.Join("dist", "plugin.wasm")),
		out:    out,
	}
}

func newPythonBuilder(out io.Writer) Builder {
	return &pipeline{
		language: "python",
		steps: func(dir string) ([]Step, error) {
			source := filepath.Join("plugin", "__init__.py")
			if _, err := os.Stat(filepath.Join(dir, source)); err != nil {
				source, err = findSource(dir, ".py", "plugin.py", "main.py")
				if err != nil {
					return nil, err
				}
			}
			return []Step{{Name: "Python compilation", Command: []string{"extism-py", source, "-o", defaultOutput}}}, nil
		},
		output: inDir(defaultOutput),
		out:    out,
	}
}

type cargo struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

func newRustBuilder(out io.Writer) Builder {
	return &pipeline{
		language: "rust",
		steps: fixed(
			Step{Name: "cargo build", Command: []string{"cargo", "build", "--release", "--target", "wasm32-unknown-unknown", "-q"}},
		),
		output: rustOutput,
		out:    out,
	}
}

// rustOutput derives the artifact path from the crate name in Cargo.toml.
func rustOutput(dir string) (string, error) {
	var manifest cargo
	if _, err := toml.DecodeFile(filepath.Join(dir, "Cargo.toml"), &manifest); err != nil {
		return "", fmt.Errorf("failed to read Cargo.toml: %w", err)
	}
	if manifest.Package.Name == "" {
		return "", fmt.Errorf("Cargo.toml has no package name")
	}
	artifact := strings.ReplaceAll(manifest.Package.Name, "-", "_") + ".wasm"
	return filepath.Join(dir, "target", "wasm32-unknown-unknown", "release", artifact), nil
}

func newGoBuilder(out io.Writer) Builder {
	return &pipeline{
		language: "go",
		steps: fixed(
			Step{Name: "tinygo build", Command: []string{"tinygo", "build", "-o", defaultOutput, "-target", "wasi", "main.go"}},
		),
		output: inDir(defaultOutput),
		out:    out,
	}
}

// C sources export every non-static function; the leaf routine is plain C.
func newCBuilder(out io.Writer) Builder {
	return &pipeline{
		language: "c",
		steps: func(dir string) ([]Step, error) {
			source, err := findSource(dir, ".c", "leaf.c", "main.c")
			if err != nil {
				return nil, err
			}
			return []Step{{Name: "C compilation", Command: []string{
				"clang", "--target=wasm32-wasi", "-O2",
				"-nostartfiles", "-Wl,--no-entry", "-Wl,--export-dynamic",
				"-o", defaultOutput, source,
			}}}, nil
		},
		output: inDir(defaultOutput),
		out:    out,
	}
}

func newZigBuilder(out io.Writer) Builder {
	return &pipeline{
		language: "zig",
		steps: func(dir string) ([]Step, error) {
			source, err := findSource(dir, ".zig", "main.zig")
			if err != nil {
				return nil, err
			}
			return []Step{{Name: "Zig compilation", Command: []string{
				"zig", "build-exe", source,
				"-target", "wasm32-wasi",
				"-O", "ReleaseFast",
				"-fno-entry",
				"-rdynamic",
				"-femit-bin=" + defaultOutput,
			}}}, nil
		},
		output: inDir(defaultOutput),
		out:    out,
	}
}

func newAssemblyScriptBuilder(out io.Writer) Builder {
	return &pipeline{
		language: "assemblyscript",
		steps: func(dir string) ([]Step, error) {
			source, err := findSource(dir, ".ts", "index.ts")
			if err != nil {
				return nil, err
			}
			return []Step{
				{Name: "dependency installation", Command: []string{"npm", "install"}},
				{Name: "AssemblyScript compilation", Command: []string{"npx", "asc", source, "--outFile", defaultOutput, "--use", "abort="}},
			}, nil
		},
		output: inDir(defaultOutput),
		out:    out,
	}
}
