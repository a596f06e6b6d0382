// Package builders compiles a source directory into a WebAssembly module
// with the extism toolchain of its language.
package builders

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

type Builder interface {
	Build(ctx context.Context, dir string) (*BuildResult, error)
}

type BuildResult struct {
	Language   string
	OutputPath string
}

type BuildError struct {
	Err    error
	Stderr string
	Step   string
}

func (e *BuildError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %s", e.Step, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Step is one command of a build, run in the source directory.
type Step struct {
	Name    string
	Command []string
}

// pipeline runs steps in order and reports where the module ended up.
type pipeline struct {
	language string
	steps    func(dir string) ([]Step, error)
	output   func(dir string) (string, error)
	out      io.Writer
}

func (p *pipeline) Build(ctx context.Context, dir string) (*BuildResult, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	steps, err := p.steps(dir)
	if err != nil {
		return nil, err
	}

	for _, step := range steps {
		if err := runStep(ctx, dir, step, p.out); err != nil {
			return nil, err
		}
	}

	output, err := p.output(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(output); err != nil {
		return nil, fmt.Errorf("build finished without producing %s: %w", output, err)
	}

	return &BuildResult{Language: p.language, OutputPath: output}, nil
}

func runStep(ctx context.Context, dir string, step Step, out io.Writer) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, step.Command[0], step.Command[1:]...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = io.MultiWriter(&stderr, out)

	if err := cmd.Run(); err != nil {
		return &BuildError{
			Err:    err,
			Stderr: stderr.String(),
			Step:   step.Name,
		}
	}
	return nil
}

const defaultOutput = "plugin.wasm"

func inDir(name string) func(dir string) (string, error) {
	return func(dir string) (string, error) {
		return filepath.Join(dir, name), nil
	}
}

func fixed(steps ...Step) func(string) ([]Step, error) {
	return func(string) ([]Step, error) {
		return steps, nil
	}
}

// findSource returns the first file in dir with ext, preferring the names
// in preferred.
func findSource(dir, ext string, preferred ...string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var found string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		for _, p := range preferred {
			if entry.Name() == p {
				return p, nil
			}
		}
		if found == "" {
			found = entry.Name()
		}
	}

	if found == "" {
		return "", fmt.Errorf("no %s file found in %s", ext, dir)
	}
	return found, nil
}

type factory func(out io.Writer) Builder

var builders = map[string]factory{}

func register(f factory, languages ...string) {
	for _, l := range languages {
		builders[l] = f
	}
}

// New returns the builder for language. Tool output goes to out, or
// os.Stderr when nil.
func New(language string, out io.Writer) (Builder, error) {
	if out == nil {
		out = os.Stderr
	}
	f, ok := builders[strings.ToLower(language)]
	if !ok {
		return nil, fmt.Errorf("no builder for language %q, expected one of %s", language, strings.Join(Languages(), ", "))
	}
	return f(out), nil
}

// Languages lists the supported language identifiers.
func Languages() []string {
	langs := make([]string, 0, len(builders))
	for l := range builders {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}
