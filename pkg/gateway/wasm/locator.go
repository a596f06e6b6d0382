package wasm

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ignitionstack/polytree/pkg/registry"
)

// LocatorKind tells where module bytes come from
type LocatorKind int

const (
	LocatorFile LocatorKind = iota
	LocatorURL
	LocatorRegistry
)

func (k LocatorKind) String() string {
	switch k {
	case LocatorFile:
		return "file"
	case LocatorURL:
		return "url"
	case LocatorRegistry:
		return "registry"
	}
	return "unknown"
}

// Locator is a parsed wasm source string.
type Locator struct {
	Kind      LocatorKind
	Path      string
	URL       string
	Reference registry.Reference
}

// ParseLocator classifies a source. URLs start with http:// or https://,
// paths are absolute, relative with a ./ or ../ prefix, or end in .wasm.
// Anything else must be a registry reference.
func ParseLocator(source string) (Locator, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Locator{}, fmt.Errorf("empty wasm source")
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return Locator{Kind: LocatorURL, URL: source}, nil
	}

	if filepath.IsAbs(source) ||
		strings.HasPrefix(source, "./") ||
		strings.HasPrefix(source, "../") ||
		strings.HasSuffix(source, ".wasm") {
		return Locator{Kind: LocatorFile, Path: source}, nil
	}

	ref, err := registry.ParseReference(source)
	if err != nil {
		return Locator{}, err
	}
	return Locator{Kind: LocatorRegistry, Reference: ref}, nil
}
