package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ignitionstack/polytree/pkg/registry"
	"gopkg.in/yaml.v2"
)

// ModuleManifest describes a wasm module pushed to the registry.
type ModuleManifest struct {
	Module ModuleSection `yaml:"module" toml:"module"`
}

type ModuleSection struct {
	// namespace/name
	Name     string                  `yaml:"name" toml:"name" validate:"required"`
	Settings registry.ModuleSettings `yaml:"settings" toml:"settings"`
}

// ParseModuleFile reads a module manifest, YAML or TOML by extension.
func ParseModuleFile(filePath string) (*ModuleManifest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read module manifest: %w", err)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(filePath), ".toml") {
		format = FormatTOML
	}

	var m ModuleManifest
	if err := unmarshal(data, format, &m); err != nil {
		return nil, fmt.Errorf("failed to parse module manifest: %w", err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid module manifest: %w", err)
	}
	if _, _, err := m.Reference(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Reference splits the module name into namespace and name.
func (m *ModuleManifest) Reference() (string, string, error) {
	ref, err := registry.ParseReference(m.Module.Name)
	if err != nil {
		return "", "", err
	}
	return ref.Namespace, ref.Name, nil
}

func (m *ModuleManifest) MarshalYaml() ([]byte, error) {
	return yaml.Marshal(m)
}

func (m *ModuleManifest) MarshalToml() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
