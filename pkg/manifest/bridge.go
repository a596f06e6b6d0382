// Package manifest reads the files that tell polytree what to load.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/ignitionstack/polytree/pkg/gateway"
	"gopkg.in/yaml.v2"
)

// DefaultBridgeFiles are looked up in the working directory when no path is
// given.
var DefaultBridgeFiles = []string{"polytree.yaml", "polytree.yml", "polytree.toml"}

// BridgeManifest lists the sources the gateway loads before any call.
type BridgeManifest struct {
	// Routine the root processor calls; empty keeps the configured one
	Function string           `yaml:"function,omitempty" toml:"function,omitempty"`
	Sources  []gateway.Source `yaml:"sources" toml:"sources" validate:"required,min=1,dive"`
}

var validate = validator.New()

// DefaultBridge loads the bundled native leaf and middle libraries and
// leaves the routine name to the configuration.
func DefaultBridge() *BridgeManifest {
	return &BridgeManifest{
		Sources: []gateway.Source{
			{Language: "c", Source: "leaf"},
			{Language: "js", Source: "middle"},
		},
	}
}

// ParseBridgeFile parses a YAML or TOML bridge manifest, chosen by
// extension. With an empty path the default file names are tried and
// DefaultBridge is returned when none exists.
func ParseBridgeFile(filePath string) (*BridgeManifest, error) {
	if filePath == "" {
		for _, file := range DefaultBridgeFiles {
			if _, err := os.Stat(file); err == nil {
				filePath = file
				break
			}
		}
		if filePath == "" {
			return DefaultBridge(), nil
		}
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest not found: %s", absPath)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(absPath), ".toml") {
		format = FormatTOML
	}
	return ParseBridge(data, format)
}

// Format of a manifest document
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseBridge decodes and validates a bridge manifest.
func ParseBridge(data []byte, format Format) (*BridgeManifest, error) {
	var manifest BridgeManifest
	if err := unmarshal(data, format, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := validate.Struct(&manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return &manifest, nil
}

func (m *BridgeManifest) MarshalYaml() ([]byte, error) {
	return yaml.Marshal(m)
}

func (m *BridgeManifest) MarshalToml() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshal(data []byte, format Format, v interface{}) error {
	switch format {
	case FormatYAML:
		return yaml.UnmarshalStrict(data, v)
	case FormatTOML:
		md, err := toml.Decode(string(data), v)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys: %v", undecoded)
		}
		return nil
	}
	return fmt.Errorf("unsupported manifest format %q", format)
}
