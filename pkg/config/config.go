// Package config loads polytree settings from defaults, a YAML file and the
// environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultConfigPath is the default path to the config file
	DefaultConfigPath = "~/.polytree/config.yaml"

	// EnvPrefix is the prefix for environment variables. Nested keys are
	// separated by a double underscore: POLYTREE_GATEWAY__DEFAULT_TIMEOUT.
	EnvPrefix = "POLYTREE_"

	envLevelSeparator = "__"
)

// Config holds all configuration for polytree
type Config struct {
	Gateway  GatewayConfig  `koanf:"gateway" validate:"required"`
	Registry RegistryConfig `koanf:"registry" validate:"required"`
	Log      LogConfig      `koanf:"log" validate:"required"`

	// Bridge manifest listing the sources to load. Empty means the
	// built-in leaf and middle libraries.
	Manifest string `koanf:"manifest"`
}

// GatewayConfig holds the foreign call gateway settings
type GatewayConfig struct {
	// Name of the routine the root processor calls for each child
	Function string `koanf:"function" validate:"required"`

	// Upper bound for a single invocation; zero disables it
	DefaultTimeout time.Duration `koanf:"default_timeout" validate:"gte=0"`

	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`

	// Language identifier to backend kind
	Languages map[string]string `koanf:"languages" validate:"dive,keys,required,endkeys,oneof=native wasm process"`

	// Language identifier to interpreter command line for the process backend
	Interpreters map[string][]string `koanf:"interpreters" validate:"dive,keys,required,endkeys,min=1"`

	Wasm WasmConfig `koanf:"wasm"`
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	// Consecutive failures before a function's circuit opens; zero disables it
	FailureThreshold int `koanf:"failure_threshold" validate:"gte=0"`

	// Reset timeout after which to try again
	ResetTimeout time.Duration `koanf:"reset_timeout" validate:"gte=0"`
}

// WasmConfig applies to modules loaded from files and URLs
type WasmConfig struct {
	EnableWasi   bool     `koanf:"enable_wasi"`
	AllowedHosts []string `koanf:"allowed_hosts"`
}

// RegistryConfig holds the module registry location
type RegistryConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level       string `koanf:"level" validate:"oneof=debug info warn error"`
	File        string `koanf:"file"`
	Development bool   `koanf:"development"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		Gateway: GatewayConfig{
			Function:       "process_middle",
			DefaultTimeout: 30 * time.Second,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
			},
			Languages: map[string]string{
				"c":      "native",
				"js":     "native",
				"wasm":   "wasm",
				"python": "process",
				"sh":     "process",
			},
			Interpreters: map[string][]string{
				"js":     {"node"},
				"python": {"python3"},
				"sh":     {"sh"},
			},
			Wasm: WasmConfig{EnableWasi: true},
		},
		Registry: RegistryConfig{
			Dir: filepath.Join(homeDir, ".polytree", "registry"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from the specified path and environment
// variables. A missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(newStructProvider(DefaultConfig()), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	expandedPath := ExpandHome(configPath)
	if expandedPath != "" {
		if _, err := os.Stat(expandedPath); err == nil {
			if err := k.Load(file.Provider(expandedPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &config,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Registry.Dir = ExpandHome(config.Registry.Dir)
	config.Manifest = ExpandHome(config.Manifest)
	config.Log.File = ExpandHome(config.Log.File)

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

var validate = validator.New()

// Validate checks field constraints.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envKey maps POLYTREE_GATEWAY__DEFAULT_TIMEOUT to gateway.default_timeout
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, envLevelSeparator, ".")
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") && path != "~" {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}

// structProvider is a provider that loads configuration from a struct
type structProvider struct {
	cfg interface{}
}

func newStructProvider(cfg interface{}) *structProvider {
	return &structProvider{cfg: cfg}
}

// Read reads the configuration from the struct
func (s *structProvider) Read() (map[string]interface{}, error) {
	var out map[string]interface{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "koanf",
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(s.cfg); err != nil {
		return nil, err
	}

	// koanf merges only map[string]interface{} values; typed maps such as
	// gateway.languages would otherwise be replaced wholesale by a file.
	return toKoanfMap(out).(map[string]interface{}), nil
}

// toKoanfMap rewrites every map in v, at any depth, as map[string]interface{}.
func toKoanfMap(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return v
	}

	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[fmt.Sprint(iter.Key().Interface())] = toKoanfMap(iter.Value().Interface())
	}
	return out
}

// ReadBytes is required by the Provider interface but not used for struct providers
func (s *structProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not supported for struct provider")
}
