// Package chainconfig loads the description of a chain from a YAML file and
// the environment.
package chainconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/engine"
	"github.com/otelwasm/smartengine/runtime/wazero"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore: SMARTENGINE_RUNTIME__MODE=compiled.
const EnvPrefix = "SMARTENGINE_"

var (
	ErrNoModules   = errors.New("at least one module is required")
	ErrPathMissing = errors.New("module path is required")
)

// Config describes a chain.
type Config struct {
	// Runtime configures the wazero binding.
	Runtime *wazero.Config `mapstructure:"runtime"`

	// Modules lists the chain's modules in order.
	Modules []ModuleConfig `mapstructure:"modules"`

	// dir resolves relative module paths.
	dir string
}

// ModuleConfig describes one module of a chain.
type ModuleConfig struct {
	// Path to the wasm file. Relative paths are resolved against the
	// directory of the config file.
	Path string `mapstructure:"path"`

	// Params are handed to the module's init export.
	Params map[string]string `mapstructure:"params"`

	// Version overrides the wire version. Zero selects the default.
	Version int16 `mapstructure:"version"`

	// Accumulator seeds an aggregate module.
	Accumulator string `mapstructure:"accumulator"`
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("chainconfig: loading %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("chainconfig: loading environment: %w", err)
	}

	cfg := &Config{dir: filepath.Dir(path)}
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "mapstructure",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
			Result:           cfg,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chainconfig: decoding %s: %w", path, err)
	}

	cfg.Default()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps SMARTENGINE_RUNTIME__MEMORY_LIMIT_PAGES to
// runtime.memory_limit_pages.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Default fills in unset fields.
func (c *Config) Default() {
	if c.Runtime == nil {
		c.Runtime = &wazero.Config{}
	}
	c.Runtime.Default()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Modules) == 0 {
		return fmt.Errorf("chainconfig: %w", ErrNoModules)
	}
	if c.Runtime != nil {
		if err := c.Runtime.Validate(); err != nil {
			return fmt.Errorf("chainconfig: runtime: %w", err)
		}
	}
	for i, m := range c.Modules {
		if m.Path == "" {
			return fmt.Errorf("chainconfig: modules[%d]: %w", i, ErrPathMissing)
		}
		if m.Version != 0 {
			if err := dataplane.CheckVersion(m.Version); err != nil {
				return fmt.Errorf("chainconfig: modules[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// EngineOptions returns the options creating an engine for this chain.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithRuntimeType(wazero.RuntimeType),
		engine.WithRuntimeConfig(c.Runtime),
	}
}

// ModulePath returns the resolved path of module i.
func (c *Config) ModulePath(i int) string {
	p := c.Modules[i].Path
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// ChainBuilder reads every module and returns a builder holding them.
func (c *Config) ChainBuilder() (*engine.ChainBuilder, error) {
	b := &engine.ChainBuilder{}
	for i, m := range c.Modules {
		bytecode, err := os.ReadFile(c.ModulePath(i))
		if err != nil {
			return nil, fmt.Errorf("chainconfig: modules[%d]: %w", i, err)
		}
		mc, err := m.moduleConfig()
		if err != nil {
			return nil, fmt.Errorf("chainconfig: modules[%d]: %w", i, err)
		}
		b.AddSmartModule(mc, bytecode)
	}
	return b, nil
}

func (m ModuleConfig) moduleConfig() (engine.ModuleConfig, error) {
	b := engine.NewModuleConfigBuilder().Params(m.Params)
	if m.Version != 0 {
		b.Version(m.Version)
	}
	if m.Accumulator != "" {
		b.InitialData(engine.InitialDataAggregate{Accumulator: []byte(m.Accumulator)})
	}
	return b.Build()
}
