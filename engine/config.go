package engine

import (
	"fmt"
	"maps"

	"github.com/otelwasm/smartengine/dataplane"
)

// InitialData is the seed handed to a module when it is created.
type InitialData interface {
	initialData()
}

// InitialDataNone carries no seed.
type InitialDataNone struct{}

// InitialDataAggregate seeds an aggregate transform with an accumulator.
type InitialDataAggregate struct {
	Accumulator []byte
}

func (InitialDataNone) initialData()      {}
func (InitialDataAggregate) initialData() {}

// ModuleConfig describes how a single module of a chain is set up. It is
// immutable once built.
type ModuleConfig struct {
	initialData InitialData
	params      map[string]string
	version     *int16
}

// InitialData returns the configured seed.
func (c ModuleConfig) InitialData() InitialData {
	if c.initialData == nil {
		return InitialDataNone{}
	}
	return c.initialData
}

// Params returns a copy of the configured params.
func (c ModuleConfig) Params() map[string]string {
	return maps.Clone(c.params)
}

// Version returns the wire version used to talk to the module.
func (c ModuleConfig) Version() int16 {
	if c.version == nil {
		return dataplane.DefaultVersion
	}
	return *c.version
}

// ModuleConfigBuilder builds a ModuleConfig.
type ModuleConfigBuilder struct {
	initialData InitialData
	params      map[string]string
	version     *int16
}

// NewModuleConfigBuilder returns an empty builder.
func NewModuleConfigBuilder() *ModuleConfigBuilder {
	return &ModuleConfigBuilder{}
}

// Param sets a single param, overwriting any previous value for key.
func (b *ModuleConfigBuilder) Param(key, value string) *ModuleConfigBuilder {
	if b.params == nil {
		b.params = make(map[string]string)
	}
	b.params[key] = value
	return b
}

// Params sets every entry of params.
func (b *ModuleConfigBuilder) Params(params map[string]string) *ModuleConfigBuilder {
	for k, v := range params {
		b.Param(k, v)
	}
	return b
}

// InitialData sets the seed.
func (b *ModuleConfigBuilder) InitialData(data InitialData) *ModuleConfigBuilder {
	b.initialData = data
	return b
}

// Version overrides the wire version.
func (b *ModuleConfigBuilder) Version(version int16) *ModuleConfigBuilder {
	b.version = &version
	return b
}

// Build returns the config.
func (b *ModuleConfigBuilder) Build() (ModuleConfig, error) {
	if b.version != nil {
		if err := dataplane.CheckVersion(*b.version); err != nil {
			return ModuleConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	cfg := ModuleConfig{
		initialData: b.initialData,
		params:      maps.Clone(b.params),
	}
	if b.version != nil {
		v := *b.version
		cfg.version = &v
	}
	return cfg, nil
}

// DefaultModuleConfig returns a config with no params, no seed and the
// default wire version.
func DefaultModuleConfig() ModuleConfig {
	return ModuleConfig{}
}
