package wasmprocessor

import (
	"github.com/otelwasm/smartengine/chainconfig"
)

// Config is the configuration of the smartmodule processor.
type Config struct {
	chainconfig.Config `mapstructure:",squash"`

	// KeyAttribute names the log attribute used as record key. Records have
	// no key when it is empty or the attribute is missing.
	KeyAttribute string `mapstructure:"key_attribute"`
}

// Validate validates the configuration
func (cfg *Config) Validate() error {
	return cfg.Config.Validate()
}
