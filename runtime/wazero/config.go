package wazero

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero"

	"github.com/otelwasm/smartengine/runtime"
)

// RuntimeType is the name this binding registers under.
const RuntimeType = "wazero"

// Mode selects how wazero executes guest code.
type Mode string

const (
	ModeInterpreter Mode = "interpreter"
	ModeCompiled    Mode = "compiled"
)

// Config is the configuration of the wazero binding. One Config is shared by
// every store created from it, so the compilation cache is reused across chains.
type Config struct {
	// Mode is the execution mode. Defaults to interpreter.
	Mode Mode `mapstructure:"mode"`

	// MemoryLimitPages caps each guest memory, in 64KiB pages. Zero keeps
	// wazero's default.
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`

	// WASI instantiates wasi_snapshot_preview1 in every store, for guests built
	// with GOOS=wasip1 or wasm32-wasi toolchains.
	WASI bool `mapstructure:"wasi"`

	// Env is the environment visible to WASI guests.
	Env []string `mapstructure:"env"`

	mu    sync.Mutex
	cache wazero.CompilationCache
}

// Default fills in unset fields.
func (c *Config) Default() {
	if c.Mode == "" {
		c.Mode = ModeInterpreter
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeInterpreter, ModeCompiled, "":
	default:
		return fmt.Errorf("invalid runtime mode %q: %w", c.Mode, runtime.ErrInvalidConfiguration)
	}
	if c.MemoryLimitPages > 65536 {
		return fmt.Errorf("memory_limit_pages %d exceeds 65536: %w", c.MemoryLimitPages, runtime.ErrInvalidConfiguration)
	}
	return nil
}

// Clone returns a copy of the exported fields of c. The copy has its own
// compilation cache.
func (c *Config) Clone() *Config {
	return &Config{
		Mode:             c.Mode,
		MemoryLimitPages: c.MemoryLimitPages,
		WASI:             c.WASI,
		Env:              slices.Clone(c.Env),
	}
}

// Close releases the compilation cache shared by stores created from c.
func (c *Config) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		return nil
	}
	err := c.cache.Close(ctx)
	c.cache = nil
	return err
}

func (c *Config) runtimeConfig() wazero.RuntimeConfig {
	c.mu.Lock()
	if c.cache == nil {
		c.cache = wazero.NewCompilationCache()
	}
	cache := c.cache
	c.mu.Unlock()

	var wrc wazero.RuntimeConfig
	switch c.Mode {
	case ModeCompiled:
		wrc = wazero.NewRuntimeConfigCompiler()
	default:
		wrc = wazero.NewRuntimeConfigInterpreter()
	}
	wrc = wrc.WithCompilationCache(cache)
	if c.MemoryLimitPages > 0 {
		wrc = wrc.WithMemoryLimitPages(c.MemoryLimitPages)
	}
	return wrc
}

// newWazeroRuntime creates a new Wazero runtime instance
func newWazeroRuntime(config any) (runtime.Runtime, error) {
	wazeroConfig, ok := config.(*Config)
	if !ok || wazeroConfig == nil {
		wazeroConfig = &Config{}
	}
	wazeroConfig.Default()
	if err := wazeroConfig.Validate(); err != nil {
		return nil, err
	}

	return &wazeroRuntime{
		runtime: wazero.NewRuntimeWithConfig(context.Background(), wazeroConfig.runtimeConfig()),
		config:  wazeroConfig,
	}, nil
}
