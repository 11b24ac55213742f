// Package engine runs chains of SmartModules: sandboxed wasm programs that
// filter, map or aggregate batches of records.
//
// An Engine owns the execution facility. Every call that runs guest code
// takes the Engine explicitly and holds its lock for the duration of the
// call, so no two guest calls are ever in flight through the same Engine.
package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/otelwasm/smartengine/runtime"
	"github.com/otelwasm/smartengine/runtime/wazero"
)

// Engine is the handle to the sandbox execution facility.
type Engine struct {
	runtimeType   string
	runtimeConfig any
	logger        *zap.Logger

	// mu is held while guest code runs.
	mu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRuntimeType selects a registered runtime binding.
func WithRuntimeType(runtimeType string) Option {
	return func(e *Engine) {
		e.runtimeType = runtimeType
	}
}

// WithRuntimeConfig sets the configuration handed to the runtime binding.
func WithRuntimeConfig(config any) Option {
	return func(e *Engine) {
		e.runtimeConfig = config
	}
}

// NewEngine creates an Engine. A *wazero.Config passed with
// WithRuntimeConfig is copied; the engine owns the copy and its compilation
// cache, so the caller's value is left untouched.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		runtimeType: runtime.DefaultType,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.runtimeType == "" {
		e.runtimeType = runtime.DefaultType
	}

	if !slices.Contains(runtime.List(), e.runtimeType) {
		return nil, fmt.Errorf("engine: runtime %q: %w", e.runtimeType, runtime.ErrRuntimeNotFound)
	}

	if e.runtimeType == wazero.RuntimeType {
		cfg := &wazero.Config{}
		if c, ok := e.runtimeConfig.(*wazero.Config); ok && c != nil {
			cfg = c.Clone()
		}
		cfg.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.runtimeConfig = cfg
	}

	return e, nil
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// newStore creates a sandbox store. Every chain owns exactly one.
func (e *Engine) newStore() (runtime.Runtime, error) {
	store, err := runtime.NewRuntime(e.runtimeType, e.runtimeConfig)
	if err != nil {
		return nil, fmt.Errorf("engine: creating store: %w", err)
	}
	return store, nil
}

// call runs fn with exclusive access to the engine.
func (e *Engine) call(ctx context.Context, fn runtime.FunctionInstance, params ...uint64) ([]uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn.Call(ctx, params...)
}

// instantiate instantiates a module with exclusive access to the engine,
// since instantiation runs the guest's start functions.
func (e *Engine) instantiate(ctx context.Context, store runtime.Runtime, compiled runtime.CompiledModule, name string) (runtime.ModuleInstance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.Instantiate(ctx, compiled, name)
}

// Close releases engine level resources such as the compilation cache.
// Chains created from e must be closed first.
func (e *Engine) Close(ctx context.Context) error {
	if closer, ok := e.runtimeConfig.(interface{ Close(context.Context) error }); ok {
		return closer.Close(ctx)
	}
	return nil
}
