// Package runtime provides an abstraction layer for WebAssembly runtime engines.
//
// A Runtime is a store: every module instantiated through it shares the host
// modules registered on it and lives until the Runtime is closed.
package runtime

import "context"

// Runtime represents a Wasm runtime engine
type Runtime interface {
	// Compile compiles the given Wasm binary into a CompiledModule
	Compile(ctx context.Context, binary []byte) (CompiledModule, error)
	// InstantiateHostModule registers host functions under hostModule.Name.
	// It must be called before any guest importing them is instantiated.
	InstantiateHostModule(ctx context.Context, hostModule *HostModule) error
	// Instantiate creates a named module instance from a compiled module.
	// Names must be unique within a Runtime.
	Instantiate(ctx context.Context, module CompiledModule, name string) (ModuleInstance, error)
	// WithRuntimeContext returns a context carrying the runtime-specific state
	// (WASI, etc.) that guest code needs while it runs.
	WithRuntimeContext(ctx context.Context) context.Context
	// Close closes the runtime and releases all resources
	Close(ctx context.Context) error
}

// CompiledModule represents a compiled Wasm module, ready for instantiation
type CompiledModule interface {
	// ExportedFunctions returns the names of the exported functions.
	ExportedFunctions() []string
	// Close releases the resources associated with the compiled module
	Close(ctx context.Context) error
}

// ModuleInstance represents an instantiated Wasm module
type ModuleInstance interface {
	// Name returns the name the module was instantiated with.
	Name() string
	// Function returns a handle to an exported function
	// Returns nil if the function is not found
	Function(name string) FunctionInstance
	// Memory returns the exported memory of the module
	// Returns nil if the module does not export memory
	Memory() Memory
	// Global returns the current value of an exported global.
	Global(name string) (uint64, bool)
	// Close closes the instance and releases its resources
	Close(ctx context.Context) error
}

// FunctionInstance represents an exported function from a Wasm module
type FunctionInstance interface {
	// Call executes the function with the given parameters
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// Memory represents the linear memory of a Wasm module instance
type Memory interface {
	// Read reads 'size' bytes from the memory at 'offset'.
	// The returned slice is a view of guest memory, not a copy.
	Read(offset uint32, size uint32) ([]byte, bool)
	// Write writes 'data' to the memory at 'offset'
	Write(offset uint32, data []byte) bool
	// Size returns the size in bytes
	Size() uint32
}
