package wazero

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/stealthrocket/wasi-go"
	wasigo "github.com/stealthrocket/wasi-go/imports"
	"github.com/stealthrocket/wasi-go/imports/wasi_snapshot_preview1"
	"github.com/stealthrocket/wazergo"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/otelwasm/smartengine/runtime"
)

const (
	// guestExportMemory is the name of the memory export in the guest module
	guestExportMemory = "memory"
	// wasmEdgeV2Extension is the WASI extension name
	wasmEdgeV2Extension = "wasmedgev2"
)

// wazeroRuntime implements runtime.Runtime using Wazero
type wazeroRuntime struct {
	runtime wazero.Runtime
	config  *Config

	// set once WASI has been instantiated in this store
	sys              wasi.System
	wasiP1HostModule *wasi_snapshot_preview1.Module
}

// wazeroCompiledModule implements runtime.CompiledModule for Wazero
type wazeroCompiledModule struct {
	module wazero.CompiledModule
}

// wazeroModuleInstance implements runtime.ModuleInstance for Wazero
type wazeroModuleInstance struct {
	instance api.Module
}

// wazeroFunctionInstance implements runtime.FunctionInstance for Wazero
type wazeroFunctionInstance struct {
	function api.Function
}

// wazeroMemory implements runtime.Memory for Wazero
type wazeroMemory struct {
	memory api.Memory
}

// wazeroCaller implements runtime.Caller for Wazero
type wazeroCaller struct {
	module api.Module
}

// Compile compiles the given Wasm binary into a CompiledModule
func (r *wazeroRuntime) Compile(ctx context.Context, binary []byte) (runtime.CompiledModule, error) {
	compiled, err := r.runtime.CompileModule(ctx, binary)
	if err != nil {
		return nil, fmt.Errorf("wazero compile error: %v: %w", err, runtime.ErrModuleCompileFailed)
	}

	if _, ok := compiled.ExportedMemories()[guestExportMemory]; !ok {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("wasm: guest doesn't export memory[%s]: %w", guestExportMemory, runtime.ErrMemoryExportNotFound)
	}

	return &wazeroCompiledModule{module: compiled}, nil
}

// InstantiateHostModule creates and instantiates the host module with exported functions
func (r *wazeroRuntime) InstantiateHostModule(ctx context.Context, hostModule *runtime.HostModule) error {
	if hostModule == nil {
		return fmt.Errorf("nil host module: %w", runtime.ErrInvalidConfiguration)
	}
	builder := r.runtime.NewHostModuleBuilder(hostModule.Name)

	for _, hostFunc := range hostModule.Functions {
		if hostFunc.Function == nil {
			return fmt.Errorf("no implementation for host function %s: %w", hostFunc.FunctionName, runtime.ErrHostFunctionNotFound)
		}

		paramTypes := make([]api.ValueType, len(hostFunc.ParamTypes))
		for i, vt := range hostFunc.ParamTypes {
			paramTypes[i] = convertValueType(vt)
		}

		resultTypes := make([]api.ValueType, len(hostFunc.ResultTypes))
		for i, vt := range hostFunc.ResultTypes {
			resultTypes[i] = convertValueType(vt)
		}

		fn := hostFunc.Function
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				fn(ctx, &wazeroCaller{module: mod}, stack)
			}), paramTypes, resultTypes).
			Export(hostFunc.FunctionName)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("host module %s instantiation failed: %v: %w", hostModule.Name, err, runtime.ErrModuleInstantiateFailed)
	}
	return nil
}

// Instantiate creates a named module instance, setting up WASI first when enabled
func (r *wazeroRuntime) Instantiate(ctx context.Context, module runtime.CompiledModule, name string) (runtime.ModuleInstance, error) {
	wazeroModule, ok := module.(*wazeroCompiledModule)
	if !ok {
		return nil, fmt.Errorf("invalid module type for wazero runtime: %w", runtime.ErrInvalidConfiguration)
	}

	if r.config.WASI && r.sys == nil {
		if err := r.instantiateWASI(ctx, wazeroModule.module); err != nil {
			return nil, err
		}
	}
	ctx = r.WithRuntimeContext(ctx)

	config := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize"). // reactor module
		WithStdout(os.Stdout).
		WithStderr(os.Stderr)

	instance, err := r.runtime.InstantiateModule(ctx, wazeroModule.module, config)
	if err != nil {
		return nil, fmt.Errorf("guest module instantiation failed: %v: %w", err, runtime.ErrModuleInstantiateFailed)
	}

	return &wazeroModuleInstance{instance: instance}, nil
}

func (r *wazeroRuntime) instantiateWASI(ctx context.Context, module wazero.CompiledModule) error {
	env := r.config.Env
	if env == nil {
		env = os.Environ()
	}

	ctx, sys, err := wasigo.NewBuilder().
		WithSocketsExtension(wasmEdgeV2Extension, module).
		WithEnv(env...).Instantiate(ctx, r.runtime)
	if err != nil {
		return fmt.Errorf("wasi instantiation failed: %w", err)
	}

	// Extract the wasi host module instance from the context as a workaround
	// to avoid panic when calling wasi functions with different context than the one used to instantiate the host module.
	wasiP1HostModule, ok := moduleInstanceFor[*wasi_snapshot_preview1.Module](ctx)
	if !ok {
		sys.Close(ctx)
		return fmt.Errorf("failed to retrieve wasi host module instance: %w", runtime.ErrInvalidConfiguration)
	}

	r.sys = sys
	r.wasiP1HostModule = wasiP1HostModule
	return nil
}

// WithRuntimeContext returns a context configured for runtime-specific operations
func (r *wazeroRuntime) WithRuntimeContext(ctx context.Context) context.Context {
	if r.wasiP1HostModule == nil {
		return ctx
	}
	return withModuleInstance(ctx, r.wasiP1HostModule)
}

// Close closes the runtime and releases all resources
func (r *wazeroRuntime) Close(ctx context.Context) error {
	if r.sys != nil {
		if err := r.sys.Close(ctx); err != nil {
			return fmt.Errorf("wasi close error: %w", err)
		}
		r.sys = nil
	}
	return r.runtime.Close(ctx)
}

// ExportedFunctions returns the sorted names of the exported functions
func (m *wazeroCompiledModule) ExportedFunctions() []string {
	exports := m.module.ExportedFunctions()
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the resources associated with the compiled module
func (m *wazeroCompiledModule) Close(ctx context.Context) error {
	return m.module.Close(ctx)
}

// Name returns the module name
func (m *wazeroModuleInstance) Name() string {
	return m.instance.Name()
}

// Function returns a handle to an exported function
func (m *wazeroModuleInstance) Function(name string) runtime.FunctionInstance {
	fn := m.instance.ExportedFunction(name)
	if fn == nil {
		return nil
	}
	return &wazeroFunctionInstance{function: fn}
}

// Memory returns the exported memory of the module
func (m *wazeroModuleInstance) Memory() runtime.Memory {
	return exportedMemory(m.instance)
}

// Global returns the value of an exported global
func (m *wazeroModuleInstance) Global(name string) (uint64, bool) {
	g := m.instance.ExportedGlobal(name)
	if g == nil {
		return 0, false
	}
	return g.Get(), true
}

// Close closes the instance and releases its resources
func (m *wazeroModuleInstance) Close(ctx context.Context) error {
	return m.instance.Close(ctx)
}

// Call executes the function with the given parameters
func (f *wazeroFunctionInstance) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	return f.function.Call(ctx, params...)
}

// Read reads 'size' bytes from the memory at 'offset'
func (mem *wazeroMemory) Read(offset uint32, size uint32) ([]byte, bool) {
	return mem.memory.Read(offset, size)
}

// Write writes 'data' to the memory at 'offset'
func (mem *wazeroMemory) Write(offset uint32, data []byte) bool {
	return mem.memory.Write(offset, data)
}

// Size returns the memory size in bytes
func (mem *wazeroMemory) Size() uint32 {
	return mem.memory.Size()
}

// Memory returns the calling module's exported memory
func (c *wazeroCaller) Memory() runtime.Memory {
	return exportedMemory(c.module)
}

func exportedMemory(mod api.Module) runtime.Memory {
	memory := mod.ExportedMemory(guestExportMemory)
	if memory == nil {
		return nil
	}
	return &wazeroMemory{memory: memory}
}

// convertValueType converts runtime.ValueType to api.ValueType
func convertValueType(vt runtime.ValueType) api.ValueType {
	switch vt {
	case runtime.ValueTypeI32:
		return api.ValueTypeI32
	case runtime.ValueTypeI64:
		return api.ValueTypeI64
	case runtime.ValueTypeF32:
		return api.ValueTypeF32
	case runtime.ValueTypeF64:
		return api.ValueTypeF64
	default:
		return api.ValueTypeI32 // default fallback
	}
}

// moduleInstanceFor returns the module instance from the context that contains the internal
// state required for WASI host functions.
// NOTE: wasi-go returns context containing internal state when initializing the host module,
// and the same context is required when calling wasi functions exposed by wasi-go.
func moduleInstanceFor[T wazergo.Module](ctx context.Context) (res T, ok bool) {
	res, ok = ctx.Value((*wazergo.ModuleInstance[T])(nil)).(T)
	return
}

// withModuleInstance returns a Go context inheriting from ctx and containing the
// state needed for module instantiated from wazero host module to properly bind
// their methods to their receiver (e.g. the module instance).
func withModuleInstance[T wazergo.Module](ctx context.Context, instance T) context.Context {
	return context.WithValue(ctx, (*wazergo.ModuleInstance[T])(nil), instance)
}
