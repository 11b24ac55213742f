package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/runtime"
)

// store is the sandbox store shared by every stage of a chain.
type store struct {
	runtime runtime.Runtime
	linked  bool
}

// link instantiates the env host module the first time a stage needs it.
func (s *store) link(ctx context.Context, logger *zap.Logger) error {
	if s.linked {
		return nil
	}
	if err := s.runtime.InstantiateHostModule(ctx, newHostModule(logger)); err != nil {
		return err
	}
	s.linked = true
	return nil
}

// callingTriple is the argument list of every data bearing guest export.
type callingTriple struct {
	ptr     int32
	len     int32
	version uint32
}

func (t callingTriple) params() []uint64 {
	return []uint64{uint64(uint32(t.ptr)), uint64(uint32(t.len)), uint64(t.version)}
}

// instanceContext owns one instantiated stage.
type instanceContext struct {
	name     string
	store    *store
	instance runtime.ModuleInstance
	records  *recordsCallback
	params   map[string]string
	version  int16
	logger   *zap.Logger
}

// instantiate links the copy_records import into st and instantiates
// compiled under name. The guest's start functions run with the new slot
// bound, so anything they announce lands in this stage's slot.
func instantiate(ctx context.Context, e *Engine, st *store, compiled runtime.CompiledModule, name string, config ModuleConfig) (*instanceContext, error) {
	logger := e.logger.With(zap.String("stage", name))

	if err := st.link(ctx, e.logger); err != nil {
		return nil, fmt.Errorf("%w: %s: linking %s.%s: %w", ErrInstantiation, name, hostModuleName, copyRecordsName, err)
	}

	ic := &instanceContext{
		name:    name,
		store:   st,
		records: &recordsCallback{},
		params:  config.Params(),
		version: config.Version(),
		logger:  logger,
	}

	instance, err := e.instantiate(ic.bind(ctx), st.runtime, compiled, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInstantiation, name, err)
	}
	ic.instance = instance

	logger.Debug("instantiated module", zap.Int16("version", ic.version))
	return ic, nil
}

// bind returns ctx carrying this stage's slot and the store's runtime state.
func (ic *instanceContext) bind(ctx context.Context) context.Context {
	return ic.store.runtime.WithRuntimeContext(withRecordsCallback(ctx, ic.records))
}

// exportedFunction returns the named export, or nil when the guest does not
// export it.
func (ic *instanceContext) exportedFunction(name string) runtime.FunctionInstance {
	return ic.instance.Function(name)
}

// writeInput clears the slot, encodes value at the stage version and copies it
// into guest memory.
func (ic *instanceContext) writeInput(ctx context.Context, e *Engine, value dataplane.Encoder) (callingTriple, error) {
	ic.records.clear()

	data, err := value.Encode(ic.version)
	if err != nil {
		return callingTriple{}, fmt.Errorf("%w: %s: %w", ErrEncoding, ic.name, err)
	}

	ptr, err := copyMemoryToInstance(ic.bind(ctx), e, ic.instance, data)
	if err != nil {
		return callingTriple{}, fmt.Errorf("%s: %w", ic.name, err)
	}

	ic.logger.Debug("input written", zap.Uint32("ptr", ptr), zap.Int("len", len(data)), zap.Int16("version", ic.version))
	return callingTriple{ptr: int32(ptr), len: int32(len(data)), version: uint32(ic.version)}, nil
}

// readOutput decodes the announced output into value. It reports false, and
// leaves value untouched, when the guest announced nothing.
func (ic *instanceContext) readOutput(value dataplane.Decoder) (bool, error) {
	rec, ok := ic.records.get()
	if !ok {
		return false, nil
	}

	data, err := copyMemoryFromInstance(rec.memory, rec.ptr, rec.len)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ic.name, err)
	}
	if err := value.Decode(data, ic.version); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrDecoding, ic.name, err)
	}
	return true, nil
}

// call runs fn with triple and returns the guest's status code.
func (ic *instanceContext) call(ctx context.Context, e *Engine, fn runtime.FunctionInstance, name string, triple callingTriple) (int32, error) {
	res, err := e.call(ic.bind(ctx), fn, triple.params()...)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s: %w", ErrGuestTrap, ic.name, name, err)
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("%w: %s: %s returned no value", ErrGuestTrap, ic.name, name)
	}
	return int32(uint32(res[0])), nil
}

// global reads an exported global.
func (ic *instanceContext) global(name string) (uint64, bool) {
	return ic.instance.Global(name)
}

func (ic *instanceContext) close(ctx context.Context) error {
	if ic.instance == nil {
		return nil
	}
	return ic.instance.Close(ctx)
}
