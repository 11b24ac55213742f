package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/runtime"
)

type pendingModule struct {
	config   ModuleConfig
	bytecode []byte
}

// ChainBuilder collects the modules of a chain in order. Nothing is
// validated until Initialize.
type ChainBuilder struct {
	modules []pendingModule
}

// NewChainBuilder returns a builder holding a single module.
func NewChainBuilder(config ModuleConfig, bytecode []byte) *ChainBuilder {
	b := &ChainBuilder{}
	b.AddSmartModule(config, bytecode)
	return b
}

// AddSmartModule appends a module to the chain.
func (b *ChainBuilder) AddSmartModule(config ModuleConfig, bytecode []byte) {
	b.modules = append(b.modules, pendingModule{config: config, bytecode: bytecode})
}

// Len returns the number of modules added so far.
func (b *ChainBuilder) Len() int {
	return len(b.modules)
}

// stage is one instantiated module of a chain.
type stage struct {
	ctx       *instanceContext
	init      *smartModuleInit
	transform Transform
	compiled  runtime.CompiledModule
}

// StageInfo describes a stage of an initialized chain.
type StageInfo struct {
	Name      string
	Transform string
	HasInit   bool
	Version   int16
	// Exports are the guest's exported functions, sorted.
	Exports []string
}

// Initialize instantiates every module in one new store and runs the init
// exports. It fails on the first stage that cannot be set up; no partial
// chain is returned.
func (b *ChainBuilder) Initialize(ctx context.Context, e *Engine) (*ChainInstance, error) {
	if e == nil {
		return nil, ErrNilEngine
	}

	rt, err := e.newStore()
	if err != nil {
		return nil, err
	}
	chain := &ChainInstance{
		store:  &store{runtime: rt},
		stages: make([]*stage, 0, len(b.modules)),
		logger: e.logger,
	}

	for i, m := range b.modules {
		s, err := chain.newStage(ctx, e, fmt.Sprintf("stage-%d", i), m)
		if s != nil {
			chain.stages = append(chain.stages, s)
		}
		if err != nil {
			if cerr := chain.Close(ctx); cerr != nil {
				e.logger.Warn("closing failed chain", zap.Error(cerr))
			}
			return nil, err
		}
	}

	e.logger.Info("chain initialized", zap.Int("stages", len(chain.stages)))
	return chain, nil
}

// newStage compiles, instantiates and initializes one module. On failure it
// may return the partially built stage so its resources can be released.
func (c *ChainInstance) newStage(ctx context.Context, e *Engine, name string, m pendingModule) (*stage, error) {
	compiled, err := c.store.runtime.Compile(ctx, m.bytecode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInstantiation, name, err)
	}
	s := &stage{compiled: compiled}

	s.ctx, err = instantiate(ctx, e, c.store, compiled, name, m.config)
	if err != nil {
		return s, err
	}

	s.init = tryInstantiateInit(s.ctx)
	s.transform, err = createTransform(s.ctx, m.config)
	if err != nil {
		return s, err
	}
	if err := s.init.initialize(ctx, e, s.ctx); err != nil {
		return s, err
	}

	e.logger.Info("stage initialized",
		zap.String("stage", name),
		zap.String("transform", s.transform.Name()),
		zap.Bool("init", s.init != nil),
		zap.Int16("version", s.ctx.version))
	return s, nil
}

// ChainInstance is an initialized chain. It is not meant for concurrent
// use; concurrent Process calls are serialized.
type ChainInstance struct {
	mu     sync.Mutex
	store  *store
	stages []*stage
	closed bool
	logger *zap.Logger
}

// Stages describes the stages in order.
func (c *ChainInstance) Stages() []StageInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	infos := make([]StageInfo, len(c.stages))
	for i, s := range c.stages {
		infos[i] = StageInfo{
			Name:      s.ctx.name,
			Transform: s.transform.Name(),
			HasInit:   s.init != nil,
			Version:   s.ctx.version,
			Exports:   s.compiled.ExportedFunctions(),
		}
	}
	return infos
}

// Process runs input through every stage in order. The output of a stage is
// the input of the next one. The base offset is carried over unchanged and
// no stage can alter it. The first stage reporting an error ends processing
// and its output, error included, is returned. A chain without stages returns the input records unchanged.
//
// The returned error is only set for conditions outside the guests' control;
// guest failures are reported in Output.Error.
func (c *ChainInstance) Process(ctx context.Context, input dataplane.Input, metrics *ChainMetrics, e *Engine) (dataplane.Output, error) {
	if e == nil {
		return dataplane.Output{}, ErrNilEngine
	}
	if metrics == nil {
		metrics = &ChainMetrics{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return dataplane.Output{}, ErrChainClosed
	}

	size := input.Size()
	c.logger.Debug("chain input", zap.Int("bytes", size), zap.Int("records", len(input.Records)))
	metrics.AddBytesIn(uint64(size))

	if len(c.stages) == 0 {
		return dataplane.Output{BaseOffset: input.BaseOffset, Successes: input.Records}, nil
	}

	next := input
	var out dataplane.Output
	for i, s := range c.stages {
		if err := ctx.Err(); err != nil {
			return dataplane.Output{}, err
		}

		metrics.AddInvocations(1)
		var err error
		out, err = s.transform.process(ctx, e, s.ctx, next)
		if err != nil {
			return dataplane.Output{}, err
		}
		out.BaseOffset = input.BaseOffset
		if out.Error != nil {
			metrics.AddErrors(1)
			return out, nil
		}

		if i < len(c.stages)-1 {
			next = dataplane.Input{
				BaseOffset:    input.BaseOffset,
				BaseTimestamp: input.BaseTimestamp,
				Records:       out.Successes,
			}
		}
	}

	metrics.AddRecordsOut(uint64(len(out.Successes)))
	c.logger.Debug("chain output", zap.Int("records", len(out.Successes)))
	return out, nil
}

// Close releases the store and every module of the chain.
func (c *ChainInstance) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var errs error
	for _, s := range c.stages {
		if s.ctx != nil {
			errs = multierr.Append(errs, s.ctx.close(ctx))
		}
		errs = multierr.Append(errs, s.compiled.Close(ctx))
	}
	return multierr.Append(errs, c.store.runtime.Close(ctx))
}
