package engine

import (
	"bytes"
	"context"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/runtime"
)

// Aggregate folds records into an accumulator kept across batches. The value
// of the last record of a successful output becomes the next accumulator.
type Aggregate struct {
	export
	accumulator []byte
}

func newAggregate(fn runtime.FunctionInstance, config ModuleConfig) Transform {
	a := &Aggregate{export: export{fn: fn}}
	if seed, ok := config.InitialData().(InitialDataAggregate); ok {
		a.accumulator = bytes.Clone(seed.Accumulator)
	}
	return a
}

func (*Aggregate) Name() string { return aggregateExport }

// Accumulator returns a copy of the current accumulator.
func (a *Aggregate) Accumulator() []byte {
	return bytes.Clone(a.accumulator)
}

func (a *Aggregate) process(ctx context.Context, e *Engine, ic *instanceContext, input dataplane.Input) (dataplane.Output, error) {
	out, err := a.run(ctx, e, ic, aggregateExport, dataplane.AggregateInput{Input: input, Accumulator: a.accumulator})
	if err != nil || out.Error != nil {
		return out, err
	}
	if n := len(out.Successes); n > 0 {
		a.accumulator = bytes.Clone(out.Successes[n-1].Value)
	}
	return out, nil
}
