package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/runtime"
)

// Transform is the processing entry point of a stage. The set of
// implementations is closed: Filter, Map, FilterMap, ArrayMap and Aggregate.
type Transform interface {
	// Name is the name of the guest export.
	Name() string

	process(ctx context.Context, e *Engine, ic *instanceContext, input dataplane.Input) (dataplane.Output, error)
}

// transformKinds lists the recognized exports in probe order.
var transformKinds = []struct {
	name string
	new  func(fn runtime.FunctionInstance, config ModuleConfig) Transform
}{
	{filterExport, func(fn runtime.FunctionInstance, _ ModuleConfig) Transform { return &Filter{export{fn: fn}} }},
	{mapExport, func(fn runtime.FunctionInstance, _ ModuleConfig) Transform { return &Map{export{fn: fn}} }},
	{filterMapExport, func(fn runtime.FunctionInstance, _ ModuleConfig) Transform { return &FilterMap{export{fn: fn}} }},
	{arrayMapExport, func(fn runtime.FunctionInstance, _ ModuleConfig) Transform { return &ArrayMap{export{fn: fn}} }},
	{aggregateExport, newAggregate},
}

// createTransform returns the transform of the first recognized export.
func createTransform(ic *instanceContext, config ModuleConfig) (Transform, error) {
	for _, kind := range transformKinds {
		if fn := ic.exportedFunction(kind.name); fn != nil {
			return kind.new(fn, config), nil
		}
	}
	names := make([]string, len(transformKinds))
	for i, kind := range transformKinds {
		names[i] = kind.name
	}
	return nil, fmt.Errorf("%w: %s exports none of %v", ErrUnknownTransformKind, ic.name, names)
}

// export is a guest function taking the calling triple.
type export struct {
	fn runtime.FunctionInstance
}

// run writes value into the guest, calls the export and reads the output.
// Failures caused by the guest are reported in the output; only host side
// failures are returned as an error.
func (x export) run(ctx context.Context, e *Engine, ic *instanceContext, name string, value dataplane.Encoder) (dataplane.Output, error) {
	triple, err := ic.writeInput(ctx, e, value)
	if err != nil {
		return guestFailure(ic, name, err)
	}

	code, err := ic.call(ctx, e, x.fn, name, triple)
	if err != nil {
		return guestFailure(ic, name, err)
	}
	if code < 0 {
		terr := &TransformError{Stage: ic.name, Transform: name, Status: TransformStatusFromCode(code)}
		ic.logger.Warn("transform failed", zap.String("transform", name), zap.Int32("code", code), zap.Stringer("status", terr.Status))
		return dataplane.Output{Error: terr}, nil
	}

	var out dataplane.Output
	if _, err := ic.readOutput(&out); err != nil {
		return guestFailure(ic, name, err)
	}
	if out.Error != nil {
		ic.logger.Warn("transform reported error", zap.String("transform", name), zap.Int("successes", len(out.Successes)), zap.Error(out.Error))
	}
	return out, nil
}

func guestFailure(ic *instanceContext, name string, err error) (dataplane.Output, error) {
	if !isGuestFault(err) {
		return dataplane.Output{}, err
	}
	ic.logger.Warn("transform failed", zap.String("transform", name), zap.Error(err))
	return dataplane.Output{Error: err}, nil
}
