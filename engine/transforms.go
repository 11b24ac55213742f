package engine

import (
	"context"

	"github.com/otelwasm/smartengine/dataplane"
)

const (
	filterExport    = "filter"
	mapExport       = "map"
	filterMapExport = "filter_map"
	arrayMapExport  = "array_map"
	aggregateExport = "aggregate"
)

// Filter keeps the records its guest accepts.
type Filter struct{ export }

func (*Filter) Name() string { return filterExport }

func (f *Filter) process(ctx context.Context, e *Engine, ic *instanceContext, input dataplane.Input) (dataplane.Output, error) {
	return f.run(ctx, e, ic, filterExport, input)
}

// Map replaces every record with the one its guest returns.
type Map struct{ export }

func (*Map) Name() string { return mapExport }

func (m *Map) process(ctx context.Context, e *Engine, ic *instanceContext, input dataplane.Input) (dataplane.Output, error) {
	return m.run(ctx, e, ic, mapExport, input)
}

// FilterMap maps records and drops the ones its guest rejects.
type FilterMap struct{ export }

func (*FilterMap) Name() string { return filterMapExport }

func (f *FilterMap) process(ctx context.Context, e *Engine, ic *instanceContext, input dataplane.Input) (dataplane.Output, error) {
	return f.run(ctx, e, ic, filterMapExport, input)
}

// ArrayMap expands every record into zero or more records.
type ArrayMap struct{ export }

func (*ArrayMap) Name() string { return arrayMapExport }

func (a *ArrayMap) process(ctx context.Context, e *Engine, ic *instanceContext, input dataplane.Input) (dataplane.Output, error) {
	return a.run(ctx, e, ic, arrayMapExport, input)
}
