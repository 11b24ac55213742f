// Package aggregate exports the aggregate entry point of a SmartModule.
package aggregate

import "github.com/otelwasm/smartengine/guest/smartmodule"

var fn smartmodule.AggregateFunc

// Register sets the function the aggregate export folds every record with.
func Register(f smartmodule.AggregateFunc) {
	if f == nil {
		panic("nil AggregateFunc")
	}
	fn = f
}

var _ func(uint32, uint32, uint32) int32 = _aggregate

//go:wasmexport aggregate
func _aggregate(ptr, size, version uint32) int32 {
	return smartmodule.Export(ptr, size, version, func(data []byte, version int16) ([]byte, int32) {
		return smartmodule.Aggregate(data, version, fn)
	})
}
