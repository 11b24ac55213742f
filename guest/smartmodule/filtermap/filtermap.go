// Package filtermap exports the filter_map entry point of a SmartModule.
package filtermap

import "github.com/otelwasm/smartengine/guest/smartmodule"

var fn smartmodule.FilterMapFunc

// Register sets the function the filter_map export runs for every record.
func Register(f smartmodule.FilterMapFunc) {
	if f == nil {
		panic("nil FilterMapFunc")
	}
	fn = f
}

var _ func(uint32, uint32, uint32) int32 = _filterMap

//go:wasmexport filter_map
func _filterMap(ptr, size, version uint32) int32 {
	return smartmodule.Export(ptr, size, version, func(data []byte, version int16) ([]byte, int32) {
		return smartmodule.FilterMap(data, version, fn)
	})
}
