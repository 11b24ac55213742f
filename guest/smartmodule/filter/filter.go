// Package filter exports the filter entry point of a SmartModule.
package filter

import "github.com/otelwasm/smartengine/guest/smartmodule"

var fn smartmodule.FilterFunc

// Register sets the function the filter export runs for every record.
func Register(f smartmodule.FilterFunc) {
	if f == nil {
		panic("nil FilterFunc")
	}
	fn = f
}

var _ func(uint32, uint32, uint32) int32 = _filter

//go:wasmexport filter
func _filter(ptr, size, version uint32) int32 {
	return smartmodule.Export(ptr, size, version, func(data []byte, version int16) ([]byte, int32) {
		return smartmodule.Filter(data, version, fn)
	})
}
