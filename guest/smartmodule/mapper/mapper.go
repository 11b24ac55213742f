// Package mapper exports the map entry point of a SmartModule.
package mapper

import "github.com/otelwasm/smartengine/guest/smartmodule"

var fn smartmodule.MapFunc

// Register sets the function the map export runs for every record.
func Register(f smartmodule.MapFunc) {
	if f == nil {
		panic("nil MapFunc")
	}
	fn = f
}

var _ func(uint32, uint32, uint32) int32 = _map

//go:wasmexport map
func _map(ptr, size, version uint32) int32 {
	return smartmodule.Export(ptr, size, version, func(data []byte, version int16) ([]byte, int32) {
		return smartmodule.Map(data, version, fn)
	})
}
