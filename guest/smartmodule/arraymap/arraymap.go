// Package arraymap exports the array_map entry point of a SmartModule.
package arraymap

import "github.com/otelwasm/smartengine/guest/smartmodule"

var fn smartmodule.ArrayMapFunc

// Register sets the function the array_map export runs for every record.
func Register(f smartmodule.ArrayMapFunc) {
	if f == nil {
		panic("nil ArrayMapFunc")
	}
	fn = f
}

var _ func(uint32, uint32, uint32) int32 = _arrayMap

//go:wasmexport array_map
func _arrayMap(ptr, size, version uint32) int32 {
	return smartmodule.Export(ptr, size, version, func(data []byte, version int16) ([]byte, int32) {
		return smartmodule.ArrayMap(data, version, fn)
	})
}
