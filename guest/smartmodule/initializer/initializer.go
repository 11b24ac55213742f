// Package initializer exports the optional init entry point of a SmartModule.
package initializer

import "github.com/otelwasm/smartengine/guest/smartmodule"

var fn smartmodule.InitFunc

// Register sets the function the init export runs once with the module's
// params before the first transform call.
func Register(f smartmodule.InitFunc) {
	if f == nil {
		panic("nil InitFunc")
	}
	fn = f
}

var _ func(uint32, uint32, uint32) int32 = _init

//go:wasmexport init
func _init(ptr, size, version uint32) int32 {
	return smartmodule.Export(ptr, size, version, func(data []byte, version int16) ([]byte, int32) {
		return smartmodule.Init(data, version, fn)
	})
}
