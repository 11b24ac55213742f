//go:build wasm

package imports

//go:wasmimport env copy_records
func copyRecords(ptr, size uint32)
