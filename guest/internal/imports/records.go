package imports

import "github.com/otelwasm/smartengine/guest/internal/mem"

// announced keeps the buffer last handed to the host alive until the next
// call replaces it; the host reads it after the export returns.
var announced []byte

// CopyRecords announces an encoded output buffer to the host.
func CopyRecords(buf []byte) {
	announced = buf
	copyRecords(mem.BytesToPtr(buf), uint32(len(buf)))
}

// Announced returns the buffer most recently handed to the host.
func Announced() []byte {
	return announced
}
