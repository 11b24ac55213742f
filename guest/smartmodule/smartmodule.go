// Package smartmodule is the guest side of the SmartModule ABI for modules
// built with GOOS=wasip1 GOARCH=wasm -buildmode=c-shared.
//
// A guest registers one transform through one of the export packages
// (filter, mapper, filtermap, arraymap, aggregate) and, optionally, an init
// function through initializer. The functions in this package hold the
// decode, dispatch and encode logic of those exports and run on any
// platform.
package smartmodule

import (
	"errors"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/guest/internal/imports"
	"github.com/otelwasm/smartengine/guest/internal/mem"
)

type (
	Record = dataplane.Record
	Header = dataplane.Header
)

// Transform export return codes.
const (
	StatusOK                   int32 = 0
	StatusUnknownError         int32 = -1
	StatusDecodingBaseInput    int32 = -11
	StatusDecodingRecords      int32 = -22
	StatusEncodingOutput       int32 = -33
	StatusParseError           int32 = -44
	StatusUndefinedRightRecord int32 = -55
)

// Init export return codes.
const (
	InitStatusUnknownError   int32 = -1
	InitStatusParamError     int32 = -2
	InitStatusInitError      int32 = -3
	InitStatusDecodingInput  int32 = -10
	InitStatusEncodingOutput int32 = -11
)

// ProcessFunc decodes a batch encoded at version, runs it and returns the
// encoded result with a return code.
type ProcessFunc func(data []byte, version int16) ([]byte, int32)

// Export runs process over the buffer the host wrote at ptr. A non-nil
// result is announced to the host through copy_records before returning.
func Export(ptr, size, version uint32, process ProcessFunc) int32 {
	data := mem.TakeOwnership(ptr, size)
	out, code := process(data, int16(version))
	if out != nil {
		imports.CopyRecords(out)
	}
	return code
}

// Announced returns the last buffer handed to the host.
func Announced() []byte {
	return imports.Announced()
}

// decodeStatus maps a decode failure to its return code.
func decodeStatus(err error) int32 {
	if errors.Is(err, dataplane.ErrUnsupportedVersion) {
		return StatusDecodingBaseInput
	}
	return StatusDecodingRecords
}
