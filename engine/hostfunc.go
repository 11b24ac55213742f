package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/otelwasm/smartengine/runtime"
)

const (
	hostModuleName  = "env"
	copyRecordsName = "copy_records"
)

// callbackKey is the context key of the slot of the stage being called.
type callbackKey struct{}

func withRecordsCallback(ctx context.Context, cb *recordsCallback) context.Context {
	return context.WithValue(ctx, callbackKey{}, cb)
}

func recordsCallbackFromContext(ctx context.Context) *recordsCallback {
	cb, _ := ctx.Value(callbackKey{}).(*recordsCallback)
	return cb
}

// newHostModule returns the env module exporting copy_records. One instance
// serves every stage of a store; an announcement goes to the slot bound in
// the context of the call in flight.
func newHostModule(logger *zap.Logger) *runtime.HostModule {
	return runtime.NewHostModule(hostModuleName).AddFunction(
		copyRecordsName,
		[]runtime.ValueType{runtime.ValueTypeI32, runtime.ValueTypeI32},
		nil,
		func(ctx context.Context, caller runtime.Caller, stack []uint64) {
			copyRecordsFn(ctx, caller, stack, logger)
		},
	)
}

func copyRecordsFn(ctx context.Context, caller runtime.Caller, stack []uint64, logger *zap.Logger) {
	ptr := uint32(stack[0])
	length := uint32(stack[1])

	cb := recordsCallbackFromContext(ctx)
	if cb == nil {
		logger.Warn("copy_records called outside of a stage call", zap.Uint32("ptr", ptr), zap.Uint32("len", length))
		return
	}
	logger.Debug("copy_records", zap.Uint32("ptr", ptr), zap.Uint32("len", length))
	cb.set(recordsMemory{ptr: ptr, len: length, memory: caller.Memory()})
}
