package engine

import (
	"bytes"
	"context"
	"fmt"

	"github.com/otelwasm/smartengine/runtime"
)

const allocExport = "alloc"

// copyMemoryToInstance allocates len(data) bytes inside the guest and copies
// data there. The allocator is looked up on every call.
func copyMemoryToInstance(ctx context.Context, e *Engine, instance runtime.ModuleInstance, data []byte) (uint32, error) {
	alloc := instance.Function(allocExport)
	if alloc == nil {
		return 0, fmt.Errorf("%w: guest does not export %s", ErrAllocation, allocExport)
	}

	res, err := e.call(ctx, alloc, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %s(%d): %v", ErrAllocation, allocExport, len(data), err)
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("%w: %s returned no value", ErrAllocation, allocExport)
	}
	ptr := uint32(res[0])

	memory := instance.Memory()
	if memory == nil {
		return 0, fmt.Errorf("%w: guest does not export memory", ErrAllocation)
	}
	if !memory.Write(ptr, data) {
		return 0, fmt.Errorf("%w: %d bytes at %d exceeds memory size %d", ErrMemoryWrite, len(data), ptr, memory.Size())
	}
	return ptr, nil
}

// copyMemoryFromInstance copies [ptr, ptr+length) out of guest memory.
func copyMemoryFromInstance(memory runtime.Memory, ptr, length uint32) ([]byte, error) {
	if memory == nil {
		return nil, fmt.Errorf("%w: no memory", ErrMemoryRead)
	}
	data, ok := memory.Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes at %d exceeds memory size %d", ErrMemoryRead, length, ptr, memory.Size())
	}
	return bytes.Clone(data), nil
}
