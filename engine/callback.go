package engine

import (
	"sync"

	"github.com/otelwasm/smartengine/runtime"
)

// recordsMemory locates output a guest announced inside its own memory.
type recordsMemory struct {
	ptr    uint32
	len    uint32
	memory runtime.Memory
}

// recordsCallback is a single slot mailbox filled by copy_records. A set
// overwrites the previous value.
type recordsCallback struct {
	mu      sync.Mutex
	records *recordsMemory
}

func (c *recordsCallback) set(records recordsMemory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = &records
}

func (c *recordsCallback) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
}

func (c *recordsCallback) get() (recordsMemory, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.records == nil {
		return recordsMemory{}, false
	}
	return *c.records, true
}
