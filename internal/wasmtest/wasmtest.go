// Package wasmtest assembles small SmartModule binaries for tests.
//
// Every module imports env.copy_records, declares a mutable "heap" global
// (index 0) used by the bump allocator and exports a mutable "calls" global
// (index 1) that counting bodies increment on every invocation.
package wasmtest

import (
	"bytes"
)

// Value types.
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
)

// HeapBase is the first address handed out by Alloc.
const HeapBase = 1024

// Instruction opcodes used by the body helpers.
const (
	opUnreachable byte = 0x00
	opCall        byte = 0x10
	opLocalGet    byte = 0x20
	opGlobalGet   byte = 0x23
	opGlobalSet   byte = 0x24
	opI32Const    byte = 0x41
	opI32Add      byte = 0x6a
	opEnd         byte = 0x0b
)

const (
	globalHeap  = 0
	globalCalls = 1

	// copyRecordsIndex is the function index of the env.copy_records import.
	copyRecordsIndex = 0
)

// Func is a function defined by the module.
type Func struct {
	// Name is the export name.
	Name    string
	Params  []byte
	Results []byte
	// Body is the instruction sequence, without local declarations and
	// without the final end opcode.
	Body []byte
}

// Data is an active data segment placed at Offset in memory 0.
type Data struct {
	Offset int32
	Bytes  []byte
}

// Module describes a guest module.
type Module struct {
	// NoMemory omits the memory and its "memory" export.
	NoMemory bool
	Funcs    []Func
	Data     []Data
}

// Bytes returns the binary encoding of the module.
func (m Module) Bytes() []byte {
	var types [][]byte
	typeIndex := func(params, results []byte) uint32 {
		sig := []byte{0x60}
		sig = append(sig, uleb(uint32(len(params)))...)
		sig = append(sig, params...)
		sig = append(sig, uleb(uint32(len(results)))...)
		sig = append(sig, results...)
		for i, t := range types {
			if bytes.Equal(t, sig) {
				return uint32(i)
			}
		}
		types = append(types, sig)
		return uint32(len(types) - 1)
	}

	importType := typeIndex([]byte{I32, I32}, nil)
	funcTypes := make([]uint32, len(m.Funcs))
	for i, fn := range m.Funcs {
		funcTypes[i] = typeIndex(fn.Params, fn.Results)
	}

	out := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
	}
	section := func(id byte, payload []byte) {
		out = append(out, id)
		out = append(out, uleb(uint32(len(payload)))...)
		out = append(out, payload...)
	}

	// Type section
	payload := uleb(uint32(len(types)))
	for _, t := range types {
		payload = append(payload, t...)
	}
	section(0x01, payload)

	// Import section: env.copy_records
	payload = uleb(1)
	payload = appendName(payload, "env")
	payload = appendName(payload, "copy_records")
	payload = append(payload, 0x00)
	payload = append(payload, uleb(importType)...)
	section(0x02, payload)

	// Function section
	payload = uleb(uint32(len(m.Funcs)))
	for _, t := range funcTypes {
		payload = append(payload, uleb(t)...)
	}
	section(0x03, payload)

	if !m.NoMemory {
		// Memory section: one memory, min 1 page.
		section(0x05, []byte{0x01, 0x00, 0x01})
	}

	// Global section: heap and calls, both mutable i32.
	payload = uleb(2)
	payload = append(payload, I32, 0x01, opI32Const)
	payload = append(payload, sleb(HeapBase)...)
	payload = append(payload, opEnd)
	payload = append(payload, I32, 0x01, opI32Const, 0x00, opEnd)
	section(0x06, payload)

	// Export section
	count := len(m.Funcs) + 1
	if !m.NoMemory {
		count++
	}
	payload = uleb(uint32(count))
	if !m.NoMemory {
		payload = appendName(payload, "memory")
		payload = append(payload, 0x02, 0x00)
	}
	payload = appendName(payload, "calls")
	payload = append(payload, 0x03, globalCalls)
	for i, fn := range m.Funcs {
		payload = appendName(payload, fn.Name)
		payload = append(payload, 0x00)
		// defined functions follow the single import
		payload = append(payload, uleb(uint32(i+1))...)
	}
	section(0x07, payload)

	// Code section
	payload = uleb(uint32(len(m.Funcs)))
	for _, fn := range m.Funcs {
		body := append([]byte{0x00}, fn.Body...) // no locals
		body = append(body, opEnd)
		payload = append(payload, uleb(uint32(len(body)))...)
		payload = append(payload, body...)
	}
	section(0x0a, payload)

	if len(m.Data) > 0 {
		payload = uleb(uint32(len(m.Data)))
		for _, d := range m.Data {
			payload = append(payload, 0x00, opI32Const)
			payload = append(payload, sleb(d.Offset)...)
			payload = append(payload, opEnd)
			payload = append(payload, uleb(uint32(len(d.Bytes)))...)
			payload = append(payload, d.Bytes...)
		}
		section(0x0b, payload)
	}

	return out
}

func appendName(b []byte, name string) []byte {
	b = append(b, uleb(uint32(len(name)))...)
	return append(b, name...)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
