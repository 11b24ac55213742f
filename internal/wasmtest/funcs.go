package wasmtest

// Alloc is a bump allocator exported as "alloc".
func Alloc() Func {
	return Func{
		Name:    "alloc",
		Params:  []byte{I32},
		Results: []byte{I32},
		Body: []byte{
			opGlobalGet, globalHeap,
			opGlobalGet, globalHeap,
			opLocalGet, 0,
			opI32Add,
			opGlobalSet, globalHeap,
		},
	}
}

// count increments the "calls" global.
func count() []byte {
	return []byte{
		opGlobalGet, globalCalls,
		opI32Const, 0x01,
		opI32Add,
		opGlobalSet, globalCalls,
	}
}

func i32Const(v int32) []byte {
	return append([]byte{opI32Const}, sleb(v)...)
}

// entry returns a (ptr, len, version) -> i32 export with body.
func entry(name string, body []byte) Func {
	return Func{
		Name:    name,
		Params:  []byte{I32, I32, I32},
		Results: []byte{I32},
		Body:    body,
	}
}

// PassThrough announces its input bytes as its output and returns 0. Since
// input records and output successes share a field number, every record is
// kept unchanged.
func PassThrough(name string) Func {
	body := count()
	body = append(body, opLocalGet, 0, opLocalGet, 1, opCall, copyRecordsIndex)
	body = append(body, i32Const(0)...)
	return entry(name, body)
}

// Return returns code without announcing any output.
func Return(name string, code int32) Func {
	body := count()
	body = append(body, i32Const(code)...)
	return entry(name, body)
}

// Announce announces the range [ptr, ptr+length) and returns code.
func Announce(name string, ptr, length, code int32) Func {
	body := count()
	body = append(body, i32Const(ptr)...)
	body = append(body, i32Const(length)...)
	body = append(body, opCall, copyRecordsIndex)
	body = append(body, i32Const(code)...)
	return entry(name, body)
}

// Trap executes unreachable.
func Trap(name string) Func {
	return entry(name, []byte{opUnreachable})
}

// Initialize is a "_initialize" start function announcing [ptr, ptr+length).
func Initialize(ptr, length int32) Func {
	body := i32Const(ptr)
	body = append(body, i32Const(length)...)
	body = append(body, opCall, copyRecordsIndex)
	return Func{Name: "_initialize", Body: body}
}

// FixedAlloc is an "alloc" export that always returns ptr.
func FixedAlloc(ptr int32) Func {
	return Func{
		Name:    "alloc",
		Params:  []byte{I32},
		Results: []byte{I32},
		Body:    i32Const(ptr),
	}
}
