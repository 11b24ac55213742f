package engine

import (
	"testing"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/internal/wasmtest"
)

func FuzzProcessPassThrough(f *testing.F) {
	f.Add([]byte("hello world"), []byte("key"), int64(0), uint8(1))
	f.Add([]byte(""), []byte(nil), int64(-1), uint8(0))
	f.Add([]byte{0xff, 0x00}, []byte{}, int64(1<<40), uint8(7))

	e, err := NewEngine()
	if err != nil {
		f.Fatalf("NewEngine: %v", err)
	}
	b := NewChainBuilder(DefaultModuleConfig(), guest(wasmtest.PassThrough("filter")))
	b.AddSmartModule(DefaultModuleConfig(), guest(wasmtest.PassThrough("map")))

	f.Fuzz(func(t *testing.T, value, key []byte, baseOffset int64, countSeed uint8) {
		if len(value) > 256 {
			value = value[:256]
		}
		chain, err := b.Initialize(t.Context(), e)
		if err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		defer chain.Close(t.Context())

		count := int(countSeed % 8)
		input := dataplane.Input{BaseOffset: baseOffset}
		for i := range count {
			input.Records = append(input.Records, dataplane.Record{Offset: int64(i), Key: key, Value: value})
		}

		out, err := chain.Process(t.Context(), input, nil, e)
		if err != nil {
			t.Fatalf("Process returned unexpected error: %v", err)
		}
		if out.Error != nil {
			t.Fatalf("unexpected output error: %v", out.Error)
		}
		if out.BaseOffset != baseOffset {
			t.Fatalf("expected base offset %d, got %d", baseOffset, out.BaseOffset)
		}
		if len(out.Successes) != count {
			t.Fatalf("expected %d records, got %d", count, len(out.Successes))
		}
		for i, r := range out.Successes {
			if string(r.Value) != string(value) || string(r.Key) != string(key) || (key == nil) != (r.Key == nil) {
				t.Fatalf("record %d changed: %+v", i, r)
			}
		}
	})
}
