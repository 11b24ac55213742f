package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/internal/wasmtest"
)

// outputOffset is where guests keep pre-encoded outputs, below the heap.
const outputOffset = 256

func newTestEngine(t *testing.T) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	e, err := NewEngine(WithLogger(zap.New(core)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e, logs
}

func initChain(t *testing.T, e *Engine, modules ...[]byte) *ChainInstance {
	t.Helper()
	b := &ChainBuilder{}
	for _, m := range modules {
		b.AddSmartModule(DefaultModuleConfig(), m)
	}
	chain, err := b.Initialize(t.Context(), e)
	require.NoError(t, err)
	t.Cleanup(func() { _ = chain.Close(context.Background()) })
	return chain
}

func guest(funcs ...wasmtest.Func) []byte {
	return wasmtest.Module{Funcs: append([]wasmtest.Func{wasmtest.Alloc()}, funcs...)}.Bytes()
}

// announcingGuest exports name announcing value encoded at version and
// returning code.
func announcingGuest(t *testing.T, name string, value dataplane.Encoder, version int16, code int32) []byte {
	t.Helper()
	data, err := value.Encode(version)
	require.NoError(t, err)
	return wasmtest.Module{
		Funcs: []wasmtest.Func{
			wasmtest.Alloc(),
			wasmtest.Announce(name, outputOffset, int32(len(data)), code),
		},
		Data: []wasmtest.Data{{Offset: outputOffset, Bytes: data}},
	}.Bytes()
}

func records(values ...string) []dataplane.Record {
	out := make([]dataplane.Record, len(values))
	for i, v := range values {
		out[i] = dataplane.NewRecord([]byte(v))
	}
	return out
}

func values(recs []dataplane.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = string(r.Value)
	}
	return out
}

// calls returns how many times the counted exports of stage i ran.
func calls(t *testing.T, chain *ChainInstance, i int) uint64 {
	t.Helper()
	v, ok := chain.stages[i].ctx.global("calls")
	require.True(t, ok)
	return v
}
