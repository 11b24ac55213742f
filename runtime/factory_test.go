package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otelwasm/smartengine/runtime"
	_ "github.com/otelwasm/smartengine/runtime/wazero"
)

func TestNewRuntime(t *testing.T) {
	t.Run("default type", func(t *testing.T) {
		rt, err := runtime.NewRuntime("", nil)
		require.NoError(t, err)
		require.NoError(t, rt.Close(t.Context()))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := runtime.NewRuntime("unknown", nil)
		assert.ErrorIs(t, err, runtime.ErrRuntimeNotFound)
	})
}

func TestRegister(t *testing.T) {
	assert.Contains(t, runtime.List(), runtime.DefaultType)
	assert.Panics(t, func() {
		runtime.Register(runtime.DefaultType, func(any) (runtime.Runtime, error) { return nil, nil })
	})
}

func TestValueTypeString(t *testing.T) {
	assert.Equal(t, "i32", runtime.ValueTypeI32.String())
	assert.Equal(t, "f64", runtime.ValueTypeF64.String())
}
