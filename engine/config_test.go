package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otelwasm/smartengine/dataplane"
)

func TestModuleConfigBuilder(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := NewModuleConfigBuilder().Build()
		require.NoError(t, err)
		assert.Equal(t, dataplane.DefaultVersion, cfg.Version())
		assert.Equal(t, InitialDataNone{}, cfg.InitialData())
		assert.Empty(t, cfg.Params())
		assert.Equal(t, DefaultModuleConfig().Version(), cfg.Version())
	})

	t.Run("later params overwrite", func(t *testing.T) {
		cfg, err := NewModuleConfigBuilder().
			Param("a", "1").
			Params(map[string]string{"b": "2", "a": "3"}).
			Param("b", "4").
			Build()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "3", "b": "4"}, cfg.Params())
	})

	t.Run("built config is immutable", func(t *testing.T) {
		b := NewModuleConfigBuilder().Param("a", "1")
		cfg, err := b.Build()
		require.NoError(t, err)

		b.Param("a", "2").Version(20)
		cfg.Params()["a"] = "3"
		assert.Equal(t, map[string]string{"a": "1"}, cfg.Params())
		assert.Equal(t, dataplane.DefaultVersion, cfg.Version())
	})

	t.Run("version override", func(t *testing.T) {
		cfg, err := NewModuleConfigBuilder().Version(dataplane.MinVersion).Build()
		require.NoError(t, err)
		assert.Equal(t, dataplane.MinVersion, cfg.Version())
	})

	t.Run("rejects unsupported version", func(t *testing.T) {
		for _, v := range []int16{0, dataplane.MinVersion - 1, dataplane.MaxVersion + 1} {
			_, err := NewModuleConfigBuilder().Version(v).Build()
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorIs(t, err, dataplane.ErrUnsupportedVersion)
		}
	})

	t.Run("aggregate seed", func(t *testing.T) {
		cfg, err := NewModuleConfigBuilder().InitialData(InitialDataAggregate{Accumulator: []byte("x")}).Build()
		require.NoError(t, err)
		assert.Equal(t, InitialDataAggregate{Accumulator: []byte("x")}, cfg.InitialData())
	})
}
