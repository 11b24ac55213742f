package chainconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/engine"
	"github.com/otelwasm/smartengine/internal/wasmtest"
	"github.com/otelwasm/smartengine/runtime"
	"github.com/otelwasm/smartengine/runtime/wazero"
)

const chainYAML = `
runtime:
  mode: compiled
  memory_limit_pages: 32
modules:
  - path: filter.wasm
    params:
      key: value
  - path: map.wasm
    version: 21
`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writeChain(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	alloc := wasmtest.Alloc()
	writeFile(t, dir, "filter.wasm", wasmtest.Module{Funcs: []wasmtest.Func{alloc, wasmtest.Return("init", 0), wasmtest.PassThrough("filter")}}.Bytes())
	writeFile(t, dir, "map.wasm", wasmtest.Module{Funcs: []wasmtest.Func{alloc, wasmtest.PassThrough("map")}}.Bytes())
	return writeFile(t, dir, "chain.yaml", []byte(yaml))
}

func TestLoad(t *testing.T) {
	path := writeChain(t, chainYAML)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, wazero.ModeCompiled, cfg.Runtime.Mode)
	assert.Equal(t, uint32(32), cfg.Runtime.MemoryLimitPages)
	require.Len(t, cfg.Modules, 2)
	assert.Equal(t, ModuleConfig{Path: "filter.wasm", Params: map[string]string{"key": "value"}}, cfg.Modules[0])
	assert.Equal(t, int16(21), cfg.Modules[1].Version)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "map.wasm"), cfg.ModulePath(1))
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeChain(t, chainYAML)
	t.Setenv("SMARTENGINE_RUNTIME__MODE", "interpreter")
	t.Setenv("SMARTENGINE_RUNTIME__MEMORY_LIMIT_PAGES", "8")
	t.Setenv("SMARTENGINE_RUNTIME__WASI", "true")
	t.Setenv("SMARTENGINE_RUNTIME__ENV", "A=1,B=2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, wazero.ModeInterpreter, cfg.Runtime.Mode)
	assert.Equal(t, uint32(8), cfg.Runtime.MemoryLimitPages)
	assert.True(t, cfg.Runtime.WASI)
	assert.Equal(t, []string{"A=1", "B=2"}, cfg.Runtime.Env)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{name: "no modules", yaml: "runtime:\n  mode: interpreter\n", want: ErrNoModules},
		{name: "missing path", yaml: "modules:\n  - params:\n      a: b\n", want: ErrPathMissing},
		{name: "bad version", yaml: "modules:\n  - path: a.wasm\n    version: 99\n", want: dataplane.ErrUnsupportedVersion},
		{name: "bad mode", yaml: "runtime:\n  mode: jit\nmodules:\n  - path: a.wasm\n", want: runtime.ErrInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeChain(t, tt.yaml))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestChainBuilder(t *testing.T) {
	cfg, err := Load(writeChain(t, chainYAML))
	require.NoError(t, err)

	b, err := cfg.ChainBuilder()
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())

	e, err := engine.NewEngine(cfg.EngineOptions()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	chain, err := b.Initialize(t.Context(), e)
	require.NoError(t, err)
	defer chain.Close(t.Context())

	assert.Equal(t, []engine.StageInfo{
		{Name: "stage-0", Transform: "filter", HasInit: true, Version: dataplane.DefaultVersion, Exports: []string{"alloc", "filter", "init"}},
		{Name: "stage-1", Transform: "map", Version: 21, Exports: []string{"alloc", "map"}},
	}, chain.Stages())

	out, err := chain.Process(t.Context(), dataplane.NewInput([]dataplane.Record{dataplane.NewRecord([]byte("hello world"))}), nil, e)
	require.NoError(t, err)
	require.NoError(t, out.Error)
	require.Len(t, out.Successes, 1)
	assert.Equal(t, "hello world", string(out.Successes[0].Value))
}

func TestChainBuilderMissingModule(t *testing.T) {
	cfg := &Config{Modules: []ModuleConfig{{Path: filepath.Join(t.TempDir(), "missing.wasm")}}}
	cfg.Default()
	require.NoError(t, cfg.Validate())
	_, err := cfg.ChainBuilder()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestModuleConfigAccumulator(t *testing.T) {
	mc, err := ModuleConfig{Path: "a.wasm", Accumulator: "0"}.moduleConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.InitialDataAggregate{Accumulator: []byte("0")}, mc.InitialData())
}
