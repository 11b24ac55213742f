package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/otelwasm/smartengine/internal/wasmtest"
)

const chainYAML = `
modules:
  - path: filter.wasm
  - path: map.wasm
`

func writeChain(t *testing.T, filter wasmtest.Func) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name string, data []byte) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	write("filter.wasm", wasmtest.Module{Funcs: []wasmtest.Func{wasmtest.Alloc(), wasmtest.Return("init", 0), filter}}.Bytes())
	write("map.wasm", wasmtest.Module{Funcs: []wasmtest.Func{wasmtest.Alloc(), wasmtest.PassThrough("map")}}.Bytes())
	write("chain.yaml", []byte(chainYAML))
	return filepath.Join(dir, "chain.yaml")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	config := writeChain(t, wasmtest.PassThrough("filter"))

	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{
			name:  "values",
			args:  []string{"--config", config, "run"},
			stdin: "a\nbb\nccc\n",
			want:  "a\nbb\nccc\n",
		},
		{
			name:  "keyed records",
			args:  []string{"--config", config, "run", "--key-separator", "="},
			stdin: "k1=a\nno key\n",
			want:  "k1=a\nno key\n",
		},
		{
			name:  "empty input",
			args:  []string{"--config", config, "run"},
			stdin: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRunMetrics(t *testing.T) {
	config := writeChain(t, wasmtest.PassThrough("filter"))

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader("ab\ncd\n"))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--log-level", "error", "--config", config, "run", "--metrics"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "ab\ncd\n", stdout.String())
	exposition := stderr.String()
	assert.Contains(t, exposition, "# TYPE smartengine_records_out_total counter")
	assert.Contains(t, exposition, "smartengine_bytes_in_total 4\n")
	assert.Contains(t, exposition, "smartengine_records_out_total 2\n")
	assert.Contains(t, exposition, "smartengine_invocations_total 2\n")
	assert.Contains(t, exposition, "smartengine_errors_total 0\n")
}

func TestRunInputFile(t *testing.T) {
	config := writeChain(t, wasmtest.PassThrough("filter"))
	input := filepath.Join(t.TempDir(), "records.txt")
	require.NoError(t, os.WriteFile(input, []byte("x\ny\n"), 0o600))

	out, err := execute(t, "", "--config", config, "run", "--input", input)
	require.NoError(t, err)
	assert.Equal(t, "x\ny\n", out)
}

func TestRunErrors(t *testing.T) {
	t.Run("guest status", func(t *testing.T) {
		config := writeChain(t, wasmtest.Return("filter", -11))
		_, err := execute(t, "a\n", "--config", config, "run")
		require.Error(t, err)
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "run")
		require.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		config := writeChain(t, wasmtest.PassThrough("filter"))
		cmd := newRootCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--log-level", "loud", "--config", config, "inspect"})
		require.Error(t, cmd.Execute())
	})
}

func TestInspect(t *testing.T) {
	config := writeChain(t, wasmtest.PassThrough("filter"))

	out, err := execute(t, "", "--config", config, "inspect")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"STAGE", "MODULE", "TRANSFORM", "INIT", "VERSION", "EXPORTS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"stage-0", "filter.wasm", "filter", "true", "17", "alloc,filter,init"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"stage-1", "map.wasm", "map", "false", "17", "alloc,map"}, strings.Fields(lines[2]))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{level: "debug", want: zapcore.DebugLevel},
		{level: "info", want: zapcore.InfoLevel},
		{level: "warn", want: zapcore.WarnLevel},
		{level: "error", want: zapcore.ErrorLevel},
		{level: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := newLogger(tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestBuilderCommand(t *testing.T) {
	b := &Builder{
		WorkDir: "/src",
		Package: "./examples/sum",
		GoFlags: []string{"-trimpath"},
	}

	cmd := b.command("/out/sum.wasm")
	assert.Equal(t, []string{"go", "build", "-buildmode=c-shared", "-o", "/out/sum.wasm", "-trimpath", "./examples/sum"}, cmd.Args)
	assert.Equal(t, "/src", cmd.Dir)
	assert.Contains(t, cmd.Env, "GOOS=wasip1")
	assert.Contains(t, cmd.Env, "GOARCH=wasm")
}
