package main

import (
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Builder compiles a Go SmartModule package into a wasip1 reactor module.
type Builder struct {
	WorkDir string
	Package string
	Output  string
	GoFlags []string
}

func newBuildCommand(opts *options) *cobra.Command {
	b := &Builder{}
	cmd := &cobra.Command{
		Use:   "build {package}",
		Short: "Build a SmartModule written with guest/smartmodule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b.Package = args[0]
			if b.Output == "" {
				b.Output = path.Base(b.Package) + ".wasm"
			}
			if err := b.Build(); err != nil {
				opts.logger.Error("Failed to build package", zap.String("package", b.Package), zap.Error(err))
				return err
			}
			opts.logger.Info("Build completed successfully", zap.String("output", b.Output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&b.Output, "output", "o", "", "output file (default: {package}.wasm)")
	cmd.Flags().StringVar(&b.WorkDir, "workdir", "", "directory to build from (default: current directory)")
	cmd.Flags().StringSliceVar(&b.GoFlags, "go-flag", nil, "extra flag passed to go build (repeatable)")
	return cmd
}

func (b *Builder) Build() error {
	output, err := filepath.Abs(b.Output)
	if err != nil {
		return fmt.Errorf("failed to get absolute path of output file %s: %w", b.Output, err)
	}

	if err := b.command(output).Run(); err != nil {
		return fmt.Errorf("failed to build package %s: %w", b.Package, err)
	}
	return nil
}

func (b *Builder) command(output string) *exec.Cmd {
	args := append([]string{"build", "-buildmode=c-shared", "-o", output}, b.GoFlags...)
	args = append(args, b.Package)

	cmd := exec.Command("go", args...)
	cmd.Dir = b.WorkDir
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
