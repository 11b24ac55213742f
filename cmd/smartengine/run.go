package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/engine"
	"github.com/otelwasm/smartengine/metrics"
)

type runOptions struct {
	*options
	input         string
	keySeparator  string
	baseOffset    int64
	baseTimestamp int64
	printMetrics  bool
}

func newRunCommand(opts *options) *cobra.Command {
	ro := &runOptions{options: opts}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process newline separated records through the chain",
		Long: "Reads one record per line from --input (or stdin), processes them as a single\n" +
			"batch and writes the resulting records to stdout, one per line.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if ro.input != "" && ro.input != "-" {
				f, err := os.Open(ro.input)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return ro.run(cmd.Context(), in, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&ro.input, "input", "i", "", "file to read records from (default stdin)")
	flags.StringVar(&ro.keySeparator, "key-separator", "", "split each line into key and value at the first occurrence")
	flags.Int64Var(&ro.baseOffset, "base-offset", 0, "offset of the first record")
	flags.Int64Var(&ro.baseTimestamp, "base-timestamp", 0, "base timestamp of the batch")
	flags.BoolVar(&ro.printMetrics, "metrics", false, "write the chain counters to stderr in Prometheus text format")
	return cmd
}

func (ro *runOptions) run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	input, err := ro.readInput(in)
	if err != nil {
		return err
	}

	lc, err := loadChain(ctx, ro.configPath, ro.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := lc.Close(context.Background()); err != nil {
			ro.logger.Warn("closing chain", zap.Error(err))
		}
	}()

	var counters engine.ChainMetrics
	output, err := lc.chain.Process(ctx, input, &counters, lc.engine)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	for _, r := range output.Successes {
		ro.writeRecord(w, r)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	snapshot := counters.Snapshot()
	ro.logger.Info("batch processed",
		zap.Int("records_in", len(input.Records)),
		zap.Int("records_out", len(output.Successes)),
		zap.Uint64("bytes_in", snapshot.BytesIn),
		zap.Uint64("invocations", snapshot.Invocations),
		zap.Uint64("errors", snapshot.Errors),
	)
	if ro.printMetrics {
		if err := writeMetrics(errOut, &counters); err != nil {
			return err
		}
	}
	if output.Error != nil {
		return fmt.Errorf("chain reported an error after %d records: %w", len(output.Successes), output.Error)
	}
	return nil
}

func (ro *runOptions) readInput(in io.Reader) (dataplane.Input, error) {
	input := dataplane.Input{
		BaseOffset:    ro.baseOffset,
		BaseTimestamp: ro.baseTimestamp,
	}
	scanner := bufio.NewScanner(in)
	for offset := int64(0); scanner.Scan(); offset++ {
		line := bytes.Clone(scanner.Bytes())
		r := dataplane.Record{Offset: offset, Value: line}
		if ro.keySeparator != "" {
			if key, value, ok := bytes.Cut(line, []byte(ro.keySeparator)); ok {
				r.Key, r.Value = key, value
			}
		}
		input.Records = append(input.Records, r)
	}
	if err := scanner.Err(); err != nil {
		return dataplane.Input{}, fmt.Errorf("reading records: %w", err)
	}
	return input, nil
}

func (ro *runOptions) writeRecord(w *bufio.Writer, r dataplane.Record) {
	if ro.keySeparator != "" && r.Key != nil {
		_, _ = w.Write(r.Key)
		_, _ = w.WriteString(ro.keySeparator)
	}
	_, _ = w.Write(r.Value)
	_ = w.WriteByte('\n')
}

// writeMetrics writes the counters of m in the Prometheus text exposition
// format.
func writeMetrics(w io.Writer, m *engine.ChainMetrics) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector("smartengine", nil, m)); err != nil {
		return err
	}
	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
