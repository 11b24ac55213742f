// Package wasmprocessor provides an OpenTelemetry Collector logs processor
// running every batch through a chain of SmartModules.
package wasmprocessor

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/plog"
	"go.opentelemetry.io/collector/processor"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/engine"
)

type smartModuleProcessor struct {
	cfg    *Config
	logger *zap.Logger

	engine  *engine.Engine
	chain   *engine.ChainInstance
	metrics *engine.ChainMetrics

	// offset is the base offset of the next batch. Concurrent batches
	// reserve disjoint ranges from it.
	offset atomic.Int64
}

func newSmartModuleProcessor(set processor.Settings, cfg *Config) *smartModuleProcessor {
	return &smartModuleProcessor{
		cfg:     cfg,
		logger:  set.Logger,
		metrics: &engine.ChainMetrics{},
	}
}

func (p *smartModuleProcessor) start(ctx context.Context, _ component.Host) error {
	b, err := p.cfg.ChainBuilder()
	if err != nil {
		return err
	}

	opts := append(p.cfg.EngineOptions(), engine.WithLogger(p.logger))
	e, err := engine.NewEngine(opts...)
	if err != nil {
		return err
	}

	chain, err := b.Initialize(ctx, e)
	if err != nil {
		return multierr.Append(err, e.Close(ctx))
	}

	p.engine = e
	p.chain = chain
	return nil
}

func (p *smartModuleProcessor) processLogs(ctx context.Context, ld plog.Logs) (plog.Logs, error) {
	rls := ld.ResourceLogs()
	for i := 0; i < rls.Len(); i++ {
		sls := rls.At(i).ScopeLogs()
		for j := 0; j < sls.Len(); j++ {
			if err := p.processLogRecords(ctx, sls.At(j).LogRecords()); err != nil {
				return ld, err
			}
		}
	}
	return ld, nil
}

// processLogRecords replaces records with the chain's output. An output
// record whose offset points at an input record starts as a copy of it.
func (p *smartModuleProcessor) processLogRecords(ctx context.Context, records plog.LogRecordSlice) error {
	if records.Len() == 0 {
		return nil
	}

	n := int64(records.Len())
	input := dataplane.Input{
		BaseOffset: p.offset.Add(n) - n,
		Records:    make([]dataplane.Record, n),
	}
	for i := 0; i < records.Len(); i++ {
		input.Records[i] = p.toRecord(int64(i), records.At(i))
	}

	out, err := p.chain.Process(ctx, input, p.metrics, p.engine)
	if err != nil {
		return err
	}
	if out.Error != nil {
		return fmt.Errorf("smartmodule: %w", out.Error)
	}

	result := plog.NewLogRecordSlice()
	result.EnsureCapacity(len(out.Successes))
	for _, r := range out.Successes {
		lr := result.AppendEmpty()
		if r.Offset >= 0 && r.Offset < int64(records.Len()) {
			records.At(int(r.Offset)).CopyTo(lr)
			if lr.Body().AsString() == string(r.Value) {
				continue
			}
		}
		lr.Body().SetStr(string(r.Value))
	}
	result.CopyTo(records)
	return nil
}

func (p *smartModuleProcessor) toRecord(offset int64, lr plog.LogRecord) dataplane.Record {
	r := dataplane.Record{
		Offset:    offset,
		Timestamp: lr.Timestamp().AsTime().UnixMilli(),
		Value:     []byte(lr.Body().AsString()),
	}
	if lr.Timestamp() == 0 {
		r.Timestamp = 0
	}
	if p.cfg.KeyAttribute != "" {
		if v, ok := lr.Attributes().Get(p.cfg.KeyAttribute); ok && v.Type() != pcommon.ValueTypeEmpty {
			r.Key = []byte(v.AsString())
		}
	}
	return r
}

func (p *smartModuleProcessor) shutdown(ctx context.Context) error {
	var errs error
	if p.chain != nil {
		errs = multierr.Append(errs, p.chain.Close(ctx))
	}
	if p.engine != nil {
		errs = multierr.Append(errs, p.engine.Close(ctx))
	}
	return errs
}
