package engine

import "sync/atomic"

// ChainMetrics counts the traffic of one or more chains. It is safe for
// concurrent use.
type ChainMetrics struct {
	bytesIn     atomic.Uint64
	recordsOut  atomic.Uint64
	invocations atomic.Uint64
	errors      atomic.Uint64
}

// MetricsSnapshot is a point in time copy of ChainMetrics.
type MetricsSnapshot struct {
	BytesIn     uint64
	RecordsOut  uint64
	Invocations uint64
	Errors      uint64
}

func (m *ChainMetrics) AddBytesIn(n uint64)     { m.bytesIn.Add(n) }
func (m *ChainMetrics) AddRecordsOut(n uint64)  { m.recordsOut.Add(n) }
func (m *ChainMetrics) AddInvocations(n uint64) { m.invocations.Add(n) }
func (m *ChainMetrics) AddErrors(n uint64)      { m.errors.Add(n) }

func (m *ChainMetrics) BytesIn() uint64     { return m.bytesIn.Load() }
func (m *ChainMetrics) RecordsOut() uint64  { return m.recordsOut.Load() }
func (m *ChainMetrics) Invocations() uint64 { return m.invocations.Load() }
func (m *ChainMetrics) Errors() uint64      { return m.errors.Load() }

// Snapshot returns the current values.
func (m *ChainMetrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		BytesIn:     m.BytesIn(),
		RecordsOut:  m.RecordsOut(),
		Invocations: m.Invocations(),
		Errors:      m.Errors(),
	}
}
