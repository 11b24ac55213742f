package smartmodule

import (
	"bytes"

	"github.com/otelwasm/smartengine/dataplane"
)

type (
	// FilterFunc reports whether a record is kept.
	FilterFunc func(r *Record) (bool, error)
	// MapFunc returns the replacement of a record.
	MapFunc func(r *Record) (Record, error)
	// FilterMapFunc returns the replacement of a record and whether it is kept.
	FilterMapFunc func(r *Record) (Record, bool, error)
	// ArrayMapFunc returns the records a record expands into.
	ArrayMapFunc func(r *Record) ([]Record, error)
	// AggregateFunc folds a record into the accumulator and returns the new one.
	AggregateFunc func(acc []byte, r *Record) ([]byte, error)
)

// stepFunc appends the results for r to out.
type stepFunc func(r *Record, out []Record) ([]Record, error)

// Filter runs fn over every record of the encoded Input in data.
func Filter(data []byte, version int16, fn FilterFunc) ([]byte, int32) {
	if fn == nil {
		return nil, StatusUnknownError
	}
	return run(data, version, dataplane.KindFilter, func(r *Record, out []Record) ([]Record, error) {
		keep, err := fn(r)
		if err != nil || !keep {
			return out, err
		}
		return append(out, *r), nil
	})
}

// Map runs fn over every record of the encoded Input in data.
func Map(data []byte, version int16, fn MapFunc) ([]byte, int32) {
	if fn == nil {
		return nil, StatusUnknownError
	}
	return run(data, version, dataplane.KindMap, func(r *Record, out []Record) ([]Record, error) {
		mapped, err := fn(r)
		if err != nil {
			return out, err
		}
		return append(out, inherit(mapped, r)), nil
	})
}

// FilterMap runs fn over every record of the encoded Input in data.
func FilterMap(data []byte, version int16, fn FilterMapFunc) ([]byte, int32) {
	if fn == nil {
		return nil, StatusUnknownError
	}
	return run(data, version, dataplane.KindFilterMap, func(r *Record, out []Record) ([]Record, error) {
		mapped, keep, err := fn(r)
		if err != nil || !keep {
			return out, err
		}
		return append(out, inherit(mapped, r)), nil
	})
}

// ArrayMap runs fn over every record of the encoded Input in data.
func ArrayMap(data []byte, version int16, fn ArrayMapFunc) ([]byte, int32) {
	if fn == nil {
		return nil, StatusUnknownError
	}
	return run(data, version, dataplane.KindArrayMap, func(r *Record, out []Record) ([]Record, error) {
		expanded, err := fn(r)
		if err != nil {
			return out, err
		}
		for _, e := range expanded {
			out = append(out, inherit(e, r))
		}
		return out, nil
	})
}

// Aggregate folds every record of the encoded AggregateInput in data into
// its accumulator. Each record yields one output record holding the
// accumulator after it.
func Aggregate(data []byte, version int16, fn AggregateFunc) ([]byte, int32) {
	if fn == nil {
		return nil, StatusUnknownError
	}
	var in dataplane.AggregateInput
	if err := in.Decode(data, version); err != nil {
		return nil, decodeStatus(err)
	}
	acc := in.Accumulator
	return process(in.Input, version, dataplane.KindAggregate, func(r *Record, out []Record) ([]Record, error) {
		next, err := fn(acc, r)
		if err != nil {
			return out, err
		}
		acc = next
		return append(out, Record{
			Offset:    r.Offset,
			Timestamp: r.Timestamp,
			Key:       r.Key,
			Value:     bytes.Clone(acc),
		}), nil
	})
}

func run(data []byte, version int16, kind dataplane.Kind, step stepFunc) ([]byte, int32) {
	var in dataplane.Input
	if err := in.Decode(data, version); err != nil {
		return nil, decodeStatus(err)
	}
	return process(in, version, kind, step)
}

// process stops at the first record step fails on and reports it inside the
// output together with the records produced before it.
func process(in dataplane.Input, version int16, kind dataplane.Kind, step stepFunc) ([]byte, int32) {
	out := dataplane.Output{
		BaseOffset: in.BaseOffset,
		Successes:  make([]Record, 0, len(in.Records)),
	}
	for i := range in.Records {
		r := &in.Records[i]
		successes, err := step(r, out.Successes)
		out.Successes = successes
		if err != nil {
			out.Error = &dataplane.RuntimeError{
				Hint:        err.Error(),
				Offset:      r.Offset,
				Kind:        kind,
				RecordKey:   r.Key,
				RecordValue: r.Value,
			}
			break
		}
	}

	b, err := out.Encode(version)
	if err != nil {
		return nil, StatusEncodingOutput
	}
	return b, StatusOK
}

// inherit fills the position of a derived record from its source.
func inherit(r Record, src *Record) Record {
	r.Offset = src.Offset
	if r.Timestamp == 0 {
		r.Timestamp = src.Timestamp
	}
	return r
}
