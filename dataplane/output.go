package dataplane

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Output is the result of a transform. A non-nil Error means Successes is a
// partial result.
type Output struct {
	// BaseOffset shares its field with Input.BaseOffset.
	BaseOffset int64
	Successes  []Record
	Error      error
}

// Kind names the transform that reported a RuntimeError.
type Kind uint32

const (
	KindFilter Kind = iota
	KindMap
	KindArrayMap
	KindAggregate
	KindFilterMap
)

func (k Kind) String() string {
	switch k {
	case KindFilter:
		return "filter"
	case KindMap:
		return "map"
	case KindArrayMap:
		return "array_map"
	case KindAggregate:
		return "aggregate"
	case KindFilterMap:
		return "filter_map"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// RuntimeError is an error a guest reports about a specific record while
// still returning the records it processed before it.
type RuntimeError struct {
	Hint        string
	Offset      int64
	Kind        Kind
	RecordKey   []byte
	RecordValue []byte
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s failed at offset %d: %s", e.Kind, e.Offset, e.Hint)
}

const (
	outputBaseOffset protowire.Number = 1
	outputSuccesses  protowire.Number = 2
	outputError      protowire.Number = 15

	runtimeErrorHint   protowire.Number = 1
	runtimeErrorOffset protowire.Number = 2
	runtimeErrorKind   protowire.Number = 3
	runtimeErrorKey    protowire.Number = 4
	runtimeErrorValue  protowire.Number = 5
)

// Encode implements Encoder. An Error that is not a *RuntimeError is encoded
// as a RuntimeError carrying its message.
func (out Output) Encode(version int16) ([]byte, error) {
	if err := CheckVersion(version); err != nil {
		return nil, err
	}
	var b []byte
	if out.BaseOffset != 0 {
		b = appendVarintField(b, outputBaseOffset, uint64(out.BaseOffset))
	}
	b = appendRecords(b, outputSuccesses, out.Successes, version)
	if out.Error != nil {
		var rerr *RuntimeError
		if !errors.As(out.Error, &rerr) {
			rerr = &RuntimeError{Hint: out.Error.Error()}
		}
		b = appendBytesField(b, outputError, appendRuntimeError(nil, rerr))
	}
	return b, nil
}

func appendRuntimeError(b []byte, e *RuntimeError) []byte {
	if e.Hint != "" {
		b = appendStringField(b, runtimeErrorHint, e.Hint)
	}
	if e.Offset != 0 {
		b = appendVarintField(b, runtimeErrorOffset, uint64(e.Offset))
	}
	if e.Kind != 0 {
		b = appendVarintField(b, runtimeErrorKind, uint64(e.Kind))
	}
	if e.RecordKey != nil {
		b = appendBytesField(b, runtimeErrorKey, e.RecordKey)
	}
	if len(e.RecordValue) > 0 {
		b = appendBytesField(b, runtimeErrorValue, e.RecordValue)
	}
	return b
}

// Decode implements Decoder. A decoded error is always a *RuntimeError.
func (out *Output) Decode(data []byte, version int16) error {
	if err := CheckVersion(version); err != nil {
		return err
	}
	*out = Output{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case outputBaseOffset:
			v, n, err := consumeVarint(num, typ, data)
			if err != nil {
				return 0, err
			}
			out.BaseOffset = int64(v)
			return n, nil
		case outputSuccesses:
			return consumeRecord(num, typ, data, version, &out.Successes)
		case outputError:
			v, n, err := consumeBytes(num, typ, data)
			if err != nil {
				return 0, err
			}
			rerr, err := decodeRuntimeError(v)
			if err != nil {
				return 0, err
			}
			out.Error = rerr
			return n, nil
		}
		return 0, nil
	})
}

func decodeRuntimeError(data []byte) (*RuntimeError, error) {
	e := &RuntimeError{}
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case runtimeErrorOffset, runtimeErrorKind:
			v, n, err := consumeVarint(num, typ, data)
			if err != nil {
				return 0, err
			}
			if num == runtimeErrorOffset {
				e.Offset = int64(v)
			} else {
				e.Kind = Kind(v)
			}
			return n, nil
		case runtimeErrorHint, runtimeErrorKey, runtimeErrorValue:
			v, n, err := consumeBytes(num, typ, data)
			if err != nil {
				return 0, err
			}
			switch num {
			case runtimeErrorHint:
				e.Hint = string(v)
			case runtimeErrorKey:
				e.RecordKey = append([]byte{}, v...)
			default:
				e.RecordValue = v
			}
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
