package dataplane

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// AggregateInput is the batch handed to an aggregate export together with
// the accumulator carried over from the previous call.
type AggregateInput struct {
	Input       Input
	Accumulator []byte
}

const (
	aggregateBase        protowire.Number = 1
	aggregateAccumulator protowire.Number = 2
)

// Encode implements Encoder.
func (in AggregateInput) Encode(version int16) ([]byte, error) {
	if err := CheckVersion(version); err != nil {
		return nil, err
	}
	b := appendBytesField(nil, aggregateBase, appendInput(nil, in.Input, version))
	if len(in.Accumulator) > 0 {
		b = appendBytesField(b, aggregateAccumulator, in.Accumulator)
	}
	return b, nil
}

// Decode implements Decoder.
func (in *AggregateInput) Decode(data []byte, version int16) error {
	if err := CheckVersion(version); err != nil {
		return err
	}
	*in = AggregateInput{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case aggregateBase:
			v, n, err := consumeBytes(num, typ, data)
			if err != nil {
				return 0, err
			}
			if err := in.Input.Decode(v, version); err != nil {
				return 0, err
			}
			return n, nil
		case aggregateAccumulator:
			v, n, err := consumeBytes(num, typ, data)
			if err != nil {
				return 0, err
			}
			in.Accumulator = v
			return n, nil
		}
		return 0, nil
	})
}
