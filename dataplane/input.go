package dataplane

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Input is a batch of records handed to a transform.
type Input struct {
	// BaseOffset is opaque to every stage and is carried through a chain
	// unchanged.
	BaseOffset    int64
	BaseTimestamp int64
	Records       []Record
	// Params is nil after decoding a batch without params. Nil and empty
	// maps encode the same way.
	Params map[string]string
}

const (
	inputBaseOffset    protowire.Number = 1
	inputRecords       protowire.Number = 2
	inputParams        protowire.Number = 3
	inputBaseTimestamp protowire.Number = 4
)

// NewInput returns a batch holding records with a zero base offset.
func NewInput(records []Record) Input {
	return Input{Records: records}
}

// Size returns the payload size of the records in the batch.
func (in Input) Size() int {
	n := 0
	for _, r := range in.Records {
		n += r.Size()
	}
	return n
}

// Encode implements Encoder.
func (in Input) Encode(version int16) ([]byte, error) {
	if err := CheckVersion(version); err != nil {
		return nil, err
	}
	return appendInput(nil, in, version), nil
}

func appendInput(b []byte, in Input, version int16) []byte {
	if in.BaseOffset != 0 {
		b = appendVarintField(b, inputBaseOffset, uint64(in.BaseOffset))
	}
	b = appendRecords(b, inputRecords, in.Records, version)
	if version >= VersionParams {
		b = appendParams(b, inputParams, in.Params)
	}
	if version >= VersionTimestamps && in.BaseTimestamp != 0 {
		b = appendVarintField(b, inputBaseTimestamp, uint64(in.BaseTimestamp))
	}
	return b
}

// Decode implements Decoder.
func (in *Input) Decode(data []byte, version int16) error {
	if err := CheckVersion(version); err != nil {
		return err
	}
	*in = Input{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case inputBaseOffset:
			v, n, err := consumeVarint(num, typ, data)
			if err != nil {
				return 0, err
			}
			in.BaseOffset = int64(v)
			return n, nil
		case inputRecords:
			return consumeRecord(num, typ, data, version, &in.Records)
		case inputParams:
			if version < VersionParams {
				return 0, nil
			}
			if in.Params == nil {
				in.Params = make(map[string]string)
			}
			return consumeParam(num, typ, data, in.Params)
		case inputBaseTimestamp:
			if version < VersionTimestamps {
				return 0, nil
			}
			v, n, err := consumeVarint(num, typ, data)
			if err != nil {
				return 0, err
			}
			in.BaseTimestamp = int64(v)
			return n, nil
		}
		return 0, nil
	})
}
