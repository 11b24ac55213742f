package dataplane

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// InitInput carries a module's configured params to its init export.
type InitInput struct {
	Params map[string]string
}

// InitOutput is what a guest may announce when init fails.
type InitOutput struct {
	Error string
}

const (
	initInputParams protowire.Number = 3
	initOutputError protowire.Number = 1
)

// Encode implements Encoder.
func (in InitInput) Encode(version int16) ([]byte, error) {
	if err := CheckVersion(version); err != nil {
		return nil, err
	}
	return appendParams(nil, initInputParams, in.Params), nil
}

// Decode implements Decoder.
func (in *InitInput) Decode(data []byte, version int16) error {
	if err := CheckVersion(version); err != nil {
		return err
	}
	*in = InitInput{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		if num != initInputParams {
			return 0, nil
		}
		if in.Params == nil {
			in.Params = make(map[string]string)
		}
		return consumeParam(num, typ, data, in.Params)
	})
}

// Encode implements Encoder.
func (out InitOutput) Encode(version int16) ([]byte, error) {
	if err := CheckVersion(version); err != nil {
		return nil, err
	}
	if out.Error == "" {
		return nil, nil
	}
	return appendStringField(nil, initOutputError, out.Error), nil
}

// Decode implements Decoder.
func (out *InitOutput) Decode(data []byte, version int16) error {
	if err := CheckVersion(version); err != nil {
		return err
	}
	*out = InitOutput{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		if num != initOutputError {
			return 0, nil
		}
		v, n, err := consumeBytes(num, typ, data)
		if err != nil {
			return 0, err
		}
		out.Error = string(v)
		return n, nil
	})
}
