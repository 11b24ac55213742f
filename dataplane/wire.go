package dataplane

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// appendParams writes params as map entries sorted by key, so encoding is
// deterministic.
func appendParams(b []byte, num protowire.Number, params map[string]string) []byte {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = appendStringField(entry, 1, k)
		entry = appendStringField(entry, 2, params[k])
		b = appendBytesField(b, num, entry)
	}
	return b
}

// fieldFunc handles one field. It returns the number of bytes consumed, or
// zero to have the field skipped.
type fieldFunc func(num protowire.Number, typ protowire.Type, data []byte) (int, error)

func consumeFields(data []byte, fn fieldFunc) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		m, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
		}
		data = data[m:]
	}
	return nil
}

func consumeVarint(num protowire.Number, typ protowire.Type, data []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("%w: field %d: want varint, got wire type %d", ErrMalformed, num, typ)
	}
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeBytes(num protowire.Number, typ protowire.Type, data []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("%w: field %d: want bytes, got wire type %d", ErrMalformed, num, typ)
	}
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeParam(num protowire.Number, typ protowire.Type, data []byte, params map[string]string) (int, error) {
	entry, n, err := consumeBytes(num, typ, data)
	if err != nil {
		return 0, err
	}
	var key, value string
	err = consumeFields(entry, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1, 2:
			v, n, err := consumeBytes(num, typ, data)
			if err != nil {
				return 0, err
			}
			if num == 1 {
				key = string(v)
			} else {
				value = string(v)
			}
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return 0, err
	}
	params[key] = value
	return n, nil
}
