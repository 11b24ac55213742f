package dataplane

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Header is a key/value pair attached to a record.
type Header struct {
	Key   string
	Value []byte
}

// Record is a single entry of a batch. A nil Key means the record has no key;
// an empty non-nil Key is a present, empty key. Value and header values keep
// the same distinction on the wire.
type Record struct {
	Offset    int64
	Timestamp int64
	Key       []byte
	Value     []byte
	Headers   []Header
}

// NewRecord returns a keyless record holding value.
func NewRecord(value []byte) Record {
	return Record{Value: value}
}

// Size returns the number of payload bytes of the record.
func (r Record) Size() int {
	n := len(r.Key) + len(r.Value)
	for _, h := range r.Headers {
		n += len(h.Key) + len(h.Value)
	}
	return n
}

const (
	recordOffset    protowire.Number = 1
	recordTimestamp protowire.Number = 2
	recordKey       protowire.Number = 3
	recordValue     protowire.Number = 4
	recordHeaders   protowire.Number = 5
)

func appendRecord(b []byte, r Record, version int16) []byte {
	if r.Offset != 0 {
		b = appendVarintField(b, recordOffset, uint64(r.Offset))
	}
	if r.Timestamp != 0 {
		b = appendVarintField(b, recordTimestamp, uint64(r.Timestamp))
	}
	if r.Key != nil {
		b = appendBytesField(b, recordKey, r.Key)
	}
	if r.Value != nil {
		b = appendBytesField(b, recordValue, r.Value)
	}
	if version >= VersionTimestamps {
		for _, h := range r.Headers {
			var hb []byte
			hb = appendStringField(hb, 1, h.Key)
			if h.Value != nil {
				hb = appendBytesField(hb, 2, h.Value)
			}
			b = appendBytesField(b, recordHeaders, hb)
		}
	}
	return b
}

func appendRecords(b []byte, num protowire.Number, records []Record, version int16) []byte {
	for _, r := range records {
		b = appendBytesField(b, num, appendRecord(nil, r, version))
	}
	return b
}

func decodeRecord(data []byte, version int16) (Record, error) {
	var r Record
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case recordOffset, recordTimestamp:
			v, n, err := consumeVarint(num, typ, data)
			if err != nil {
				return 0, err
			}
			if num == recordOffset {
				r.Offset = int64(v)
			} else {
				r.Timestamp = int64(v)
			}
			return n, nil
		case recordKey:
			v, n, err := consumeBytes(num, typ, data)
			if err != nil {
				return 0, err
			}
			r.Key = append([]byte{}, v...)
			return n, nil
		case recordValue:
			v, n, err := consumeBytes(num, typ, data)
			if err != nil {
				return 0, err
			}
			r.Value = append([]byte{}, v...)
			return n, nil
		case recordHeaders:
			if version < VersionTimestamps {
				return 0, nil
			}
			v, n, err := consumeBytes(num, typ, data)
			if err != nil {
				return 0, err
			}
			h, err := decodeHeader(v)
			if err != nil {
				return 0, err
			}
			r.Headers = append(r.Headers, h)
			return n, nil
		}
		return 0, nil
	})
	return r, err
}

func decodeHeader(data []byte) (Header, error) {
	var h Header
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1, 2:
			v, n, err := consumeBytes(num, typ, data)
			if err != nil {
				return 0, err
			}
			if num == 1 {
				h.Key = string(v)
			} else {
				h.Value = append([]byte{}, v...)
			}
			return n, nil
		}
		return 0, nil
	})
	return h, err
}

func consumeRecord(num protowire.Number, typ protowire.Type, data []byte, version int16, records *[]Record) (int, error) {
	v, n, err := consumeBytes(num, typ, data)
	if err != nil {
		return 0, err
	}
	r, err := decodeRecord(v, version)
	if err != nil {
		return 0, err
	}
	*records = append(*records, r)
	return n, nil
}
