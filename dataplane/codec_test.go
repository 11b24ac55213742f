package dataplane

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func allVersions() []int16 {
	versions := make([]int16, 0, MaxVersion-MinVersion+1)
	for v := MinVersion; v <= MaxVersion; v++ {
		versions = append(versions, v)
	}
	return versions
}

// sampleInput returns an input whose fields are all representable at version.
func sampleInput(version int16) Input {
	in := Input{
		BaseOffset: 42,
		Records: []Record{
			{Offset: 0, Value: []byte("hello world")},
			{Offset: 1, Timestamp: 1700000000000, Key: []byte("k1"), Value: []byte("v1")},
			{Offset: 2, Key: []byte{}, Value: []byte("empty key")},
		},
	}
	if version >= VersionParams {
		in.Params = map[string]string{"regex": "^h", "limit": "10"}
	}
	if version >= VersionTimestamps {
		in.BaseTimestamp = 1700000000000
		in.Records[1].Headers = []Header{{Key: "trace", Value: []byte("abc")}}
	}
	return in
}

func TestInputRoundTrip(t *testing.T) {
	for _, version := range allVersions() {
		t.Run(fmt.Sprintf("v%d", version), func(t *testing.T) {
			want := sampleInput(version)
			data, err := want.Encode(version)
			require.NoError(t, err)

			var got Input
			require.NoError(t, got.Decode(data, version))
			assert.Equal(t, want, got)
		})
	}
}

func TestEmptyValuesKeepPresence(t *testing.T) {
	want := Input{
		Records: []Record{
			{Value: []byte{}},
			{Offset: 1, Value: nil},
			{Offset: 2, Value: []byte("v"), Headers: []Header{{Key: "empty", Value: []byte{}}, {Key: "absent"}}},
		},
	}
	data, err := Input{Records: want.Records, Params: map[string]string{}}.Encode(MaxVersion)
	require.NoError(t, err)

	var got Input
	require.NoError(t, got.Decode(data, MaxVersion))
	assert.Equal(t, want, got)
	require.NotNil(t, got.Records[0].Value)
	assert.Nil(t, got.Records[1].Value)
	assert.NotNil(t, got.Records[2].Headers[0].Value)
	assert.Nil(t, got.Records[2].Headers[1].Value)
	assert.Nil(t, got.Params)
}

func TestOutputRoundTrip(t *testing.T) {
	for _, version := range allVersions() {
		want := Output{
			BaseOffset: 9,
			Successes:  []Record{{Offset: 3, Value: []byte("a")}, {Offset: 4, Key: []byte("k"), Value: []byte("b")}},
			Error: &RuntimeError{
				Hint:        "invalid utf-8",
				Offset:      5,
				Kind:        KindMap,
				RecordKey:   []byte("bad"),
				RecordValue: []byte{0xff},
			},
		}
		data, err := want.Encode(version)
		require.NoError(t, err)

		var got Output
		require.NoError(t, got.Decode(data, version))
		assert.Equal(t, want, got, "version %d", version)
	}
}

func TestInitRoundTrip(t *testing.T) {
	for _, version := range allVersions() {
		in := InitInput{Params: map[string]string{"key": "value"}}
		data, err := in.Encode(version)
		require.NoError(t, err)
		var gotIn InitInput
		require.NoError(t, gotIn.Decode(data, version))
		assert.Equal(t, in, gotIn)

		out := InitOutput{Error: "missing param"}
		data, err = out.Encode(version)
		require.NoError(t, err)
		var gotOut InitOutput
		require.NoError(t, gotOut.Decode(data, version))
		assert.Equal(t, out, gotOut)
	}
}

func TestAggregateInputRoundTrip(t *testing.T) {
	for _, version := range allVersions() {
		want := AggregateInput{Input: sampleInput(version), Accumulator: []byte("10")}
		data, err := want.Encode(version)
		require.NoError(t, err)

		var got AggregateInput
		require.NoError(t, got.Decode(data, version))
		assert.Equal(t, want, got, "version %d", version)
	}
}

func TestVersionGates(t *testing.T) {
	in := Input{
		BaseOffset:    7,
		BaseTimestamp: 99,
		Records:       []Record{{Value: []byte("x"), Headers: []Header{{Key: "h", Value: []byte("v")}}}},
		Params:        map[string]string{"p": "1"},
	}

	tests := []struct {
		name    string
		version int16
		want    Input
	}{
		{
			name:    "before params",
			version: 15,
			want:    Input{BaseOffset: 7, Records: []Record{{Value: []byte("x")}}},
		},
		{
			name:    "params",
			version: VersionParams,
			want:    Input{BaseOffset: 7, Records: []Record{{Value: []byte("x")}}, Params: map[string]string{"p": "1"}},
		},
		{
			name:    "timestamps",
			version: VersionTimestamps,
			want:    in,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := in.Encode(tt.version)
			require.NoError(t, err)
			var got Input
			require.NoError(t, got.Decode(data, tt.version))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeIgnoresGatedFields(t *testing.T) {
	in := Input{BaseTimestamp: 99, Records: []Record{{Value: []byte("x")}}, Params: map[string]string{"p": "1"}}
	data, err := in.Encode(MaxVersion)
	require.NoError(t, err)

	var got Input
	require.NoError(t, got.Decode(data, MinVersion))
	assert.Equal(t, Input{Records: []Record{{Value: []byte("x")}}}, got)
}

func TestPassThroughInputDecodesAsOutput(t *testing.T) {
	in := sampleInput(DefaultVersion)
	data, err := in.Encode(DefaultVersion)
	require.NoError(t, err)

	var out Output
	require.NoError(t, out.Decode(data, DefaultVersion))
	assert.Equal(t, in.BaseOffset, out.BaseOffset)
	assert.Equal(t, in.Records, out.Successes)
	assert.NoError(t, out.Error)
}

func TestUnsupportedVersion(t *testing.T) {
	for _, version := range []int16{0, MinVersion - 1, MaxVersion + 1} {
		_, err := Input{}.Encode(version)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)

		var out Output
		assert.ErrorIs(t, out.Decode(nil, version), ErrUnsupportedVersion)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "truncated tag", data: []byte{0x80}},
		{name: "truncated bytes", data: protowire.AppendTag(nil, outputSuccesses, protowire.BytesType)},
		{name: "wrong wire type", data: appendVarintField(nil, outputSuccesses, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out Output
			assert.ErrorIs(t, out.Decode(tt.data, DefaultVersion), ErrMalformed)
		})
	}
}

func TestOutputEncodePlainError(t *testing.T) {
	data, err := Output{Error: assert.AnError}.Encode(DefaultVersion)
	require.NoError(t, err)

	var out Output
	require.NoError(t, out.Decode(data, DefaultVersion))
	var rerr *RuntimeError
	require.ErrorAs(t, out.Error, &rerr)
	assert.Equal(t, assert.AnError.Error(), rerr.Hint)
}

func TestSize(t *testing.T) {
	in := Input{Records: []Record{
		{Key: []byte("ab"), Value: []byte("cde")},
		{Value: []byte("f"), Headers: []Header{{Key: "g", Value: []byte("hi")}}},
	}}
	assert.Equal(t, 9, in.Size())
}
