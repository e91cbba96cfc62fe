package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/regrest/internal/ir"
)

type widget struct {
	Name string
	Size int
}

func TestEncodePrefersTextPath(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"int", 42},
		{"string", "hello"},
		{"float", 1.5},
		{"slice", []any{1, "a"}},
		{"map", map[string]any{"k": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Encode(tt.input, nil)
			require.NoError(t, err)
			assert.Equal(t, KindText, ev.Kind)
		})
	}
}

func TestEncodeFallsBackToBinary(t *testing.T) {
	ev, err := Encode(widget{Name: "bolt", Size: 3}, NewResolutionContext())
	require.NoError(t, err)
	assert.Equal(t, KindBinary, ev.Kind)
	assert.NotEmpty(t, ev.Binary)
}

func TestTextRoundTrip(t *testing.T) {
	input := map[string]any{
		"count": int64(3),
		"ratio": 0.5,
		"tags":  []any{"a", "b"},
	}

	ev, err := Encode(input, nil)
	require.NoError(t, err)
	require.Equal(t, KindText, ev.Kind)

	out, err := Decode(ev, nil)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestTextRoundTripThroughJSON(t *testing.T) {
	input := map[string]any{
		"count": int64(3),
		"mean":  3.0,
		"ratio": 0.5,
	}

	ev, err := Encode(input, nil)
	require.NoError(t, err)
	require.Equal(t, KindText, ev.Kind)

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var back EncodedValue
	require.NoError(t, json.Unmarshal(data, &back))

	// Whole-valued floats keep their type through the stored form; "mean"
	// must come back as float64, not int64.
	out, err := Decode(back, nil)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestBinaryRoundTrip(t *testing.T) {
	rc := NewResolutionContext()
	rc.Register(widget{})

	in := widget{Name: "gear", Size: 7}
	ev, err := Encode(in, rc)
	require.NoError(t, err)
	require.Equal(t, KindBinary, ev.Kind)

	out, err := Decode(ev, rc)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestBinaryRoundTripThroughJSON(t *testing.T) {
	rc := NewResolutionContext()
	rc.Register(widget{})

	in := widget{Name: "axle", Size: 2}
	ev, err := Encode(in, rc)
	require.NoError(t, err)

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var back EncodedValue
	require.NoError(t, json.Unmarshal(data, &back))

	out, err := Decode(back, rc)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeChecksumMismatch(t *testing.T) {
	rc := NewResolutionContext()
	rc.Register(widget{})

	ev, err := Encode(widget{Name: "cam"}, rc)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ev.Binary)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	ev.Binary = base64.StdEncoding.EncodeToString(raw)

	_, err = Decode(ev, rc)
	require.Error(t, err)
	assert.True(t, IsCorruptPayload(err))
}

func TestDecodeCorruptFrames(t *testing.T) {
	tests := []struct {
		name   string
		binary string
	}{
		{"invalid base64", "!!not base64!!"},
		{"short frame", base64.StdEncoding.EncodeToString([]byte{1, 2})},
		{"empty payload", base64.StdEncoding.EncodeToString([]byte{0, 0, 0, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(EncodedValue{Kind: KindBinary, Binary: tt.binary}, nil)
			require.Error(t, err)
			assert.True(t, IsCorruptPayload(err), "got %v", err)
		})
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode(EncodedValue{Kind: "pickle"}, nil)
	require.Error(t, err)
	assert.True(t, IsCorruptPayload(err))
}

func TestEncodeUnserializable(t *testing.T) {
	_, err := Encode(make(chan int), nil)
	require.Error(t, err)

	var ee *EncodeError
	assert.True(t, errors.As(err, &ee))
}

func TestEncodedValueJSONLayout(t *testing.T) {
	ev := EncodedValue{Kind: KindText, Text: ir.Object{"a": ir.Int(1)}}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","data":{"a":1}}`, string(data))

	ev = EncodedValue{Kind: KindBinary, Binary: "AAAA"}
	data, err = json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"binary","data":"AAAA"}`, string(data))
}

func TestEncodedValueUnmarshalUnknownKind(t *testing.T) {
	var ev EncodedValue
	err := json.Unmarshal([]byte(`{"type":"msgpack","data":"zz"}`), &ev)
	assert.Error(t, err)
}

func TestEncodedDisplay(t *testing.T) {
	s, err := EncodedDisplay(EncodedValue{Kind: KindText, Text: ir.Array{ir.Int(1), ir.Int(2)}})
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", s)

	s, err = EncodedDisplay(EncodedValue{Kind: KindBinary, Binary: "abcd"})
	require.NoError(t, err)
	assert.Equal(t, "<binary 4 bytes>", s)
}

type ghostA struct{ N int }

// ghostAlt is structurally identical to ghostA; it stands in for the same
// type compiled into a different process.
type ghostAlt struct{ N int }

type phantomA struct{ M string }

type phantomAlt struct{ M string }

// rewriteTypeName swaps the embedded type-qualifier inside a binary frame,
// producing a blob as written by a process whose type names this process
// has never seen. from and to must have equal length so the gob framing
// stays intact.
func rewriteTypeName(t *testing.T, b64, from, to string) string {
	t.Helper()
	require.Equal(t, len(from), len(to))

	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)

	payload := bytes.ReplaceAll(raw[4:], []byte(from), []byte(to))
	framed := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(framed[:4], crc32.ChecksumIEEE(payload))
	copy(framed[4:], payload)
	return base64.StdEncoding.EncodeToString(framed)
}

func TestDecodeUnresolvedType(t *testing.T) {
	rc := NewResolutionContext()
	rc.Register(ghostA{})

	ev, err := Encode(ghostA{N: 7}, rc)
	require.NoError(t, err)
	require.Equal(t, KindBinary, ev.Kind)

	ev.Binary = rewriteTypeName(t, ev.Binary, "ghostA", "ghostB")

	_, err = Decode(ev, NewResolutionContext())
	require.Error(t, err)
	assert.True(t, IsUnresolvedType(err))
	assert.Contains(t, UnresolvedTypeName(err), "ghostB")
}

func TestDecodeResolvesForeignName(t *testing.T) {
	rc := NewResolutionContext()
	rc.Register(phantomA{})

	ev, err := Encode(phantomA{M: "hello"}, rc)
	require.NoError(t, err)

	ev.Binary = rewriteTypeName(t, ev.Binary, "phantomA", "phantomB")

	// A context that binds the foreign name to a local definition decodes
	// the blob.
	rc2 := NewResolutionContext()
	rc2.RegisterName("github.com/roach88/regrest/internal/codec.phantomB", phantomAlt{})

	out, err := Decode(ev, rc2)
	require.NoError(t, err)
	assert.Equal(t, phantomAlt{M: "hello"}, out)
}

func TestUnregisteredNameParsing(t *testing.T) {
	err := errors.New(`gob: name not registered for interface: "main.Company"`)
	assert.Equal(t, "main.Company", unregisteredName(err))

	assert.Equal(t, "", unregisteredName(errors.New("gob: type mismatch")))
}
