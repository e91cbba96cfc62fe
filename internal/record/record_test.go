package record

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/regrest/internal/codec"
	"github.com/roach88/regrest/internal/match"
)

func TestSubjectString(t *testing.T) {
	s := Subject{Module: "examples", Function: "add"}
	assert.Equal(t, "examples.add", s.String())
}

func TestKeyComposition(t *testing.T) {
	s := Subject{Module: "examples", Function: "add"}
	assert.Equal(t, "examples.add/abcd1234abcd1234", Key(s, "abcd1234abcd1234"))
	assert.Equal(t, "examples.add/", SubjectPrefix(s))
}

func TestRecordLayoutGolden(t *testing.T) {
	asm := NewAssembler(nil)
	asm.Clock = FixedClock{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	rec, err := asm.Capture(
		Subject{Module: "examples", Function: "add"},
		[]any{2, 3}, nil, 5,
	)
	require.NoError(t, err)

	data, err := rec.Marshal()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "record_layout", data)
}

func TestMarshalParseRoundTrip(t *testing.T) {
	asm := NewAssembler(nil)
	asm.Clock = FixedClock{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	rec, err := asm.Capture(
		Subject{Module: "examples", Function: "greet"},
		[]any{"world"},
		map[string]any{"upper": true},
		"HELLO WORLD",
	)
	require.NoError(t, err)

	data, err := rec.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, rec, back)
}

func TestParseRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "not json"},
		{"missing module", `{"function":"f","record_id":"aaaaaaaaaaaaaaaa"}`},
		{"missing function", `{"module":"m","record_id":"aaaaaaaaaaaaaaaa"}`},
		{"missing record id", `{"module":"m","function":"f"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestFingerprintStableAcrossCaptures(t *testing.T) {
	asm := NewAssembler(nil)
	subject := Subject{Module: "m", Function: "f"}

	a, err := asm.Capture(subject, []any{1}, nil, "first")
	require.NoError(t, err)
	b, err := asm.Capture(subject, []any{1}, nil, "second")
	require.NoError(t, err)

	// Same arguments, same identity; the result is not part of the key.
	assert.Equal(t, a.RecordID, b.RecordID)
	assert.Len(t, a.RecordID, 16)
}

func TestCaptureNilArgsStable(t *testing.T) {
	asm := NewAssembler(nil)
	subject := Subject{Module: "m", Function: "f"}

	a, err := asm.Capture(subject, nil, nil, 1)
	require.NoError(t, err)
	b, err := asm.Capture(subject, []any{}, map[string]any{}, 1)
	require.NoError(t, err)

	assert.Equal(t, a.RecordID, b.RecordID)
	assert.Equal(t, a.Args, b.Args)
	assert.Equal(t, a.Kwargs, b.Kwargs)
}

func TestVerify(t *testing.T) {
	asm := NewAssembler(nil)
	subject := Subject{Module: "m", Function: "compute"}

	rec, err := asm.Capture(subject, []any{10}, nil, 0.3)
	require.NoError(t, err)

	cfg := match.Default()

	r, err := asm.Verify(rec, 0.1+0.2, cfg)
	require.NoError(t, err)
	assert.True(t, r.OK)

	r, err = asm.Verify(rec, 0.4, cfg)
	require.NoError(t, err)
	assert.False(t, r.OK)
}

func TestVerifyWholeFloatSurvivesStorage(t *testing.T) {
	asm := NewAssembler(nil)
	subject := Subject{Module: "m", Function: "scale"}

	rec, err := asm.Capture(subject, []any{1.5}, nil, 3.0)
	require.NoError(t, err)

	// A whole-valued float result must stay a float through the persisted
	// form, or verifying the unchanged function reports a type mismatch.
	data, err := rec.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data": 3.0`)

	stored, err := Parse(data)
	require.NoError(t, err)

	res, err := asm.DecodeResult(stored)
	require.NoError(t, err)
	assert.Equal(t, 3.0, res)

	r, err := asm.Verify(stored, 3.0, match.Default())
	require.NoError(t, err)
	assert.True(t, r.OK)

	r, err = asm.Verify(stored, int64(3), match.Default())
	require.NoError(t, err)
	assert.False(t, r.OK)
}

func TestVerifyDecodeFailure(t *testing.T) {
	rec := Record{
		Module:   "m",
		Function: "f",
		Result:   codec.EncodedValue{Kind: codec.KindBinary, Binary: "!!bad!!"},
		RecordID: "aaaaaaaaaaaaaaaa",
	}

	asm := NewAssembler(nil)
	_, err := asm.Verify(rec, 1, match.Default())
	require.Error(t, err)
	assert.True(t, codec.IsCorruptPayload(err))
}

func TestDecodeArgsKwargsResult(t *testing.T) {
	asm := NewAssembler(nil)
	rec, err := asm.Capture(
		Subject{Module: "m", Function: "f"},
		[]any{int64(1), "x"},
		map[string]any{"flag": true},
		[]any{int64(2)},
	)
	require.NoError(t, err)

	args, err := asm.DecodeArgs(rec)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "x"}, args)

	kwargs, err := asm.DecodeKwargs(rec)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"flag": true}, kwargs)

	result, err := asm.DecodeResult(rec)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2)}, result)
}
