package fingerprint

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

type opaque struct {
	A int
	B string
}

func TestNewDeterministic(t *testing.T) {
	args := []any{1, "x", 2.5}
	kwargs := map[string]any{"mode": "fast", "retries": 3}

	first := New("pkg.Compute", args, kwargs)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, New("pkg.Compute", args, kwargs))
	}
}

func TestNewFormat(t *testing.T) {
	fp := New("pkg.F", nil, nil)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), fp)
}

func TestNewSensitivity(t *testing.T) {
	base := New("pkg.F", []any{1, 2}, nil)

	tests := []struct {
		name    string
		subject string
		args    []any
		kwargs  map[string]any
	}{
		{"different subject", "pkg.G", []any{1, 2}, nil},
		{"different arg value", "pkg.F", []any{1, 3}, nil},
		{"different arg order", "pkg.F", []any{2, 1}, nil},
		{"extra arg", "pkg.F", []any{1, 2, 3}, nil},
		{"added kwarg", "pkg.F", []any{1, 2}, map[string]any{"k": 1}},
		{"int vs float arg", "pkg.F", []any{1, 2.0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, New(tt.subject, tt.args, tt.kwargs))
		})
	}
}

func TestNewKwargOrderIndependent(t *testing.T) {
	// Map iteration order must not leak into the fingerprint.
	a := New("pkg.F", nil, map[string]any{"alpha": 1, "beta": 2, "gamma": 3})
	for i := 0; i < 20; i++ {
		assert.Equal(t, a, New("pkg.F", nil, map[string]any{"gamma": 3, "alpha": 1, "beta": 2}))
	}
}

func TestNewNilAndEmptyEquivalent(t *testing.T) {
	assert.Equal(t, New("pkg.F", nil, nil), New("pkg.F", []any{}, map[string]any{}))
}

func TestNewTotalOverOpaqueValues(t *testing.T) {
	// Values the text model rejects still fingerprint without panicking.
	tests := []struct {
		name string
		arg  any
	}{
		{"struct", opaque{A: 1, B: "x"}},
		{"byte slice", []byte{1, 2, 3}},
		{"NaN", math.NaN()},
		{"nested opaque", []any{1, opaque{A: 2}}},
		{"map with opaque value", map[string]any{"k": opaque{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := New("pkg.F", []any{tt.arg}, nil)
			assert.Len(t, fp, HexLength)
		})
	}
}

func TestNewOpaqueValuesStillDiscriminate(t *testing.T) {
	a := New("pkg.F", []any{opaque{A: 1}}, nil)
	b := New("pkg.F", []any{opaque{A: 2}}, nil)
	assert.NotEqual(t, a, b)
}

func TestNewOpaqueInsideContainerKeepsSiblings(t *testing.T) {
	// Portable siblings next to an opaque element still discriminate.
	a := New("pkg.F", []any{[]any{"x", opaque{}}}, nil)
	b := New("pkg.F", []any{[]any{"y", opaque{}}}, nil)
	assert.NotEqual(t, a, b)
}
