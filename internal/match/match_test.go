package match

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchScalars(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		wantOK   bool
	}{
		{"equal ints", 1, 1, true},
		{"unequal ints", 1, 2, false},
		{"int widths unify", int64(5), 5, true},
		{"signed vs unsigned equal", 5, uint(5), true},
		{"equal strings", "a", "a", true},
		{"unequal strings", "a", "b", false},
		{"equal bools", true, true, true},
		{"unequal bools", true, false, false},
		{"both nil", nil, nil, true},
		{"nil vs value", nil, 1, false},
		{"value vs nil", "x", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Match(tt.expected, tt.actual, Default())
			assert.Equal(t, tt.wantOK, r.OK, r.Message)
		})
	}
}

func TestMatchIntFloatNeverEqual(t *testing.T) {
	r := Match(1, 1.0, Default())
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "type mismatch")
	assert.Contains(t, r.Message, "int")
	assert.Contains(t, r.Message, "float")
}

func TestMatchFloatTolerance(t *testing.T) {
	tests := []struct {
		name      string
		expected  float64
		actual    float64
		tolerance float64
		wantOK    bool
	}{
		{"accumulated rounding passes", 0.3, 0.1 + 0.2, DefaultTolerance, true},
		{"just above tolerance fails", 1.0, 1.0 + 2e-9, 1e-9, false},
		{"exact equality", 2.5, 2.5, DefaultTolerance, true},
		{"boundary is inclusive", 1.0, 1.0 + 1e-9, 1e-9, true},
		{"widened tolerance passes", 10.0, 10.4, 0.5, true},
		{"zero tolerance is exact", 0.3, 0.1 + 0.2, 0, false},
		{"zero tolerance still allows equality", 2.5, 2.5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Match(tt.expected, tt.actual, Config{Tolerance: tt.tolerance})
			assert.Equal(t, tt.wantOK, r.OK, r.Message)
		})
	}
}

func TestMatchNonFiniteFloats(t *testing.T) {
	assert.True(t, Match(math.NaN(), math.NaN(), Default()).OK)
	assert.False(t, Match(math.NaN(), 1.0, Default()).OK)
	assert.True(t, Match(math.Inf(1), math.Inf(1), Default()).OK)
	assert.False(t, Match(math.Inf(1), math.Inf(-1), Default()).OK)
	assert.False(t, Match(math.Inf(1), 1e300, Default()).OK)
}

type temperature float64

func TestMatchNamedScalarTypesStrict(t *testing.T) {
	r := Match(temperature(20.0), 20.0, Default())
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "type mismatch")

	assert.True(t, Match(temperature(20.0), temperature(20.0), Default()).OK)
}

func TestMatchSequences(t *testing.T) {
	assert.True(t, Match([]int{1, 2, 3}, []int{1, 2, 3}, Default()).OK)

	r := Match([]int{1, 2, 3}, []int{3, 2, 1}, Default())
	assert.False(t, r.OK)
	assert.Equal(t, []string{"[0]"}, r.Path)

	r = Match([]int{1, 2}, []int{1, 2, 3}, Default())
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "length mismatch")
}

func TestMatchMapsUnordered(t *testing.T) {
	r := Match(
		map[string]int{"a": 1, "b": 2},
		map[string]int{"b": 2, "a": 1},
		Default(),
	)
	assert.True(t, r.OK)
}

func TestMatchMapExtraKey(t *testing.T) {
	r := Match(
		map[string]int{"a": 1},
		map[string]int{"a": 1, "b": 2},
		Default(),
	)
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "extra keys [b]")
}

func TestMatchMapMissingKey(t *testing.T) {
	r := Match(
		map[string]int{"a": 1, "b": 2},
		map[string]int{"a": 1},
		Default(),
	)
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "missing keys [b]")
}

func TestMatchNestedPathReporting(t *testing.T) {
	expected := map[string]any{
		"user": map[string]any{"theme": "dark", "lang": "en"},
	}
	actual := map[string]any{
		"user": map[string]any{"theme": "light", "lang": "en"},
	}

	r := Match(expected, actual, Default())
	assert.False(t, r.OK)
	assert.Equal(t, []string{"user", "theme"}, r.Path)
	assert.Contains(t, r.Message, "mismatch at user.theme")
}

func TestMatchPathThroughSequence(t *testing.T) {
	expected := map[string]any{"items": []any{1, 2, 3}}
	actual := map[string]any{"items": []any{1, 9, 3}}

	r := Match(expected, actual, Default())
	assert.False(t, r.OK)
	assert.Equal(t, []string{"items", "[1]"}, r.Path)
	assert.Equal(t, "items[1]", PathString(r.Path))
}

func TestMatchToleranceAppliesNested(t *testing.T) {
	expected := map[string]any{"readings": []any{0.3}}
	actual := map[string]any{"readings": []any{0.1 + 0.2}}
	assert.True(t, Match(expected, actual, Default()).OK)
}

type profile struct {
	Name  string
	Score float64
}

func TestMatchStructsStructural(t *testing.T) {
	assert.True(t, Match(
		profile{Name: "a", Score: 0.3},
		profile{Name: "a", Score: 0.1 + 0.2},
		Default(),
	).OK)

	r := Match(profile{Name: "a"}, profile{Name: "b"}, Default())
	assert.False(t, r.OK)
	assert.Equal(t, []string{"Name"}, r.Path)
}

func TestMatchStructTypesStrict(t *testing.T) {
	type other struct {
		Name  string
		Score float64
	}
	r := Match(profile{Name: "a"}, other{Name: "a"}, Default())
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "type mismatch")
}

// version declares native equality that ignores Build, so structural
// comparison must not override it.
type version struct {
	Major int
	Minor int
	Build string
}

func (v version) Equal(o version) bool {
	return v.Major == o.Major && v.Minor == o.Minor
}

func TestMatchNativeEqualityWins(t *testing.T) {
	assert.True(t, Match(
		version{Major: 1, Minor: 2, Build: "abc"},
		version{Major: 1, Minor: 2, Build: "xyz"},
		Default(),
	).OK)

	r := Match(version{Major: 1}, version{Major: 2}, Default())
	assert.False(t, r.OK)
}

func TestMatchTimeUsesEqual(t *testing.T) {
	// Same instant in different locations: Equal says yes, field
	// comparison would say no.
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fixed := utc.In(time.FixedZone("X", 3600))

	assert.True(t, Match(utc, fixed, Default()).OK)
	assert.False(t, Match(utc, utc.Add(time.Second), Default()).OK)
}

func TestMatchPointersFollowed(t *testing.T) {
	a, b := 5, 5
	assert.True(t, Match(&a, &b, Default()).OK)

	var nilPtr *int
	assert.True(t, Match(nilPtr, nil, Default()).OK)
	assert.False(t, Match(&a, nilPtr, Default()).OK)
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "user.theme", PathString([]string{"user", "theme"}))
	assert.Equal(t, "items[3].Name", PathString([]string{"items", "[3]", "Name"}))
	assert.Equal(t, "", PathString(nil))
}
