package match

import (
	"fmt"
	"reflect"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Set values (mapset.Set of any element type) are compared as unordered
// collections: elements are paired greedily under the same type/tolerance
// rules with no fixed order, and the symmetric difference is reported on
// failure.

// setAnyType anchors the detection of mapset instantiations; any
// mapset.Set[T] exposes the same ToSlice/Cardinality surface.
var setAnyType = reflect.TypeOf((*mapset.Set[any])(nil)).Elem()

// isSet reports whether rv is a mapset.Set of some element type. Generic
// instantiations other than Set[any] cannot be asserted directly, so the
// check is structural: a ToSlice method returning a slice plus a
// Cardinality method returning int.
func isSet(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	if rv.Type().Implements(setAnyType) {
		return true
	}
	ts := rv.MethodByName("ToSlice")
	card := rv.MethodByName("Cardinality")
	if !ts.IsValid() || !card.IsValid() {
		return false
	}
	tt, ct := ts.Type(), card.Type()
	return tt.NumIn() == 0 && tt.NumOut() == 1 && tt.Out(0).Kind() == reflect.Slice &&
		ct.NumIn() == 0 && ct.NumOut() == 1 && ct.Out(0).Kind() == reflect.Int
}

// setElements extracts the members of a set value as a plain slice.
func setElements(rv reflect.Value) []any {
	out := rv.MethodByName("ToSlice").Call(nil)[0]
	elems := make([]any, out.Len())
	for i := 0; i < out.Len(); i++ {
		elems[i] = out.Index(i).Interface()
	}
	return elems
}

func walkSet(ev, av reflect.Value, cfg Config, path []string) Result {
	expected := setElements(ev)
	actual := setElements(av)

	used := make([]bool, len(actual))
	var onlyExpected []string

	for _, e := range expected {
		found := false
		for i, a := range actual {
			if used[i] {
				continue
			}
			if walk(e, a, cfg, nil).OK {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			onlyExpected = append(onlyExpected, fmt.Sprintf("%v", e))
		}
	}

	var onlyActual []string
	for i, a := range actual {
		if !used[i] {
			onlyActual = append(onlyActual, fmt.Sprintf("%v", a))
		}
	}

	if len(onlyExpected) == 0 && len(onlyActual) == 0 {
		return ok
	}

	sort.Strings(onlyExpected)
	sort.Strings(onlyActual)

	switch {
	case len(onlyActual) == 0:
		return fail(path, "sets differ: missing elements %v", onlyExpected)
	case len(onlyExpected) == 0:
		return fail(path, "sets differ: extra elements %v", onlyActual)
	default:
		return fail(path, "sets differ: missing elements %v, extra elements %v", onlyExpected, onlyActual)
	}
}
