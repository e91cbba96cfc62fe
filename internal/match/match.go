package match

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// DefaultTolerance is the absolute tolerance applied to float comparison
// when the caller does not override it.
const DefaultTolerance = 1e-9

// Config carries the comparison parameters. It is threaded explicitly into
// every Match call; the engine reads no ambient state.
type Config struct {
	// Tolerance is the maximum absolute difference under which two floats
	// compare equal. Zero requests exact comparison; use Default for the
	// standard tolerance.
	Tolerance float64
}

// Default returns the default comparison configuration.
func Default() Config {
	return Config{Tolerance: DefaultTolerance}
}

// Result is the verdict of one comparison. Path and Message are empty when
// OK is true. Path holds human-readable accessors from the root to the
// first divergence ("user", "theme", "[3]").
type Result struct {
	OK      bool
	Path    []string
	Message string
}

// ok is the shared success result.
var ok = Result{OK: true}

// Match compares expected against actual under cfg.
func Match(expected, actual any, cfg Config) Result {
	return walk(expected, actual, cfg, nil)
}

// class partitions runtime values for type discrimination. Scalar widths
// within a class are unified (int vs int64 after a text round-trip), but
// classes never cross: int vs float fails even at equal magnitude.
type class int

const (
	classNull class = iota
	classBool
	classString
	classInt
	classFloat
	classSeq
	classMap
	classSet
	classStruct
	classOther
)

func (c class) String() string {
	switch c {
	case classNull:
		return "null"
	case classBool:
		return "bool"
	case classString:
		return "string"
	case classInt:
		return "int"
	case classFloat:
		return "float"
	case classSeq:
		return "sequence"
	case classMap:
		return "mapping"
	case classSet:
		return "set"
	case classStruct:
		return "struct"
	default:
		return "value"
	}
}

func walk(expected, actual any, cfg Config, path []string) Result {
	ev, eOK := normalize(expected)
	av, aOK := normalize(actual)

	// Rule: null leaf.
	if !eOK || !aOK {
		if !eOK && !aOK {
			return ok
		}
		return typeMismatch(path, typeName(ev, eOK), typeName(av, aOK))
	}

	ec, ac := classify(ev), classify(av)
	if ec != ac {
		return typeMismatch(path, typeName(ev, true), typeName(av, true))
	}

	switch ec {
	case classBool:
		if ev.Bool() != av.Bool() {
			return fail(path, "expected %v, got %v", ev.Bool(), av.Bool())
		}
		return ok

	case classString:
		if namedTypesDiffer(ev.Type(), av.Type()) {
			return typeMismatch(path, typeName(ev, true), typeName(av, true))
		}
		if ev.String() != av.String() {
			return fail(path, "expected %q, got %q", ev.String(), av.String())
		}
		return ok

	case classInt:
		if namedTypesDiffer(ev.Type(), av.Type()) {
			return typeMismatch(path, typeName(ev, true), typeName(av, true))
		}
		if !intsEqual(ev, av) {
			return fail(path, "expected %v, got %v", ev.Interface(), av.Interface())
		}
		return ok

	case classFloat:
		if namedTypesDiffer(ev.Type(), av.Type()) {
			return typeMismatch(path, typeName(ev, true), typeName(av, true))
		}
		e, a := ev.Float(), av.Float()
		if !floatsEqual(e, a, cfg.Tolerance) {
			return fail(path, "expected %v, got %v (tolerance %g)", e, a, cfg.Tolerance)
		}
		return ok

	case classSeq:
		return walkSeq(ev, av, cfg, path)

	case classMap:
		return walkMap(ev, av, cfg, path)

	case classSet:
		return walkSet(ev, av, cfg, path)

	case classStruct:
		return walkStruct(ev, av, cfg, path)

	default:
		if !reflect.DeepEqual(ev.Interface(), av.Interface()) {
			return fail(path, "expected %v, got %v", ev.Interface(), av.Interface())
		}
		return ok
	}
}

// normalize unwraps interfaces and pointers. The second return is false for
// nil (untyped nil, nil pointer, nil map/slice handled by their classes).
func normalize(v any) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if isSet(rv) {
			// Set implementations are pointer-shaped; stop unwrapping so
			// classification sees the set, not its internals.
			return rv, true
		}
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, true
}

func classify(rv reflect.Value) class {
	if isSet(rv) {
		return classSet
	}
	switch rv.Kind() {
	case reflect.Bool:
		return classBool
	case reflect.String:
		return classString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return classInt
	case reflect.Float32, reflect.Float64:
		return classFloat
	case reflect.Slice, reflect.Array:
		return classSeq
	case reflect.Map:
		return classMap
	case reflect.Struct:
		return classStruct
	default:
		return classOther
	}
}

// namedTypesDiffer reports whether two scalar types disagree beyond width:
// at least one is a defined type and the types are not identical.
func namedTypesDiffer(a, b reflect.Type) bool {
	if a == b {
		return false
	}
	return a.PkgPath() != "" || b.PkgPath() != ""
}

func typeName(rv reflect.Value, valid bool) string {
	if !valid {
		return "null"
	}
	c := classify(rv)
	switch c {
	case classStruct, classOther:
		return rv.Type().String()
	case classInt, classFloat, classString:
		if rv.Type().PkgPath() != "" {
			return rv.Type().String()
		}
		return c.String()
	default:
		return c.String()
	}
}

func intsEqual(a, b reflect.Value) bool {
	aSigned := isSignedKind(a.Kind())
	bSigned := isSignedKind(b.Kind())
	switch {
	case aSigned && bSigned:
		return a.Int() == b.Int()
	case !aSigned && !bSigned:
		return a.Uint() == b.Uint()
	case aSigned:
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint()
	default:
		return b.Int() >= 0 && a.Uint() == uint64(b.Int())
	}
}

func isSignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func floatsEqual(a, b, tolerance float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		// NaN compares equal to NaN here: a recorded NaN reproducing as NaN
		// is not a regression.
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= tolerance
}

func walkSeq(ev, av reflect.Value, cfg Config, path []string) Result {
	if ev.Len() != av.Len() {
		return fail(path, "length mismatch: expected %d elements, got %d", ev.Len(), av.Len())
	}
	for i := 0; i < ev.Len(); i++ {
		r := walk(ev.Index(i).Interface(), av.Index(i).Interface(), cfg, append(path, indexSegment(i)))
		if !r.OK {
			return r
		}
	}
	return ok
}

func walkMap(ev, av reflect.Value, cfg Config, path []string) Result {
	missing, extra := keyDiff(ev, av)
	if len(missing) > 0 || len(extra) > 0 {
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, fmt.Sprintf("missing keys %v", missing))
		}
		if len(extra) > 0 {
			parts = append(parts, fmt.Sprintf("extra keys %v", extra))
		}
		return fail(path, "key sets differ: %s", strings.Join(parts, ", "))
	}

	// Deterministic traversal order for stable first-divergence reporting.
	keys := sortedMapKeys(ev)
	for _, k := range keys {
		aKey, convOK := convertKey(k, av.Type().Key())
		if !convOK {
			return fail(path, "key %v not comparable across map types", k.Interface())
		}
		r := walk(
			ev.MapIndex(k).Interface(),
			av.MapIndex(aKey).Interface(),
			cfg,
			append(path, keySegment(k)),
		)
		if !r.OK {
			return r
		}
	}
	return ok
}

// keyDiff computes missing (in actual) and extra (only in actual) keys,
// rendered as sorted display strings.
func keyDiff(ev, av reflect.Value) (missing, extra []string) {
	for _, k := range ev.MapKeys() {
		aKey, convOK := convertKey(k, av.Type().Key())
		if !convOK || !av.MapIndex(aKey).IsValid() {
			missing = append(missing, keySegment(k))
		}
	}
	for _, k := range av.MapKeys() {
		eKey, convOK := convertKey(k, ev.Type().Key())
		if !convOK || !ev.MapIndex(eKey).IsValid() {
			extra = append(extra, keySegment(k))
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

func convertKey(k reflect.Value, to reflect.Type) (reflect.Value, bool) {
	if k.Type() == to {
		return k, true
	}
	if k.Type().ConvertibleTo(to) {
		return k.Convert(to), true
	}
	return reflect.Value{}, false
}

func sortedMapKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keySegment(keys[i]) < keySegment(keys[j])
	})
	return keys
}

func walkStruct(ev, av reflect.Value, cfg Config, path []string) Result {
	if ev.Type() != av.Type() {
		return typeMismatch(path, ev.Type().String(), av.Type().String())
	}

	// Native equality, when the type defines it, always wins over
	// structural comparison (time.Time being the canonical case).
	if eq, has := nativeEqual(ev, av); has {
		if !eq {
			return fail(path, "expected %v, got %v", ev.Interface(), av.Interface())
		}
		return ok
	}

	// Structural default: compare the exported attribute mapping, so
	// composite types need no explicit equality implementation.
	t := ev.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		r := walk(ev.Field(i).Interface(), av.Field(i).Interface(), cfg, append(path, f.Name))
		if !r.OK {
			return r
		}
	}
	return ok
}

// nativeEqual invokes an Equal(T) bool method if the struct type declares
// one (value or pointer receiver). Returns has=false when no usable method
// exists.
func nativeEqual(ev, av reflect.Value) (eq, has bool) {
	m := ev.MethodByName("Equal")
	if !m.IsValid() {
		// Pointer-receiver methods need an addressable copy.
		ptr := reflect.New(ev.Type())
		ptr.Elem().Set(ev)
		m = ptr.MethodByName("Equal")
	}
	if !m.IsValid() {
		return false, false
	}

	mt := m.Type()
	if mt.NumIn() != 1 || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Bool {
		return false, false
	}

	arg := av
	if arg.Type() != mt.In(0) {
		if !arg.Type().ConvertibleTo(mt.In(0)) {
			return false, false
		}
		arg = arg.Convert(mt.In(0))
	}

	out := m.Call([]reflect.Value{arg})
	return out[0].Bool(), true
}

func typeMismatch(path []string, expected, actual string) Result {
	return fail(path, "type mismatch: expected %s, got %s", expected, actual)
}

func fail(path []string, format string, args ...any) Result {
	// path aliases the walk's append-grown slice; copy before retaining.
	p := make([]string, len(path))
	copy(p, path)

	msg := fmt.Sprintf(format, args...)
	if len(p) == 0 {
		return Result{OK: false, Path: p, Message: "mismatch: " + msg}
	}
	return Result{OK: false, Path: p, Message: fmt.Sprintf("mismatch at %s: %s", PathString(p), msg)}
}

// PathString joins path segments into the diagnostic form
// "user.profile.settings.theme" or "items[3].Name".
func PathString(path []string) string {
	var b strings.Builder
	for i, seg := range path {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func indexSegment(i int) string {
	return fmt.Sprintf("[%d]", i)
}

func keySegment(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprintf("%v", k.Interface())
}
