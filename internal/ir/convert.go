package ir

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// ErrUnportable reports that a runtime value (or one of its sub-values) has
// no representation in the portable text model. Callers check for it with
// errors.Is and fall back to the binary codec path.
var ErrUnportable = errors.New("value not expressible in text model")

// FromGo converts a runtime Go value into the text value model.
//
// The conversion is all-or-nothing: if any nested sub-value cannot be
// expressed (user-defined structs, non-string map keys, non-finite floats,
// byte slices, channels, funcs, ...), the whole conversion fails with an
// error wrapping ErrUnportable and the caller must take the binary path.
func FromGo(v any) (Value, error) {
	if v == nil {
		return Null{}, nil
	}
	if val, ok := v.(Value); ok {
		return val, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.String:
		if rv.Type() != reflect.TypeOf("") {
			// Named string types carry type identity the text model would
			// erase; they round-trip through the binary path instead.
			return nil, fmt.Errorf("%w: named string type %s", ErrUnportable, rv.Type())
		}
		return String(rv.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if isNamedNumeric(rv.Type()) {
			return nil, fmt.Errorf("%w: named integer type %s", ErrUnportable, rv.Type())
		}
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if isNamedNumeric(rv.Type()) {
			return nil, fmt.Errorf("%w: named integer type %s", ErrUnportable, rv.Type())
		}
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: uint value %d exceeds int64", ErrUnportable, u)
		}
		return Int(int64(u)), nil

	case reflect.Float32, reflect.Float64:
		if isNamedNumeric(rv.Type()) {
			return nil, fmt.Errorf("%w: named float type %s", ErrUnportable, rv.Type())
		}
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite float %v", ErrUnportable, f)
		}
		return Float(f), nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			// Byte strings are opaque payloads, not sequences of small ints.
			return nil, fmt.Errorf("%w: byte slice", ErrUnportable)
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null{}, nil
		}
		arr := make(Array, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = elem
		}
		return arr, nil

	case reflect.Map:
		if rv.Type().Key() != reflect.TypeOf("") {
			return nil, fmt.Errorf("%w: map key type %s", ErrUnportable, rv.Type().Key())
		}
		if rv.IsNil() {
			return Null{}, nil
		}
		obj := make(Object, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			elem, err := FromGo(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = elem
		}
		return obj, nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		if rv.Kind() == reflect.Pointer && rv.Type().Elem().Kind() == reflect.Struct {
			return nil, fmt.Errorf("%w: struct type %s", ErrUnportable, rv.Type().Elem())
		}
		return FromGo(rv.Elem().Interface())

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnportable, rv.Type())
	}
}

// isNamedNumeric reports whether t is a defined (named) numeric type other
// than the predeclared ones. Defined types carry identity the text model
// cannot preserve.
func isNamedNumeric(t reflect.Type) bool {
	return t.PkgPath() != ""
}

// ToGo converts a Value back to plain Go types: nil, bool, string, int64,
// float64, []any, and map[string]any. It is total over the sealed Value set.
func ToGo(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		// Unreachable for the sealed set.
		return nil
	}
}
