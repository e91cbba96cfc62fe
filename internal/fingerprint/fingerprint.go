// Package fingerprint derives stable identities for (function, arguments)
// pairs. A fingerprint is a truncated SHA-256 digest over the subject
// identity plus a canonical serialization of the arguments, so identical
// calls always map to the same record key.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/roach88/regrest/internal/ir"
)

// Domain prefix for record identity hashing.
// Version suffix enables future algorithm migration.
const DomainRecord = "regrest/record/v1"

// HexLength is the truncated digest length used as a filesystem-safe id.
const HexLength = 16

// New computes the fingerprint for a call: subject identity, positional
// args in order, and named args with keys in canonical sorted order.
//
// New is total: values with no portable text representation contribute
// their debug string instead of failing. That keeps fingerprinting defined
// for every input at the cost of injectivity for such values, which is
// acceptable - the fingerprint is an identity key, not a serialization.
func New(subject string, args []any, kwargs map[string]any) string {
	canonArgs := canonicalArgs(args)
	canonKwargs := canonicalKwargs(kwargs)

	h := sha256.New()
	h.Write([]byte(DomainRecord))
	h.Write([]byte{0x00}) // null separator prevents domain/data ambiguity
	h.Write([]byte(subject))
	h.Write([]byte{':'})
	h.Write(canonArgs)
	h.Write([]byte{':'})
	h.Write(canonKwargs)

	return hex.EncodeToString(h.Sum(nil))[:HexLength]
}

func canonicalArgs(args []any) []byte {
	arr := make(ir.Array, len(args))
	for i, a := range args {
		arr[i] = lossyValue(a)
	}
	return mustCanonical(arr)
}

func canonicalKwargs(kwargs map[string]any) []byte {
	obj := make(ir.Object, len(kwargs))
	for k, v := range kwargs {
		obj[k] = lossyValue(v)
	}
	return mustCanonical(obj)
}

// lossyValue converts v into the text model, substituting a debug string
// for any node that has no portable representation. Containers are
// descended so a single opaque element does not flatten its siblings.
func lossyValue(v any) ir.Value {
	if tv, err := ir.FromGo(v); err == nil {
		return tv
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			break // byte slices stay opaque
		}
		arr := make(ir.Array, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			arr[i] = lossyValue(rv.Index(i).Interface())
		}
		return arr
	case reflect.Map:
		if rv.Type().Key() == reflect.TypeOf("") {
			obj := make(ir.Object, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				obj[iter.Key().String()] = lossyValue(iter.Value().Interface())
			}
			return obj
		}
	case reflect.Pointer, reflect.Interface:
		if !rv.IsNil() {
			return lossyValue(rv.Elem().Interface())
		}
	}

	return ir.String(fmt.Sprintf("%#v", v))
}

// mustCanonical marshals a Value built entirely by lossyValue, which by
// construction contains only canonical-safe nodes.
func mustCanonical(v ir.Value) []byte {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		// lossyValue never produces non-finite floats or foreign types.
		panic(fmt.Sprintf("fingerprint: canonical marshal: %v", err))
	}
	return data
}
