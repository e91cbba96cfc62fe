package codec

import (
	"errors"
	"fmt"
)

// DecodeErrorKind categorizes decode failures.
type DecodeErrorKind string

const (
	// KindUnresolvedType indicates a binary blob references a type the
	// current ResolutionContext cannot find.
	KindUnresolvedType DecodeErrorKind = "UNRESOLVED_TYPE"

	// KindCorruptPayload indicates the byte encoding or serialization
	// framing is invalid (bad base64, short frame, checksum mismatch,
	// malformed gob or JSON).
	KindCorruptPayload DecodeErrorKind = "CORRUPT_PAYLOAD"
)

// DecodeError represents a typed decode failure.
//
// Decode never panics and never aborts the caller: every failure mode is
// reported as a DecodeError so the surrounding layers can decide whether to
// log, skip, or exit. TypeName carries the unresolved type-qualifier string
// for KindUnresolvedType so the operator can fix the ResolutionContext.
type DecodeError struct {
	Kind     DecodeErrorKind
	TypeName string // set for KindUnresolvedType
	Err      error  // underlying error, optional
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindUnresolvedType:
		return fmt.Sprintf("%s: cannot resolve type %q", e.Kind, e.TypeName)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return string(e.Kind)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsUnresolvedType reports whether err is a DecodeError for a type the
// ResolutionContext could not find. Uses errors.As to handle wrapped errors.
func IsUnresolvedType(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == KindUnresolvedType
}

// IsCorruptPayload reports whether err is a DecodeError for invalid framing.
func IsCorruptPayload(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == KindCorruptPayload
}

// UnresolvedTypeName extracts the type-qualifier string from an
// unresolved-type error, or "" if err is not one.
func UnresolvedTypeName(err error) string {
	var de *DecodeError
	if errors.As(err, &de) && de.Kind == KindUnresolvedType {
		return de.TypeName
	}
	return ""
}

// EncodeError reports that a value could not be encoded at all: the text
// model rejected it and the binary serializer also refused (live resource
// handles, channels, funcs). This should not occur for well-formed inputs.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode failure: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
