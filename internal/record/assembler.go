package record

import (
	"fmt"
	"time"

	"github.com/roach88/regrest/internal/codec"
	"github.com/roach88/regrest/internal/match"
)

// Clock supplies capture timestamps. Production code uses SystemClock;
// tests use FixedClock for byte-stable records.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// Assembler composes the fingerprint generator and the value codec into
// complete records, and drives the matcher on replay. It is stateless
// between calls; the ResolutionContext is read-only during Verify.
type Assembler struct {
	Resolution *codec.ResolutionContext
	Clock      Clock
}

// NewAssembler creates an assembler with the system clock. rc may be nil
// when no user-defined types are involved.
func NewAssembler(rc *codec.ResolutionContext) *Assembler {
	return &Assembler{Resolution: rc, Clock: SystemClock{}}
}

// Capture builds a complete record for a call: fingerprint from the
// arguments, then args, kwargs, and result each encoded as one tagged
// unit. Pure construction plus encoding - no store interaction.
func (a *Assembler) Capture(subject Subject, args []any, kwargs map[string]any, result any) (Record, error) {
	id := Fingerprint(subject, args, kwargs)

	encArgs, err := codec.Encode(normalizeArgs(args), a.Resolution)
	if err != nil {
		return Record{}, fmt.Errorf("capture %s: args: %w", subject, err)
	}
	encKwargs, err := codec.Encode(normalizeKwargs(kwargs), a.Resolution)
	if err != nil {
		return Record{}, fmt.Errorf("capture %s: kwargs: %w", subject, err)
	}
	encResult, err := codec.Encode(result, a.Resolution)
	if err != nil {
		return Record{}, fmt.Errorf("capture %s: result: %w", subject, err)
	}

	return Record{
		Module:    subject.Module,
		Function:  subject.Function,
		Args:      encArgs,
		Kwargs:    encKwargs,
		Result:    encResult,
		Timestamp: a.clock().Now(),
		RecordID:  id,
	}, nil
}

// Verify decodes the existing record's result under the current process's
// ResolutionContext and compares it against the recomputed result.
//
// A decode failure (unresolved type, corrupt payload) is returned as a
// typed error, never a panic; a mismatch is a normal match.Result.
func (a *Assembler) Verify(existing Record, recomputed any, cfg match.Config) (match.Result, error) {
	expected, err := codec.Decode(existing.Result, a.Resolution)
	if err != nil {
		return match.Result{}, fmt.Errorf("verify %s: %w", existing.Key(), err)
	}
	return match.Match(expected, recomputed, cfg), nil
}

// DecodeArgs decodes the record's positional arguments for display or
// re-execution.
func (a *Assembler) DecodeArgs(r Record) ([]any, error) {
	v, err := codec.Decode(r.Args, a.Resolution)
	if err != nil {
		return nil, err
	}
	return toArgSlice(v), nil
}

// DecodeKwargs decodes the record's named arguments.
func (a *Assembler) DecodeKwargs(r Record) (map[string]any, error) {
	v, err := codec.Decode(r.Kwargs, a.Resolution)
	if err != nil {
		return nil, err
	}
	return toKwargMap(v), nil
}

// DecodeResult decodes the record's captured result.
func (a *Assembler) DecodeResult(r Record) (any, error) {
	return codec.Decode(r.Result, a.Resolution)
}

func (a *Assembler) clock() Clock {
	if a.Clock == nil {
		return SystemClock{}
	}
	return a.Clock
}

// normalizeArgs keeps the encoded shape of "no positional arguments"
// stable: nil and empty encode identically.
func normalizeArgs(args []any) []any {
	if args == nil {
		return []any{}
	}
	return args
}

func normalizeKwargs(kwargs map[string]any) map[string]any {
	if kwargs == nil {
		return map[string]any{}
	}
	return kwargs
}

func toArgSlice(v any) []any {
	switch vv := v.(type) {
	case nil:
		return nil
	case []any:
		return vv
	default:
		return []any{vv}
	}
}

func toKwargMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}
