package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"reflect"
	"strings"

	"github.com/roach88/regrest/internal/ir"
)

// Kind tags which representation an EncodedValue carries.
type Kind string

const (
	// KindText marks a value stored in the portable text model.
	KindText Kind = "text"
	// KindBinary marks a value stored as a framed gob blob.
	KindBinary Kind = "binary"
)

// EncodedValue is the tagged union produced by Encode.
//
// Text payloads decode unconditionally. Binary payloads carry a
// runtime-specific deep serialization and may fail to decode if the
// rehydration context cannot resolve the value's type references.
type EncodedValue struct {
	Kind   Kind
	Text   ir.Value // set when Kind == KindText
	Binary string   // base64 frame when Kind == KindBinary
}

// encodedValueJSON is the persisted form: {"type": ..., "data": ...}.
type encodedValueJSON struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (ev EncodedValue) MarshalJSON() ([]byte, error) {
	var data []byte
	var err error

	switch ev.Kind {
	case KindText:
		if ev.Text == nil {
			data = []byte("null")
		} else if data, err = ir.Marshal(ev.Text); err != nil {
			return nil, err
		}
	case KindBinary:
		if data, err = json.Marshal(ev.Binary); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown encoded value kind %q", ev.Kind)
	}

	return json.Marshal(encodedValueJSON{Type: ev.Kind, Data: data})
}

// UnmarshalJSON implements json.Unmarshaler.
func (ev *EncodedValue) UnmarshalJSON(data []byte) error {
	var raw encodedValueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case KindText:
		v, err := ir.Unmarshal(raw.Data)
		if err != nil {
			return fmt.Errorf("text payload: %w", err)
		}
		*ev = EncodedValue{Kind: KindText, Text: v}
		return nil
	case KindBinary:
		var b64 string
		if err := json.Unmarshal(raw.Data, &b64); err != nil {
			return fmt.Errorf("binary payload: %w", err)
		}
		*ev = EncodedValue{Kind: KindBinary, Binary: b64}
		return nil
	default:
		return fmt.Errorf("unknown encoded value kind %q", raw.Type)
	}
}

// EncodedDisplay renders an encoded value for human-facing output: text
// payloads as compact JSON, binary payloads as an opaque size marker.
func EncodedDisplay(ev EncodedValue) (string, error) {
	switch ev.Kind {
	case KindText:
		if ev.Text == nil {
			return "null", nil
		}
		data, err := ir.Marshal(ev.Text)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case KindBinary:
		return fmt.Sprintf("<binary %d bytes>", len(ev.Binary)), nil
	default:
		return "", fmt.Errorf("unknown encoded value kind %q", ev.Kind)
	}
}

// gobEnvelope wraps the encoded value so arbitrary concrete types travel
// through a single interface field.
type gobEnvelope struct {
	V any
}

// Encode converts a runtime value into a tagged EncodedValue.
//
// The portable text path is attempted first; if the value (or any nested
// sub-value) cannot be expressed there, the whole value falls back to the
// binary path: gob serialization framed as [4-byte CRC32][gob bytes] and
// wrapped in base64. The caller's ResolutionContext supplies stable names
// for user-defined types; rc may be nil when no such types are involved.
//
// Encode fails only when the binary serializer itself rejects the value
// (channels, funcs, live handles); the failure is reported as *EncodeError.
func Encode(v any, rc *ResolutionContext) (EncodedValue, error) {
	if tv, err := ir.FromGo(v); err == nil {
		return EncodedValue{Kind: KindText, Text: tv}, nil
	}

	if rc == nil {
		rc = NewResolutionContext()
	}
	if err := rc.registerAllGob(); err != nil {
		return EncodedValue{}, &EncodeError{Err: err}
	}

	// The top-level concrete type travels through the envelope's interface
	// field, so it must be registered under its stable name.
	if v != nil {
		t := concreteType(reflect.TypeOf(v))
		if err := gobRegister(rc.stableName(t), t); err != nil {
			return EncodedValue{}, &EncodeError{Err: err}
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobEnvelope{V: v}); err != nil {
		return EncodedValue{}, &EncodeError{Err: err}
	}

	return EncodedValue{Kind: KindBinary, Binary: frame(buf.Bytes())}, nil
}

// Decode reverses Encode.
//
// Text payloads decode to plain Go values (nil, bool, string, int64,
// float64, []any, map[string]any) and never fail. Binary payloads are
// unframed, integrity-checked, and gob-decoded against rc; a type name the
// context cannot resolve yields a DecodeError of KindUnresolvedType, any
// framing or deserialization fault yields KindCorruptPayload.
func Decode(ev EncodedValue, rc *ResolutionContext) (any, error) {
	switch ev.Kind {
	case KindText:
		if ev.Text == nil {
			return nil, nil
		}
		return ir.ToGo(ev.Text), nil
	case KindBinary:
		return decodeBinary(ev.Binary, rc)
	default:
		return nil, &DecodeError{Kind: KindCorruptPayload, Err: fmt.Errorf("unknown kind %q", ev.Kind)}
	}
}

// maxResolveAttempts bounds the decode retry loop; each retry resolves one
// previously-unseen type name.
const maxResolveAttempts = 64

func decodeBinary(b64 string, rc *ResolutionContext) (any, error) {
	if rc == nil {
		rc = NewResolutionContext()
	}

	payload, err := unframe(b64)
	if err != nil {
		return nil, err
	}

	if err := rc.registerAllGob(); err != nil {
		return nil, &DecodeError{Kind: KindCorruptPayload, Err: err}
	}

	// gob reports one unregistered name per decode attempt; resolve and
	// retry until the blob decodes or a name cannot be found.
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		var env gobEnvelope
		err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&env)
		if err == nil {
			return env.V, nil
		}

		name := unregisteredName(err)
		if name == "" {
			return nil, &DecodeError{Kind: KindCorruptPayload, Err: err}
		}

		t, ok := rc.Resolve(name)
		if !ok {
			return nil, &DecodeError{Kind: KindUnresolvedType, TypeName: name}
		}
		if err := gobRegister(name, t); err != nil {
			return nil, &DecodeError{Kind: KindCorruptPayload, Err: err}
		}
	}

	return nil, &DecodeError{Kind: KindCorruptPayload, Err: fmt.Errorf("too many unresolved types")}
}

// frame prepends a CRC32 (IEEE) of the gob bytes and base64-encodes the
// result. Format: [4-byte big-endian CRC32][gob bytes].
func frame(gobBytes []byte) string {
	out := make([]byte, 4+len(gobBytes))
	binary.BigEndian.PutUint32(out[:4], crc32.ChecksumIEEE(gobBytes))
	copy(out[4:], gobBytes)
	return base64.StdEncoding.EncodeToString(out)
}

// unframe reverses frame, verifying the checksum.
func unframe(b64 string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &DecodeError{Kind: KindCorruptPayload, Err: fmt.Errorf("base64: %w", err)}
	}
	if len(raw) < 4 {
		return nil, &DecodeError{Kind: KindCorruptPayload, Err: fmt.Errorf("frame too short: %d bytes", len(raw))}
	}

	want := binary.BigEndian.Uint32(raw[:4])
	payload := raw[4:]
	if got := crc32.ChecksumIEEE(payload); got != want {
		return nil, &DecodeError{Kind: KindCorruptPayload, Err: fmt.Errorf("checksum mismatch: %08x != %08x", got, want)}
	}
	return payload, nil
}

// unregisteredName extracts the type-qualifier string from gob's
// name-not-registered error, or "" if err is not one.
func unregisteredName(err error) string {
	const marker = `name not registered for interface: "`
	msg := err.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return ""
	}
	return rest[:j]
}
