// Package record composes fingerprinting and value encoding into the
// persisted Record unit, and drives the matcher on replay.
//
// A Record is immutable once written except by explicit overwrite (update
// mode) or deletion; one fingerprint maps to at most one Record per
// subject. Records are owned by the external store - the assembler never
// caches decoded values across calls.
package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/regrest/internal/codec"
	"github.com/roach88/regrest/internal/fingerprint"
)

// Subject is the qualified function identity a record belongs to:
// originating-module name plus function name.
type Subject struct {
	Module   string
	Function string
}

// String renders the subject as "module.function".
func (s Subject) String() string {
	return s.Module + "." + s.Function
}

// Record is the unit of persistence: subject identity, independently
// encoded arguments and result, capture timestamp, and the fingerprint the
// record is keyed by.
type Record struct {
	Module    string             `json:"module"`
	Function  string             `json:"function"`
	Args      codec.EncodedValue `json:"args"`
	Kwargs    codec.EncodedValue `json:"kwargs"`
	Result    codec.EncodedValue `json:"result"`
	Timestamp time.Time          `json:"timestamp"`
	RecordID  string             `json:"record_id"`
}

// Subject returns the record's qualified function identity.
func (r Record) Subject() Subject {
	return Subject{Module: r.Module, Function: r.Function}
}

// Key returns the store key for this record.
func (r Record) Key() string {
	return Key(r.Subject(), r.RecordID)
}

// Key composes the store key for a (subject, fingerprint) pair.
func Key(subject Subject, recordID string) string {
	return subject.String() + "/" + recordID
}

// SubjectPrefix returns the store List prefix covering every record of a
// subject.
func SubjectPrefix(subject Subject) string {
	return subject.String() + "/"
}

// Marshal serializes the record into its persisted JSON layout.
func (r Record) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal record %s: %w", r.Key(), err)
	}
	return data, nil
}

// Parse deserializes a persisted record.
func Parse(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("parse record: %w", err)
	}
	if r.Module == "" || r.Function == "" || r.RecordID == "" {
		return Record{}, fmt.Errorf("parse record: missing subject identity or record_id")
	}
	return r, nil
}

// Fingerprint derives the stable identity for a (subject, arguments) pair.
// Exposed to callers (CLI, server) for key derivation.
func Fingerprint(subject Subject, args []any, kwargs map[string]any) string {
	return fingerprint.New(subject.String(), args, kwargs)
}
