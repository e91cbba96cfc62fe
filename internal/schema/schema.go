// Package schema validates persisted record files against the canonical
// record layout. Records are plain JSON on disk and users do hand-edit
// them; validation catches structural damage before the codec trips over
// it.
package schema

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// recordSchema is the CUE definition of the persisted record layout.
const recordSchema = `
#Encoded: {
	type: "text" | "binary"
	data: _
	if type == "binary" {
		data: string
	}
}

#Record: {
	module:    string & !=""
	function:  string & !=""
	args:      #Encoded
	kwargs:    #Encoded
	result:    #Encoded
	timestamp: string & !=""
	record_id: string & =~"^[0-9a-f]{16}$"
}
`

// ValidationError describes one schema violation in a record file.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	schemaOnce sync.Once
	schemaVal  cue.Value
)

func compiledSchema() cue.Value {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		schemaVal = ctx.CompileString(recordSchema).LookupPath(cue.ParsePath("#Record"))
	})
	return schemaVal
}

// Validate checks raw record bytes against the record layout. A nil
// return means the record is structurally valid; it says nothing about
// whether a binary payload will decode.
func Validate(data []byte) []ValidationError {
	schema := compiledSchema()

	// JSON is a subset of CUE, so the record compiles directly.
	ctx := schema.Context()
	doc := ctx.CompileBytes(data)
	if err := doc.Err(); err != nil {
		return []ValidationError{{Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}

	unified := schema.Unify(doc)
	err := unified.Validate(cue.Concrete(true), cue.Final())
	if err == nil {
		return nil
	}

	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		field := ""
		if p := e.Path(); len(p) > 0 {
			field = pathString(p)
		}
		out = append(out, ValidationError{Field: field, Message: e.Error()})
	}
	return out
}

func pathString(parts []string) string {
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}
