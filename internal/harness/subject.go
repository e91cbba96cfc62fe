package harness

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/roach88/regrest/internal/record"
)

// SubjectOf derives the qualified identity of a function value: the short
// package name plus the function name, as reported by the runtime.
//
// Functions in package main get the stable module name from
// StableMainModule instead of the transient "main" identity, so records
// written by `go run script.go` remain addressable after the binary is
// rebuilt under another name or the function moves into a service.
func SubjectOf(fn any) record.Subject {
	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()

	// full is "pkg/path/short.Func" (methods and closures carry extra
	// dot-separated parts which stay in the function name).
	short := full
	if i := strings.LastIndex(full, "/"); i >= 0 {
		short = full[i+1:]
	}

	module, function := short, ""
	if i := strings.Index(short, "."); i >= 0 {
		module, function = short[:i], short[i+1:]
	}

	if module == "main" {
		module = StableMainModule()
	}
	return record.Subject{Module: module, Function: function}
}

// StableMainModule returns the stable name substituted for the transient
// "main" identity: the executable's base name without extension.
func StableMainModule() string {
	exe, err := os.Executable()
	if err != nil {
		return "main"
	}
	base := filepath.Base(exe)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// AliasMainType maps the transient "main.TypeName" qualifier of v's type
// to a stable "<module>.TypeName" name and registers the type under it, so
// binary payloads written from a main package decode in any process that
// registers the same stable name.
//
// Call this before the first Check that captures a value of the type.
func (h *Harness) AliasMainType(v any) {
	rc := h.Assembler.Resolution
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	stableName := StableMainModule() + "." + t.Name()
	rc.RegisterName(stableName, v)
	rc.Alias("main."+t.Name(), stableName)
}

// RegisterType registers v's type in the harness's resolution context
// under its default qualified name.
func (h *Harness) RegisterType(v any) {
	h.Assembler.Resolution.Register(v)
}
