package codec

import (
	"encoding/gob"
	"fmt"
	"reflect"
	"sync"
)

// ResolutionContext maps type-qualifier strings to concrete type
// definitions for binary decode, and records alias mappings applied at
// encode time.
//
// Resolution order for a name referenced inside a blob:
//  1. explicitly registered types (Register / RegisterName)
//  2. the alias table (transient name -> stable name, then step 1 again)
//  3. the on-demand Loader, if set
//
// A ResolutionContext is read-only during Decode and safe for concurrent
// readers once populated.
type ResolutionContext struct {
	mu      sync.RWMutex
	types   map[string]reflect.Type
	aliases map[string]string
	loader  func(name string) (reflect.Type, bool)
}

// NewResolutionContext creates an empty ResolutionContext.
func NewResolutionContext() *ResolutionContext {
	return &ResolutionContext{
		types:   make(map[string]reflect.Type),
		aliases: make(map[string]string),
	}
}

// Register registers the concrete type of v under its default qualified
// name ("pkgpath.TypeName"). Pointer types are registered by their element
// type. Returns the name the type was registered under.
func (rc *ResolutionContext) Register(v any) string {
	t := concreteType(reflect.TypeOf(v))
	name := defaultTypeName(t)
	rc.RegisterName(name, v)
	return name
}

// RegisterName registers the concrete type of v under an explicit
// type-qualifier string. Use this to give a stable name to a type whose
// originating package identity is transient (a main package, a test
// binary).
func (rc *ResolutionContext) RegisterName(name string, v any) {
	t := concreteType(reflect.TypeOf(v))
	rc.mu.Lock()
	rc.types[name] = t
	rc.mu.Unlock()
}

// Alias maps a transient type-qualifier (e.g. "main.Company") to a stable
// name. At encode time the stable name is written into the blob; at decode
// time a blob referencing either name resolves to the same type, provided
// the stable name is registered.
func (rc *ResolutionContext) Alias(transient, stable string) {
	rc.mu.Lock()
	rc.aliases[transient] = stable
	rc.mu.Unlock()
}

// SetLoader installs an on-demand resolver consulted when a name is not in
// the registry. The loader must be safe for concurrent use.
func (rc *ResolutionContext) SetLoader(loader func(name string) (reflect.Type, bool)) {
	rc.mu.Lock()
	rc.loader = loader
	rc.mu.Unlock()
}

// Resolve looks up a type-qualifier string: registry first, then the alias
// table, then the loader. Returns false if none can supply the type.
func (rc *ResolutionContext) Resolve(name string) (reflect.Type, bool) {
	rc.mu.RLock()
	t, ok := rc.types[name]
	if !ok {
		if stable, aliased := rc.aliases[name]; aliased {
			t, ok = rc.types[stable]
		}
	}
	loader := rc.loader
	rc.mu.RUnlock()

	if ok {
		return t, true
	}
	if loader != nil {
		return loader(name)
	}
	return nil, false
}

// stableName returns the name a type should be written under at encode
// time: the alias target if one is registered for the default name, the
// registered name if the type was registered explicitly, otherwise the
// default qualified name.
func (rc *ResolutionContext) stableName(t reflect.Type) string {
	def := defaultTypeName(t)

	rc.mu.RLock()
	defer rc.mu.RUnlock()

	if stable, ok := rc.aliases[def]; ok {
		return stable
	}
	for name, rt := range rc.types {
		if rt == t {
			return name
		}
	}
	return def
}

// registerAllGob registers every type in the context with the process gob
// registry under its resolved name. Called before encode and decode so blob
// names and in-process names agree.
func (rc *ResolutionContext) registerAllGob() error {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	for name, t := range rc.types {
		if err := gobRegister(name, t); err != nil {
			return err
		}
	}
	return nil
}

// concreteType strips pointer indirection so a type registered via &T{} and
// one registered via T{} resolve identically.
func concreteType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// defaultTypeName produces the qualified name gob would use: "pkgpath.Name"
// for defined types, the type string otherwise.
func defaultTypeName(t reflect.Type) string {
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// Process-wide gob registration bookkeeping. gob.RegisterName panics on
// conflicting registration, so every call goes through gobRegister which
// keeps its own idempotency map and converts panics into errors.
var (
	gobMu         sync.Mutex
	gobRegistered = make(map[string]reflect.Type)
)

func gobRegister(name string, t reflect.Type) (err error) {
	gobMu.Lock()
	defer gobMu.Unlock()

	if prev, ok := gobRegistered[name]; ok {
		if prev == t {
			return nil
		}
		return fmt.Errorf("gob name %q already bound to %s, cannot rebind to %s", name, prev, t)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gob register %q: %v", name, r)
		}
	}()

	gob.RegisterName(name, reflect.New(t).Elem().Interface())
	gobRegistered[name] = t
	return nil
}
