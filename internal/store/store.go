// Package store provides the external key-value persistence the engine
// delegates to: one opaque byte payload per record key.
//
// Two backends are provided: a file-per-record store (the default) and a
// SQLite store for setups that prefer a single artifact. Both implement
// overwrite-last-wins semantics; concurrent writers to the same key from
// independent processes are intentionally not coordinated.
package store

// Store is the opaque key-value contract the engine consumes. Keys are
// "module.function/fingerprint" strings; values are persisted record
// bytes.
type Store interface {
	// Get returns the bytes under key, with found=false when absent.
	Get(key string) (data []byte, found bool, err error)

	// Put writes the bytes under key, overwriting any previous value.
	Put(key string, data []byte) error

	// List returns all keys beginning with prefix, sorted. An empty
	// prefix lists every key.
	List(prefix string) ([]string, error)

	// Delete removes the value under key. Deleting an absent key returns
	// ErrNotFound.
	Delete(key string) error

	// Close releases backend resources.
	Close() error
}
