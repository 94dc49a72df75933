// Package store defines the key-value state store the game engine
// treats as the single source of truth for table records.
package store

import "errors"

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("store: key not found")

// Store is the engine's view of the state store. All table state lives
// here; the engine never keeps authoritative state in memory between
// operations.
type Store interface {
	// Get returns the value for a key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores a value under a key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error

	// ListKeys returns every key with the given prefix.
	ListKeys(prefix string) ([]string, error)

	// MemoryUsage returns the approximate number of bytes held,
	// used to refuse new-table creation above a configured ceiling.
	MemoryUsage() (int64, error)
}
