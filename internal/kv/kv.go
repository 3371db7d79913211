package kv

import "errors"

// ErrQuotaExceeded indicates a write was rejected because it would push the
// store past its configured capacity ceiling. Nothing is written.
var ErrQuotaExceeded = errors.New("kv: storage quota exceeded")

// Adapter is the synchronous string-keyed durable store the data layer is
// built on. There are no transactions and no atomic multi-key writes; each
// Set is an independent operation.
type Adapter interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value. Fails with
	// ErrQuotaExceeded when the write would exceed the capacity ceiling.
	Set(key, value string) error
	// Remove deletes the key. Removing an absent key is not an error.
	Remove(key string) error
	// Keys returns every stored key beginning with prefix.
	Keys(prefix string) ([]string, error)
}
