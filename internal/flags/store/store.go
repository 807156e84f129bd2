// Package store provides persisted key-value backends for feature flag
// overrides, with change notification so other processes sharing the same
// store observe writes without polling.
package store

// Store is a small string key-value store for flag overrides. Values are
// the literal strings "true" and "false"; the flags package owns parsing.
//
// Changes returns a coalesced signal channel: it fires after any mutation,
// whether made through this handle or by another process sharing the same
// backing storage. The channel is closed by Close.
type Store interface {
	// Get returns the stored value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set writes value under key, creating or replacing it.
	Set(key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Keys returns all stored keys with the given prefix.
	Keys(prefix string) ([]string, error)
	// Changes signals that the store content may have changed.
	Changes() <-chan struct{}
	// Close releases watcher resources and closes the Changes channel.
	Close() error
}
