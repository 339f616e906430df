package catalog

import (
	"errors"
)

var errKeyNotFound = errors.New("key not found")

// kvEntry is a copied key (and optionally value) returned from a scan.
type kvEntry struct {
	key []byte
	val []byte
}

// kvTxn is the slice of an engine's transaction that the catalog needs.
// Reads made through a write txn see that txn's own pending writes.
type kvTxn interface {
	Get(key []byte) ([]byte, error)
	Set(key, val []byte) error
	Delete(key []byte) error

	// Scan returns all entries under prefix in key order.
	Scan(prefix []byte, withValues bool) ([]kvEntry, error)

	Commit() error
	Discard()
}

type kvStore interface {
	Engine() string
	NewTxn(update bool) kvTxn
	Close() error
}

// prefixEnd returns the smallest key greater than every key with the given prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
