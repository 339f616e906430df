package catalog

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
)

type pebbleStore struct {
	db   *pebble.DB
	sync bool
}

func openPebbleStore(opts Opts) (*pebbleStore, error) {
	dbOpts := &pebble.Options{
		ReadOnly: opts.ReadOnly,
	}

	path := opts.DbPathName
	if len(path) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(ErrBadCatalogParam, "DbPathName must be specified for a read-only catalog")
		}
		dbOpts.FS = vfs.NewMem()
		path = "gozx"
	}

	db, err := pebble.Open(path, dbOpts)
	if err != nil {
		return nil, err
	}
	return &pebbleStore{
		db:   db,
		sync: opts.SyncWrites,
	}, nil
}

func (st *pebbleStore) Engine() string {
	return EnginePebble
}

// NewTxn returns an indexed batch so reads see the batch's own writes.
func (st *pebbleStore) NewTxn(update bool) kvTxn {
	return &pebbleTxn{
		b:    st.db.NewIndexedBatch(),
		sync: st.sync,
	}
}

func (st *pebbleStore) Close() error {
	return st.db.Close()
}

type pebbleTxn struct {
	b      *pebble.Batch
	sync   bool
	closed bool
}

func (tx *pebbleTxn) Get(key []byte) ([]byte, error) {
	val, closer, err := tx.b.Get(key)
	if err == pebble.ErrNotFound {
		return nil, errKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

func (tx *pebbleTxn) Set(key, val []byte) error {
	return tx.b.Set(key, val, nil)
}

func (tx *pebbleTxn) Delete(key []byte) error {
	return tx.b.Delete(key, nil)
}

func (tx *pebbleTxn) Scan(prefix []byte, withValues bool) ([]kvEntry, error) {
	iter, err := tx.b.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}

	var entries []kvEntry
	for iter.First(); iter.Valid(); iter.Next() {
		entry := kvEntry{
			key: append([]byte(nil), iter.Key()...),
		}
		if withValues {
			entry.val = append([]byte(nil), iter.Value()...)
		}
		entries = append(entries, entry)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return entries, nil
}

func (tx *pebbleTxn) Commit() error {
	err := tx.b.Commit(&pebble.WriteOptions{Sync: tx.sync})
	tx.Discard()
	return err
}

func (tx *pebbleTxn) Discard() {
	if !tx.closed {
		tx.closed = true
		tx.b.Close()
	}
}
