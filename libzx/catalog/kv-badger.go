package catalog

import (
	"runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

type badgerStore struct {
	db *badger.DB
}

func openBadgerStore(opts Opts) (*badgerStore, error) {
	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.SyncWrites = opts.SyncWrites
	dbOpts.DetectConflicts = false // one writer per namespace
	dbOpts.Logger = badgerLogger{}
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(ErrBadCatalogParam, "DbPathName must be specified for a read-only catalog")
		}
		dbOpts.InMemory = true
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	return &badgerStore{db: db}, nil
}

func (st *badgerStore) Engine() string {
	return EngineBadger
}

func (st *badgerStore) NewTxn(update bool) kvTxn {
	return badgerTxn{st.db.NewTransaction(update)}
}

func (st *badgerStore) Close() error {
	return st.db.Close()
}

type badgerTxn struct {
	txn *badger.Txn
}

func (tx badgerTxn) Get(key []byte) ([]byte, error) {
	item, err := tx.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, errKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (tx badgerTxn) Set(key, val []byte) error {
	return tx.txn.Set(append([]byte(nil), key...), val)
}

func (tx badgerTxn) Delete(key []byte) error {
	return tx.txn.Delete(append([]byte(nil), key...))
}

// Scan drains the iterator before returning since badger allows only one open iterator per write txn.
func (tx badgerTxn) Scan(prefix []byte, withValues bool) ([]kvEntry, error) {
	it := tx.txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: withValues,
		PrefetchSize:   100,
		Prefix:         prefix,
	})
	defer it.Close()

	var entries []kvEntry
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		entry := kvEntry{
			key: item.KeyCopy(nil),
		}
		if withValues {
			val, err := item.ValueCopy(nil)
			if err != nil {
				return nil, err
			}
			entry.val = val
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (tx badgerTxn) Commit() error {
	return tx.txn.Commit()
}

func (tx badgerTxn) Discard() {
	tx.txn.Discard()
}

// badgerLogger routes badger's log output through klog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	klog.Errorf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	klog.Warningf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	klog.V(2).Infof("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	klog.V(3).Infof("badger: "+format, args...)
}
