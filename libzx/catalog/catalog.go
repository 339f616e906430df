// Package catalog stores diagrams in a transactional KV store (badger or pebble).
//
// Each diagram lives under its own key namespace so a single store can hold many diagrams,
// and each rewrite applied through Diagram.Apply is committed as one KV transaction.
package catalog

import (
	"sort"

	"github.com/2x3systems/gozx/zx"
	"github.com/gogo/protobuf/proto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

const DefaultCacheSize = 4096

type catalog struct {
	kv   kvStore
	opts Opts
}

// OpenCatalog opens (or creates) a catalog on the engine named in opts.
func OpenCatalog(opts Opts) (Catalog, error) {
	switch opts.Engine {
	case "", EngineBadger:
		return OpenBadger(opts)
	case EnginePebble:
		return OpenPebble(opts)
	}
	return nil, errors.Wrapf(ErrUnknownEngine, "%q", opts.Engine)
}

func OpenBadger(opts Opts) (Catalog, error) {
	opts.Engine = EngineBadger
	kv, err := openBadgerStore(opts)
	if err != nil {
		return nil, err
	}
	return newCatalog(kv, opts), nil
}

func OpenPebble(opts Opts) (Catalog, error) {
	opts.Engine = EnginePebble
	kv, err := openPebbleStore(opts)
	if err != nil {
		return nil, err
	}
	return newCatalog(kv, opts), nil
}

func newCatalog(kv kvStore, opts Opts) *catalog {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	klog.V(1).Infof("catalog: opened %s store (path %q)", kv.Engine(), opts.DbPathName)
	return &catalog{
		kv:   kv,
		opts: opts,
	}
}

func (cat *catalog) Engine() string {
	return cat.opts.Engine
}

func (cat *catalog) NewDiagram() (zx.Diagram, error) {
	return cat.NewDiagramWithID(uuid.NewString())
}

func (cat *catalog) NewDiagramWithID(gid string) (zx.Diagram, error) {
	if err := checkID(gid); err != nil {
		return nil, err
	}
	X, err := newDiagram(cat, gid)
	if err != nil {
		return nil, err
	}

	err = X.write(func(tx kvTxn) error {
		if _, err := tx.Get(nameKey(gid)); err == nil {
			return errors.Wrapf(ErrDiagramExists, "%q", gid)
		} else if err != errKeyNotFound {
			return err
		}
		buf, err := proto.Marshal(&DiagramMeta{
			NextVtx:  1,
			NextEdge: 1,
			Scalar:   scalarToRecord(zx.Scalar{}),
		})
		if err != nil {
			return err
		}
		if err = tx.Set(X.keys.meta(), buf); err != nil {
			return err
		}
		return tx.Set(nameKey(gid), nil)
	})
	if err != nil {
		return nil, err
	}
	return X, nil
}

func (cat *catalog) OpenDiagram(gid string) (zx.Diagram, error) {
	if err := checkID(gid); err != nil {
		return nil, err
	}
	X, err := newDiagram(cat, gid)
	if err != nil {
		return nil, err
	}
	if _, err = X.getMeta(); err != nil {
		return nil, err
	}
	return X, nil
}

func (cat *catalog) List() ([]string, error) {
	if cat.kv == nil {
		return nil, ErrCatalogClosed
	}
	tx := cat.kv.NewTxn(false)
	defer tx.Discard()

	entries, err := tx.Scan(gNamesPrefix, false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = string(entry.key[len(gNamesPrefix):])
	}
	return ids, nil
}

func (cat *catalog) Drop(gid string) error {
	if err := checkID(gid); err != nil {
		return err
	}
	X, err := newDiagram(cat, gid)
	if err != nil {
		return err
	}
	return X.write(func(tx kvTxn) error {
		if _, err := tx.Get(nameKey(gid)); err == errKeyNotFound {
			return errors.Wrapf(ErrDiagramNotFound, "%q", gid)
		} else if err != nil {
			return errors.Wrapf(err, "drop %q", gid)
		}
		entries, err := tx.Scan(X.keys.base, false)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err = tx.Delete(entry.key); err != nil {
				return err
			}
		}
		return tx.Delete(nameKey(gid))
	})
}

func (cat *catalog) Close() error {
	if cat.kv == nil {
		return nil
	}
	err := cat.kv.Close()
	cat.kv = nil
	return err
}

func cloneID(gid string) string {
	return gid + "_clone_" + uuid.NewString()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
