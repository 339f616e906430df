package catalog

import (
	"encoding/binary"
	"strings"

	"github.com/2x3systems/gozx/zx"
	"github.com/pkg/errors"
)

/***

Catalog key layout (ids are 8 byte big-endian so key order is id order):

	n/<gid>                    => nil          (namespace index)
	d/<gid>/m                  => DiagramMeta
	d/<gid>/v/<v>              => VertexRecord
	d/<gid>/e/<s><t>           => EdgeRecord   (s <= t)
	d/<gid>/a/<v><w>           => nil          (adjacency; both directions, a loop once)

***/

var gNamesPrefix = []byte("n/")

// diagramKeys forms the keys of a single namespace.
type diagramKeys struct {
	base []byte // "d/<gid>/"
}

func checkID(gid string) error {
	if len(gid) == 0 || strings.ContainsRune(gid, '/') {
		return errors.Wrapf(ErrBadDiagramID, "%q", gid)
	}
	return nil
}

func nameKey(gid string) []byte {
	return append(append([]byte(nil), gNamesPrefix...), gid...)
}

func keysFor(gid string) diagramKeys {
	return diagramKeys{
		base: []byte("d/" + gid + "/"),
	}
}

func (k diagramKeys) with(tag byte, ids ...zx.VtxID) []byte {
	key := make([]byte, 0, len(k.base)+2+8*len(ids))
	key = append(key, k.base...)
	key = append(key, tag, '/')
	for _, id := range ids {
		key = binary.BigEndian.AppendUint64(key, uint64(id))
	}
	return key
}

func (k diagramKeys) meta() []byte {
	return append(append([]byte(nil), k.base...), 'm')
}

func (k diagramKeys) vtx(v zx.VtxID) []byte {
	return k.with('v', v)
}

func (k diagramKeys) vtxPrefix() []byte {
	return k.with('v')
}

func (k diagramKeys) edge(e zx.Edge) []byte {
	return k.with('e', e.S, e.T)
}

func (k diagramKeys) edgePrefix() []byte {
	return k.with('e')
}

func (k diagramKeys) adj(v, w zx.VtxID) []byte {
	return k.with('a', v, w)
}

func (k diagramKeys) adjPrefix(v zx.VtxID) []byte {
	return k.with('a', v)
}

// idAt reads the big-endian id found at offset i past the tag of key.
func (k diagramKeys) idAt(key []byte, i int) zx.VtxID {
	ofs := len(k.base) + 2 + 8*i
	return zx.VtxID(binary.BigEndian.Uint64(key[ofs : ofs+8]))
}
