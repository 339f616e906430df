package catalog

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/gogo/protobuf/proto"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// vertex is a decoded VertexRecord as held in a handle's cache.
type vertex struct {
	typ   zx.VertexType
	phase phase.Phase
	qubit float64
	row   float64
	data  map[string]string
}

func (vx *vertex) record() *VertexRecord {
	return &VertexRecord{
		Type:  int32(vx.typ),
		Phase: vx.phase.String(),
		Qubit: vx.qubit,
		Row:   vx.row,
		Data:  vx.data,
	}
}

func (vx *vertex) copy() *vertex {
	dup := *vx
	if len(vx.data) > 0 {
		dup.data = make(map[string]string, len(vx.data))
		for k, v := range vx.data {
			dup.data[k] = v
		}
	}
	return &dup
}

// diagram is a zx.Diagram stored in a KV catalog.
//
// Outside of Apply each call runs in its own txn; inside Apply every call shares the Apply txn.
type diagram struct {
	cat   *catalog
	gid   string
	keys  diagramKeys
	cache *lru.Cache[zx.VtxID, *vertex]
	tx    kvTxn
}

func newDiagram(cat *catalog, gid string) (*diagram, error) {
	cache, err := lru.New[zx.VtxID, *vertex](cat.opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &diagram{
		cat:   cat,
		gid:   gid,
		keys:  keysFor(gid),
		cache: cache,
	}, nil
}

func (X *diagram) read(fn func(tx kvTxn) error) error {
	if X.tx != nil {
		return fn(X.tx)
	}
	if X.cat.kv == nil {
		return ErrCatalogClosed
	}
	tx := X.cat.kv.NewTxn(false)
	defer tx.Discard()
	return fn(tx)
}

func (X *diagram) write(fn func(tx kvTxn) error) error {
	if X.tx != nil {
		return fn(X.tx)
	}
	if X.cat.kv == nil {
		return ErrCatalogClosed
	}
	if X.cat.opts.ReadOnly {
		return ErrReadOnly
	}
	tx := X.cat.kv.NewTxn(true)
	defer tx.Discard()

	err := fn(tx)
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		X.cache.Purge()
	}
	return err
}

// Apply runs fn inside a single KV txn; if fn or the commit fails, nothing fn wrote is kept.
func (X *diagram) Apply(fn func(tx zx.Diagram) error) error {
	if X.tx != nil {
		return fn(X)
	}
	return X.write(func(tx kvTxn) error {
		view := *X
		view.tx = tx
		return fn(&view)
	})
}

func (X *diagram) ID() string {
	return X.gid
}

func (X *diagram) Backend() string {
	return X.cat.Engine()
}

func (X *diagram) loadMeta(tx kvTxn) (*DiagramMeta, error) {
	val, err := tx.Get(X.keys.meta())
	if err == errKeyNotFound {
		return nil, errors.Wrapf(ErrDiagramNotFound, "%q", X.gid)
	}
	if err != nil {
		return nil, err
	}
	meta := &DiagramMeta{}
	if err = proto.Unmarshal(val, meta); err != nil {
		return nil, errors.Wrapf(err, "diagram %q meta", X.gid)
	}
	return meta, nil
}

func (X *diagram) storeMeta(tx kvTxn, meta *DiagramMeta) error {
	buf, err := proto.Marshal(meta)
	if err != nil {
		return err
	}
	return tx.Set(X.keys.meta(), buf)
}

func (X *diagram) loadVtx(tx kvTxn, v zx.VtxID) (*vertex, error) {
	if vx, ok := X.cache.Get(v); ok {
		return vx, nil
	}
	val, err := tx.Get(X.keys.vtx(v))
	if err == errKeyNotFound {
		return nil, errors.Wrapf(zx.ErrMissingVertex, "vertex %d", v)
	}
	if err != nil {
		return nil, err
	}
	rec := &VertexRecord{}
	if err = proto.Unmarshal(val, rec); err != nil {
		return nil, errors.Wrapf(err, "vertex %d", v)
	}
	ph, err := parsePhase(rec.Phase)
	if err != nil {
		return nil, errors.Wrapf(err, "vertex %d", v)
	}
	vx := &vertex{
		typ:   zx.VertexType(rec.Type),
		phase: ph,
		qubit: rec.Qubit,
		row:   rec.Row,
		data:  rec.Data,
	}
	X.cache.Add(v, vx)
	return vx, nil
}

func (X *diagram) storeVtx(tx kvTxn, v zx.VtxID, vx *vertex) error {
	buf, err := proto.Marshal(vx.record())
	if err != nil {
		return err
	}
	if err = tx.Set(X.keys.vtx(v), buf); err != nil {
		return err
	}
	X.cache.Add(v, vx)
	return nil
}

// updateVtx applies fn to a copy of v's record and stores the result.
func (X *diagram) updateVtx(v zx.VtxID, fn func(vx *vertex) error) error {
	return X.write(func(tx kvTxn) error {
		vx, err := X.loadVtx(tx, v)
		if err != nil {
			return err
		}
		vx = vx.copy()
		if err = fn(vx); err != nil {
			return err
		}
		return X.storeVtx(tx, v, vx)
	})
}

func (X *diagram) loadEdge(tx kvTxn, e zx.Edge) (*EdgeRecord, error) {
	e = zx.FormEdge(e.S, e.T)
	val, err := tx.Get(X.keys.edge(e))
	if err == errKeyNotFound {
		return nil, errors.Wrapf(zx.ErrMissingEdge, "edge %v", e)
	}
	if err != nil {
		return nil, err
	}
	rec := &EdgeRecord{}
	if err = proto.Unmarshal(val, rec); err != nil {
		return nil, errors.Wrapf(err, "edge %v", e)
	}
	return rec, nil
}

func (X *diagram) storeEdge(tx kvTxn, e zx.Edge, rec *EdgeRecord) error {
	buf, err := proto.Marshal(rec)
	if err != nil {
		return err
	}
	return tx.Set(X.keys.edge(zx.FormEdge(e.S, e.T)), buf)
}

func (X *diagram) updateEdge(e zx.Edge, fn func(rec *EdgeRecord) error) error {
	return X.write(func(tx kvTxn) error {
		rec, err := X.loadEdge(tx, e)
		if err != nil {
			return err
		}
		if err = fn(rec); err != nil {
			return err
		}
		return X.storeEdge(tx, e, rec)
	})
}

func (X *diagram) AddVertices(n int) ([]zx.VtxID, error) {
	if n < 0 {
		return nil, errors.Wrapf(zx.ErrBadCount, "%d", n)
	}
	ids := make([]zx.VtxID, 0, n)
	err := X.Apply(func(tx zx.Diagram) error {
		view := tx.(*diagram)
		for i := 0; i < n; i++ {
			v, err := view.addVertex(zx.Boundary, -1, -1, phase.Zero)
			if err != nil {
				return err
			}
			ids = append(ids, v)
		}
		return nil
	})
	return ids, err
}

func (X *diagram) AddVertex(vt zx.VertexType, qubit, row float64, ph ...phase.Phase) (zx.VtxID, error) {
	if !vt.Valid() {
		return 0, errors.Wrapf(zx.ErrBadVertexType, "%d", vt)
	}
	p := phase.Zero
	switch {
	case len(ph) > 0:
		p = ph[0]
	case vt == zx.HBox:
		p = phase.One
	}
	return X.addVertex(vt, qubit, row, p)
}

func (X *diagram) addVertex(vt zx.VertexType, qubit, row float64, p phase.Phase) (zx.VtxID, error) {
	var v zx.VtxID
	err := X.write(func(tx kvTxn) error {
		meta, err := X.loadMeta(tx)
		if err != nil {
			return err
		}
		v = zx.VtxID(meta.NextVtx)
		meta.NextVtx++
		if err = X.storeMeta(tx, meta); err != nil {
			return err
		}
		return X.storeVtx(tx, v, &vertex{
			typ:   vt,
			phase: p,
			qubit: qubit,
			row:   row,
		})
	})
	return v, err
}

func (X *diagram) AddEdge(s, t zx.VtxID, et zx.EdgeType) (eid zx.EdgeID, err error) {
	err = X.Apply(func(tx zx.Diagram) error {
		eid, err = zx.FuseEdge(tx, s, t, et)
		return err
	})
	return eid, err
}

func (X *diagram) PutEdge(s, t zx.VtxID, et zx.EdgeType) (zx.EdgeID, error) {
	if !et.Valid() {
		return zx.NilEdge, errors.Wrapf(zx.ErrBadEdgeType, "%d", et)
	}
	var eid zx.EdgeID
	err := X.write(func(tx kvTxn) error {
		if _, err := X.loadVtx(tx, s); err != nil {
			return err
		}
		if _, err := X.loadVtx(tx, t); err != nil {
			return err
		}

		e := zx.FormEdge(s, t)
		rec, err := X.loadEdge(tx, e)
		switch {
		case err == nil:
			rec.Type = int32(et)
			eid = zx.EdgeID(rec.ID)
			return X.storeEdge(tx, e, rec)
		case !errors.Is(err, zx.ErrMissingEdge):
			return err
		}

		meta, err := X.loadMeta(tx)
		if err != nil {
			return err
		}
		eid = zx.EdgeID(meta.NextEdge)
		meta.NextEdge++
		if err = X.storeMeta(tx, meta); err != nil {
			return err
		}
		if err = X.storeEdge(tx, e, &EdgeRecord{ID: int64(eid), Type: int32(et)}); err != nil {
			return err
		}
		if err = tx.Set(X.keys.adj(s, t), nil); err != nil {
			return err
		}
		return tx.Set(X.keys.adj(t, s), nil)
	})
	return eid, err
}

func (X *diagram) removeEdge(tx kvTxn, e zx.Edge) error {
	if err := tx.Delete(X.keys.edge(e)); err != nil {
		return err
	}
	if err := tx.Delete(X.keys.adj(e.S, e.T)); err != nil {
		return err
	}
	return tx.Delete(X.keys.adj(e.T, e.S))
}

func (X *diagram) RemoveVertices(vs ...zx.VtxID) error {
	return X.write(func(tx kvTxn) error {
		dropped := make(map[zx.VtxID]struct{}, len(vs))
		for _, v := range vs {
			if _, err := tx.Get(X.keys.vtx(v)); err == errKeyNotFound {
				continue
			} else if err != nil {
				return err
			}
			nbrs, err := X.neighbors(tx, v)
			if err != nil {
				return err
			}
			for _, w := range nbrs {
				if err = X.removeEdge(tx, zx.FormEdge(v, w)); err != nil {
					return err
				}
			}
			if err = tx.Delete(X.keys.vtx(v)); err != nil {
				return err
			}
			X.cache.Remove(v)
			dropped[v] = struct{}{}
		}
		if len(dropped) == 0 {
			return nil
		}

		meta, err := X.loadMeta(tx)
		if err != nil {
			return err
		}
		meta.Inputs = prune(meta.Inputs, dropped)
		meta.Outputs = prune(meta.Outputs, dropped)
		return X.storeMeta(tx, meta)
	})
}

func prune(seq []int64, dropped map[zx.VtxID]struct{}) []int64 {
	out := seq[:0]
	for _, v := range seq {
		if _, gone := dropped[zx.VtxID(v)]; !gone {
			out = append(out, v)
		}
	}
	return out
}

func (X *diagram) RemoveEdges(es ...zx.Edge) error {
	return X.write(func(tx kvTxn) error {
		for _, e := range es {
			e = zx.FormEdge(e.S, e.T)
			if _, err := tx.Get(X.keys.edge(e)); err == errKeyNotFound {
				continue
			} else if err != nil {
				return err
			}
			if err := X.removeEdge(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (X *diagram) Vertices() ([]zx.VtxID, error) {
	var vs []zx.VtxID
	err := X.read(func(tx kvTxn) error {
		entries, err := tx.Scan(X.keys.vtxPrefix(), false)
		if err != nil {
			return err
		}
		vs = make([]zx.VtxID, len(entries))
		for i, entry := range entries {
			vs[i] = X.keys.idAt(entry.key, 0)
		}
		return nil
	})
	return vs, err
}

func (X *diagram) Edges() ([]zx.Edge, error) {
	var es []zx.Edge
	err := X.read(func(tx kvTxn) error {
		entries, err := tx.Scan(X.keys.edgePrefix(), false)
		if err != nil {
			return err
		}
		es = make([]zx.Edge, len(entries))
		for i, entry := range entries {
			es[i] = zx.Edge{
				S: X.keys.idAt(entry.key, 0),
				T: X.keys.idAt(entry.key, 1),
			}
		}
		return nil
	})
	return es, err
}

func (X *diagram) NumVertices() (int, error) {
	vs, err := X.Vertices()
	return len(vs), err
}

func (X *diagram) NumEdges() (int, error) {
	es, err := X.Edges()
	return len(es), err
}

func (X *diagram) HasVertex(v zx.VtxID) (bool, error) {
	found := false
	err := X.read(func(tx kvTxn) error {
		_, err := X.loadVtx(tx, v)
		if errors.Is(err, zx.ErrMissingVertex) {
			return nil
		}
		found = err == nil
		return err
	})
	return found, err
}

func (X *diagram) getVtx(v zx.VtxID) (vx *vertex, err error) {
	err = X.read(func(tx kvTxn) error {
		vx, err = X.loadVtx(tx, v)
		return err
	})
	return vx, err
}

func (X *diagram) Type(v zx.VtxID) (zx.VertexType, error) {
	vx, err := X.getVtx(v)
	if err != nil {
		return zx.Boundary, err
	}
	return vx.typ, nil
}

func (X *diagram) SetType(v zx.VtxID, vt zx.VertexType) error {
	if !vt.Valid() {
		return errors.Wrapf(zx.ErrBadVertexType, "%d", vt)
	}
	return X.updateVtx(v, func(vx *vertex) error {
		vx.typ = vt
		return nil
	})
}

func (X *diagram) Phase(v zx.VtxID) (phase.Phase, error) {
	vx, err := X.getVtx(v)
	if err != nil {
		return phase.Zero, err
	}
	return vx.phase, nil
}

func (X *diagram) SetPhase(v zx.VtxID, ph phase.Phase) error {
	return X.updateVtx(v, func(vx *vertex) error {
		vx.phase = ph.Add(phase.Zero)
		return nil
	})
}

func (X *diagram) AddToPhase(v zx.VtxID, ph phase.Phase) error {
	return X.updateVtx(v, func(vx *vertex) error {
		vx.phase = vx.phase.Add(ph)
		return nil
	})
}

func (X *diagram) Qubit(v zx.VtxID) (float64, error) {
	vx, err := X.getVtx(v)
	if err != nil {
		return 0, err
	}
	return vx.qubit, nil
}

func (X *diagram) SetQubit(v zx.VtxID, q float64) error {
	return X.updateVtx(v, func(vx *vertex) error {
		vx.qubit = q
		return nil
	})
}

func (X *diagram) Row(v zx.VtxID) (float64, error) {
	vx, err := X.getVtx(v)
	if err != nil {
		return 0, err
	}
	return vx.row, nil
}

func (X *diagram) SetRow(v zx.VtxID, r float64) error {
	return X.updateVtx(v, func(vx *vertex) error {
		vx.row = r
		return nil
	})
}

func (X *diagram) VData(v zx.VtxID, key string, def string) (string, error) {
	vx, err := X.getVtx(v)
	if err != nil {
		return def, err
	}
	if val, ok := vx.data[key]; ok {
		return val, nil
	}
	return def, nil
}

func (X *diagram) SetVData(v zx.VtxID, key, val string) error {
	return X.updateVtx(v, func(vx *vertex) error {
		if vx.data == nil {
			vx.data = make(map[string]string)
		}
		vx.data[key] = val
		return nil
	})
}

func (X *diagram) ClearVData(v zx.VtxID, key string) error {
	return X.updateVtx(v, func(vx *vertex) error {
		delete(vx.data, key)
		return nil
	})
}

func (X *diagram) VDataKeys(v zx.VtxID) ([]string, error) {
	vx, err := X.getVtx(v)
	if err != nil {
		return nil, err
	}
	return sortedKeys(vx.data), nil
}

func (X *diagram) getEdge(e zx.Edge) (rec *EdgeRecord, err error) {
	err = X.read(func(tx kvTxn) error {
		rec, err = X.loadEdge(tx, e)
		return err
	})
	return rec, err
}

func (X *diagram) EdgeType(e zx.Edge) (zx.EdgeType, error) {
	rec, err := X.getEdge(e)
	if err != nil {
		return zx.Plain, err
	}
	return zx.EdgeType(rec.Type), nil
}

func (X *diagram) SetEdgeType(e zx.Edge, et zx.EdgeType) error {
	if !et.Valid() {
		return errors.Wrapf(zx.ErrBadEdgeType, "%d", et)
	}
	return X.updateEdge(e, func(rec *EdgeRecord) error {
		rec.Type = int32(et)
		return nil
	})
}

func (X *diagram) EdgeID(e zx.Edge) (zx.EdgeID, error) {
	rec, err := X.getEdge(e)
	if err != nil {
		return zx.NilEdge, err
	}
	return zx.EdgeID(rec.ID), nil
}

func (X *diagram) EData(e zx.Edge, key string, def string) (string, error) {
	rec, err := X.getEdge(e)
	if err != nil {
		return def, err
	}
	if val, ok := rec.Data[key]; ok {
		return val, nil
	}
	return def, nil
}

func (X *diagram) SetEData(e zx.Edge, key, val string) error {
	return X.updateEdge(e, func(rec *EdgeRecord) error {
		if rec.Data == nil {
			rec.Data = make(map[string]string)
		}
		rec.Data[key] = val
		return nil
	})
}

func (X *diagram) ClearEData(e zx.Edge, key string) error {
	return X.updateEdge(e, func(rec *EdgeRecord) error {
		delete(rec.Data, key)
		return nil
	})
}

func (X *diagram) EDataKeys(e zx.Edge) ([]string, error) {
	rec, err := X.getEdge(e)
	if err != nil {
		return nil, err
	}
	return sortedKeys(rec.Data), nil
}

func (X *diagram) neighbors(tx kvTxn, v zx.VtxID) ([]zx.VtxID, error) {
	if _, err := X.loadVtx(tx, v); err != nil {
		return nil, err
	}
	entries, err := tx.Scan(X.keys.adjPrefix(v), false)
	if err != nil {
		return nil, err
	}
	nbrs := make([]zx.VtxID, len(entries))
	for i, entry := range entries {
		nbrs[i] = X.keys.idAt(entry.key, 1)
	}
	return nbrs, nil
}

func (X *diagram) Neighbors(v zx.VtxID) (nbrs []zx.VtxID, err error) {
	err = X.read(func(tx kvTxn) error {
		nbrs, err = X.neighbors(tx, v)
		return err
	})
	return nbrs, err
}

func (X *diagram) IncidentEdges(v zx.VtxID) ([]zx.Edge, error) {
	nbrs, err := X.Neighbors(v)
	if err != nil {
		return nil, err
	}
	es := make([]zx.Edge, len(nbrs))
	for i, w := range nbrs {
		es[i] = zx.FormEdge(v, w)
	}
	return es, nil
}

func (X *diagram) Degree(v zx.VtxID) (int, error) {
	nbrs, err := X.Neighbors(v)
	return len(nbrs), err
}

func (X *diagram) Connected(a, b zx.VtxID) (connected bool, err error) {
	err = X.read(func(tx kvTxn) error {
		if _, err := X.loadVtx(tx, a); err != nil {
			return err
		}
		_, err := tx.Get(X.keys.adj(a, b))
		switch err {
		case nil:
			connected = true
		case errKeyNotFound:
			err = nil
		}
		return err
	})
	return connected, err
}

func (X *diagram) Inputs() ([]zx.VtxID, error) {
	meta, err := X.getMeta()
	if err != nil {
		return nil, err
	}
	return idsFromRecord(meta.Inputs), nil
}

func (X *diagram) SetInputs(vs []zx.VtxID) error {
	return X.updateMeta(func(meta *DiagramMeta) error {
		meta.Inputs = idsToRecord(vs)
		return nil
	})
}

func (X *diagram) Outputs() ([]zx.VtxID, error) {
	meta, err := X.getMeta()
	if err != nil {
		return nil, err
	}
	return idsFromRecord(meta.Outputs), nil
}

func (X *diagram) SetOutputs(vs []zx.VtxID) error {
	return X.updateMeta(func(meta *DiagramMeta) error {
		meta.Outputs = idsToRecord(vs)
		return nil
	})
}

func (X *diagram) getMeta() (meta *DiagramMeta, err error) {
	err = X.read(func(tx kvTxn) error {
		meta, err = X.loadMeta(tx)
		return err
	})
	return meta, err
}

func (X *diagram) updateMeta(fn func(meta *DiagramMeta) error) error {
	return X.write(func(tx kvTxn) error {
		meta, err := X.loadMeta(tx)
		if err != nil {
			return err
		}
		if err = fn(meta); err != nil {
			return err
		}
		return X.storeMeta(tx, meta)
	})
}

func (X *diagram) Scalar() (zx.Scalar, error) {
	meta, err := X.getMeta()
	if err != nil {
		return zx.Scalar{}, err
	}
	return scalarFromRecord(meta.Scalar)
}

func (X *diagram) SetScalar(s zx.Scalar) error {
	return X.updateMeta(func(meta *DiagramMeta) error {
		meta.Scalar = scalarToRecord(s)
		return nil
	})
}

func (X *diagram) UpdateScalar(fn func(s *zx.Scalar)) error {
	return X.updateMeta(func(meta *DiagramMeta) error {
		s, err := scalarFromRecord(meta.Scalar)
		if err != nil {
			return err
		}
		fn(&s)
		meta.Scalar = scalarToRecord(s)
		return nil
	})
}

// Clone copies every key of this namespace under "<id>_clone_<uuid>" in one txn.
func (X *diagram) Clone() (zx.Diagram, error) {
	gid := cloneID(X.gid)
	dup, err := newDiagram(X.cat, gid)
	if err != nil {
		return nil, err
	}
	err = X.write(func(tx kvTxn) error {
		entries, err := tx.Scan(X.keys.base, true)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			key := append(append([]byte(nil), dup.keys.base...), entry.key[len(X.keys.base):]...)
			if err = tx.Set(key, entry.val); err != nil {
				return err
			}
		}
		return tx.Set(nameKey(gid), nil)
	})
	if err != nil {
		return nil, err
	}
	return dup, nil
}

func (X *diagram) RemoveIsolatedVertices() error {
	return X.Apply(func(tx zx.Diagram) error {
		return zx.RemoveIsolated(tx)
	})
}

var _ zx.Diagram = (*diagram)(nil)
