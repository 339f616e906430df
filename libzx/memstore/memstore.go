// Package memstore is the in-process Diagram backend: an arena of vertex and edge records held
// in ordered tree maps so iteration (and therefore rule matching) is deterministic.
package memstore

import (
	"sort"

	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const BackendName = "memory"

type vtxRec struct {
	typ   zx.VertexType
	phase phase.Phase
	qubit float64
	row   float64
	data  map[string]string
	adj   *treemap.Map // zx.VtxID => *edgeRec
}

type edgeRec struct {
	id   zx.EdgeID
	typ  zx.EdgeType
	data map[string]string
}

// Diagram is the in-memory zx.Diagram.
type Diagram struct {
	id       string
	verts    *treemap.Map // zx.VtxID => *vtxRec
	edges    *treemap.Map // zx.Edge => *edgeRec
	nextVtx  zx.VtxID
	nextEdge zx.EdgeID
	inputs   []zx.VtxID
	outputs  []zx.VtxID
	scalar   zx.Scalar
}

func vtxComparator(a, b interface{}) int {
	va, vb := a.(zx.VtxID), b.(zx.VtxID)
	switch {
	case va < vb:
		return -1
	case va > vb:
		return 1
	}
	return 0
}

func edgeComparator(a, b interface{}) int {
	ea, eb := a.(zx.Edge), b.(zx.Edge)
	if c := vtxComparator(ea.S, eb.S); c != 0 {
		return c
	}
	return vtxComparator(ea.T, eb.T)
}

// New returns an empty diagram with a fresh random id.
func New() *Diagram {
	return NewWithID(uuid.NewString())
}

func NewWithID(id string) *Diagram {
	return &Diagram{
		id:       id,
		verts:    treemap.NewWith(vtxComparator),
		edges:    treemap.NewWith(edgeComparator),
		nextVtx:  1,
		nextEdge: 1,
	}
}

// Opener creates memstore diagrams.
var Opener = zx.OpenerFunc(func() (zx.Diagram, error) {
	return New(), nil
})

func (X *Diagram) ID() string {
	return X.id
}

func (X *Diagram) Backend() string {
	return BackendName
}

func (X *Diagram) vtx(v zx.VtxID) (*vtxRec, error) {
	rec, found := X.verts.Get(v)
	if !found {
		return nil, errors.Wrapf(zx.ErrMissingVertex, "vertex %d", v)
	}
	return rec.(*vtxRec), nil
}

func (X *Diagram) edge(e zx.Edge) (*edgeRec, error) {
	rec, found := X.edges.Get(e)
	if !found {
		return nil, errors.Wrapf(zx.ErrMissingEdge, "edge %v", e)
	}
	return rec.(*edgeRec), nil
}

func (X *Diagram) AddVertices(n int) ([]zx.VtxID, error) {
	if n < 0 {
		return nil, errors.Wrapf(zx.ErrBadCount, "%d", n)
	}
	ids := make([]zx.VtxID, n)
	for i := range ids {
		ids[i], _ = X.AddVertex(zx.Boundary, -1, -1)
	}
	return ids, nil
}

func (X *Diagram) AddVertex(vt zx.VertexType, qubit, row float64, ph ...phase.Phase) (zx.VtxID, error) {
	if !vt.Valid() {
		return 0, errors.Wrapf(zx.ErrBadVertexType, "%d", vt)
	}
	rec := &vtxRec{
		typ:   vt,
		qubit: qubit,
		row:   row,
		adj:   treemap.NewWith(vtxComparator),
	}
	switch {
	case len(ph) > 0:
		rec.phase = ph[0].Add(phase.Zero)
	case vt == zx.HBox:
		rec.phase = phase.One
	}

	v := X.nextVtx
	X.nextVtx++
	X.verts.Put(v, rec)
	return v, nil
}

func (X *Diagram) AddEdge(s, t zx.VtxID, et zx.EdgeType) (zx.EdgeID, error) {
	return zx.FuseEdge(X, s, t, et)
}

func (X *Diagram) PutEdge(s, t zx.VtxID, et zx.EdgeType) (zx.EdgeID, error) {
	if !et.Valid() {
		return zx.NilEdge, errors.Wrapf(zx.ErrBadEdgeType, "%d", et)
	}
	vs, err := X.vtx(s)
	if err != nil {
		return zx.NilEdge, err
	}
	vt, err := X.vtx(t)
	if err != nil {
		return zx.NilEdge, err
	}

	e := zx.FormEdge(s, t)
	if rec, found := X.edges.Get(e); found {
		rec.(*edgeRec).typ = et
		return rec.(*edgeRec).id, nil
	}

	rec := &edgeRec{
		id:  X.nextEdge,
		typ: et,
	}
	X.nextEdge++
	X.edges.Put(e, rec)
	vs.adj.Put(t, rec)
	vt.adj.Put(s, rec)
	return rec.id, nil
}

func (X *Diagram) RemoveVertices(vs ...zx.VtxID) error {
	dropped := make(map[zx.VtxID]struct{}, len(vs))
	for _, v := range vs {
		rec, found := X.verts.Get(v)
		if !found {
			continue
		}
		it := rec.(*vtxRec).adj.Iterator()
		for it.Next() {
			w := it.Key().(zx.VtxID)
			X.edges.Remove(zx.FormEdge(v, w))
			if w != v {
				if wrec, ok := X.verts.Get(w); ok {
					wrec.(*vtxRec).adj.Remove(v)
				}
			}
		}
		X.verts.Remove(v)
		dropped[v] = struct{}{}
	}
	X.inputs = prune(X.inputs, dropped)
	X.outputs = prune(X.outputs, dropped)
	return nil
}

func prune(seq []zx.VtxID, dropped map[zx.VtxID]struct{}) []zx.VtxID {
	out := seq[:0]
	for _, v := range seq {
		if _, gone := dropped[v]; !gone {
			out = append(out, v)
		}
	}
	return out
}

func (X *Diagram) RemoveEdges(es ...zx.Edge) error {
	for _, e := range es {
		e = zx.FormEdge(e.S, e.T)
		if _, found := X.edges.Get(e); !found {
			continue
		}
		X.edges.Remove(e)
		if rec, ok := X.verts.Get(e.S); ok {
			rec.(*vtxRec).adj.Remove(e.T)
		}
		if rec, ok := X.verts.Get(e.T); ok {
			rec.(*vtxRec).adj.Remove(e.S)
		}
	}
	return nil
}

func (X *Diagram) Vertices() ([]zx.VtxID, error) {
	vs := make([]zx.VtxID, 0, X.verts.Size())
	for _, k := range X.verts.Keys() {
		vs = append(vs, k.(zx.VtxID))
	}
	return vs, nil
}

func (X *Diagram) Edges() ([]zx.Edge, error) {
	es := make([]zx.Edge, 0, X.edges.Size())
	for _, k := range X.edges.Keys() {
		es = append(es, k.(zx.Edge))
	}
	return es, nil
}

func (X *Diagram) NumVertices() (int, error) {
	return X.verts.Size(), nil
}

func (X *Diagram) NumEdges() (int, error) {
	return X.edges.Size(), nil
}

func (X *Diagram) HasVertex(v zx.VtxID) (bool, error) {
	_, found := X.verts.Get(v)
	return found, nil
}

func (X *Diagram) Type(v zx.VtxID) (zx.VertexType, error) {
	rec, err := X.vtx(v)
	if err != nil {
		return zx.Boundary, err
	}
	return rec.typ, nil
}

func (X *Diagram) SetType(v zx.VtxID, vt zx.VertexType) error {
	if !vt.Valid() {
		return errors.Wrapf(zx.ErrBadVertexType, "%d", vt)
	}
	rec, err := X.vtx(v)
	if err != nil {
		return err
	}
	rec.typ = vt
	return nil
}

func (X *Diagram) Phase(v zx.VtxID) (phase.Phase, error) {
	rec, err := X.vtx(v)
	if err != nil {
		return phase.Zero, err
	}
	return rec.phase, nil
}

func (X *Diagram) SetPhase(v zx.VtxID, ph phase.Phase) error {
	rec, err := X.vtx(v)
	if err != nil {
		return err
	}
	rec.phase = ph.Add(phase.Zero)
	return nil
}

func (X *Diagram) AddToPhase(v zx.VtxID, ph phase.Phase) error {
	rec, err := X.vtx(v)
	if err != nil {
		return err
	}
	rec.phase = rec.phase.Add(ph)
	return nil
}

func (X *Diagram) Qubit(v zx.VtxID) (float64, error) {
	rec, err := X.vtx(v)
	if err != nil {
		return 0, err
	}
	return rec.qubit, nil
}

func (X *Diagram) SetQubit(v zx.VtxID, q float64) error {
	rec, err := X.vtx(v)
	if err != nil {
		return err
	}
	rec.qubit = q
	return nil
}

func (X *Diagram) Row(v zx.VtxID) (float64, error) {
	rec, err := X.vtx(v)
	if err != nil {
		return 0, err
	}
	return rec.row, nil
}

func (X *Diagram) SetRow(v zx.VtxID, r float64) error {
	rec, err := X.vtx(v)
	if err != nil {
		return err
	}
	rec.row = r
	return nil
}

func (X *Diagram) VData(v zx.VtxID, key string, def string) (string, error) {
	rec, err := X.vtx(v)
	if err != nil {
		return def, err
	}
	if val, ok := rec.data[key]; ok {
		return val, nil
	}
	return def, nil
}

func (X *Diagram) SetVData(v zx.VtxID, key, val string) error {
	rec, err := X.vtx(v)
	if err != nil {
		return err
	}
	if rec.data == nil {
		rec.data = make(map[string]string)
	}
	rec.data[key] = val
	return nil
}

func (X *Diagram) ClearVData(v zx.VtxID, key string) error {
	rec, err := X.vtx(v)
	if err != nil {
		return err
	}
	delete(rec.data, key)
	return nil
}

func (X *Diagram) VDataKeys(v zx.VtxID) ([]string, error) {
	rec, err := X.vtx(v)
	if err != nil {
		return nil, err
	}
	return sortedKeys(rec.data), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (X *Diagram) EdgeType(e zx.Edge) (zx.EdgeType, error) {
	rec, err := X.edge(zx.FormEdge(e.S, e.T))
	if err != nil {
		return zx.Plain, err
	}
	return rec.typ, nil
}

func (X *Diagram) SetEdgeType(e zx.Edge, et zx.EdgeType) error {
	if !et.Valid() {
		return errors.Wrapf(zx.ErrBadEdgeType, "%d", et)
	}
	rec, err := X.edge(zx.FormEdge(e.S, e.T))
	if err != nil {
		return err
	}
	rec.typ = et
	return nil
}

func (X *Diagram) EdgeID(e zx.Edge) (zx.EdgeID, error) {
	rec, err := X.edge(zx.FormEdge(e.S, e.T))
	if err != nil {
		return zx.NilEdge, err
	}
	return rec.id, nil
}

func (X *Diagram) EData(e zx.Edge, key string, def string) (string, error) {
	rec, err := X.edge(zx.FormEdge(e.S, e.T))
	if err != nil {
		return def, err
	}
	if val, ok := rec.data[key]; ok {
		return val, nil
	}
	return def, nil
}

func (X *Diagram) SetEData(e zx.Edge, key, val string) error {
	rec, err := X.edge(zx.FormEdge(e.S, e.T))
	if err != nil {
		return err
	}
	if rec.data == nil {
		rec.data = make(map[string]string)
	}
	rec.data[key] = val
	return nil
}

func (X *Diagram) ClearEData(e zx.Edge, key string) error {
	rec, err := X.edge(zx.FormEdge(e.S, e.T))
	if err != nil {
		return err
	}
	delete(rec.data, key)
	return nil
}

func (X *Diagram) EDataKeys(e zx.Edge) ([]string, error) {
	rec, err := X.edge(zx.FormEdge(e.S, e.T))
	if err != nil {
		return nil, err
	}
	return sortedKeys(rec.data), nil
}

func (X *Diagram) Neighbors(v zx.VtxID) ([]zx.VtxID, error) {
	rec, err := X.vtx(v)
	if err != nil {
		return nil, err
	}
	nbrs := make([]zx.VtxID, 0, rec.adj.Size())
	for _, k := range rec.adj.Keys() {
		nbrs = append(nbrs, k.(zx.VtxID))
	}
	return nbrs, nil
}

func (X *Diagram) IncidentEdges(v zx.VtxID) ([]zx.Edge, error) {
	rec, err := X.vtx(v)
	if err != nil {
		return nil, err
	}
	es := make([]zx.Edge, 0, rec.adj.Size())
	for _, k := range rec.adj.Keys() {
		es = append(es, zx.FormEdge(v, k.(zx.VtxID)))
	}
	return es, nil
}

func (X *Diagram) Degree(v zx.VtxID) (int, error) {
	rec, err := X.vtx(v)
	if err != nil {
		return 0, err
	}
	return rec.adj.Size(), nil
}

func (X *Diagram) Connected(a, b zx.VtxID) (bool, error) {
	rec, err := X.vtx(a)
	if err != nil {
		return false, err
	}
	_, found := rec.adj.Get(b)
	return found, nil
}

func (X *Diagram) Inputs() ([]zx.VtxID, error) {
	return append([]zx.VtxID(nil), X.inputs...), nil
}

func (X *Diagram) SetInputs(vs []zx.VtxID) error {
	X.inputs = append(X.inputs[:0:0], vs...)
	return nil
}

func (X *Diagram) Outputs() ([]zx.VtxID, error) {
	return append([]zx.VtxID(nil), X.outputs...), nil
}

func (X *Diagram) SetOutputs(vs []zx.VtxID) error {
	X.outputs = append(X.outputs[:0:0], vs...)
	return nil
}

func (X *Diagram) Scalar() (zx.Scalar, error) {
	return X.scalar.Clone(), nil
}

func (X *Diagram) SetScalar(s zx.Scalar) error {
	X.scalar = s.Clone()
	return nil
}

func (X *Diagram) UpdateScalar(fn func(s *zx.Scalar)) error {
	fn(&X.scalar)
	return nil
}

// Clone deep-copies X, keeping vertex ids, edge ids and id counters.
func (X *Diagram) Clone() (zx.Diagram, error) {
	dup := NewWithID(X.id + "_clone_" + uuid.NewString())
	dup.nextVtx = X.nextVtx
	dup.nextEdge = X.nextEdge
	dup.inputs = append(dup.inputs, X.inputs...)
	dup.outputs = append(dup.outputs, X.outputs...)
	dup.scalar = X.scalar.Clone()

	vit := X.verts.Iterator()
	for vit.Next() {
		src := vit.Value().(*vtxRec)
		dup.verts.Put(vit.Key(), &vtxRec{
			typ:   src.typ,
			phase: src.phase,
			qubit: src.qubit,
			row:   src.row,
			data:  copyData(src.data),
			adj:   treemap.NewWith(vtxComparator),
		})
	}

	eit := X.edges.Iterator()
	for eit.Next() {
		e := eit.Key().(zx.Edge)
		src := eit.Value().(*edgeRec)
		rec := &edgeRec{
			id:   src.id,
			typ:  src.typ,
			data: copyData(src.data),
		}
		dup.edges.Put(e, rec)
		s, _ := dup.verts.Get(e.S)
		t, _ := dup.verts.Get(e.T)
		s.(*vtxRec).adj.Put(e.T, rec)
		t.(*vtxRec).adj.Put(e.S, rec)
	}
	return dup, nil
}

func copyData(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	dup := make(map[string]string, len(m))
	for k, v := range m {
		dup[k] = v
	}
	return dup
}

func (X *Diagram) RemoveIsolatedVertices() error {
	return zx.RemoveIsolated(X)
}

// Apply runs fn directly against X; a failing fn may leave a partial rewrite behind.
func (X *Diagram) Apply(fn func(tx zx.Diagram) error) error {
	return fn(X)
}

var _ zx.Diagram = (*Diagram)(nil)
