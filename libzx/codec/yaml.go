package codec

import (
	"io"
	"sort"

	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a diagram.  Phases are strings in the phase grammar.
type Document struct {
	ID       string      `yaml:"id,omitempty"`
	Inputs   []int64     `yaml:"inputs,flow"`
	Outputs  []int64     `yaml:"outputs,flow"`
	Scalar   *ScalarDoc  `yaml:"scalar,omitempty"`
	Vertices []VertexDoc `yaml:"vertices"`
	Edges    []EdgeDoc   `yaml:"edges"`
}

type ScalarDoc struct {
	Power int        `yaml:"power,omitempty"`
	Phase string     `yaml:"phase,omitempty"`
	Nodes []string   `yaml:"nodes,omitempty,flow"`
	Pairs [][]string `yaml:"pairs,omitempty,flow"`
	Zero  bool       `yaml:"zero,omitempty"`
}

type VertexDoc struct {
	ID    int64             `yaml:"id"`
	Type  string            `yaml:"type"`
	Phase string            `yaml:"phase,omitempty"`
	Qubit float64           `yaml:"qubit"`
	Row   float64           `yaml:"row"`
	Data  map[string]string `yaml:"data,omitempty"`
}

type EdgeDoc struct {
	S    int64             `yaml:"s"`
	T    int64             `yaml:"t"`
	Type string            `yaml:"type"`
	Data map[string]string `yaml:"data,omitempty"`
}

// NewDocument captures d as a Document.
func NewDocument(d zx.Diagram) (*Document, error) {
	doc := &Document{
		ID: d.ID(),
	}
	ins, err := d.Inputs()
	if err != nil {
		return nil, err
	}
	outs, err := d.Outputs()
	if err != nil {
		return nil, err
	}
	doc.Inputs, doc.Outputs = int64s(ins), int64s(outs)

	s, err := d.Scalar()
	if err != nil {
		return nil, err
	}
	if !s.IsOne() {
		doc.Scalar = scalarDoc(s)
	}

	vs, err := d.Vertices()
	if err != nil {
		return nil, err
	}
	for _, v := range vs {
		vd, err := vertexDoc(d, v)
		if err != nil {
			return nil, err
		}
		doc.Vertices = append(doc.Vertices, vd)
	}

	es, err := d.Edges()
	if err != nil {
		return nil, err
	}
	for _, e := range es {
		et, err := d.EdgeType(e)
		if err != nil {
			return nil, err
		}
		ed := EdgeDoc{S: int64(e.S), T: int64(e.T), Type: et.String()}
		keys, err := d.EDataKeys(e)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			val, err := d.EData(e, k, "")
			if err != nil {
				return nil, err
			}
			if ed.Data == nil {
				ed.Data = make(map[string]string, len(keys))
			}
			ed.Data[k] = val
		}
		doc.Edges = append(doc.Edges, ed)
	}
	return doc, nil
}

func vertexDoc(d zx.Diagram, v zx.VtxID) (vd VertexDoc, err error) {
	vd.ID = int64(v)
	vt, err := d.Type(v)
	if err != nil {
		return
	}
	vd.Type = vt.String()
	ph, err := d.Phase(v)
	if err != nil {
		return
	}
	if !ph.IsZero() {
		vd.Phase = ph.String()
	}
	if vd.Qubit, err = d.Qubit(v); err != nil {
		return
	}
	if vd.Row, err = d.Row(v); err != nil {
		return
	}
	keys, err := d.VDataKeys(v)
	if err != nil {
		return
	}
	for _, k := range keys {
		var val string
		if val, err = d.VData(v, k, ""); err != nil {
			return
		}
		if vd.Data == nil {
			vd.Data = make(map[string]string, len(keys))
		}
		vd.Data[k] = val
	}
	return
}

func scalarDoc(s zx.Scalar) *ScalarDoc {
	sd := &ScalarDoc{
		Power: s.Power2,
		Zero:  s.IsZero,
	}
	if !s.Phase.IsZero() {
		sd.Phase = s.Phase.String()
	}
	for _, n := range s.PhaseNodes {
		sd.Nodes = append(sd.Nodes, n.String())
	}
	for _, pr := range s.Pairs {
		sd.Pairs = append(sd.Pairs, []string{pr.A.String(), pr.B.String()})
	}
	return sd
}

func parsePhase(str string, def phase.Phase) (phase.Phase, error) {
	if str == "" {
		return def, nil
	}
	return phase.Parse(str)
}

// Scalar evaluates the document's scalar.
func (sd *ScalarDoc) Scalar() (s zx.Scalar, err error) {
	if sd == nil {
		return
	}
	s.Power2 = sd.Power
	s.IsZero = sd.Zero
	if s.Phase, err = parsePhase(sd.Phase, phase.Zero); err != nil {
		return
	}
	for _, str := range sd.Nodes {
		n, err := phase.Parse(str)
		if err != nil {
			return s, err
		}
		s.PhaseNodes = append(s.PhaseNodes, n)
	}
	for _, pr := range sd.Pairs {
		if len(pr) != 2 {
			return s, errors.Wrapf(ErrBadFormat, "scalar pair has %d phases", len(pr))
		}
		a, err := phase.Parse(pr[0])
		if err != nil {
			return s, err
		}
		b, err := phase.Parse(pr[1])
		if err != nil {
			return s, err
		}
		s.Pairs = append(s.Pairs, zx.PhasePair{A: a, B: b})
	}
	return
}

// Load adds the document's contents to d.  Vertices are created in ascending id order, so loading
// into a fresh diagram whose ids start where the document's do reproduces the same ids.
func (doc *Document) Load(d zx.Diagram) error {
	vds := append([]VertexDoc(nil), doc.Vertices...)
	sort.SliceStable(vds, func(i, j int) bool {
		return vds[i].ID < vds[j].ID
	})

	ids := make(map[int64]zx.VtxID, len(vds))
	lookup := func(id int64) (zx.VtxID, error) {
		v, ok := ids[id]
		if !ok {
			return 0, errors.Wrapf(ErrBadFormat, "vertex %d is not declared", id)
		}
		return v, nil
	}

	for _, vd := range vds {
		if _, dup := ids[vd.ID]; dup {
			return errors.Wrapf(ErrBadFormat, "vertex %d declared twice", vd.ID)
		}
		vt, err := zx.ParseVertexType(vd.Type)
		if err != nil {
			return errors.Wrapf(err, "vertex %d", vd.ID)
		}
		def := phase.Zero
		if vt == zx.HBox {
			def = phase.One
		}
		ph, err := parsePhase(vd.Phase, def)
		if err != nil {
			return errors.Wrapf(err, "vertex %d", vd.ID)
		}
		v, err := d.AddVertex(vt, vd.Qubit, vd.Row, ph)
		if err != nil {
			return err
		}
		for k, val := range vd.Data {
			if err = d.SetVData(v, k, val); err != nil {
				return err
			}
		}
		ids[vd.ID] = v
	}

	for _, ed := range doc.Edges {
		s, err := lookup(ed.S)
		if err != nil {
			return err
		}
		t, err := lookup(ed.T)
		if err != nil {
			return err
		}
		et, err := zx.ParseEdgeType(ed.Type)
		if err != nil {
			return errors.Wrapf(err, "edge (%d,%d)", ed.S, ed.T)
		}
		if _, err = d.PutEdge(s, t, et); err != nil {
			return err
		}
		e := zx.FormEdge(s, t)
		for k, val := range ed.Data {
			if err = d.SetEData(e, k, val); err != nil {
				return err
			}
		}
	}

	for _, ports := range []struct {
		ids []int64
		set func([]zx.VtxID) error
	}{
		{doc.Inputs, d.SetInputs},
		{doc.Outputs, d.SetOutputs},
	} {
		if len(ports.ids) == 0 {
			continue
		}
		vs := make([]zx.VtxID, len(ports.ids))
		for i, id := range ports.ids {
			v, err := lookup(id)
			if err != nil {
				return err
			}
			vs[i] = v
		}
		if err := ports.set(vs); err != nil {
			return err
		}
	}

	if doc.Scalar != nil {
		s, err := doc.Scalar.Scalar()
		if err != nil {
			return err
		}
		return d.SetScalar(s)
	}
	return nil
}

// LoadYAML decodes a YAML document into d.
func LoadYAML(d zx.Diagram, src []byte) error {
	doc := &Document{}
	if err := yaml.Unmarshal(src, doc); err != nil {
		return errors.Wrap(ErrBadFormat, err.Error())
	}
	return doc.Load(d)
}

// WriteYAML encodes d as a YAML document.
func WriteYAML(w io.Writer, d zx.Diagram) error {
	doc, err := NewDocument(d)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err = enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func int64s(vs []zx.VtxID) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = int64(v)
	}
	return out
}
