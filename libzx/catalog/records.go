package catalog

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/gogo/protobuf/proto"
)

type VertexRecord struct {
	Type  int32             `protobuf:"varint,1,opt,name=Type,proto3" json:"Type,omitempty"`
	Phase string            `protobuf:"bytes,2,opt,name=Phase,proto3" json:"Phase,omitempty"`
	Qubit float64           `protobuf:"fixed64,3,opt,name=Qubit,proto3" json:"Qubit,omitempty"`
	Row   float64           `protobuf:"fixed64,4,opt,name=Row,proto3" json:"Row,omitempty"`
	Data  map[string]string `protobuf:"bytes,5,rep,name=Data,proto3" json:"Data,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

func (m *VertexRecord) Reset()         { *m = VertexRecord{} }
func (m *VertexRecord) String() string { return proto.CompactTextString(m) }
func (*VertexRecord) ProtoMessage()    {}

type EdgeRecord struct {
	ID   int64             `protobuf:"varint,1,opt,name=ID,proto3" json:"ID,omitempty"`
	Type int32             `protobuf:"varint,2,opt,name=Type,proto3" json:"Type,omitempty"`
	Data map[string]string `protobuf:"bytes,3,rep,name=Data,proto3" json:"Data,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

func (m *EdgeRecord) Reset()         { *m = EdgeRecord{} }
func (m *EdgeRecord) String() string { return proto.CompactTextString(m) }
func (*EdgeRecord) ProtoMessage()    {}

type PhasePairRecord struct {
	A string `protobuf:"bytes,1,opt,name=A,proto3" json:"A,omitempty"`
	B string `protobuf:"bytes,2,opt,name=B,proto3" json:"B,omitempty"`
}

func (m *PhasePairRecord) Reset()         { *m = PhasePairRecord{} }
func (m *PhasePairRecord) String() string { return proto.CompactTextString(m) }
func (*PhasePairRecord) ProtoMessage()    {}

type ScalarRecord struct {
	Power2     int32              `protobuf:"varint,1,opt,name=Power2,proto3" json:"Power2,omitempty"`
	Phase      string             `protobuf:"bytes,2,opt,name=Phase,proto3" json:"Phase,omitempty"`
	PhaseNodes []string           `protobuf:"bytes,3,rep,name=PhaseNodes,proto3" json:"PhaseNodes,omitempty"`
	Pairs      []*PhasePairRecord `protobuf:"bytes,4,rep,name=Pairs,proto3" json:"Pairs,omitempty"`
	IsZero     bool               `protobuf:"varint,5,opt,name=IsZero,proto3" json:"IsZero,omitempty"`
}

func (m *ScalarRecord) Reset()         { *m = ScalarRecord{} }
func (m *ScalarRecord) String() string { return proto.CompactTextString(m) }
func (*ScalarRecord) ProtoMessage()    {}

type DiagramMeta struct {
	NextVtx  int64         `protobuf:"varint,1,opt,name=NextVtx,proto3" json:"NextVtx,omitempty"`
	NextEdge int64         `protobuf:"varint,2,opt,name=NextEdge,proto3" json:"NextEdge,omitempty"`
	Inputs   []int64       `protobuf:"varint,3,rep,packed,name=Inputs,proto3" json:"Inputs,omitempty"`
	Outputs  []int64       `protobuf:"varint,4,rep,packed,name=Outputs,proto3" json:"Outputs,omitempty"`
	Scalar   *ScalarRecord `protobuf:"bytes,5,opt,name=Scalar,proto3" json:"Scalar,omitempty"`
}

func (m *DiagramMeta) Reset()         { *m = DiagramMeta{} }
func (m *DiagramMeta) String() string { return proto.CompactTextString(m) }
func (*DiagramMeta) ProtoMessage()    {}

func scalarToRecord(s zx.Scalar) *ScalarRecord {
	rec := &ScalarRecord{
		Power2: int32(s.Power2),
		Phase:  s.Phase.String(),
		IsZero: s.IsZero,
	}
	for _, n := range s.PhaseNodes {
		rec.PhaseNodes = append(rec.PhaseNodes, n.String())
	}
	for _, pr := range s.Pairs {
		rec.Pairs = append(rec.Pairs, &PhasePairRecord{A: pr.A.String(), B: pr.B.String()})
	}
	return rec
}

func scalarFromRecord(rec *ScalarRecord) (zx.Scalar, error) {
	var s zx.Scalar
	if rec == nil {
		return s, nil
	}
	var err error
	s.Power2 = int(rec.Power2)
	s.IsZero = rec.IsZero
	if s.Phase, err = parsePhase(rec.Phase); err != nil {
		return s, err
	}
	for _, str := range rec.PhaseNodes {
		n, err := parsePhase(str)
		if err != nil {
			return s, err
		}
		s.PhaseNodes = append(s.PhaseNodes, n)
	}
	for _, pr := range rec.Pairs {
		a, err := parsePhase(pr.A)
		if err != nil {
			return s, err
		}
		b, err := parsePhase(pr.B)
		if err != nil {
			return s, err
		}
		s.Pairs = append(s.Pairs, zx.PhasePair{A: a, B: b})
	}
	return s, nil
}

func idsToRecord(vs []zx.VtxID) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = int64(v)
	}
	return out
}

func idsFromRecord(vs []int64) []zx.VtxID {
	out := make([]zx.VtxID, len(vs))
	for i, v := range vs {
		out[i] = zx.VtxID(v)
	}
	return out
}

func parsePhase(str string) (phase.Phase, error) {
	if len(str) == 0 {
		return phase.Zero, nil
	}
	return phase.Parse(str)
}
