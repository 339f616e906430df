package zx

import (
	"fmt"
	"strings"

	"github.com/2x3systems/gozx/zx/phase"
	"github.com/pkg/errors"
)

// VtxID identifies a vertex within a Diagram.  IDs are issued in increasing order and never reused.
type VtxID int64

// EdgeID is the append-only serial number a Diagram assigns to each edge record it creates.
type EdgeID int64

// NilEdge is returned when an edge insertion leaves no edge behind (absorbed loop or hopf cancellation).
const NilEdge EdgeID = 0

type VertexType byte

const (
	Boundary VertexType = 0
	Z        VertexType = 1
	X        VertexType = 2
	HBox     VertexType = 3
)

var vertexTypeNames = [...]string{"B", "Z", "X", "H"}

func (vt VertexType) String() string {
	if int(vt) < len(vertexTypeNames) {
		return vertexTypeNames[vt]
	}
	return fmt.Sprintf("VertexType(%d)", vt)
}

func (vt VertexType) Valid() bool {
	return vt <= HBox
}

// IsSpider reports if vt is a Z or X spider.
func (vt VertexType) IsSpider() bool {
	return vt == Z || vt == X
}

// IsZLike reports if vt behaves as a Z spider when copying values (Z spiders and H-boxes).
func (vt VertexType) IsZLike() bool {
	return vt == Z || vt == HBox
}

func ParseVertexType(str string) (VertexType, error) {
	switch strings.ToLower(str) {
	case "b", "boundary":
		return Boundary, nil
	case "z":
		return Z, nil
	case "x":
		return X, nil
	case "h", "hbox", "h_box":
		return HBox, nil
	}
	return Boundary, errors.Wrapf(ErrBadVertexType, "%q", str)
}

type EdgeType byte

const (
	Plain    EdgeType = 1
	Hadamard EdgeType = 2
)

func (et EdgeType) Toggle() EdgeType {
	if et == Hadamard {
		return Plain
	}
	return Hadamard
}

func (et EdgeType) Valid() bool {
	return et == Plain || et == Hadamard
}

func (et EdgeType) String() string {
	switch et {
	case Plain:
		return "plain"
	case Hadamard:
		return "hadamard"
	}
	return fmt.Sprintf("EdgeType(%d)", et)
}

func ParseEdgeType(str string) (EdgeType, error) {
	switch strings.ToLower(str) {
	case "plain", "simple", "-", "1":
		return Plain, nil
	case "hadamard", "h", "~", "2":
		return Hadamard, nil
	}
	return Plain, errors.Wrapf(ErrBadEdgeType, "%q", str)
}

// ComposeEdges returns the kind of a single wire equivalent to two wires joined in series:
// same kind => Plain, different kinds => Hadamard.
func ComposeEdges(a, b EdgeType) EdgeType {
	if a == b {
		return Plain
	}
	return Hadamard
}

// Edge is an unordered vertex pair, always held with the lower id first.
type Edge struct {
	S, T VtxID
}

// FormEdge returns the canonical Edge for the pair (a, b).
func FormEdge(a, b VtxID) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

func (e Edge) IsLoop() bool {
	return e.S == e.T
}

// Other returns the endpoint of e opposite v.
func (e Edge) Other(v VtxID) VtxID {
	if e.S == v {
		return e.T
	}
	return e.S
}

func (e Edge) String() string {
	return fmt.Sprintf("(%d,%d)", e.S, e.T)
}

// Diagram is the storage contract every backend implements identically.
//
// Reads of vertices or edges that do not exist fail with ErrMissingVertex or ErrMissingEdge;
// metadata reads return the caller's default instead.
type Diagram interface {

	// ID is the namespace of this diagram within its backend.
	ID() string

	// Backend names the storage implementation ("memory", "badger", "pebble").
	Backend() string

	AddVertices(n int) ([]VtxID, error)

	// AddVertex adds a vertex; phase defaults to 0 (1 for an H-box).
	AddVertex(vt VertexType, qubit, row float64, ph ...phase.Phase) (VtxID, error)

	// AddEdge inserts an edge, applying the fuse/hopf laws when the pair is already connected
	// and absorbing Hadamard self-loops into the vertex phase.
	AddEdge(s, t VtxID, et EdgeType) (EdgeID, error)

	// PutEdge stores an edge record verbatim, replacing any existing record for the pair.
	// Self-loops are kept; this is the loader path used by codecs.
	PutEdge(s, t VtxID, et EdgeType) (EdgeID, error)

	RemoveVertices(vs ...VtxID) error
	RemoveEdges(es ...Edge) error

	Vertices() ([]VtxID, error)
	Edges() ([]Edge, error)
	NumVertices() (int, error)
	NumEdges() (int, error)
	HasVertex(v VtxID) (bool, error)

	Type(v VtxID) (VertexType, error)
	SetType(v VtxID, vt VertexType) error
	Phase(v VtxID) (phase.Phase, error)
	SetPhase(v VtxID, ph phase.Phase) error
	AddToPhase(v VtxID, ph phase.Phase) error
	Qubit(v VtxID) (float64, error)
	SetQubit(v VtxID, q float64) error
	Row(v VtxID) (float64, error)
	SetRow(v VtxID, r float64) error

	VData(v VtxID, key string, def string) (string, error)
	SetVData(v VtxID, key, val string) error
	ClearVData(v VtxID, key string) error
	VDataKeys(v VtxID) ([]string, error)

	EdgeType(e Edge) (EdgeType, error)
	SetEdgeType(e Edge, et EdgeType) error
	EdgeID(e Edge) (EdgeID, error)
	EData(e Edge, key string, def string) (string, error)
	SetEData(e Edge, key, val string) error
	ClearEData(e Edge, key string) error
	EDataKeys(e Edge) ([]string, error)

	// Neighbors returns the vertices adjacent to v in ascending order (v itself if it has a loop).
	Neighbors(v VtxID) ([]VtxID, error)
	IncidentEdges(v VtxID) ([]Edge, error)
	Degree(v VtxID) (int, error)
	Connected(a, b VtxID) (bool, error)

	Inputs() ([]VtxID, error)
	SetInputs(vs []VtxID) error
	Outputs() ([]VtxID, error)
	SetOutputs(vs []VtxID) error

	Scalar() (Scalar, error)
	SetScalar(s Scalar) error
	UpdateScalar(fn func(s *Scalar)) error

	// Clone makes a deep copy on the same backend under a fresh namespace.
	Clone() (Diagram, error)

	// RemoveIsolatedVertices folds degree-0 vertices and isolated degree-1 pairs into the Scalar.
	RemoveIsolatedVertices() error

	// Apply runs fn as a single rewrite: on a transactional backend either all of fn's
	// mutations commit or none do.
	Apply(fn func(tx Diagram) error) error
}

// Opener creates new empty diagrams on a given backend.
type Opener interface {
	NewDiagram() (Diagram, error)
}

// OpenerFunc adapts a func to an Opener.
type OpenerFunc func() (Diagram, error)

func (fn OpenerFunc) NewDiagram() (Diagram, error) {
	return fn()
}

// PrintOpts controls Summarize output.
type PrintOpts struct {
	Label  string // prefix for each line
	Scalar bool   // include the scalar
}
