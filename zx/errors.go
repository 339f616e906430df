package zx

import "errors"

// Structural errors are fatal for the operation that hits them and are never retried.
var (
	ErrMissingVertex    = errors.New("missing vertex")
	ErrMissingEdge      = errors.New("missing edge")
	ErrIsolatedBoundary = errors.New("isolated boundary vertex")
	ErrBadBoundary      = errors.New("boundary vertex must have degree 1")
	ErrForbiddenEdge    = errors.New("forbidden parallel edge between incompatible vertex types")
	ErrPlainSelfLoop    = errors.New("plain self-loop")
	ErrSelfLoopType     = errors.New("self-loop on a non-spider vertex")
	ErrBadVertexType    = errors.New("bad vertex type")
	ErrBadEdgeType      = errors.New("bad edge type")
	ErrBadCount         = errors.New("bad vertex count")
	ErrNotEmpty         = errors.New("diagram is not empty")
	ErrNilDiagram       = errors.New("nil diagram")
)
