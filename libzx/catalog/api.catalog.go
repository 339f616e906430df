package catalog

import (
	"errors"

	"github.com/2x3systems/gozx/zx"
)

var (
	ErrBadCatalogParam = errors.New("bad catalog param")
	ErrBadDiagramID    = errors.New("diagram id must be non-empty and contain no '/'")
	ErrDiagramExists   = errors.New("diagram already exists")
	ErrDiagramNotFound = errors.New("diagram not found")
	ErrCatalogClosed   = errors.New("catalog is closed")
	ErrReadOnly        = errors.New("catalog is read-only")
	ErrUnknownEngine   = errors.New("unknown storage engine")
)

const (
	EngineBadger = "badger"
	EnginePebble = "pebble"
)

// Opts configures a Catalog.
type Opts struct {
	Engine     string // EngineBadger (default) or EnginePebble
	DbPathName string // empty means an in-memory store
	ReadOnly   bool
	SyncWrites bool
	CacheSize  int // decoded vertex records cached per diagram handle (default 4096)
}

// Catalog is a KV store holding any number of diagrams, each under its own namespace.
//
// A diagram handle returned by a Catalog is not safe for concurrent use, and at most one
// handle should be writing a given namespace at a time.
type Catalog interface {
	zx.Opener

	// Engine names the underlying KV engine.
	Engine() string

	// NewDiagramWithID creates an empty diagram under the given namespace.
	NewDiagramWithID(id string) (zx.Diagram, error)

	// OpenDiagram returns a handle to an existing diagram.
	OpenDiagram(id string) (zx.Diagram, error)

	// List returns the ids of all stored diagrams, sorted.
	List() ([]string, error)

	// Drop deletes a diagram and everything stored under its namespace.
	Drop(id string) error

	Close() error
}
