// Package zxpy registers the "zx" gpython module: diagrams, catalogs, rules and strategies for scripts.
package zxpy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/2x3systems/gozx/libzx/catalog"
	"github.com/2x3systems/gozx/libzx/circuit"
	"github.com/2x3systems/gozx/libzx/codec"
	"github.com/2x3systems/gozx/libzx/memstore"
	"github.com/2x3systems/gozx/libzx/oracle"
	"github.com/2x3systems/gozx/libzx/rules"
	"github.com/2x3systems/gozx/libzx/simplify"
	"github.com/2x3systems/gozx/zx"
	"github.com/go-python/gpython/py"
)

var (
	LIB_VERSION = "v0.1.0"
)

var (
	pyDiagramType       = py.NewType("Diagram", "a spider diagram on some storage backend")
	pyDiagramStreamType = py.NewType("DiagramStream", "zx.DiagramStream")
	pyCatalogType       = py.NewType("Catalog", "a KV store holding many diagrams")
	pyWorkspaceType     = py.NewType("Workspace", "collects the catalogs opened by a script")
)

const (
	kWorkspaceAttr = "_Workspace"
)

func pyErr(err error) error {
	return py.ExceptionNewf(py.RuntimeError, "%v", err)
}

type pyDiagram struct {
	zx.Diagram
}

func (X pyDiagram) Type() *py.Type {
	return pyDiagramType
}

func (X pyDiagram) M__str__() (py.Object, error) {
	str, err := codec.FormatText(X.Diagram)
	if err != nil {
		return nil, pyErr(err)
	}
	return py.String(str), nil
}

func (X pyDiagram) M__repr__() (py.Object, error) {
	counts, err := zx.CountOf(X.Diagram)
	if err != nil {
		return nil, pyErr(err)
	}
	return py.String(fmt.Sprintf("<Diagram %s %s: %v>", X.ID(), X.Backend(), counts)), nil
}

func getDiagram(obj py.Object) (pyDiagram, error) {
	X, ok := obj.(pyDiagram)
	if !ok {
		return X, py.ExceptionNewf(py.TypeError, "expected Diagram object (got %v)", obj.Type().Name)
	}
	return X, nil
}

func py_NewDiagram(module py.Object, args py.Tuple) (py.Object, error) {
	return pyDiagram{memstore.New()}, nil
}

// FromQASM(src) lays out a QASM circuit in a new memory diagram.
func py_FromQASM(module py.Object, args py.Tuple) (py.Object, error) {
	var src string
	if err := py.LoadTuple(args, []interface{}{&src}); err != nil {
		return nil, err
	}
	c, err := circuit.Parse(src)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	d := memstore.New()
	if err = c.ToGraph(d); err != nil {
		return nil, pyErr(err)
	}
	return pyDiagram{d}, nil
}

// Parse(text) reads a diagram in the text format.
func py_Parse(module py.Object, args py.Tuple) (py.Object, error) {
	var src string
	if err := py.LoadTuple(args, []interface{}{&src}); err != nil {
		return nil, err
	}
	d := memstore.New()
	if err := codec.LoadText(d, src); err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return pyDiagram{d}, nil
}

// Load(pathname) reads a .zx, .yaml or .qasm file.
func py_Load(module py.Object, args py.Tuple) (py.Object, error) {
	var pathname string
	if err := py.LoadTuple(args, []interface{}{&pathname}); err != nil {
		return nil, err
	}
	d := memstore.New()
	if err := codec.LoadFile(d, pathname); err != nil {
		if os.IsNotExist(err) {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		return nil, pyErr(err)
	}
	return pyDiagram{d}, nil
}

func namesTuple(names []string) py.Tuple {
	tup := make(py.Tuple, len(names))
	for i, name := range names {
		tup[i] = py.String(name)
	}
	return tup
}

func py_Rules(module py.Object, args py.Tuple) (py.Object, error) {
	return namesTuple(rules.Names()), nil
}

func py_Strategies(module py.Object, args py.Tuple) (py.Object, error) {
	return namesTuple(simplify.Strategies()), nil
}

func py_Diagram_NumVerts(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyDiagram)
	n, err := X.NumVertices()
	if err != nil {
		return nil, pyErr(err)
	}
	return py.Int(n), nil
}

func py_Diagram_NumEdges(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyDiagram)
	n, err := X.NumEdges()
	if err != nil {
		return nil, pyErr(err)
	}
	return py.Int(n), nil
}

func py_Diagram_Scalar(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyDiagram)
	s, err := X.Scalar()
	if err != nil {
		return nil, pyErr(err)
	}
	return py.String(s.String()), nil
}

// Reduce([strategy]) runs a strategy (default full_reduce) and returns the rewrite count.
func py_Diagram_Reduce(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyDiagram)
	name := "full_reduce"
	if err := py.LoadTuple(args, []interface{}{&name}); err != nil {
		return nil, err
	}
	n, err := reduce(X.Diagram, name)
	if err != nil {
		return nil, pyErr(err)
	}
	return py.Int(n), nil
}

func reduce(d zx.Diagram, strategy string) (int, error) {
	fn, err := simplify.StrategyByName(strategy)
	if err != nil {
		return 0, err
	}
	opts := &simplify.Opts{Stats: simplify.NewStats(), Quiet: true}
	if _, err = fn(d, opts); err != nil {
		return 0, err
	}
	return opts.Stats.Total(), nil
}

// Apply(rule) applies one rule exhaustively and returns the application count.
func py_Diagram_Apply(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyDiagram)
	var name string
	if err := py.LoadTuple(args, []interface{}{&name}); err != nil {
		return nil, err
	}
	r, err := rules.ByName(name)
	if err != nil {
		return nil, py.ExceptionNewf(py.KeyError, "%v", err)
	}
	n, err := rules.Exhaust(X.Diagram, r)
	if err != nil {
		return nil, pyErr(err)
	}
	return py.Int(n), nil
}

func py_Diagram_Clone(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyDiagram)
	d, err := X.Clone()
	if err != nil {
		return nil, pyErr(err)
	}
	return pyDiagram{d}, nil
}

// Equivalent(other[, preserve_scalar]) compares the two linear maps.
func py_Diagram_Equivalent(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyDiagram)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Equivalent() takes a Diagram")
	}
	other, err := getDiagram(args[0])
	if err != nil {
		return nil, err
	}
	preserve := false
	if err = py.LoadTuple(args[1:], []interface{}{&preserve}); err != nil {
		return nil, err
	}
	same, err := oracle.Equivalent(X.Diagram, other.Diagram, preserve)
	if err != nil {
		return nil, pyErr(err)
	}
	return py.NewBool(same), nil
}

// Save(pathname) writes the diagram in the format its extension names.
func py_Diagram_Save(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyDiagram)
	var pathname string
	if err := py.LoadTuple(args, []interface{}{&pathname}); err != nil {
		return nil, err
	}
	os.MkdirAll(filepath.Dir(pathname), 0700)
	if err := codec.WriteFile(X.Diagram, pathname); err != nil {
		return nil, pyErr(err)
	}
	return py.None, nil
}

func py_Diagram_Stream(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyDiagram)
	return wrapDiagramStream(zx.StreamDiagrams(X.Diagram)), nil
}

type Workspace struct {
	catalogs []catalog.Catalog
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func (ws *Workspace) Close() {
	for _, cat := range ws.catalogs {
		cat.Close()
	}
	ws.catalogs = nil
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		wsObj = &Workspace{}
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

// OpenCatalog(pathname[, engine]) opens a badger (default) or pebble catalog; an empty pathname
// keeps it in memory.  The workspace closes it when the script's context closes.
func py_Workspace_OpenCatalog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname, engine string
	if err := py.LoadTuple(args, []interface{}{&pathname, &engine}); err != nil {
		return nil, err
	}
	cat, err := catalog.OpenCatalog(catalog.Opts{
		Engine:     engine,
		DbPathName: pathname,
	})
	if err != nil {
		return nil, pyErr(err)
	}
	ws.catalogs = append(ws.catalogs, cat)
	return pyCatalog{cat}, nil
}

type pyCatalog struct {
	catalog.Catalog
}

func (cat pyCatalog) Type() *py.Type {
	return pyCatalogType
}

// Catalog.Import(diagram[, id]) copies a diagram into the catalog.
func py_Catalog_Import(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Import() takes a Diagram")
	}
	src, err := getDiagram(args[0])
	if err != nil {
		return nil, err
	}
	var id string
	if err = py.LoadTuple(args[1:], []interface{}{&id}); err != nil {
		return nil, err
	}

	var d zx.Diagram
	if id == "" {
		d, err = cat.NewDiagram()
	} else {
		d, err = cat.NewDiagramWithID(id)
	}
	if err != nil {
		return nil, pyErr(err)
	}
	if _, err = zx.CopyInto(d, src.Diagram); err != nil {
		return nil, pyErr(err)
	}
	return pyDiagram{d}, nil
}

func py_Catalog_Open(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	var id string
	if err := py.LoadTuple(args, []interface{}{&id}); err != nil {
		return nil, err
	}
	d, err := cat.OpenDiagram(id)
	if err != nil {
		return nil, py.ExceptionNewf(py.KeyError, "%v", err)
	}
	return pyDiagram{d}, nil
}

func py_Catalog_List(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	ids, err := cat.List()
	if err != nil {
		return nil, pyErr(err)
	}
	return namesTuple(ids), nil
}

// Catalog.Select() streams every diagram in the catalog.
func py_Catalog_Select(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	ids, err := cat.List()
	if err != nil {
		return nil, pyErr(err)
	}
	ds := make([]zx.Diagram, 0, len(ids))
	for _, id := range ids {
		d, err := cat.OpenDiagram(id)
		if err != nil {
			return nil, pyErr(err)
		}
		ds = append(ds, d)
	}
	return wrapDiagramStream(zx.StreamDiagrams(ds...)), nil
}

type diagramStream struct {
	*zx.DiagramStream
}

func (stream diagramStream) Type() *py.Type {
	return pyDiagramStreamType
}

func wrapDiagramStream(stream *zx.DiagramStream) py.Object {
	return diagramStream{stream}
}

func py_DiagramStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(diagramStream)
	return py.Int(stream.PullAll()), nil
}

func py_DiagramStream_Collect(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(diagramStream)
	ds := stream.Collect()
	tup := make(py.Tuple, len(ds))
	for i, d := range ds {
		tup[i] = pyDiagram{d}
	}
	return tup, nil
}

func py_DiagramStream_Reduce(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(diagramStream)
	name := "full_reduce"
	if err := py.LoadTuple(args, []interface{}{&name}); err != nil {
		return nil, err
	}
	if _, err := simplify.StrategyByName(name); err != nil {
		return nil, py.ExceptionNewf(py.KeyError, "%v", err)
	}
	next := stream.Apply(name, func(d zx.Diagram) error {
		_, err := reduce(d, name)
		return err
	})
	return wrapDiagramStream(next), nil
}

var gOutCount = int32(0)

// Print([label], file=pathname) writes a summary of each diagram passing through.
func py_DiagramStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(diagramStream)
	var pathname string

	opts := zx.PrintOpts{Scalar: true}
	py.LoadTuple(args, []interface{}{&opts.Label})
	if opts.Label == "" {
		py.LoadAttr(kwargs, "label", &opts.Label)
	}
	n := atomic.AddInt32(&gOutCount, 1)
	if opts.Label == "" {
		opts.Label = fmt.Sprintf("out[%d]", n)
	}
	py.LoadAttr(kwargs, "scalar", &opts.Scalar)
	py.LoadAttr(kwargs, "file", &pathname)

	if len(pathname) == 0 {
		return wrapDiagramStream(stream.Print(os.Stdout, opts)), nil
	}

	os.MkdirAll(filepath.Dir(pathname), 0700)
	file, err := os.OpenFile(pathname, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
	}

	// the file closes once the printed stream drains
	printed := stream.Print(file, opts)
	next := zx.NewDiagramStream()
	go func() {
		for d := range printed.Outlet {
			next.Outlet <- d
		}
		file.Close()
		next.Close()
	}()
	return wrapDiagramStream(next), nil
}

func init() {

	/////////////////////////////////
	// Diagram
	{
		pyDiagramType.Dict["NumVerts"] = py.MustNewMethod("NumVerts", py_Diagram_NumVerts, 0, "")
		pyDiagramType.Dict["NumEdges"] = py.MustNewMethod("NumEdges", py_Diagram_NumEdges, 0, "")
		pyDiagramType.Dict["Scalar"] = py.MustNewMethod("Scalar", py_Diagram_Scalar, 0, "returns the global scalar as a string")
		pyDiagramType.Dict["Reduce"] = py.MustNewMethod("Reduce", py_Diagram_Reduce, 0, "runs a strategy and returns the number of rewrites")
		pyDiagramType.Dict["Apply"] = py.MustNewMethod("Apply", py_Diagram_Apply, 0, "applies one rule until it no longer matches")
		pyDiagramType.Dict["Clone"] = py.MustNewMethod("Clone", py_Diagram_Clone, 0, "")
		pyDiagramType.Dict["Equivalent"] = py.MustNewMethod("Equivalent", py_Diagram_Equivalent, 0, "")
		pyDiagramType.Dict["Save"] = py.MustNewMethod("Save", py_Diagram_Save, 0, "")
		pyDiagramType.Dict["Stream"] = py.MustNewMethod("Stream", py_Diagram_Stream, 0, "")
	}

	/////////////////////////////////
	// Catalog
	{
		pyCatalogType.Dict["Import"] = py.MustNewMethod("Import", py_Catalog_Import, 0, "")
		pyCatalogType.Dict["Open"] = py.MustNewMethod("Open", py_Catalog_Open, 0, "")
		pyCatalogType.Dict["List"] = py.MustNewMethod("List", py_Catalog_List, 0, "")
		pyCatalogType.Dict["Select"] = py.MustNewMethod("Select", py_Catalog_Select, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenCatalog"] = py.MustNewMethod("OpenCatalog", py_Workspace_OpenCatalog, 0, "")
	}

	/////////////////////////////////
	// DiagramStream
	{
		pyDiagramStreamType.Dict["Go"] = py.MustNewMethod("Go", py_DiagramStream_Go, 0, "counts the number of diagrams output from the stream")
		pyDiagramStreamType.Dict["Collect"] = py.MustNewMethod("Collect", py_DiagramStream_Collect, 0, "")
		pyDiagramStreamType.Dict["Reduce"] = py.MustNewMethod("Reduce", py_DiagramStream_Reduce, 0, "")
		pyDiagramStreamType.Dict["Print"] = py.MustNewMethod("Print", py_DiagramStream_Print, 0, "prints each diagram from the stream")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("NewDiagram", py_NewDiagram, 0, ""),
			py.MustNewMethod("FromQASM", py_FromQASM, 0, ""),
			py.MustNewMethod("Parse", py_Parse, 0, ""),
			py.MustNewMethod("Load", py_Load, 0, ""),
			py.MustNewMethod("Rules", py_Rules, 0, ""),
			py.MustNewMethod("Strategies", py_Strategies, 0, ""),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"BACKENDS":    namesTuple([]string{memstore.BackendName, catalog.EngineBadger, catalog.EnginePebble}),
			"FORMATS":     namesTuple(formatNames()),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "zx",
				Doc:  "spider diagram rewriting",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}

func formatNames() []string {
	names := make([]string, len(codec.Formats))
	for i, f := range codec.Formats {
		names[i] = strings.ToLower(string(f))
	}
	return names
}
