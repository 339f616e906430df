package zx

import (
	"io"
	"strings"

	"github.com/plan-systems/klog"
)

// DiagramStream is a channel pipeline of diagrams; each stage owns the diagrams it receives.
type DiagramStream struct {
	Outlet chan Diagram
}

func NewDiagramStream() *DiagramStream {
	stream := &DiagramStream{
		Outlet: make(chan Diagram),
	}
	return stream
}

// StreamDiagrams emits the given diagrams and closes.
func StreamDiagrams(ds ...Diagram) *DiagramStream {
	next := &DiagramStream{
		Outlet: make(chan Diagram, len(ds)),
	}

	go func() {
		for _, d := range ds {
			next.Outlet <- d
		}
		next.Close()
	}()

	return next
}

func (stream *DiagramStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

// PullAll drains the stream and returns how many diagrams came through.
func (stream *DiagramStream) PullAll() int {
	count := 0
	for range stream.Outlet {
		count++
	}
	return count
}

// Collect drains the stream into a slice.
func (stream *DiagramStream) Collect() []Diagram {
	var ds []Diagram
	for d := range stream.Outlet {
		ds = append(ds, d)
	}
	return ds
}

// Apply runs fn on each diagram; diagrams for which fn fails are logged and dropped.
func (stream *DiagramStream) Apply(label string, fn func(d Diagram) error) *DiagramStream {
	next := &DiagramStream{
		Outlet: make(chan Diagram, 1),
	}

	go func() {
		for d := range stream.Outlet {
			if err := fn(d); err != nil {
				klog.Warningf("%s: dropping diagram %s: %v", label, d.ID(), err)
				continue
			}
			next.Outlet <- d
		}
		next.Close()
	}()

	return next
}

// Print writes a summary line for each diagram passing through.
func (stream *DiagramStream) Print(out io.Writer, opts PrintOpts) *DiagramStream {
	next := &DiagramStream{
		Outlet: make(chan Diagram, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		for d := range stream.Outlet {
			if err := Summarize(d, &buf, opts); err != nil {
				klog.Warningf("print: %v", err)
			}
			io.WriteString(out, buf.String())
			buf.Reset()
			next.Outlet <- d
		}
		next.Close()
	}()

	return next
}
