// Package codec reads and writes diagrams as text, as YAML documents, and as QASM circuits.
package codec

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2x3systems/gozx/libzx/circuit"
	"github.com/2x3systems/gozx/zx"
	"github.com/pkg/errors"
)

var (
	ErrBadFormat     = errors.New("malformed diagram document")
	ErrUnknownFormat = errors.New("unknown diagram format")
)

// Format names a diagram encoding.
type Format string

const (
	Text Format = "zx"
	YAML Format = "yaml"
	QASM Format = "qasm"
)

// Formats lists every format Load accepts.
var Formats = []Format{Text, YAML, QASM}

// FormatOf picks a format from a file name's extension.
func FormatOf(pathname string) (Format, error) {
	switch strings.ToLower(filepath.Ext(pathname)) {
	case ".zx", ".txt":
		return Text, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".qasm":
		return QASM, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", pathname)
}

// Ext is the file extension WriteFile output should carry.
func (f Format) Ext() string {
	if f == YAML {
		return ".yaml"
	}
	return "." + string(f)
}

// ParseFormat accepts a format name as given on a command line.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	if strings.EqualFold(name, "yml") {
		return YAML, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", name)
}

// Decode reads src in the given format into the empty diagram d.
func Decode(d zx.Diagram, src []byte, format Format) error {
	n, err := d.NumVertices()
	if err != nil {
		return err
	}
	if n > 0 {
		return zx.ErrNotEmpty
	}

	switch format {
	case Text:
		return LoadText(d, string(src))
	case YAML:
		return LoadYAML(d, src)
	case QASM:
		c, err := circuit.Parse(string(src))
		if err != nil {
			return err
		}
		return c.ToGraph(d)
	}
	return errors.Wrapf(ErrUnknownFormat, "%q", format)
}

// Encode writes d in the given format.  QASM output requires d to be extractable by
// circuit.WireExtractor.
func Encode(w io.Writer, d zx.Diagram, format Format) error {
	switch format {
	case Text:
		return WriteText(w, d)
	case YAML:
		return WriteYAML(w, d)
	case QASM:
		c, err := circuit.WireExtractor{}.ExtractCircuit(d)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, c.String())
		return err
	}
	return errors.Wrapf(ErrUnknownFormat, "%q", format)
}

// LoadFile reads the file at pathname into d, choosing the format from its extension.
func LoadFile(d zx.Diagram, pathname string) error {
	format, err := FormatOf(pathname)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(pathname)
	if err != nil {
		return err
	}
	return errors.Wrap(Decode(d, src, format), pathname)
}

// WriteFile writes d to pathname, choosing the format from its extension.
func WriteFile(d zx.Diagram, pathname string) error {
	format, err := FormatOf(pathname)
	if err != nil {
		return err
	}
	buf := bytes.Buffer{}
	if err = Encode(&buf, d, format); err != nil {
		return err
	}
	return os.WriteFile(pathname, buf.Bytes(), 0644)
}
