// Package tiled decodes Tiled map editor documents (TMX maps and TSX tilesets).
//
// Decoding walks a generic xmltree.Element tree and produces plain data
// structures. Nothing here depends on the target engine.
package tiled

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/mvkit/pkg/xmltree"
)

// Tiled decode errors.
var (
	ErrUnexpectedElement      = errors.New("unexpected element")
	ErrMissingAttribute       = errors.New("missing required attribute")
	ErrInvalidAttribute       = errors.New("invalid attribute value")
	ErrUnknownOrientation     = errors.New("unknown map orientation")
	ErrMissingTileSetSource   = errors.New("missing tileset source")
	ErrInvalidCellData        = errors.New("invalid tile layer data")
	ErrUnsupportedEncoding    = errors.New("unsupported tile layer encoding")
	ErrCellCountMismatch      = errors.New("tile layer cell count does not match layer size")
	ErrUnsupportedInfiniteMap = errors.New("infinite maps are not supported")
)

// DecodeError reports which element or attribute could not be decoded.
type DecodeError struct {
	Element string
	Attr    string
	Line    int
	Err     error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("tiled: <")
	b.WriteString(e.Element)
	b.WriteString(">")
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if e.Attr != "" {
		fmt.Fprintf(&b, " attribute %q", e.Attr)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(el *xmltree.Element, attr string, err error) *DecodeError {
	return &DecodeError{Element: el.Name, Attr: attr, Line: el.Line, Err: err}
}

// Orientation is the projection a map is authored in.
type Orientation int

const (
	Orthogonal Orientation = iota
	Isometric
	Staggered
	Hexagonal
)

// String returns the attribute spelling of the orientation.
func (o Orientation) String() string {
	switch o {
	case Orthogonal:
		return "orthogonal"
	case Isometric:
		return "isometric"
	case Staggered:
		return "staggered"
	case Hexagonal:
		return "hexagonal"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// ParseOrientation converts an orientation attribute value.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "orthogonal":
		return Orthogonal, nil
	case "isometric":
		return Isometric, nil
	case "staggered":
		return Staggered, nil
	case "hexagonal":
		return Hexagonal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrientation, s)
}

// expect fails unless el has the given tag name.
func expect(el *xmltree.Element, name string) error {
	if el == nil {
		return &DecodeError{Element: name, Err: fmt.Errorf("%w: nil element", ErrUnexpectedElement)}
	}
	if el.Name != name {
		return newDecodeError(el, "", fmt.Errorf("%w: expected <%s>", ErrUnexpectedElement, name))
	}
	return nil
}

// attrReader reads typed attributes off one element and keeps the first failure.
// Missing optional attributes take the supplied default.
type attrReader struct {
	el  *xmltree.Element
	err error
}

func attrs(el *xmltree.Element) *attrReader {
	return &attrReader{el: el}
}

func (r *attrReader) fail(name string, err error) {
	if r.err == nil {
		r.err = newDecodeError(r.el, name, err)
	}
}

func (r *attrReader) str(name string) string {
	v, _ := r.el.Attr(name)
	return v
}

func (r *attrReader) required(name string) string {
	v, ok := r.el.Attr(name)
	if !ok {
		r.fail(name, ErrMissingAttribute)
	}
	return v
}

func (r *attrReader) intOr(name string, def int) int {
	v, ok := r.el.Attr(name)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.fail(name, fmt.Errorf("%w: %q is not an integer", ErrInvalidAttribute, v))
		return def
	}
	return n
}

// sizeOr reads a dimension, which must not be negative.
func (r *attrReader) sizeOr(name string, def int) int {
	n := r.intOr(name, def)
	if n < 0 {
		r.fail(name, fmt.Errorf("%w: %d is negative", ErrInvalidAttribute, n))
		return def
	}
	return n
}

func (r *attrReader) floatOr(name string, def float64) float64 {
	v, ok := r.el.Attr(name)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		r.fail(name, fmt.Errorf("%w: %q is not a number", ErrInvalidAttribute, v))
		return def
	}
	return f
}

// boolOr reads Tiled's 0/1 flags; true/false spellings are accepted as well.
func (r *attrReader) boolOr(name string, def bool) bool {
	v, ok := r.el.Attr(name)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		r.fail(name, fmt.Errorf("%w: %q is not a boolean", ErrInvalidAttribute, v))
		return def
	}
	return b
}
