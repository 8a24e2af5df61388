// Package xmltree decodes XML documents into a generic element tree.
//
// The tree keeps attributes and children in document order and preserves
// character data verbatim. It carries no knowledge of any particular schema.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is wrapped by every ParseError.
var ErrMalformed = errors.New("malformed XML")

// ParseError describes why a document could not be parsed.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("xml: line %d: %s", e.Line, e.Msg)
	}
	return "xml: " + e.Msg
}

// Unwrap lets errors.Is match ErrMalformed.
func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

// Attr is a single name/value attribute pair.
type Attr struct {
	Name  string
	Value string
}

// Element is one node of the decoded tree.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
	Line     int
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or def when it is absent.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// Child returns the first direct child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all direct children with the given name in document order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Parse decodes a complete document and returns its root element.
func Parse(data []byte) (*Element, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader decodes a complete document read from r.
// Either the whole document parses or an error is returned; partial trees are never exposed.
func ParseReader(r io.Reader) (*Element, error) {
	d := xml.NewDecoder(r)
	d.Strict = true

	var (
		root  *Element
		stack []*Element
		text  []*strings.Builder
	)

	for {
		line, _ := d.InputPos()
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, toParseError(err, line)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("unexpected element <%s> after root element", t.Name.Local)}
			}
			el := &Element{
				Name: qualified(t.Name),
				Line: line,
			}
			if len(t.Attr) > 0 {
				el.Attrs = make([]Attr, 0, len(t.Attr))
				for _, a := range t.Attr {
					el.Attrs = append(el.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
				}
			}
			if len(stack) == 0 {
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			text = append(text, &strings.Builder{})

		case xml.EndElement:
			// The strict decoder already guarantees the end tag matches.
			el := stack[len(stack)-1]
			el.Text = text[len(text)-1].String()
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, &ParseError{Line: line, Msg: "character data outside root element"}
				}
				continue
			}
			text[len(text)-1].Write(t)
		}
	}

	if len(stack) > 0 {
		return nil, &ParseError{Msg: fmt.Sprintf("unclosed element <%s>", stack[len(stack)-1].Name)}
	}
	if root == nil {
		return nil, &ParseError{Msg: "document has no root element"}
	}
	return root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func toParseError(err error, line int) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{Line: syn.Line, Msg: syn.Msg}
	}
	return &ParseError{Line: line, Msg: err.Error()}
}
