package tiled

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/mvkit/pkg/xmltree"
)

// Group is a folder of layers. Groups nest without a fixed depth limit.
type Group struct {
	ID           int
	Name         string
	OffsetX      float64
	OffsetY      float64
	Opacity      float64
	Visible      bool
	Properties   Properties
	Layers       []Layer
	ObjectGroups []ObjectGroup
	Groups       []Group
}

// ObjectGroup is a layer of free-form objects.
type ObjectGroup struct {
	ID         int
	Name       string
	Color      string
	Opacity    float64
	Visible    bool
	OffsetX    float64
	OffsetY    float64
	DrawOrder  string
	Properties Properties
	Objects    []Object
}

// Point is a position in pixels relative to its object.
type Point struct {
	X, Y float64
}

// Polygon is a closed outline in object-local coordinates.
type Polygon struct {
	Points []Point
}

// ShapeKind is the mutually exclusive shape an object describes.
type ShapeKind int

const (
	ShapeRectangle ShapeKind = iota
	ShapeTile
	ShapePolygon
	ShapePoint
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRectangle:
		return "rectangle"
	case ShapeTile:
		return "tile"
	case ShapePolygon:
		return "polygon"
	case ShapePoint:
		return "point"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Object is a single entry of an object group.
type Object struct {
	ID         int
	Name       string
	Type       string // "type" attribute, or "class" since Tiled 1.9
	X, Y       float64
	Width      float64
	Height     float64
	Rotation   float64 // degrees, clockwise
	Visible    bool
	Template   string
	GID        *GID
	Polygon    *Polygon
	Point      bool
	Ellipse    bool
	Properties Properties
}

// Shape reports which shape the object carries. A tile GID wins over a
// polygon, a polygon over a point marker; everything else is a rectangle.
func (o *Object) Shape() ShapeKind {
	switch {
	case o.GID != nil:
		return ShapeTile
	case o.Polygon != nil:
		return ShapePolygon
	case o.Point:
		return ShapePoint
	default:
		return ShapeRectangle
	}
}

// DecodeGroup decodes a <group> element and all of its descendants.
func DecodeGroup(el *xmltree.Element) (Group, error) {
	if err := expect(el, "group"); err != nil {
		return Group{}, err
	}
	r := attrs(el)
	g := Group{
		ID:      r.intOr("id", 0),
		Name:    r.str("name"),
		OffsetX: r.floatOr("offsetx", 0),
		OffsetY: r.floatOr("offsety", 0),
		Opacity: r.floatOr("opacity", 1),
		Visible: r.boolOr("visible", true),
	}
	if r.err != nil {
		return Group{}, r.err
	}

	for _, child := range el.Children {
		switch child.Name {
		case "properties":
			props, err := decodeProperties(child)
			if err != nil {
				return Group{}, err
			}
			g.Properties = append(g.Properties, props...)
		case "layer":
			layer, err := DecodeLayer(child)
			if err != nil {
				return Group{}, err
			}
			g.Layers = append(g.Layers, layer)
		case "objectgroup":
			og, err := DecodeObjectGroup(child)
			if err != nil {
				return Group{}, err
			}
			g.ObjectGroups = append(g.ObjectGroups, og)
		case "group":
			sub, err := DecodeGroup(child)
			if err != nil {
				return Group{}, err
			}
			g.Groups = append(g.Groups, sub)
		}
	}
	return g, nil
}

// DecodeObjectGroup decodes an <objectgroup> element.
func DecodeObjectGroup(el *xmltree.Element) (ObjectGroup, error) {
	if err := expect(el, "objectgroup"); err != nil {
		return ObjectGroup{}, err
	}
	r := attrs(el)
	og := ObjectGroup{
		ID:        r.intOr("id", 0),
		Name:      r.str("name"),
		Color:     r.str("color"),
		Opacity:   r.floatOr("opacity", 1),
		Visible:   r.boolOr("visible", true),
		OffsetX:   r.floatOr("offsetx", 0),
		OffsetY:   r.floatOr("offsety", 0),
		DrawOrder: r.str("draworder"),
	}
	if r.err != nil {
		return ObjectGroup{}, r.err
	}

	for _, child := range el.Children {
		switch child.Name {
		case "properties":
			props, err := decodeProperties(child)
			if err != nil {
				return ObjectGroup{}, err
			}
			og.Properties = append(og.Properties, props...)
		case "object":
			obj, err := DecodeObject(child)
			if err != nil {
				return ObjectGroup{}, err
			}
			og.Objects = append(og.Objects, obj)
		}
	}
	return og, nil
}

// DecodeObject decodes an <object> element. Text and polyline children are skipped.
func DecodeObject(el *xmltree.Element) (Object, error) {
	if err := expect(el, "object"); err != nil {
		return Object{}, err
	}
	r := attrs(el)
	obj := Object{
		ID:       r.intOr("id", 0),
		Name:     r.str("name"),
		Type:     r.str("type"),
		X:        r.floatOr("x", 0),
		Y:        r.floatOr("y", 0),
		Width:    r.floatOr("width", 0),
		Height:   r.floatOr("height", 0),
		Rotation: r.floatOr("rotation", 0),
		Visible:  r.boolOr("visible", true),
		Template: r.str("template"),
	}
	if obj.Type == "" {
		obj.Type = r.str("class")
	}
	if r.err != nil {
		return Object{}, r.err
	}
	if v, ok := el.Attr("gid"); ok {
		gid, err := ParseGID(v)
		if err != nil {
			return Object{}, newDecodeError(el, "gid", err)
		}
		obj.GID = &gid
	}

	for _, child := range el.Children {
		switch child.Name {
		case "properties":
			props, err := decodeProperties(child)
			if err != nil {
				return Object{}, err
			}
			obj.Properties = append(obj.Properties, props...)
		case "polygon":
			poly, err := DecodePolygon(child)
			if err != nil {
				return Object{}, err
			}
			obj.Polygon = &poly
		case "point":
			obj.Point = true
		case "ellipse":
			obj.Ellipse = true
		}
	}
	return obj, nil
}

// DecodePolygon decodes a <polygon points="x,y x,y ..."> element.
func DecodePolygon(el *xmltree.Element) (Polygon, error) {
	if err := expect(el, "polygon"); err != nil {
		return Polygon{}, err
	}
	r := attrs(el)
	raw := r.required("points")
	if r.err != nil {
		return Polygon{}, r.err
	}
	points, err := parsePoints(raw)
	if err != nil {
		return Polygon{}, newDecodeError(el, "points", err)
	}
	return Polygon{Points: points}, nil
}

func parsePoints(s string) ([]Point, error) {
	fields := strings.Fields(s)
	points := make([]Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("%w: point %q", ErrInvalidAttribute, f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: point %q", ErrInvalidAttribute, f)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: point %q", ErrInvalidAttribute, f)
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points, nil
}
