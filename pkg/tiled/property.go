package tiled

import (
	"strconv"

	"github.com/Faultbox/mvkit/pkg/xmltree"
)

// Property is a custom property attached to a map, layer, tileset or object.
type Property struct {
	Name         string
	Type         string // string (default), int, float, bool, color, file, object, class
	PropertyType string // custom type name for class and enum properties
	Value        string
}

// Properties is an ordered property list.
type Properties []Property

// Get returns the property with the given name.
func (p Properties) Get(name string) (Property, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop, true
		}
	}
	return Property{}, false
}

// GetString returns the named value, or "" when absent.
func (p Properties) GetString(name string) string {
	prop, _ := p.Get(name)
	return prop.Value
}

// GetInt returns the named value as an int, or 0.
func (p Properties) GetInt(name string) int {
	n, _ := strconv.Atoi(p.GetString(name))
	return n
}

// GetFloat returns the named value as a float64, or 0.
func (p Properties) GetFloat(name string) float64 {
	f, _ := strconv.ParseFloat(p.GetString(name), 64)
	return f
}

// GetBool returns the named value as a bool, or false.
func (p Properties) GetBool(name string) bool {
	b, _ := strconv.ParseBool(p.GetString(name))
	return b
}

// DecodeProperty decodes a <property> element. Multi-line string values
// are stored as element text instead of the value attribute.
func DecodeProperty(el *xmltree.Element) (Property, error) {
	if err := expect(el, "property"); err != nil {
		return Property{}, err
	}
	r := attrs(el)
	prop := Property{
		Name:         r.required("name"),
		Type:         r.str("type"),
		PropertyType: r.str("propertytype"),
	}
	if v, ok := el.Attr("value"); ok {
		prop.Value = v
	} else {
		prop.Value = el.Text
	}
	if prop.Type == "" {
		prop.Type = "string"
	}
	if r.err != nil {
		return Property{}, r.err
	}
	return prop, nil
}

// decodeProperties decodes the children of a <properties> element.
func decodeProperties(el *xmltree.Element) (Properties, error) {
	if err := expect(el, "properties"); err != nil {
		return nil, err
	}
	var props Properties
	for _, child := range el.Children {
		if child.Name != "property" {
			continue
		}
		prop, err := DecodeProperty(child)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}
