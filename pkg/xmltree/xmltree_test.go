package xmltree

import (
	"errors"
	"testing"
)

func TestParse_PreservesOrder(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="2">
 <tileset firstgid="1" source="a.tsx"/>
 <layer name="Ground"/>
 <tileset firstgid="9" source="b.tsx"/>
</map>`

	root, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if root.Name != "map" {
		t.Errorf("expected root 'map', got %s", root.Name)
	}

	wantAttrs := []string{"version", "orientation", "width"}
	if len(root.Attrs) != len(wantAttrs) {
		t.Fatalf("expected %d attributes, got %d", len(wantAttrs), len(root.Attrs))
	}
	for i, name := range wantAttrs {
		if root.Attrs[i].Name != name {
			t.Errorf("attr %d: expected %s, got %s", i, name, root.Attrs[i].Name)
		}
	}

	wantChildren := []string{"tileset", "layer", "tileset"}
	if len(root.Children) != len(wantChildren) {
		t.Fatalf("expected %d children, got %d", len(wantChildren), len(root.Children))
	}
	for i, name := range wantChildren {
		if root.Children[i].Name != name {
			t.Errorf("child %d: expected %s, got %s", i, name, root.Children[i].Name)
		}
	}

	tilesets := root.ChildrenNamed("tileset")
	if len(tilesets) != 2 {
		t.Fatalf("expected 2 tilesets, got %d", len(tilesets))
	}
	if src, _ := tilesets[1].Attr("source"); src != "b.tsx" {
		t.Errorf("expected second tileset source b.tsx, got %s", src)
	}
}

func TestParse_TextVerbatim(t *testing.T) {
	doc := "<data encoding=\"csv\">\n0,9,\n3,0\n</data>"

	root, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if root.Text != "\n0,9,\n3,0\n" {
		t.Errorf("text not preserved verbatim: %q", root.Text)
	}
}

func TestParse_CDATA(t *testing.T) {
	root, err := Parse([]byte("<p><![CDATA[a < b]]></p>"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if root.Text != "a < b" {
		t.Errorf("expected CDATA text, got %q", root.Text)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unclosed", "<map><layer></map>"},
		{"truncated", "<map><layer>"},
		{"mismatched", "<a></b>"},
		{"two roots", "<a/><b/>"},
		{"text after root", "<a/>junk"},
		{"empty", ""},
		{"bad attribute", "<a x=1/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatalf("expected error, got root %v", root)
			}
			if root != nil {
				t.Error("expected no partial tree on failure")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestParseError_Line(t *testing.T) {
	_, err := Parse([]byte("<map>\n<layer>\n</map>"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line == 0 {
		t.Error("expected a line number in the parse error")
	}
}

func TestElement_Helpers(t *testing.T) {
	root, err := Parse([]byte(`<object id="3"><polygon points="0,0 1,1"/><properties/></object>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if root.Child("polygon") == nil {
		t.Error("expected polygon child")
	}
	if root.Child("ellipse") != nil {
		t.Error("expected no ellipse child")
	}
	if got := root.AttrOr("name", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %s", got)
	}
	if got := root.AttrOr("id", ""); got != "3" {
		t.Errorf("expected id 3, got %s", got)
	}
}
