package scene

import (
	"bufio"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Faultbox/mvkit/pkg/math"
)

// tileMapDataFormat is the version header of packed TileMapLayer cell data.
const tileMapDataFormat = 0

// TSCNEncoder writes the engine text scene format (format=3).
type TSCNEncoder struct {
	ResourcePrefix string
}

// Ext implements Encoder.
func (e *TSCNEncoder) Ext() string { return "tscn" }

type tscnProp struct {
	key, value string
}

type tscnResource struct {
	kind  string
	id    string
	path  string     // ext_resource only
	props []tscnProp // sub_resource only
}

// tscnWriter collects resources while walking the tree, then writes sections.
type tscnWriter struct {
	prefix string

	ext    []tscnResource
	extIDs map[string]string

	tileSets    []*TileSet
	tileSetIDs  map[*TileSet]string
	sources     map[*TileSet][]*AtlasSource
	usedCoords  map[*TileSet]map[int]map[math.Vec2i]bool
	shapes      []tscnResource
	shapeIDs    map[NodeID]string
	subCounters map[string]int
}

// Encode implements Encoder.
func (e *TSCNEncoder) Encode(w io.Writer, t *Tree) error {
	tw := &tscnWriter{
		prefix:      e.ResourcePrefix,
		extIDs:      make(map[string]string),
		tileSetIDs:  make(map[*TileSet]string),
		sources:     make(map[*TileSet][]*AtlasSource),
		usedCoords:  make(map[*TileSet]map[int]map[math.Vec2i]bool),
		shapeIDs:    make(map[NodeID]string),
		subCounters: make(map[string]int),
	}

	root := t.Root()
	var order []NodeID
	t.Walk(func(id NodeID, depth int) bool {
		if !persisted(t, root, id) {
			return false
		}
		order = append(order, id)
		tw.collect(t, id)
		return true
	})

	subs := tw.tileSetResources()
	subs = append(subs, tw.shapes...)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "[gd_scene load_steps=%d format=3]\n", len(tw.ext)+len(subs)+1)

	for _, r := range tw.ext {
		fmt.Fprintf(bw, "\n[ext_resource type=%s path=%s id=%s]\n", quote(r.kind), quote(r.path), quote(r.id))
	}
	for _, r := range subs {
		fmt.Fprintf(bw, "\n[sub_resource type=%s id=%s]\n", quote(r.kind), quote(r.id))
		writeProps(bw, r.props)
	}
	for _, id := range order {
		tw.writeNode(bw, t, id)
	}
	return bw.Flush()
}

func (tw *tscnWriter) collect(t *Tree, id NodeID) {
	n := t.Node(id)
	if n.Instance != "" {
		tw.extResource("PackedScene", n.Instance)
	}
	if n.Layer != nil && n.Layer.TileSet != nil {
		ts := n.Layer.TileSet
		if _, ok := tw.tileSetIDs[ts]; !ok {
			tw.tileSetIDs[ts] = tw.subID("TileSet")
			tw.tileSets = append(tw.tileSets, ts)
			tw.usedCoords[ts] = make(map[int]map[math.Vec2i]bool)
			// Later merges into a shared tileset are not part of this scene.
			tw.sources[ts] = ts.Sources()
			for _, src := range tw.sources[ts] {
				tw.extResource("Texture2D", src.Texture)
			}
		}
		used := tw.usedCoords[ts]
		for _, c := range n.Layer.Cells {
			if used[c.SourceID] == nil {
				used[c.SourceID] = make(map[math.Vec2i]bool)
			}
			used[c.SourceID][c.AtlasCoords] = true
		}
	}
	if n.Sprite != nil {
		tw.extResource("Texture2D", n.Sprite.Texture)
	}
	if n.Kind == KindCollisionShape2D {
		sid := tw.subID("RectangleShape2D")
		tw.shapeIDs[id] = sid
		tw.shapes = append(tw.shapes, tscnResource{
			kind:  "RectangleShape2D",
			id:    sid,
			props: []tscnProp{{"size", vec2(n.RectSize)}},
		})
	}
}

func (tw *tscnWriter) extResource(kind, p string) string {
	key := kind + "|" + p
	if id, ok := tw.extIDs[key]; ok {
		return id
	}
	id := strconv.Itoa(len(tw.ext) + 1)
	tw.extIDs[key] = id
	tw.ext = append(tw.ext, tscnResource{kind: kind, id: id, path: resourcePath(tw.prefix, p)})
	return id
}

func (tw *tscnWriter) extRef(kind, p string) string {
	return fmt.Sprintf("ExtResource(%s)", quote(tw.extIDs[kind+"|"+p]))
}

func (tw *tscnWriter) subID(kind string) string {
	tw.subCounters[kind]++
	return kind + "_" + strconv.Itoa(tw.subCounters[kind])
}

// tileSetResources emits every atlas source before the tileset that lists it.
func (tw *tscnWriter) tileSetResources() []tscnResource {
	var out []tscnResource
	for _, ts := range tw.tileSets {
		tsProps := []tscnProp{{"tile_size", vec2i(ts.TileSize)}}
		for _, src := range tw.sources[ts] {
			sid := tw.subID("TileSetAtlasSource")
			props := []tscnProp{{"texture", tw.extRef("Texture2D", src.Texture)}}
			if src.Margin != 0 {
				props = append(props, tscnProp{"margins", vec2i(math.Vec2i{X: src.Margin, Y: src.Margin})})
			}
			if src.Spacing != 0 {
				props = append(props, tscnProp{"separation", vec2i(math.Vec2i{X: src.Spacing, Y: src.Spacing})})
			}
			props = append(props, tscnProp{"texture_region_size", vec2i(src.TileSize)})
			for _, c := range atlasTiles(src, tw.usedCoords[ts][src.ID]) {
				props = append(props, tscnProp{fmt.Sprintf("%d:%d/0", c.X, c.Y), "0"})
			}
			out = append(out, tscnResource{kind: "TileSetAtlasSource", id: sid, props: props})
			tsProps = append(tsProps, tscnProp{fmt.Sprintf("sources/%d", src.ID), subRef(sid)})
		}
		out = append(out, tscnResource{kind: "TileSet", id: tw.tileSetIDs[ts], props: tsProps})
	}
	return out
}

// atlasTiles lists the tiles declared by the source plus any painted outside of it,
// ordered by row then column.
func atlasTiles(src *AtlasSource, used map[math.Vec2i]bool) []math.Vec2i {
	set := make(map[math.Vec2i]bool, src.TileCount+len(used))
	if src.Columns > 0 {
		for i := 0; i < src.TileCount; i++ {
			set[src.AtlasCoords(i)] = true
		}
	}
	for c := range used {
		set[c] = true
	}
	out := make([]math.Vec2i, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func (tw *tscnWriter) writeNode(w io.Writer, t *Tree, id NodeID) {
	n := t.Node(id)

	header := "[node name=" + quote(n.Name)
	if n.Instance == "" {
		header += " type=" + quote(n.Kind.String())
	}
	if id != t.Root() {
		header += " parent=" + quote(t.Path(n.Parent))
	}
	if n.Instance != "" {
		header += " instance=" + tw.extRef("PackedScene", n.Instance)
	}
	fmt.Fprintf(w, "\n%s]\n", header)

	var props []tscnProp
	if n.Layer != nil {
		if len(n.Layer.Cells) > 0 {
			props = append(props, tscnProp{"tile_map_data", packCells(n.Layer.Cells)})
		}
		if n.Layer.TileSet != nil {
			props = append(props, tscnProp{"tile_set", subRef(tw.tileSetIDs[n.Layer.TileSet])})
		}
	}
	if n.Hidden {
		props = append(props, tscnProp{"visible", "false"})
	}
	if !n.Position.IsZero() {
		props = append(props, tscnProp{"position", vec2(n.Position)})
	}
	if n.Rotation != 0 {
		props = append(props, tscnProp{"rotation", num(n.Rotation)})
	}
	if s := n.Sprite; s != nil {
		props = append(props,
			tscnProp{"texture", tw.extRef("Texture2D", s.Texture)},
			tscnProp{"region_enabled", "true"},
			tscnProp{"region_rect", rect2i(s.Region)},
		)
		if !s.Offset.IsZero() {
			props = append(props, tscnProp{"offset", vec2(s.Offset)})
		}
		if s.FlipH {
			props = append(props, tscnProp{"flip_h", "true"})
		}
		if s.FlipV {
			props = append(props, tscnProp{"flip_v", "true"})
		}
	}
	if n.Kind == KindCollisionPolygon2D {
		props = append(props, tscnProp{"polygon", packVectors(n.Polygon)})
	}
	if sid, ok := tw.shapeIDs[id]; ok {
		props = append(props, tscnProp{"shape", subRef(sid)})
	}
	for _, m := range n.Metadata {
		props = append(props, tscnProp{"metadata/" + m.Key, metaValue(m)})
	}
	writeProps(w, props)
}

func writeProps(w io.Writer, props []tscnProp) {
	for _, p := range props {
		fmt.Fprintf(w, "%s = %s\n", p.key, p.value)
	}
}

// packCells encodes cells as a format header followed by 12 bytes per cell:
// x, y as int16 then source, atlas x, atlas y and alternative as uint16.
func packCells(cells []Cell) string {
	buf := make([]byte, 0, 2+12*len(cells))
	buf = binary.LittleEndian.AppendUint16(buf, tileMapDataFormat)
	for _, c := range cells {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(c.Coords.X)))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(c.Coords.Y)))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(c.SourceID))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(c.AtlasCoords.X))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(c.AtlasCoords.Y))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(c.Alternative))
	}
	return `PackedByteArray("` + base64.StdEncoding.EncodeToString(buf) + `")`
}

// UnpackCells decodes the payload written for tile_map_data.
func UnpackCells(data []byte) ([]Cell, error) {
	if len(data) < 2 || (len(data)-2)%12 != 0 {
		return nil, fmt.Errorf("tile map data: invalid length %d", len(data))
	}
	if v := binary.LittleEndian.Uint16(data); v != tileMapDataFormat {
		return nil, fmt.Errorf("tile map data: unsupported format %d", v)
	}
	data = data[2:]
	cells := make([]Cell, 0, len(data)/12)
	for off := 0; off < len(data); off += 12 {
		u := func(i int) uint16 { return binary.LittleEndian.Uint16(data[off+i*2:]) }
		cells = append(cells, Cell{
			Coords:      math.Vec2i{X: int(int16(u(0))), Y: int(int16(u(1)))},
			SourceID:    int(u(2)),
			AtlasCoords: math.Vec2i{X: int(u(3)), Y: int(u(4))},
			Alternative: int(u(5)),
		})
	}
	return cells, nil
}

func packVectors(points []math.Vec2) string {
	parts := make([]string, 0, len(points)*2)
	for _, p := range points {
		parts = append(parts, num(p.X), num(p.Y))
	}
	return "PackedVector2Array(" + strings.Join(parts, ", ") + ")"
}

func metaValue(m Meta) string {
	switch m.Type {
	case "int":
		if n, err := strconv.Atoi(m.Value); err == nil {
			return strconv.Itoa(n)
		}
	case "float":
		if f, err := strconv.ParseFloat(m.Value, 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	case "bool":
		if b, err := strconv.ParseBool(m.Value); err == nil {
			return strconv.FormatBool(b)
		}
	}
	return quote(m.Value)
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

func subRef(id string) string {
	return fmt.Sprintf("SubResource(%s)", quote(id))
}

func num(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

func vec2(v math.Vec2) string {
	return fmt.Sprintf("Vector2(%s, %s)", num(v.X), num(v.Y))
}

func vec2i(v math.Vec2i) string {
	return fmt.Sprintf("Vector2i(%d, %d)", v.X, v.Y)
}

func rect2i(r math.Rect2i) string {
	return fmt.Sprintf("Rect2(%d, %d, %d, %d)", r.Position.X, r.Position.Y, r.Size.X, r.Size.Y)
}
