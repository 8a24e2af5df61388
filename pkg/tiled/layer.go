package tiled

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/Faultbox/mvkit/pkg/xmltree"
)

// Layer is a grid of tile cells.
type Layer struct {
	ID         int
	Name       string
	Class      string
	Width      int // in tiles
	Height     int // in tiles
	Opacity    float64
	Visible    bool
	OffsetX    float64
	OffsetY    float64
	Properties Properties
	Data       Data
}

// Data holds a layer's cell payload exactly as written in the file.
type Data struct {
	Encoding    string // "csv", "base64" or "" (legacy XML tiles, unsupported)
	Compression string // "", "zlib", "gzip", "zstd"
	Text        string
	HasChunks   bool
}

// DecodeLayer decodes a <layer> element.
func DecodeLayer(el *xmltree.Element) (Layer, error) {
	if err := expect(el, "layer"); err != nil {
		return Layer{}, err
	}
	r := attrs(el)
	layer := Layer{
		ID:      r.intOr("id", 0),
		Name:    r.str("name"),
		Class:   r.str("class"),
		Width:   r.sizeOr("width", 0),
		Height:  r.sizeOr("height", 0),
		Opacity: r.floatOr("opacity", 1),
		Visible: r.boolOr("visible", true),
		OffsetX: r.floatOr("offsetx", 0),
		OffsetY: r.floatOr("offsety", 0),
	}
	if r.err != nil {
		return Layer{}, r.err
	}

	for _, child := range el.Children {
		switch child.Name {
		case "properties":
			props, err := decodeProperties(child)
			if err != nil {
				return Layer{}, err
			}
			layer.Properties = append(layer.Properties, props...)
		case "data":
			data, err := DecodeData(child)
			if err != nil {
				return Layer{}, err
			}
			layer.Data = data
		}
	}
	return layer, nil
}

// DecodeData decodes a <data> element. The text is kept verbatim; cells are
// only interpreted by Layer.CellGIDs.
func DecodeData(el *xmltree.Element) (Data, error) {
	if err := expect(el, "data"); err != nil {
		return Data{}, err
	}
	r := attrs(el)
	return Data{
		Encoding:    r.str("encoding"),
		Compression: r.str("compression"),
		Text:        el.Text,
		HasChunks:   el.Child("chunk") != nil,
	}, nil
}

// CellCount is the number of cells the layer dimensions call for.
func (l *Layer) CellCount() int {
	return l.Width * l.Height
}

// CellGIDs decodes the layer payload into one GID per cell, row-major.
// The result always holds exactly Width*Height entries.
func (l *Layer) CellGIDs() ([]GID, error) {
	var (
		gids []GID
		err  error
	)
	if l.Data.HasChunks {
		return nil, fmt.Errorf("layer %q: %w: chunked data", l.Name, ErrUnsupportedEncoding)
	}
	switch l.Data.Encoding {
	case "csv":
		gids, err = decodeCSV(l.Data.Text)
	case "base64":
		gids, err = decodeBase64(l.Data.Text, l.Data.Compression)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedEncoding, l.Data.Encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.Name, err)
	}
	if len(gids) != l.CellCount() {
		return nil, fmt.Errorf("layer %q: %w: got %d cells, want %dx%d",
			l.Name, ErrCellCountMismatch, len(gids), l.Width, l.Height)
	}
	return gids, nil
}

// decodeCSV strips all whitespace, then splits on commas.
func decodeCSV(text string) ([]GID, error) {
	joined := strings.Join(strings.FieldsFunc(text, unicode.IsSpace), "")
	if joined == "" {
		return nil, nil
	}
	tokens := strings.Split(joined, ",")
	gids := make([]GID, 0, len(tokens))
	for i, tok := range tokens {
		if tok == "" {
			// Tolerate a trailing comma.
			if i == len(tokens)-1 {
				break
			}
			return nil, fmt.Errorf("%w: empty cell %d", ErrInvalidCellData, i)
		}
		n, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %d: %q", ErrInvalidCellData, i, tok)
		}
		gids = append(gids, GID(n))
	}
	return gids, nil
}

func decodeBase64(text, compression string) ([]GID, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellData, err)
	}

	var r io.Reader = bytes.NewReader(raw)
	switch compression {
	case "":
	case "zlib":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrInvalidCellData, err)
		}
		defer zr.Close()
		r = zr
	case "gzip":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrInvalidCellData, err)
		}
		defer gr.Close()
		r = gr
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrUnsupportedEncoding, compression)
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellData, err)
	}
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("%w: payload of %d bytes is not a multiple of 4", ErrInvalidCellData, len(payload))
	}

	gids := make([]GID, len(payload)/4)
	for i := range gids {
		gids[i] = GID(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return gids, nil
}

// EncodeCSV writes cells back in the layout Tiled uses: one row per line,
// rows separated by ",\n".
func EncodeCSV(width int, gids []GID) string {
	if width <= 0 || len(gids) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('\n')
	for i, g := range gids {
		if i > 0 {
			b.WriteByte(',')
			if i%width == 0 {
				b.WriteByte('\n')
			}
		}
		b.WriteString(strconv.FormatUint(uint64(g), 10))
	}
	b.WriteByte('\n')
	return b.String()
}
