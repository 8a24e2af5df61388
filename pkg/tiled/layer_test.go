package tiled

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"
)

func csvLayer(w, h int, text string) Layer {
	return Layer{Name: "L", Width: w, Height: h, Data: Data{Encoding: "csv", Text: text}}
}

// encodeBase64 packs gids as little-endian uint32 and optionally compresses them.
func encodeBase64(t *testing.T, gids []uint32, compression string) string {
	t.Helper()
	raw := new(bytes.Buffer)
	for _, g := range gids {
		binary.Write(raw, binary.LittleEndian, g)
	}

	payload := raw.Bytes()
	switch compression {
	case "zlib":
		buf := new(bytes.Buffer)
		zw := zlib.NewWriter(buf)
		zw.Write(payload)
		zw.Close()
		payload = buf.Bytes()
	case "gzip":
		buf := new(bytes.Buffer)
		gw := gzip.NewWriter(buf)
		gw.Write(payload)
		gw.Close()
		payload = buf.Bytes()
	}
	return "\n   " + base64.StdEncoding.EncodeToString(payload) + "\n  "
}

func TestCellGIDs_CSV(t *testing.T) {
	layer := csvLayer(3, 2, "\n1,0,3,\n0, 5,\t2147483654\n")

	gids, err := layer.CellGIDs()
	if err != nil {
		t.Fatalf("CellGIDs failed: %v", err)
	}

	want := []GID{1, 0, 3, 0, 5, 2147483654}
	if len(gids) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(gids))
	}
	for i := range want {
		if gids[i] != want[i] {
			t.Errorf("cell %d: expected %d, got %d", i, want[i], gids[i])
		}
	}
}

func TestCellGIDs_Base64(t *testing.T) {
	cells := []uint32{0, 9, 0x80000001, 4}

	for _, compression := range []string{"", "zlib", "gzip"} {
		t.Run("compression="+compression, func(t *testing.T) {
			layer := Layer{
				Name:   "L",
				Width:  2,
				Height: 2,
				Data: Data{
					Encoding:    "base64",
					Compression: compression,
					Text:        encodeBase64(t, cells, compression),
				},
			}

			gids, err := layer.CellGIDs()
			if err != nil {
				t.Fatalf("CellGIDs failed: %v", err)
			}
			for i, c := range cells {
				if uint32(gids[i]) != c {
					t.Errorf("cell %d: expected %d, got %d", i, c, gids[i])
				}
			}
		})
	}
}

func TestCellGIDs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		layer   Layer
		wantErr error
	}{
		{"too few cells", csvLayer(2, 2, "1,2,3"), ErrCellCountMismatch},
		{"too many cells", csvLayer(1, 1, "1,2"), ErrCellCountMismatch},
		{"empty data", csvLayer(2, 1, "\n"), ErrCellCountMismatch},
		{"garbage", csvLayer(2, 1, "1,x"), ErrInvalidCellData},
		{"negative", csvLayer(2, 1, "1,-2"), ErrInvalidCellData},
		{"hole", csvLayer(3, 1, "1,,2"), ErrInvalidCellData},
		{"xml encoding", Layer{Width: 1, Height: 1}, ErrUnsupportedEncoding},
		{"zstd", Layer{Width: 1, Height: 1, Data: Data{Encoding: "base64", Compression: "zstd", Text: "AAAAAA=="}}, ErrUnsupportedEncoding},
		{"chunks", Layer{Width: 1, Height: 1, Data: Data{Encoding: "csv", HasChunks: true}}, ErrUnsupportedEncoding},
		{"bad base64", Layer{Width: 1, Height: 1, Data: Data{Encoding: "base64", Text: "!!!"}}, ErrInvalidCellData},
		{"short base64", Layer{Width: 1, Height: 1, Data: Data{Encoding: "base64", Text: "AAA="}}, ErrInvalidCellData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.layer.CellGIDs()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEncodeCSV_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		width int
		cells []GID
	}{
		{"single row with zeros", 4, []GID{0, 9, 0, 0}},
		{"two rows", 2, []GID{1, 0, 0, 7}},
		{"flipped ids", 3, []GID{0xC0000005, 0, 12}},
		{"all empty", 2, []GID{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := EncodeCSV(tt.width, tt.cells)
			layer := csvLayer(tt.width, len(tt.cells)/tt.width, text)

			got, err := layer.CellGIDs()
			if err != nil {
				t.Fatalf("CellGIDs failed on %q: %v", text, err)
			}
			if len(got) != len(tt.cells) {
				t.Fatalf("expected %d cells, got %d", len(tt.cells), len(got))
			}
			for i := range got {
				if got[i] != tt.cells[i] {
					t.Errorf("cell %d: expected %d, got %d", i, tt.cells[i], got[i])
				}
			}
		})
	}
}

func TestEncodeCSV_Layout(t *testing.T) {
	got := EncodeCSV(2, []GID{1, 2, 3, 4})
	want := "\n1,2,\n3,4\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDecodeLayer_Defaults(t *testing.T) {
	m, err := ParseMap([]byte(`<map orientation="orthogonal"><layer name="A" width="1" height="1"><data encoding="csv">0</data></layer></map>`))
	if err != nil {
		t.Fatalf("ParseMap failed: %v", err)
	}
	l := m.Layers[0]
	if !l.Visible {
		t.Error("expected visible by default")
	}
	if l.Opacity != 1 {
		t.Errorf("expected opacity 1, got %v", l.Opacity)
	}
	if l.OffsetX != 0 || l.OffsetY != 0 {
		t.Errorf("expected zero offset, got (%v,%v)", l.OffsetX, l.OffsetY)
	}
	if l.Data.Encoding != "csv" || l.Data.Text != "0" {
		t.Errorf("unexpected data: %+v", l.Data)
	}
}
