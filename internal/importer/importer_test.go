package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/mvkit/internal/config"
	"github.com/Faultbox/mvkit/internal/tileset"
	"github.com/Faultbox/mvkit/pkg/scene"
	"github.com/Faultbox/mvkit/pkg/tiled"
	"github.com/Faultbox/mvkit/pkg/xmltree"
)

const terrainTSX = `<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.10" name="terrain" tilewidth="16" tileheight="16" tilecount="64" columns="8">
 <image source="../images/terrain.png" width="128" height="128"/>
</tileset>`

const levelTMX = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" renderorder="right-down" width="2" height="1" tilewidth="16" tileheight="16" infinite="0">
 <tileset firstgid="1" source="../tilesets/terrain.tsx"/>
 <layer id="1" name="Ground" width="2" height="1">
  <data encoding="csv">0,9</data>
 </layer>
 <objectgroup id="2" name="Objects">
  <object id="1" name="Goblin" type="enemy" x="16" y="0" width="16" height="16"/>
  <object id="2" name="Wall" x="0" y="0" width="32" height="16"/>
  <object id="3" name="Ghost" type="spirit" x="0" y="0"><point/></object>
 </objectgroup>
</map>`

// mapWith returns a minimal orthogonal map around body.
func mapWith(body string) string {
	return fmt.Sprintf(`<map orientation="orthogonal" width="2" height="1" tilewidth="16" tileheight="16">
 <tileset firstgid="1" source="../tilesets/terrain.tsx"/>
%s
</map>`, body)
}

// memSaver records saved scenes in memory.
type memSaver struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (s *memSaver) Save(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[name] = data
	return nil
}

func projectFS() fstest.MapFS {
	return fstest.MapFS{
		"maps/level.tmx":        {Data: []byte(levelTMX)},
		"tilesets/terrain.tsx":  {Data: []byte(terrainTSX)},
		"templates/enemy.tscn":  {Data: []byte("[gd_scene format=3]\n")},
		"templates/spirit.tscn": {Mode: fs.ModeDir},
	}
}

func newTestImporter(cfg *config.Config, fsys fs.FS, saver Saver, opts ...Option) *Importer {
	if cfg == nil {
		cfg = config.Default()
	}
	opts = append([]Option{WithFS(fsys), WithSaver(saver)}, opts...)
	return New(*cfg, opts...)
}

func TestImport_EndToEnd(t *testing.T) {
	saver := &memSaver{}
	im := newTestImporter(nil, projectFS(), saver)

	res := im.Import("maps/level.tmx", "out/level", map[string]any{"keep_custom": true})
	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s: %v", res.Status, res.Err)
	}
	if res.Output != "out/level.tscn" {
		t.Errorf("expected output out/level.tscn, got %s", res.Output)
	}

	data, ok := saver.files["out/level.tscn"]
	if !ok {
		t.Fatalf("scene not saved, got %v", saver.files)
	}
	out := string(data)
	for _, want := range []string{
		"[gd_scene load_steps=",
		`path="res://images/terrain.png"`,
		`path="res://templates/enemy.tscn"`,
		`[node name="level" type="Node2D"]`,
		`[node name="Ground" type="TileMapLayer" parent="."]`,
		`[node name="Goblin" parent="Objects" instance=ExtResource(`,
		`[node name="CollisionShape2D" type="CollisionShape2D" parent="Objects/Wall/StaticBody2D"]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected scene to contain %q\n%s", want, out)
		}
	}

	// spirit.tscn is a directory, so Ghost falls back to synthesis.
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], `"spirit"`) {
		t.Errorf("expected one template warning for spirit, got %v", res.Warnings)
	}
}

func TestImport_Failures(t *testing.T) {
	tests := []struct {
		name       string
		files      fstest.MapFS
		source     string
		format     string
		saveErr    error
		wantStatus Status
		wantErr    error
	}{
		{
			name:       "missing map",
			source:     "maps/nope.tmx",
			wantStatus: StatusFileNotFound,
			wantErr:    fs.ErrNotExist,
		},
		{
			name:       "malformed xml",
			files:      fstest.MapFS{"maps/bad.tmx": {Data: []byte(`<map orientation="orthogonal"><layer></map>`)}},
			source:     "maps/bad.tmx",
			wantStatus: StatusParseError,
			wantErr:    xmltree.ErrMalformed,
		},
		{
			name:       "isometric",
			files:      fstest.MapFS{"maps/iso.tmx": {Data: []byte(strings.Replace(levelTMX, "orthogonal", "isometric", 1))}},
			source:     "maps/iso.tmx",
			wantStatus: StatusUnsupportedOrientation,
			wantErr:    ErrUnsupportedOrientation,
		},
		{
			name:       "hexagonal",
			files:      fstest.MapFS{"maps/hex.tmx": {Data: []byte(strings.Replace(levelTMX, "orthogonal", "hexagonal", 1))}},
			source:     "maps/hex.tmx",
			wantStatus: StatusUnsupportedOrientation,
			wantErr:    ErrUnsupportedOrientation,
		},
		{
			name:       "infinite",
			files:      fstest.MapFS{"maps/inf.tmx": {Data: []byte(`<map orientation="orthogonal" infinite="1" width="0" height="0" tilewidth="16" tileheight="16"/>`)}},
			source:     "maps/inf.tmx",
			wantStatus: StatusInvalidData,
			wantErr:    tiled.ErrUnsupportedInfiniteMap,
		},
		{
			name:       "infinite isometric",
			files:      fstest.MapFS{"maps/infiso.tmx": {Data: []byte(`<map orientation="isometric" infinite="1" width="0" height="0" tilewidth="16" tileheight="16"/>`)}},
			source:     "maps/infiso.tmx",
			wantStatus: StatusUnsupportedOrientation,
			wantErr:    ErrUnsupportedOrientation,
		},
		{
			name:       "negative layer size",
			files:      fstest.MapFS{"maps/neg.tmx": {Data: []byte(strings.Replace(levelTMX, `name="Ground" width="2" height="1"`, `name="Ground" width="-2" height="-1"`, 1))}},
			source:     "maps/neg.tmx",
			wantStatus: StatusInvalidData,
			wantErr:    tiled.ErrInvalidAttribute,
		},
		{
			name:       "unknown orientation",
			files:      fstest.MapFS{"maps/odd.tmx": {Data: []byte(strings.Replace(levelTMX, "orthogonal", "spherical", 1))}},
			source:     "maps/odd.tmx",
			wantStatus: StatusInvalidData,
			wantErr:    tiled.ErrUnknownOrientation,
		},
		{
			name: "tileset without source",
			files: fstest.MapFS{"maps/nosrc.tmx": {Data: []byte(`<map orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <tileset firstgid="1"/>
</map>`)}},
			source:     "maps/nosrc.tmx",
			wantStatus: StatusInvalidData,
			wantErr:    tiled.ErrMissingTileSetSource,
		},
		{
			name: "tileset file missing",
			files: fstest.MapFS{"maps/lost.tmx": {Data: []byte(`<map orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <tileset firstgid="1" source="../tilesets/lost.tsx"/>
</map>`)}},
			source:     "maps/lost.tmx",
			wantStatus: StatusFileNotFound,
			wantErr:    fs.ErrNotExist,
		},
		{
			name: "unresolved gid",
			files: fstest.MapFS{"maps/gid.tmx": {Data: []byte(strings.Replace(
				mapWith(`<layer name="L" width="2" height="1"><data encoding="csv">0,9</data></layer>`),
				`firstgid="1"`, `firstgid="20"`, 1))}},
			source:     "maps/gid.tmx",
			wantStatus: StatusInvalidData,
			wantErr:    tileset.ErrUnresolvedGID,
		},
		{
			name: "cell count mismatch",
			files: fstest.MapFS{"maps/short.tmx": {Data: []byte(
				mapWith(`<layer name="L" width="2" height="1"><data encoding="csv">1</data></layer>`))}},
			source:     "maps/short.tmx",
			wantStatus: StatusInvalidData,
			wantErr:    tiled.ErrCellCountMismatch,
		},
		{
			name:       "unknown output format",
			source:     "maps/level.tmx",
			format:     "json",
			wantStatus: StatusFailed,
			wantErr:    scene.ErrUnknownFormat,
		},
		{
			name:       "save fails",
			source:     "maps/level.tmx",
			saveErr:    fs.ErrPermission,
			wantStatus: StatusWriteFailed,
			wantErr:    ErrWriteFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := projectFS()
			for name, f := range tt.files {
				fsys[name] = f
			}
			cfg := config.Default()
			if tt.format != "" {
				cfg.Output.Format = tt.format
			}
			saver := &memSaver{err: tt.saveErr}

			res := newTestImporter(cfg, fsys, saver).Import(tt.source, "out/scene", nil)
			if res.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s (%v)", tt.wantStatus, res.Status, res.Err)
			}
			if !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, res.Err)
			}
			if res.Output != "" {
				t.Errorf("failed import must not report output, got %s", res.Output)
			}
			if len(saver.files) != 0 {
				t.Errorf("failed import must write nothing, got %d files", len(saver.files))
			}
		})
	}
}

func TestImport_YAMLFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Format = "yaml"
	saver := &memSaver{}

	res := newTestImporter(cfg, projectFS(), saver).Import("maps/level.tmx", "out/level", nil)
	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s: %v", res.Status, res.Err)
	}
	if res.Output != "out/level.yaml" {
		t.Errorf("expected yaml output, got %s", res.Output)
	}
	if !strings.Contains(string(saver.files["out/level.yaml"]), "name: level") {
		t.Error("expected yaml scene with the root name")
	}
}

func TestImport_OverlapWarnings(t *testing.T) {
	fsys := projectFS()
	fsys["maps/walls.tmx"] = &fstest.MapFile{Data: []byte(mapWith(`<objectgroup name="Walls">
  <object id="1" name="A" x="0" y="0" width="32" height="32"/>
  <object id="2" name="B" x="16" y="16" width="32" height="32"/>
  <object id="3" name="C" x="32" y="8" width="16" height="16"/>
 </objectgroup>`))}

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := config.Default()
	cfg.Import.CheckOverlaps = true
	res := newTestImporter(cfg, fsys, &memSaver{}, WithLogger(zap.New(core))).Import("maps/walls.tmx", "out/walls", nil)
	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s: %v", res.Status, res.Err)
	}

	// A overlaps B, B overlaps C, A only touches C.
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 overlap warnings, got %v", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], "Walls/A/") || !strings.Contains(res.Warnings[0], "Walls/B/") {
		t.Errorf("unexpected first warning %q", res.Warnings[0])
	}
	if got := logs.FilterMessage("static colliders overlap").Len(); got != 2 {
		t.Errorf("expected 2 logged overlaps, got %d", got)
	}

	cfg.Import.CheckOverlaps = false
	res = newTestImporter(cfg, fsys, &memSaver{}).Import("maps/walls.tmx", "out/walls", nil)
	if len(res.Warnings) != 0 {
		t.Errorf("overlap check disabled, got %v", res.Warnings)
	}
}

func TestImport_FileSaver(t *testing.T) {
	dir := t.TempDir()
	im := New(*config.Default(), WithFS(projectFS()))

	save := filepath.Join(dir, "scenes", "nested", "level")
	res := im.Import("maps/level.tmx", save, nil)
	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s: %v", res.Status, res.Err)
	}
	data, err := os.ReadFile(save + ".tscn")
	if err != nil {
		t.Fatalf("scene not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "[gd_scene") {
		t.Errorf("unexpected scene header %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	entries, err := os.ReadDir(filepath.Dir(save))
	if err != nil {
		t.Fatalf("failed to list output dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the scene file, got %d entries", len(entries))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusOK},
		{fmt.Errorf("map x: %w", fs.ErrNotExist), StatusFileNotFound},
		{&fs.PathError{Op: "read", Path: "x", Err: fs.ErrPermission}, StatusCantRead},
		{fmt.Errorf("%w x: boom", ErrCantRead), StatusCantRead},
		{&xmltree.ParseError{Line: 3, Msg: "unexpected EOF"}, StatusParseError},
		{&tiled.DecodeError{Element: "map", Attr: "width", Err: tiled.ErrInvalidAttribute}, StatusInvalidData},
		{fmt.Errorf("map x: %w", tileset.ErrNoAtlasImage), StatusInvalidData},
		{fmt.Errorf("map x: %w", tileset.ErrUnknownTileSet), StatusInvalidData},
		{fmt.Errorf("map x: %w: staggered", ErrUnsupportedOrientation), StatusUnsupportedOrientation},
		{fmt.Errorf("%w: out.tscn: %w", ErrWriteFailed, fs.ErrNotExist), StatusWriteFailed},
		{errors.New("something else"), StatusFailed},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v): expected %s, got %s", tt.err, tt.want, got)
		}
	}
}

func TestStatusCodes(t *testing.T) {
	codes := map[Status]int{
		StatusOK:                     0,
		StatusFileNotFound:           1,
		StatusCantRead:               2,
		StatusParseError:             3,
		StatusInvalidData:            4,
		StatusUnsupportedOrientation: 5,
		StatusWriteFailed:            6,
		StatusFailed:                 7,
	}
	for s, code := range codes {
		if int(s) != code {
			t.Errorf("%s: expected code %d, got %d", s, code, int(s))
		}
	}
}

func TestFSTemplates(t *testing.T) {
	lib := NewFSTemplates(projectFS(), "templates")

	tests := []struct {
		objectType string
		want       string
		wantOK     bool
	}{
		{"enemy", "templates/enemy.tscn", true},
		{"spirit", "", false},
		{"missing", "", false},
		{"", "", false},
		{"../maps/level", "", false},
	}
	for _, tt := range tests {
		got, ok := lib.Lookup(tt.objectType)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Lookup(%q): expected (%q, %v), got (%q, %v)", tt.objectType, tt.want, tt.wantOK, got, ok)
		}
	}
}
