package scene

import (
	"errors"
	"sync"
	"testing"

	"github.com/Faultbox/mvkit/pkg/math"
)

func TestTileSet_EnsureSourceIdempotent(t *testing.T) {
	ts := NewTileSet(16, 16)
	calls := 0
	create := func() (*AtlasSource, error) {
		calls++
		return &AtlasSource{Texture: "terrain.png", Columns: 8}, nil
	}

	first, created, err := ts.EnsureSource("terrain", create)
	if err != nil || !created {
		t.Fatalf("expected first call to create, got created=%v err=%v", created, err)
	}
	second, created, err := ts.EnsureSource("terrain", create)
	if err != nil || created {
		t.Fatalf("expected second call to reuse, got created=%v err=%v", created, err)
	}

	if first != second {
		t.Error("expected the same source on both calls")
	}
	if calls != 1 {
		t.Errorf("expected create to run once, ran %d times", calls)
	}
	if ts.Len() != 1 {
		t.Errorf("expected 1 atlas source, got %d", ts.Len())
	}
}

func TestTileSet_EnsureSourceConcurrent(t *testing.T) {
	ts := NewTileSet(16, 16)
	names := []string{"terrain", "props", "terrain", "props", "decor", "terrain"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				ts.EnsureSource(name, func() (*AtlasSource, error) {
					return &AtlasSource{Texture: name + ".png"}, nil
				})
			}(name)
		}
	}
	wg.Wait()

	if ts.Len() != 3 {
		t.Fatalf("expected 3 atlas sources, got %d", ts.Len())
	}
	for i, src := range ts.Sources() {
		if src.ID != i {
			t.Errorf("expected source %s to have id %d, got %d", src.Name, i, src.ID)
		}
	}
}

func TestTileSet_EnsureSourceError(t *testing.T) {
	ts := NewTileSet(16, 16)
	boom := errors.New("boom")
	if _, _, err := ts.EnsureSource("x", func() (*AtlasSource, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if ts.Len() != 0 {
		t.Error("failed create must not register a source")
	}
}

func TestAtlasSource_Region(t *testing.T) {
	src := &AtlasSource{TileSize: math.Vec2i{X: 16, Y: 16}, Margin: 2, Spacing: 1, Columns: 8}

	coords := src.AtlasCoords(13)
	if coords != (math.Vec2i{X: 5, Y: 1}) {
		t.Fatalf("expected (5,1), got %v", coords)
	}

	r := src.Region(coords)
	want := math.Rect2i{Position: math.Vec2i{X: 2 + 5*17, Y: 2 + 17}, Size: math.Vec2i{X: 16, Y: 16}}
	if r != want {
		t.Errorf("expected %v, got %v", want, r)
	}
}
