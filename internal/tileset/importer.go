package tileset

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/mvkit/pkg/math"
	"github.com/Faultbox/mvkit/pkg/scene"
	"github.com/Faultbox/mvkit/pkg/tiled"
)

// ErrNoAtlasImage is returned for tilesets whose atlas layout cannot be determined.
var ErrNoAtlasImage = errors.New("tileset has no usable atlas image")

// Importer reads external tileset documents and merges them into engine tilesets.
type Importer struct {
	fsys fs.FS
	log  *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.log = l
		}
	}
}

// NewImporter creates an importer reading from fsys. Paths are slash-separated
// and relative to the root of fsys.
func NewImporter(fsys fs.FS, opts ...Option) *Importer {
	im := &Importer{fsys: fsys, log: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ShortName is the merge key of a tileset: its file name without extension.
func ShortName(source string) string {
	base := path.Base(strings.ReplaceAll(source, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// ImportLazy merges the tileset document at p into ts unless a source with the
// same short name is already present. It returns the atlas source ID and the
// column count.
func (im *Importer) ImportLazy(p string, ts *scene.TileSet) (sourceID, columns int, err error) {
	name := ShortName(p)
	src, created, err := ts.EnsureSource(name, func() (*scene.AtlasSource, error) {
		return im.load(p)
	})
	if err != nil {
		return 0, 0, err
	}

	if created {
		im.log.Debug("tileset merged",
			zap.String("name", name),
			zap.String("path", p),
			zap.Int("source_id", src.ID),
			zap.Int("columns", src.Columns),
		)
	} else if src.Path != path.Clean(p) {
		im.log.Warn("tileset short name already taken, reusing existing atlas",
			zap.String("name", name),
			zap.String("path", p),
			zap.String("existing", src.Path),
		)
	}
	return src.ID, src.Columns, nil
}

func (im *Importer) load(p string) (*scene.AtlasSource, error) {
	p = path.Clean(p)
	data, err := fs.ReadFile(im.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("reading tileset %s: %w", p, err)
	}
	doc, err := tiled.ParseTileSet(data)
	if err != nil {
		return nil, fmt.Errorf("decoding tileset %s: %w", p, err)
	}
	if doc.Image == nil {
		return nil, fmt.Errorf("tileset %s: %w: no <image> element", p, ErrNoAtlasImage)
	}
	if doc.TileWidth <= 0 || doc.TileHeight <= 0 {
		return nil, fmt.Errorf("tileset %s: %w: tile size %dx%d", p, ErrNoAtlasImage, doc.TileWidth, doc.TileHeight)
	}

	src := &scene.AtlasSource{
		Path:        p,
		Texture:     path.Join(path.Dir(p), doc.Image.Source),
		TextureSize: math.Vec2i{X: doc.Image.Width, Y: doc.Image.Height},
		TileSize:    math.Vec2i{X: doc.TileWidth, Y: doc.TileHeight},
		Margin:      doc.Margin,
		Spacing:     doc.Spacing,
		Columns:     doc.Columns,
		TileCount:   doc.TileCount,
	}

	if src.Columns <= 0 || src.TileCount <= 0 {
		if src.TextureSize.X <= 0 || src.TextureSize.Y <= 0 {
			size, err := im.imageSize(src.Texture)
			if err != nil {
				return nil, fmt.Errorf("tileset %s: %w", p, err)
			}
			src.TextureSize = size
		}
		if src.Columns <= 0 {
			src.Columns = fitTiles(src.TextureSize.X, doc.TileWidth, doc.Margin, doc.Spacing)
		}
		if src.TileCount <= 0 {
			src.TileCount = src.Columns * fitTiles(src.TextureSize.Y, doc.TileHeight, doc.Margin, doc.Spacing)
		}
	}
	if src.Columns <= 0 {
		return nil, fmt.Errorf("tileset %s: %w: image %s is narrower than one tile", p, ErrNoAtlasImage, src.Texture)
	}
	return src, nil
}

// imageSize reads only the image header. Decoders for png, gif, jpeg, bmp,
// tiff and webp are registered by this package's imports.
func (im *Importer) imageSize(p string) (math.Vec2i, error) {
	f, err := im.fsys.Open(p)
	if err != nil {
		return math.Vec2i{}, fmt.Errorf("%w: %v", ErrNoAtlasImage, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return math.Vec2i{}, fmt.Errorf("%w: decoding %s: %v", ErrNoAtlasImage, p, err)
	}
	return math.Vec2i{X: cfg.Width, Y: cfg.Height}, nil
}

// fitTiles counts whole tiles along one axis of an atlas image.
func fitTiles(extent, tile, margin, spacing int) int {
	if tile+spacing <= 0 {
		return 0
	}
	n := (extent - 2*margin + spacing) / (tile + spacing)
	if n < 0 {
		return 0
	}
	return n
}
