// Package importer is the entry point of the map import pipeline. It reads a
// Tiled map, compiles it into a scene tree and saves the encoded scene.
package importer

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/mvkit/internal/collision"
	"github.com/Faultbox/mvkit/internal/compiler"
	"github.com/Faultbox/mvkit/internal/config"
	"github.com/Faultbox/mvkit/internal/tileset"
	"github.com/Faultbox/mvkit/pkg/scene"
	"github.com/Faultbox/mvkit/pkg/tiled"
)

// Result describes one finished import.
type Result struct {
	Source   string
	Status   Status
	Output   string // written scene file, empty on failure
	Err      error
	Warnings []string
}

// Importer runs imports against one project. It is safe for concurrent use.
type Importer struct {
	cfg       config.Config
	fsys      fs.FS
	saver     Saver
	templates compiler.TemplateLibrary
	shared    *tileset.Cache
	log       *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithFS reads maps, tilesets and templates from fsys instead of the project root.
func WithFS(fsys fs.FS) Option {
	return func(im *Importer) { im.fsys = fsys }
}

// WithSaver replaces the disk writer.
func WithSaver(s Saver) Option {
	return func(im *Importer) { im.saver = s }
}

// WithTemplates replaces the template library.
func WithTemplates(t compiler.TemplateLibrary) Option {
	return func(im *Importer) { im.templates = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.log = l
		}
	}
}

// New creates an importer for the project described by cfg.
func New(cfg config.Config, opts ...Option) *Importer {
	im := &Importer{
		cfg:    cfg,
		saver:  FileSaver{},
		shared: tileset.NewCache(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.fsys == nil {
		im.fsys = os.DirFS(cfg.Project.Root)
	}
	if im.templates == nil {
		im.templates = NewFSTemplates(im.fsys, cfg.Project.TemplatesDir)
	}
	return im
}

// TileSetCache returns the cache shared across imports when
// import.share_tilesets is on.
func (im *Importer) TileSetCache() *tileset.Cache {
	return im.shared
}

// Import compiles sourceFile, a slash-separated path inside the project, and
// writes the scene to savePath with the encoder's extension appended.
// Nothing is written unless every step before saving succeeds. options is
// passed through untouched.
func (im *Importer) Import(sourceFile, savePath string, options map[string]any) Result {
	start := time.Now()
	log := im.log.With(zap.String("map", sourceFile))
	if len(options) > 0 {
		log.Debug("import options", zap.Any("options", options))
	}

	res := Result{Source: sourceFile}
	output, warnings, err := im.run(sourceFile, savePath, log)
	res.Warnings = warnings
	res.Status = Classify(err)
	if err != nil {
		res.Err = err
		log.Error("import failed", zap.Stringer("status", res.Status), zap.Error(err))
		return res
	}

	res.Output = output
	log.Info("map imported",
		zap.String("output", output),
		zap.Int("warnings", len(warnings)),
		zap.Duration("took", time.Since(start)),
	)
	return res
}

func (im *Importer) run(sourceFile, savePath string, log *zap.Logger) (string, []string, error) {
	sourceFile = path.Clean(sourceFile)
	if _, err := fs.Stat(im.fsys, sourceFile); err != nil {
		return "", nil, fmt.Errorf("map %s: %w", sourceFile, err)
	}
	data, err := fs.ReadFile(im.fsys, sourceFile)
	if err != nil {
		return "", nil, fmt.Errorf("%w %s: %w", ErrCantRead, sourceFile, err)
	}

	m, err := tiled.ParseMap(data)
	if err != nil {
		return "", nil, fmt.Errorf("map %s: %w", sourceFile, err)
	}
	if m.Orientation != tiled.Orthogonal {
		return "", nil, fmt.Errorf("map %s: %w: %s", sourceFile, ErrUnsupportedOrientation, m.Orientation)
	}
	if m.Infinite {
		return "", nil, fmt.Errorf("map %s: %w", sourceFile, tiled.ErrUnsupportedInfiniteMap)
	}

	tree, warnings, err := im.compile(sourceFile, m, log)
	if err != nil {
		return "", warnings, err
	}

	if im.cfg.Import.CheckOverlaps {
		for _, o := range collision.BuildSpace(tree, m.TileWidth).Overlaps() {
			log.Warn("static colliders overlap",
				zap.String("a", o.A.Path),
				zap.String("b", o.B.Path),
			)
			warnings = append(warnings, fmt.Sprintf("static colliders %s and %s overlap", o.A.Path, o.B.Path))
		}
	}

	enc, err := scene.EncoderFor(im.cfg.Output.Format, im.cfg.Project.ResourcePrefix)
	if err != nil {
		return "", warnings, err
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, tree); err != nil {
		return "", warnings, fmt.Errorf("encoding %s: %w", sourceFile, err)
	}

	output := savePath + "." + enc.Ext()
	if err := im.saver.Save(output, buf.Bytes()); err != nil {
		return "", warnings, fmt.Errorf("%w: %s: %w", ErrWriteFailed, output, err)
	}
	return output, warnings, nil
}

// compile merges the map's tilesets and builds its scene tree. Tileset
// sources are relative to the map file.
func (im *Importer) compile(sourceFile string, m *tiled.Map, log *zap.Logger) (*scene.Tree, []string, error) {
	cache := im.shared
	if !im.cfg.Import.ShareTileSets {
		cache = tileset.NewCache()
	}
	ts := cache.Touch(m.TileWidth, m.TileHeight)

	resolver, err := tileset.NewResolver(m.TileSets, ts)
	if err != nil {
		return nil, nil, fmt.Errorf("map %s: %w", sourceFile, err)
	}

	tsImporter := tileset.NewImporter(im.fsys, tileset.WithLogger(log))
	dir := path.Dir(sourceFile)
	for _, ref := range m.TileSets {
		p := path.Join(dir, strings.ReplaceAll(ref.Source, `\`, "/"))
		if _, _, err := tsImporter.ImportLazy(p, ts); err != nil {
			return nil, nil, fmt.Errorf("map %s: %w", sourceFile, err)
		}
	}

	c := compiler.New(resolver, im.templates, compiler.WithLogger(log))
	tree, err := c.Compile(m, stem(sourceFile))
	if err != nil {
		return nil, c.Warnings(), fmt.Errorf("map %s: %w", sourceFile, err)
	}
	return tree, c.Warnings(), nil
}

func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
