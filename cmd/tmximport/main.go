// tmximport compiles Tiled maps into engine scene files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/mvkit/internal/config"
	"github.com/Faultbox/mvkit/internal/importer"
	"github.com/Faultbox/mvkit/internal/logger"
	"github.com/Faultbox/mvkit/pkg/tiled"
)

func main() {
	config.ParseFlags()
	os.Exit(run(config.Args(), os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return int(importer.StatusFailed)
	}

	command := args[0]
	args = args[1:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage(stdout)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return int(importer.StatusFailed)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return int(importer.StatusFailed)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("config: root=%s format=%s templates=%s workers=%d",
		cfg.Project.Root, cfg.Output.Format, cfg.Project.TemplatesDir, cfg.Import.Workers)
	logger.Debug("running command", zap.String("command", command), zap.Strings("args", args))

	switch command {
	case "import":
		return cmdImport(cfg, args, stdout, stderr)
	case "batch":
		return cmdBatch(cfg, args, stdout, stderr)
	case "info":
		return cmdInfo(args, stdout, stderr)
	case "config":
		return cmdConfig(cfg, args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return int(importer.StatusFailed)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `tmximport - compile Tiled maps into engine scenes

Usage:
  tmximport [flags] <command> [options]

Commands:
  import <map.tmx> <save>        Import one map, writes <save>.<format>
  batch [-share] <dir> <outdir>  Import every .tmx below dir in parallel
  info <map.tmx>                 Show map layers, tilesets and objects
  config [-user] [path]          Print the effective configuration, or save it
                                 to path or the user config directory

Flags:
  -config <file>     Config file (default ./mvkit.yaml)
  -debug             Enable debug logging
  -root <dir>        Project root maps and tilesets are read from
  -format <name>     Output format: tscn, yaml
  -templates <dir>   Object templates, relative to the project root
  -workers <n>       Parallel imports in batch mode
  -overlaps          Warn about overlapping static colliders

Examples:
  tmximport import maps/cave.tmx scenes/cave
  tmximport -format yaml import maps/cave.tmx /tmp/cave
  tmximport -workers 8 batch -share maps scenes`)
}

func cmdImport(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return int(importer.StatusFailed)
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(stderr, "Usage: tmximport import <map.tmx> <save>")
		return int(importer.StatusFailed)
	}

	source, err := projectPath(cfg.Project.Root, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return int(importer.StatusFileNotFound)
	}

	im := importer.New(*cfg, importer.WithLogger(logger.Log))
	res := im.Import(source, fs.Arg(1), nil)
	printResult(stdout, stderr, res)
	return int(res.Status)
}

func cmdBatch(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	share := fs.Bool("share", cfg.Import.ShareTileSets, "Share one tileset cache across all maps")
	if err := fs.Parse(args); err != nil {
		return int(importer.StatusFailed)
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(stderr, "Usage: tmximport batch [-share] <dir> <outdir>")
		return int(importer.StatusFailed)
	}
	cfg.Import.ShareTileSets = *share

	dir, err := projectPath(cfg.Project.Root, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return int(importer.StatusFileNotFound)
	}

	im := importer.New(*cfg, importer.WithLogger(logger.Log))
	maps, err := im.FindMaps(dir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return int(importer.Classify(err))
	}
	if len(maps) == 0 {
		fmt.Fprintln(stderr, "No maps found")
		return 0
	}

	results := im.Batch(importer.BatchJobs(maps, dir, fs.Arg(1)))

	// The exit code is the first failure in job order.
	code, failed := importer.StatusOK, 0
	for _, r := range results {
		printResult(stdout, stderr, r)
		if r.Status != importer.StatusOK {
			failed++
			if code == importer.StatusOK {
				code = r.Status
			}
		}
	}
	if failed > 0 {
		logger.Warn("batch had failures", zap.Int("maps", len(results)), zap.Int("failed", failed))
	}
	fmt.Fprintf(stderr, "\n%d maps, %d failed\n", len(results), failed)
	return int(code)
}

func cmdInfo(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return int(importer.StatusFailed)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Usage: tmximport info <map.tmx>")
		return int(importer.StatusFailed)
	}

	m, err := tiled.ParseMapFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return int(importer.Classify(err))
	}
	printInfo(stdout, fs.Arg(0), m)
	return 0
}

func cmdConfig(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	user := fs.Bool("user", false, "Save to the user config directory")
	if err := fs.Parse(args); err != nil {
		return int(importer.StatusFailed)
	}

	var (
		path string
		err  error
	)
	switch {
	case fs.NArg() > 0:
		path = fs.Arg(0)
		err = cfg.SaveTo(path)
	case *user:
		path = config.UserConfigFile()
		err = cfg.Save()
	default:
		printConfig(stdout, cfg)
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return int(importer.StatusWriteFailed)
	}
	logger.Info("config saved", zap.String("path", path))
	fmt.Fprintf(stdout, "Saved: %s\n", path)
	return 0
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "project.root:            %s\n", cfg.Project.Root)
	fmt.Fprintf(w, "project.resource_prefix: %s\n", cfg.Project.ResourcePrefix)
	fmt.Fprintf(w, "project.templates_dir:   %s\n", cfg.Project.TemplatesDir)
	fmt.Fprintf(w, "output.format:           %s\n", cfg.Output.Format)
	fmt.Fprintf(w, "import.workers:          %d\n", cfg.Import.Workers)
	fmt.Fprintf(w, "import.share_tilesets:   %v\n", cfg.Import.ShareTileSets)
	fmt.Fprintf(w, "import.check_overlaps:   %v\n", cfg.Import.CheckOverlaps)
	fmt.Fprintf(w, "logging.level:           %s\n", cfg.Logging.Level)
}

func printResult(stdout, stderr io.Writer, r importer.Result) {
	for _, w := range r.Warnings {
		fmt.Fprintf(stderr, "Warning: %s: %s\n", r.Source, w)
	}
	if r.Status != importer.StatusOK {
		logger.Error("import failed", zap.String("source", r.Source), zap.Stringer("status", r.Status), zap.Error(r.Err))
		fmt.Fprintf(stderr, "Failed:   %s (%s): %v\n", r.Source, r.Status, r.Err)
		return
	}
	fmt.Fprintf(stdout, "Imported: %s -> %s\n", r.Source, r.Output)
}

// projectPath turns a command-line path into a slash path inside root.
func projectPath(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project root %s", p, root)
	}
	return filepath.ToSlash(rel), nil
}
