package importer

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one map of a batch import.
type Job struct {
	Source   string
	SavePath string
	Options  map[string]any
}

// Batch imports jobs in parallel, at most import.workers at a time. Results
// are returned in job order. A failed job does not stop the others.
func (im *Importer) Batch(jobs []Job) []Result {
	workers := im.cfg.Import.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = im.Import(job.Source, job.SavePath, job.Options)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Status != StatusOK {
			failed++
		}
	}
	im.log.Info("batch finished",
		zap.Int("maps", len(jobs)),
		zap.Int("failed", failed),
		zap.Int("workers", workers),
		zap.Bool("shared_tilesets", im.cfg.Import.ShareTileSets),
	)
	return results
}

// FindMaps lists the .tmx files below dir inside the project, sorted.
func (im *Importer) FindMaps(dir string) ([]string, error) {
	var maps []string
	err := fs.WalkDir(im.fsys, path.Clean(dir), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(path.Ext(p), ".tmx") {
			maps = append(maps, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(maps)
	return maps, nil
}

// BatchJobs builds one job per map, mirroring the layout below dir into outDir.
func BatchJobs(maps []string, dir, outDir string) []Job {
	dir = path.Clean(dir)
	jobs := make([]Job, 0, len(maps))
	for _, m := range maps {
		rel := strings.TrimPrefix(m, dir+"/")
		if dir == "." {
			rel = m
		}
		jobs = append(jobs, Job{
			Source:   m,
			SavePath: filepath.Join(outDir, filepath.FromSlash(stemPath(rel))),
		})
	}
	return jobs
}

func stemPath(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}
