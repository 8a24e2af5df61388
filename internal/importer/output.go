package importer

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Saver persists an encoded scene.
type Saver interface {
	Save(name string, data []byte) error
}

// FileSaver writes scenes to the local disk, creating parent directories.
type FileSaver struct{}

// Save implements Saver. The file is written next to its final name and
// renamed into place so readers never see a partial scene.
func (FileSaver) Save(name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(name)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), name)
}

// FSTemplates finds object templates stored as <dir>/<type>.tscn in fsys.
type FSTemplates struct {
	fsys fs.FS
	dir  string
}

// NewFSTemplates creates a template library rooted at dir inside fsys.
func NewFSTemplates(fsys fs.FS, dir string) *FSTemplates {
	return &FSTemplates{fsys: fsys, dir: dir}
}

// Lookup implements compiler.TemplateLibrary. The returned path is relative
// to the root of fsys.
func (t *FSTemplates) Lookup(objectType string) (string, bool) {
	if t == nil || t.fsys == nil || objectType == "" {
		return "", false
	}
	p := path.Join(t.dir, objectType+".tscn")
	if !fs.ValidPath(p) {
		return "", false
	}
	info, err := fs.Stat(t.fsys, p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}
