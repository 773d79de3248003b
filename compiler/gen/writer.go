package gen

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/tools/imports"
)

// Writer renders artifacts to the destination filesystem. Files that
// already exist are left untouched, except entity files when force is set.
type Writer struct {
	fs    afero.Fs
	force bool
	log   *zap.Logger
}

// NewWriter returns a writer configured by c.
func NewWriter(c *Config) *Writer {
	return &Writer{fs: c.fs(), force: c.Force, log: c.logger()}
}

// Prepare creates the destination directory and its subpackages.
func (w *Writer) Prepare(target string) error {
	for _, dir := range []string{target, filepath.Join(target, "manifest"), filepath.Join(target, "validators")} {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return NewOutputPathError(dir, err)
		}
		fi, err := w.fs.Stat(dir)
		if err != nil {
			return NewOutputPathError(dir, err)
		}
		if !fi.IsDir() {
			return NewOutputPathError(dir, errors.New("not a directory"))
		}
	}
	return nil
}

// Write renders a and writes it. It reports whether the file was written.
func (w *Writer) Write(a *Artifact) (bool, error) {
	exists, err := afero.Exists(w.fs, a.Path)
	if err != nil {
		return false, NewOutputPathError(a.Path, err)
	}
	if exists && !(w.force && a.Kind == EntityClass) {
		w.log.Debug("skip existing file", zap.String("path", a.Path), zap.Stringer("kind", a.Kind))
		return false, nil
	}
	var buf bytes.Buffer
	if err := a.File.Render(&buf); err != nil {
		return false, NewGenerationError(a.Kind.String(), a.Path, "render", err)
	}
	src, err := imports.Process(a.Path, buf.Bytes(), nil)
	if err != nil {
		return false, NewGenerationError(a.Kind.String(), a.Path, "format", err)
	}
	if err := afero.WriteFile(w.fs, a.Path, src, 0o644); err != nil {
		return false, NewOutputPathError(a.Path, err)
	}
	w.log.Info("write file", zap.String("path", a.Path), zap.Stringer("kind", a.Kind), zap.Int("bytes", len(src)))
	return true, nil
}

// WriteFile writes raw content, honouring the same overwrite rule as
// entity files.
func (w *Writer) WriteFile(path string, content []byte) (bool, error) {
	exists, err := afero.Exists(w.fs, path)
	if err != nil {
		return false, NewOutputPathError(path, err)
	}
	if exists && !w.force {
		w.log.Debug("skip existing file", zap.String("path", path))
		return false, nil
	}
	if err := w.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, NewOutputPathError(filepath.Dir(path), err)
	}
	if err := afero.WriteFile(w.fs, path, content, os.FileMode(0o644)); err != nil {
		return false, NewOutputPathError(path, err)
	}
	w.log.Info("write file", zap.String("path", path), zap.Int("bytes", len(content)))
	return true, nil
}
