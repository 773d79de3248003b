// Package watch re-runs a callback when a file changes.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last change before the
// callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one file. Editors that replace the file on save are
// handled by watching the parent directory.
type Watcher struct {
	file     string
	callback func(context.Context) error
	debounce time.Duration
	log      *zap.Logger
	watcher  *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger receiving change and callback records.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) {
		if log == nil {
			log = zap.NewNop()
		}
		w.log = log
	}
}

// New returns a watcher of file.
func New(file string, callback func(context.Context) error, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, errors.Wrapf(err, "watch: resolve %s", file)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "watch: create watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watch: watch %s", filepath.Dir(abs))
	}
	w := &Watcher{
		file:     abs,
		callback: callback,
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run calls the callback once, then again after every change of the file,
// until ctx is done. Callback errors after the first run are logged and
// watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	if err := w.callback(ctx); err != nil {
		return err
	}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("file changed", zap.String("file", w.file), zap.Stringer("op", ev.Op))
			timer.Reset(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.callback(ctx); err != nil {
				w.log.Error("watch callback failed", zap.String("file", w.file), zap.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	p, err := filepath.Abs(ev.Name)
	return err == nil && p == w.file
}
