package vocabulary

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads the vocabulary file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	apply    func(Vocabulary)
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher watches the directory of path, so atomic renames are seen too.
// apply runs on the watcher goroutine with every successfully loaded table set.
func NewWatcher(path string, debounce time.Duration, apply func(Vocabulary), logger *zap.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("vocabulary path is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		apply:    apply,
		logger:   logger,
		watcher:  fw,
	}, nil
}

// Run blocks until ctx is canceled. An invalid file is logged and ignored;
// the last good tables stay in effect.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Vocabulary watcher error", zap.Error(err))
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	v, err := Load(w.path)
	if err != nil {
		w.logger.Error("Vocabulary reload failed, keeping previous tables",
			zap.String("path", w.path), zap.Error(err))
		return
	}
	w.apply(v)
	w.logger.Info("Vocabulary reloaded", zap.String("path", w.path))
}
