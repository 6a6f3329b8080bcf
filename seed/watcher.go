package seed

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/joeecarter/heart-readings-server/reading"
)

// ReloadFunc receives the readings of the seed file every time it changes.
type ReloadFunc func(ctx context.Context, readings []*reading.Reading) error

// Watcher reloads a seed file when it is written, debouncing editor save bursts.
type Watcher struct {
	path        string
	reload      ReloadFunc
	logger      *zap.Logger
	debounceDur time.Duration

	mu      sync.Mutex
	reloads int
}

func NewWatcher(path string, reload ReloadFunc, logger *zap.Logger) *Watcher {
	return &Watcher{
		path:        path,
		reload:      reload,
		logger:      logger,
		debounceDur: 200 * time.Millisecond,
	}
}

// Reloads reports how many reloads have succeeded.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Run blocks until ctx is cancelled. The parent directory is watched rather than the
// file so that editors replacing the file by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info("Watching seed file", zap.String("path", w.path))

	target := filepath.Clean(w.path)
	timer := time.NewTimer(w.debounceDur)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounceDur)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Seed watcher error", zap.Error(err))
		case <-timer.C:
			w.reloadNow(ctx)
		}
	}
}

func (w *Watcher) reloadNow(ctx context.Context) {
	readings, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("Failed to reload seed file", zap.String("path", w.path), zap.Error(err))
		return
	}
	if err := w.reload(ctx, readings); err != nil {
		w.logger.Warn("Failed to apply seed file", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	w.logger.Info("Reloaded seed file", zap.String("path", w.path), zap.Int("readings", len(readings)))
}
