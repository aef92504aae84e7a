package service

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"reel-quizzer/internal/domain"
)

// EntryWatcher reloads the entry index when videos, documents or metadata
// change under the data root. Bursts of events are debounced into one reload.
type EntryWatcher struct {
	root     string
	entries  EntryService
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
}

// NewEntryWatcher watches root and every directory below it.
func NewEntryWatcher(root string, entries EntryService, debounce time.Duration, logger *zap.Logger) (*EntryWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, domain.NewInternalError("failed to create filesystem watcher", err)
	}

	w := &EntryWatcher{
		root:     root,
		entries:  entries,
		watcher:  watcher,
		debounce: debounce,
		logger:   logger,
	}
	if err := w.addTree(root); err != nil {
		watcher.Close()
		return nil, domain.NewInternalError("failed to watch data root", err).WithContext("data_root", root)
	}
	return w, nil
}

func (w *EntryWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(p)
	})
}

// Run blocks until ctx is done or the watcher fails, then releases the watcher.
func (w *EntryWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.logger.Info("Watching data root for changes", zap.String("data_root", w.root))
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Filesystem watcher error", zap.Error(err))

		case <-timerC:
			timerC = nil
			n, err := w.entries.Reload(ctx)
			if err != nil {
				w.logger.Warn("Failed to reload entries", zap.Error(err))
				continue
			}
			w.logger.Info("Entry index reloaded", zap.Int("entries", n))
		}
	}
}

func (w *EntryWatcher) relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return true
		}
	}
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		return true
	}
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return false
	}
	return strings.HasSuffix(event.Name, domain.DocumentSuffix) || strings.HasSuffix(event.Name, domain.VideoSuffix)
}
