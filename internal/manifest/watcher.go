package manifest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/storage"
)

// debounce is how long the watcher waits for a burst of file events to
// settle before rebuilding.
const debounce = 200 * time.Millisecond

// UpdateCallback is called after the watcher rewrote the manifest.
type UpdateCallback func(m *models.Manifest)

// Watch starts an fsnotify watcher on the cards directory and rewrites the
// manifest name whenever card files are created, changed, removed or
// renamed, until ctx is cancelled. Bursts of events are coalesced into one
// rebuild. New directories created at runtime are added to the watch list.
func Watch(ctx context.Context, store storage.Provider, name string, logger *slog.Logger, cb UpdateCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("manifest: watching", slog.String("root", root), slog.String("manifest", name))

	var rebuildTimer *time.Timer
	var rebuildCh <-chan time.Time

	scheduleRebuild := func() {
		if rebuildTimer == nil {
			rebuildTimer = time.NewTimer(debounce)
			rebuildCh = rebuildTimer.C
		} else {
			rebuildTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			logger.Info("manifest: watcher stopped")
			return nil

		case <-rebuildCh:
			rebuild(store, name, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("manifest: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleRebuild()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, storage.CardExt) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("manifest: card changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				scheduleRebuild()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("manifest: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func rebuild(store storage.Provider, name string, logger *slog.Logger, cb UpdateCallback) {
	m, written, err := Write(store, name)
	if err != nil {
		logger.Warn("manifest: rebuild failed", slog.String("error", err.Error()))
		return
	}
	if !written {
		return
	}
	logger.Info("manifest: rewritten", slog.String("manifest", name), slog.Int("files", len(m.Files)))
	if cb != nil {
		cb(m)
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
