package pages

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/kenaz-canvas/internal/checksum"
	"github.com/starford/kenaz-canvas/internal/models"
	"github.com/starford/kenaz-canvas/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// reconcileDelay debounces the registry reconciliation after renames.
const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven registry change with the
// affected page id.
type EventCallback func(kind string, pageID string)

// Watch starts an fsnotify watcher on the vault root and keeps the registry
// in step with page changes until ctx is cancelled.
//
// New directories created at runtime are added to the watch list. Hidden
// directories are ignored. Rename events trigger a debounced reconciliation
// pass that removes pages whose files no longer exist.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	notify := func(kind, rel string) {
		if cb != nil {
			cb(kind, IDFromPath(rel))
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if hidden(info.Name()) {
						continue
					}
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed", slog.String("path", absPath), slog.String("error", addErr.Error()))
					}
					registerNewDir(db, store, vaultRoot, absPath, logger, notify)
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				f := models.PageFile{Path: rel, Checksum: checksum.Sum(data), UpdatedAt: time.Now().UTC()}
				if regErr := registerFile(db, f, data); regErr != nil {
					logger.Warn("watcher: register failed", slog.String("path", rel), slog.String("error", regErr.Error()))
					continue
				}
				kind := EventUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCreated
				}
				logger.Debug("watcher: registered", slog.String("path", rel), slog.String("op", kind))
				notify(kind, rel)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.Delete(IDFromPath(rel)); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				notify(EventDeleted, rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports the old path only; the new one arrives as a
				// Create if it stays inside a watched directory.
				if delErr := db.Delete(IDFromPath(rel)); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					notify(EventDeleted, rel)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes pages whose files are gone and registers files that are
// new or changed.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, notify func(kind, rel string)) {
	checksums, err := db.Checksums()
	if err != nil {
		logger.Warn("reconcile: checksums failed", slog.String("error", err.Error()))
		return
	}
	files, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]models.PageFile, len(files))
	for _, f := range files {
		disk[f.Path] = f
	}
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if db.Delete(IDFromPath(p)) == nil {
			notify(EventDeleted, p)
		}
	}
	for p, f := range disk {
		if checksums[p] == f.Checksum {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if registerFile(db, f, data) == nil {
			logger.Debug("reconcile: registered", slog.String("path", p))
			notify(EventCreated, p)
		}
	}
}

// registerNewDir registers any pages already present in a new directory.
func registerNewDir(db *DB, store storage.Provider, vaultRoot, dirPath string, logger *slog.Logger, notify func(kind, rel string)) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		data, readErr := store.Read(rel)
		if readErr != nil {
			return nil
		}
		f := models.PageFile{Path: rel, Checksum: checksum.Sum(data), UpdatedAt: time.Now().UTC()}
		if registerFile(db, f, data) == nil {
			logger.Debug("watcher: registered from new dir", slog.String("path", rel))
			notify(EventCreated, rel)
		}
		return nil
	})
}

func hidden(name string) bool { return strings.HasPrefix(name, ".") }

// addDirsRecursive adds root and its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
