package pages

import (
	"log/slog"

	"github.com/starford/kenaz-canvas/internal/checksum"
	"github.com/starford/kenaz-canvas/internal/models"
	"github.com/starford/kenaz-canvas/internal/parser"
	"github.com/starford/kenaz-canvas/internal/storage"
)

// Sync walks the vault and brings the registry up to date:
//   - new/changed pages are parsed and upserted
//   - pages removed from disk are deleted from the registry
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	files, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.Checksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}
		if checksums[f.Path] == f.Checksum {
			continue
		}
		data, err := store.Read(f.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		if err := registerFile(db, f, data); err != nil {
			logger.Warn("sync: register failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: registered", slog.String("path", f.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.Delete(IDFromPath(p)); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}
	return nil
}

// registerFile parses data and upserts the page it describes.
func registerFile(db *DB, f models.PageFile, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	cs := f.Checksum
	if cs == "" {
		cs = checksum.Sum(data)
	}
	return db.Upsert(models.Page{
		ID:        IDFromPath(f.Path),
		Path:      f.Path,
		Title:     res.Title,
		Summary:   res.Summary,
		Tags:      res.Tags,
		Checksum:  cs,
		UpdatedAt: f.UpdatedAt,
	}, res.Aliases, res.Body)
}
