package index

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jgcallah/cadence/internal/markdown"
	"github.com/jgcallah/cadence/internal/storage"
	"github.com/jgcallah/cadence/internal/tasks"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed notes are parsed and their tasks replaced
//   - notes removed from disk are deleted from the index
//
// It returns the number of notes (re)indexed.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (int, error) {
	metas, err := store.List("")
	if err != nil {
		return 0, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return 0, err
	}

	indexed := 0
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return indexed, nil
}

// indexFile parses the tasks of a note and replaces them in the DB.
func indexFile(db *DB, path string, data []byte, updatedAt time.Time) error {
	content := string(data)
	parsed := tasks.Parse(content)
	rows := make([]TaskRow, len(parsed))
	for i, t := range parsed {
		rows[i] = TaskRow{Task: t, Path: path}
	}
	return db.ReplaceNote(NoteRow{
		Path:      path,
		Title:     markdown.Title(content),
		Checksum:  storage.Checksum(data),
		UpdatedAt: updatedAt,
	}, rows)
}

// IndexNote re-reads one note and replaces its tasks in the index. path may
// be absolute (inside the vault) or vault-relative; the index always stores
// the slash-separated relative form, which IndexNote returns.
func IndexNote(db *DB, store storage.Provider, path string) (string, error) {
	rel, err := relPath(store, path)
	if err != nil {
		return "", err
	}
	data, err := store.Read(rel)
	if err != nil {
		return rel, err
	}
	return rel, indexFile(db, rel, data, time.Now())
}

func relPath(store storage.Provider, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), nil
	}
	rel, err := filepath.Rel(store.Root(), path)
	if err != nil {
		return "", fmt.Errorf("index: rel %s: %w", path, err)
	}
	return filepath.ToSlash(rel), nil
}
