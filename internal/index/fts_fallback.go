//go:build !sqlite_fts5

package index

import "database/sql"

func initFTS(_ *sql.DB) error {
	// FTS5 not available; text search uses LIKE on tasks.text.
	return nil
}

func ftsInsert(_ *sql.Tx, _ int64, _ string, _ []string) error { return nil }

func ftsDeleteNote(_ *sql.Tx, _ string) {}

// textFilter matches task text with a case-insensitive LIKE.
func textFilter(query string) (string, any) {
	return `t.text LIKE ? ESCAPE '\'`, "%" + escapeLike(query) + "%"
}
