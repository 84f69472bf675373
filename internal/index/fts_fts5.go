//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
			text,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, id int64, text string, tags []string) error {
	_, err := tx.Exec(`INSERT INTO tasks_fts (rowid, text, tags) VALUES (?, ?, ?)`,
		id, text, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsDeleteNote(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM tasks_fts WHERE rowid IN (SELECT id FROM tasks WHERE path = ?)`, path)
}

// textFilter matches task text through the FTS5 table.
func textFilter(query string) (string, any) {
	return `t.id IN (SELECT rowid FROM tasks_fts WHERE tasks_fts MATCH ?)`, query
}
