package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/jgcallah/cadence/internal/tasks"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// TaskRow is one indexed task and the vault-relative note it lives in.
type TaskRow struct {
	tasks.Task
	Path string `json:"path"`
}

// TaskQuery filters Search. Zero values disable a filter.
type TaskQuery struct {
	Text             string
	Tag              string
	Priority         tasks.Priority
	IncludeCompleted bool
	DueBefore        *civil.Date
	Limit            int
}

// ReplaceNote upserts a note and replaces all of its tasks within a
// transaction.
func (db *DB) ReplaceNote(n NoteRow, rows []TaskRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	ftsDeleteNote(tx, n.Path)
	if _, err := tx.Exec(`DELETE FROM tasks WHERE path = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear tasks: %w", err)
	}

	if len(rows) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO tasks (path, line, text, completed, priority, priority_rank,
			                   due, scheduled, created, age, tags, raw)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare task insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			m := r.Metadata
			tags := m.Tags
			if tags == nil {
				tags = []string{}
			}
			tagsJSON, _ := json.Marshal(tags)
			var age sql.NullInt64
			if m.Age != nil {
				age = sql.NullInt64{Int64: int64(*m.Age), Valid: true}
			}
			res, err := stmt.Exec(n.Path, r.Line, r.Text, r.Completed,
				string(m.Priority), m.Priority.Rank(),
				nullDate(m.Due), nullDate(m.Scheduled), nullDate(m.Created),
				age, string(tagsJSON), r.Raw)
			if err != nil {
				return fmt.Errorf("index: insert task: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("index: task id: %w", err)
			}
			if err := ftsInsert(tx, id, r.Text, m.Tags); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and its tasks.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteNote(tx, path)
	_, _ = tx.Exec(`DELETE FROM tasks WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Counts returns the number of open and completed indexed tasks.
func (db *DB) Counts() (open, completed int, err error) {
	err = db.conn.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN completed = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(completed), 0)
		FROM tasks`).Scan(&open, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("index: counts: %w", err)
	}
	return open, completed, nil
}

// Search returns indexed tasks matching q ordered by priority, then due
// date (tasks without one last), then location.
func (db *DB) Search(q TaskQuery) ([]TaskRow, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	var (
		where []string
		args  []any
	)
	if !q.IncludeCompleted {
		where = append(where, `t.completed = 0`)
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		clause, arg := textFilter(text)
		where = append(where, clause)
		args = append(args, arg)
	}
	if tag := strings.TrimPrefix(strings.TrimSpace(q.Tag), "#"); tag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(t.tags) WHERE lower(json_each.value) = lower(?))`)
		args = append(args, tag)
	}
	switch q.Priority {
	case "":
	case tasks.PriorityNone:
		where = append(where, `t.priority = ''`)
	default:
		where = append(where, `t.priority = ?`)
		args = append(args, string(q.Priority))
	}
	if q.DueBefore != nil {
		where = append(where, `t.due IS NOT NULL AND t.due < ?`)
		args = append(args, q.DueBefore.String())
	}

	query := `
		SELECT t.path, t.line, t.text, t.completed, t.priority,
		       t.due, t.scheduled, t.created, t.age, t.tags, t.raw
		FROM tasks t`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += `
		ORDER BY t.priority_rank, t.due IS NULL, t.due, t.path, t.line
		LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []TaskRow{}
	for rows.Next() {
		var (
			r                       TaskRow
			priority, tagsJSON      string
			due, scheduled, created sql.NullString
			age                     sql.NullInt64
		)
		if err := rows.Scan(&r.Path, &r.Line, &r.Text, &r.Completed, &priority,
			&due, &scheduled, &created, &age, &tagsJSON, &r.Raw); err != nil {
			return nil, err
		}
		r.Metadata.Priority = tasks.Priority(priority)
		r.Metadata.Due = parseNullDate(due)
		r.Metadata.Scheduled = parseNullDate(scheduled)
		r.Metadata.Created = parseNullDate(created)
		if age.Valid {
			n := int(age.Int64)
			r.Metadata.Age = &n
		}
		_ = json.Unmarshal([]byte(tagsJSON), &r.Metadata.Tags)
		if len(r.Metadata.Tags) == 0 {
			r.Metadata.Tags = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullDate(d *civil.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) *civil.Date {
	if !s.Valid {
		return nil
	}
	d, err := civil.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
