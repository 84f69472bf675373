//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM tasks_fts`).Scan(&count); err != nil {
		t.Fatalf("tasks_fts table missing: %v", err)
	}
}

func TestFTS5_SearchMatchesWords(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceNote(NoteRow{Path: "fts.md", Checksum: "f1", UpdatedAt: time.Now()}, rowsFrom("fts.md",
		"- [ ] Draft quarterly budget #finance\n- [ ] Budgetary review\n"))

	got, err := db.Search(TaskQuery{Text: "budget"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !equal(paths(got), []string{"Draft quarterly budget"}) {
		t.Errorf("Search = %v", paths(got))
	}

	got, _ = db.Search(TaskQuery{Text: "finance"})
	if len(got) != 1 {
		t.Errorf("tag words should be searchable, got %v", paths(got))
	}
}

func TestFTS5_ReplaceClearsOldRows(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.ReplaceNote(NoteRow{Path: "r.md", Checksum: "1", UpdatedAt: now}, rowsFrom("r.md", "- [ ] alpha\n"))
	_ = db.ReplaceNote(NoteRow{Path: "r.md", Checksum: "2", UpdatedAt: now}, rowsFrom("r.md", "- [ ] beta\n"))

	if got, _ := db.Search(TaskQuery{Text: "alpha"}); len(got) != 0 {
		t.Errorf("stale fts row matched: %v", paths(got))
	}
}
