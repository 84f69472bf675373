package taskservice

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/jgcallah/cadence/internal/apperr"
	"github.com/jgcallah/cadence/internal/index"
	"github.com/jgcallah/cadence/internal/tasks"
	"github.com/jgcallah/cadence/internal/testutil"
	"github.com/jgcallah/cadence/internal/vault"
)

const todayNote = "journal/daily/2026/02/2026-02-15.md"

type recorder struct {
	events []string
}

func (r *recorder) notify(kind, path string) {
	r.events = append(r.events, kind+":"+path)
}

func newTestService(t *testing.T) (*Service, string, *recorder) {
	t.Helper()
	root, store := testutil.TestVault(t)
	rec := &recorder{}
	svc := NewService(store, vault.NewConfigCache(),
		WithIndex(testutil.TestDB(t)),
		WithNotifier(rec.notify),
		WithClock(testutil.Clock))
	return svc, root, rec
}

func TestAddTask_DefaultsToTodaysDailyNote(t *testing.T) {
	svc, root, rec := newTestService(t)
	ctx := context.Background()

	res, err := svc.AddTask(ctx, AddRequest{Text: "Buy milk", Metadata: tasks.Metadata{Tags: []string{"errand"}}})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if res.Path != todayNote || res.Line != 2 {
		t.Errorf("result = %s:%d", res.Path, res.Line)
	}
	want := "## Tasks\n- [ ] Buy milk created:2026-02-15 #errand\n"
	if got := testutil.ReadNote(t, root, todayNote); got != want {
		t.Errorf("note = %q, want %q", got, want)
	}
	if len(rec.events) != 1 || rec.events[0] != "updated:"+todayNote {
		t.Errorf("events = %v", rec.events)
	}

	rows, err := svc.Search(ctx, index.TaskQuery{Tag: "errand"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || rows[0].Text != "Buy milk" {
		t.Errorf("search = %+v", rows)
	}
}

func TestAddTask_WeeklyNoteAndCustomSection(t *testing.T) {
	svc, root, _ := newTestService(t)
	d := civil.Date{Year: 2026, Month: 2, Day: 11}

	res, err := svc.AddTask(context.Background(), AddRequest{
		NoteType: vault.Weekly,
		Date:     &d,
		Section:  "## Goals",
		Text:     "Ship v1",
	})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if res.Path != "journal/weekly/2026/2026-W07.md" {
		t.Errorf("path = %s", res.Path)
	}
	if got := testutil.ReadNote(t, root, res.Path); got != "## Goals\n- [ ] Ship v1 created:2026-02-15\n" {
		t.Errorf("note = %q", got)
	}
}

func TestToggleAndUpdate(t *testing.T) {
	svc, root, _ := newTestService(t)
	ctx := context.Background()
	testutil.WriteNote(t, root, "inbox.md", "# Inbox\n- [ ] Pay rent due:2026-02-10\n")

	res, err := svc.Toggle(ctx, "inbox.md", 2)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !res.Completed {
		t.Error("expected completed")
	}

	u, err := tasks.ParseMetadataUpdate(map[string]any{"due": nil, "priority": "high"})
	if err != nil {
		t.Fatal(err)
	}
	res, err = svc.UpdateMetadata(ctx, "inbox.md", 2, u)
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if res.Raw != "- [x] Pay rent priority:high" {
		t.Errorf("raw = %q", res.Raw)
	}

	rows, _ := svc.Search(ctx, index.TaskQuery{IncludeCompleted: true, Priority: tasks.PriorityHigh})
	if len(rows) != 1 || !rows[0].Completed {
		t.Errorf("index not refreshed: %+v", rows)
	}
}

func TestPathValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, p := range []string{"", "../outside.md", "notes.txt"} {
		if _, err := svc.Toggle(ctx, p, 1); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Toggle(%q) err = %v, want ErrInvalidInput", p, err)
		}
	}
	if _, err := svc.UpdateMetadata(ctx, "a.md", 1, tasks.MetadataUpdate{}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty update err = %v", err)
	}
	if _, err := svc.Toggle(ctx, "missing.md", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing note err = %v", err)
	}
}

func TestAgendaAndRollover(t *testing.T) {
	svc, root, rec := newTestService(t)
	ctx := context.Background()
	testutil.WriteNote(t, root, "journal/daily/2026/02/2026-02-14.md", "## Tasks\n- [ ] Carry me due:2026-02-13\n")

	agenda, err := svc.Agenda(ctx, AgendaRequest{})
	if err != nil {
		t.Fatalf("Agenda: %v", err)
	}
	if len(agenda.Overdue) != 1 {
		t.Errorf("overdue = %d, want 1", len(agenda.Overdue))
	}

	res, err := svc.Rollover(ctx, RolloverRequest{})
	if err != nil {
		t.Fatalf("Rollover: %v", err)
	}
	if len(res.RolledOver) != 1 {
		t.Fatalf("rolled over = %d, want 1", len(res.RolledOver))
	}
	want := "## Tasks\n- [ ] Carry me due:2026-02-13 created:2026-02-14 age:1\n"
	if got := testutil.ReadNote(t, root, todayNote); got != want {
		t.Errorf("target = %q, want %q", got, want)
	}
	wantEvents := []string{"updated:" + todayNote, KindRolledOver + ":" + todayNote}
	if len(rec.events) != 2 || rec.events[0] != wantEvents[0] || rec.events[1] != wantEvents[1] {
		t.Errorf("events = %v, want %v", rec.events, wantEvents)
	}

	res, err = svc.Rollover(ctx, RolloverRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.RolledOver) != 0 || len(res.Skipped) != 1 {
		t.Errorf("second rollover = %+v", res)
	}
}

func TestReloadConfig(t *testing.T) {
	svc, root, _ := newTestService(t)
	cfg, err := svc.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sections.Tasks != "## Tasks" {
		t.Fatalf("section = %q", cfg.Sections.Tasks)
	}

	testutil.WriteNote(t, root, ".cadence/config.yaml", "sections:\n  tasks: \"## Todo\"\n")
	if cfg, _ := svc.Config(); cfg.Sections.Tasks != "## Tasks" {
		t.Error("config should stay cached until reload")
	}
	svc.ReloadConfig()
	if cfg, _ := svc.Config(); cfg.Sections.Tasks != "## Todo" {
		t.Errorf("section after reload = %q", cfg.Sections.Tasks)
	}
}

func TestSearchWithoutIndex(t *testing.T) {
	_, store := testutil.TestVault(t)
	svc := NewService(store, vault.NewConfigCache())
	if _, err := svc.Search(context.Background(), index.TaskQuery{}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
}
