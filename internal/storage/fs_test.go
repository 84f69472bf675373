package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("## Tasks\n- [ ] one\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestAbsolutePathsInsideRoot(t *testing.T) {
	s := tempVault(t)
	abs := filepath.Join(s.Root(), "journal", "daily", "2026-02-05.md")
	if err := s.Write(abs, []byte("x")); err != nil {
		t.Fatalf("Write abs: %v", err)
	}
	if !s.Exists(abs) {
		t.Error("Exists(abs) = false")
	}
	if !s.Exists("journal/daily/2026-02-05.md") {
		t.Error("Exists(rel) = false")
	}
	rel, err := s.Rel(abs)
	if err != nil || rel != "journal/daily/2026-02-05.md" {
		t.Errorf("Rel = %q, %v", rel, err)
	}
}

func TestExists(t *testing.T) {
	s := tempVault(t)
	if s.Exists("missing.md") {
		t.Error("missing file reported as existing")
	}
	_ = os.MkdirAll(filepath.Join(s.Root(), "dir.md"), 0o755)
	if s.Exists("dir.md") {
		t.Error("directory reported as file")
	}
}

func TestReadMissingWrapsNotExist(t *testing.T) {
	s := tempVault(t)
	_, err := s.Read("missing.md")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestList_SkipsHiddenAndNonMarkdown(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".cadence/notes.md", []byte("hidden"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	for _, it := range items {
		if it.Checksum != Checksum([]byte(filepath.Base(it.Path)[:1])) {
			t.Errorf("checksum mismatch for %s", it.Path)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".cadence-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	_ = os.WriteFile(f, []byte("x"), 0o644)
	if _, err := NewFS(f); err == nil {
		t.Error("expected error when root is a file")
	}
}
