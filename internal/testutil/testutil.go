// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jgcallah/cadence/internal/index"
	"github.com/jgcallah/cadence/internal/storage"
	"github.com/jgcallah/cadence/internal/vault"
)

// Today is the fixed date returned by Clock.
var Today = time.Date(2026, time.February, 15, 9, 0, 0, 0, time.Local)

// Clock returns Today.
func Clock() time.Time { return Today }

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a default
// .cadence/config.yaml and a storage.FS rooted at it.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	data, err := vault.Marshal(vault.NewDefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(vault.ConfigPath(store.Root()), data); err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// WriteNote writes content to a vault-relative path.
func WriteNote(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// ReadNote returns the content of a vault-relative path.
func ReadNote(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
