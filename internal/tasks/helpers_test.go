package tasks

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"github.com/jgcallah/cadence/internal/storage"
	"github.com/jgcallah/cadence/internal/vault"
)

var testToday = civil.Date{Year: 2026, Month: time.February, Day: 15}

func testClock() time.Time {
	return time.Date(2026, time.February, 15, 9, 30, 0, 0, time.Local)
}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

type testVault struct {
	root  string
	files *storage.FS
	cache *vault.ConfigCache
	cfg   *vault.Config
}

func newTestVault(t *testing.T) *testVault {
	t.Helper()
	root := t.TempDir()
	files, err := storage.NewFS(root)
	require.NoError(t, err)
	cfg := vault.NewDefaultConfig()
	return &testVault{
		root:  files.Root(),
		files: files,
		cfg:   cfg,
		cache: vault.NewConfigCacheWith(func(string) (*vault.Config, error) { return cfg, nil }),
	}
}

// daily returns the absolute path of the daily note for d.
func (v *testVault) daily(t *testing.T, d string) string {
	t.Helper()
	p, err := vault.NewLocator(v.root, v.cfg).NotePath(vault.Daily, date(d))
	require.NoError(t, err)
	return p
}

func (v *testVault) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (v *testVault) read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func texts(ts []TaskWithSource) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Text
	}
	return out
}
