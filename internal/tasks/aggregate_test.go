package tasks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgcallah/cadence/internal/apperr"
	"github.com/jgcallah/cadence/internal/vault"
)

func newTestAggregator(files FileStore) *Aggregator {
	return NewAggregator(files, WithClock(testClock), WithScanWorkers(2))
}

func days(n int) *int { return &n }

func TestAggregate_SortsByPriorityThenDue(t *testing.T) {
	v := newTestVault(t)
	v.write(t, v.daily(t, "2026-02-15"), "## Tasks\n"+
		"- [ ] A due:2026-02-20 priority:high\n"+
		"- [ ] B due:2026-02-05 priority:high\n"+
		"- [ ] C priority:high\n")

	got, err := newTestAggregator(v.files).Aggregate(v.cache, AggregateOptions{VaultPath: v.root})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, texts(got.Open))
	assert.Equal(t, []string{"B", "A", "C"}, texts(got.ByPriority[PriorityHigh]))
}

func TestAggregate_Buckets(t *testing.T) {
	v := newTestVault(t)
	v.write(t, v.daily(t, "2026-02-15"), "## Tasks\n"+
		"- [ ] Due today due:2026-02-15\n"+
		"- [ ] Due yesterday due:2026-02-14 !\n"+
		"- [x] Finished due:2026-02-01\n"+
		"- [ ] Plain\n")
	v.write(t, v.daily(t, "2026-02-14"), "- [ ] Older !!!\n")

	a := newTestAggregator(v.files)
	got, err := a.Aggregate(v.cache, AggregateOptions{VaultPath: v.root})
	require.NoError(t, err)

	assert.Equal(t, []string{"Older", "Due yesterday", "Due today", "Plain"}, texts(got.Open))
	assert.Equal(t, []string{"Due yesterday"}, texts(got.Overdue))
	assert.Empty(t, got.Completed)
	assert.NotNil(t, got.Completed)
	assert.Equal(t, []string{"Older"}, texts(got.ByPriority[PriorityHigh]))
	assert.Empty(t, got.ByPriority[PriorityMedium])
	assert.Equal(t, []string{"Due yesterday"}, texts(got.ByPriority[PriorityLow]))
	assert.Equal(t, []string{"Due today", "Plain"}, texts(got.ByPriority[PriorityNone]))
	assert.Len(t, got.ByPriority, 4)

	withDone, err := a.Aggregate(v.cache, AggregateOptions{VaultPath: v.root, IncludeCompleted: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Finished"}, texts(withDone.Completed))
	assert.Len(t, withDone.Open, 4)
}

func TestAggregate_SourceInfo(t *testing.T) {
	v := newTestVault(t)
	path := v.daily(t, "2026-02-13")
	v.write(t, path, "# Friday\n\n- [ ] Thing\n")

	got, err := newTestAggregator(v.files).Aggregate(v.cache, AggregateOptions{VaultPath: v.root})
	require.NoError(t, err)
	require.Len(t, got.Open, 1)
	assert.Equal(t, path, got.Open[0].SourcePath)
	assert.Equal(t, date("2026-02-13"), got.Open[0].SourceDate)
	assert.Equal(t, 3, got.Open[0].Line)
}

func TestAggregate_Window(t *testing.T) {
	v := newTestVault(t)
	v.write(t, v.daily(t, "2026-02-15"), "- [ ] Today\n")
	v.write(t, v.daily(t, "2026-02-12"), "- [ ] Three days ago\n")
	v.write(t, v.daily(t, "2026-02-01"), "- [ ] Two weeks ago\n")
	a := newTestAggregator(v.files)

	got, err := a.Aggregate(v.cache, AggregateOptions{VaultPath: v.root})
	require.NoError(t, err)
	assert.Equal(t, []string{"Today", "Three days ago"}, texts(got.Open))

	got, err = a.Aggregate(v.cache, AggregateOptions{VaultPath: v.root, DaysBack: days(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Today"}, texts(got.Open))

	got, err = a.Aggregate(v.cache, AggregateOptions{VaultPath: v.root, DaysBack: days(14)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Today", "Three days ago", "Two weeks ago"}, texts(got.Open))

	_, err = a.Aggregate(v.cache, AggregateOptions{VaultPath: v.root, DaysBack: days(-1)})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestAggregate_Stale(t *testing.T) {
	v := newTestVault(t)
	v.write(t, v.daily(t, "2026-02-15"), "- [ ] Old by age age:15\n"+
		"- [ ] Young by age age:14\n"+
		"- [ ] Old by created created:2026-01-01\n"+
		"- [ ] Fresh\n")
	v.write(t, v.daily(t, "2026-01-30"), "- [ ] Old by note\n"+
		"- [ ] Aged note age:0\n")

	got, err := newTestAggregator(v.files).Aggregate(v.cache, AggregateOptions{VaultPath: v.root, DaysBack: days(20)})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Old by age", "Old by created", "Old by note"}, texts(got.Stale))
}

func TestAggregate_PeriodicNotes(t *testing.T) {
	v := newTestVault(t)
	loc := vault.NewLocator(v.root, v.cfg)
	weekly, err := loc.NotePath(vault.Weekly, testToday)
	require.NoError(t, err)
	monthly, err := loc.NotePath(vault.Monthly, testToday)
	require.NoError(t, err)
	v.write(t, weekly, "- [ ] Weekly goal\n")
	v.write(t, monthly, "- [ ] Monthly goal\n")
	v.write(t, v.daily(t, "2026-02-15"), "- [ ] Daily chore\n")

	got, err := newTestAggregator(v.files).Aggregate(v.cache, AggregateOptions{
		VaultPath: v.root,
		DaysBack:  days(6),
		NoteTypes: []vault.NoteType{vault.Weekly, vault.Monthly},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Weekly goal", "Monthly goal"}, texts(got.Open))
	assert.Equal(t, date("2026-02-09"), got.Open[0].SourceDate)
	assert.Equal(t, date("2026-02-01"), got.Open[1].SourceDate)
}

func TestAggregate_MixedNoteTypesOrderedByDate(t *testing.T) {
	v := newTestVault(t)
	loc := vault.NewLocator(v.root, v.cfg)
	weekly, err := loc.NotePath(vault.Weekly, testToday)
	require.NoError(t, err)
	v.write(t, weekly, "- [ ] Weekly goal\n")
	v.write(t, v.daily(t, "2026-02-15"), "- [ ] Today\n")
	v.write(t, v.daily(t, "2026-02-10"), "- [ ] Tuesday\n")
	v.write(t, v.daily(t, "2026-02-08"), "- [ ] Last Sunday\n")

	got, err := newTestAggregator(v.files).Aggregate(v.cache, AggregateOptions{
		VaultPath: v.root,
		DaysBack:  days(7),
		NoteTypes: []vault.NoteType{vault.Weekly, vault.Daily},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Today", "Tuesday", "Weekly goal", "Last Sunday"}, texts(got.Open))
}

type failingFiles struct {
	FileStore
	bad string
}

func (f failingFiles) Read(path string) ([]byte, error) {
	if path == f.bad {
		return nil, errors.New("permission denied")
	}
	return f.FileStore.Read(path)
}

func TestAggregate_SkipsUnreadableNotes(t *testing.T) {
	v := newTestVault(t)
	bad := v.daily(t, "2026-02-14")
	v.write(t, bad, "- [ ] Hidden\n")
	v.write(t, v.daily(t, "2026-02-13"), "- [ ] Visible\n")

	a := newTestAggregator(failingFiles{FileStore: v.files, bad: bad})
	got, err := a.Aggregate(v.cache, AggregateOptions{VaultPath: v.root})
	require.NoError(t, err)
	assert.Equal(t, []string{"Visible"}, texts(got.Open))
}

func TestAggregate_MissingConfig(t *testing.T) {
	v := newTestVault(t)
	_, err := newTestAggregator(v.files).Aggregate(vault.NewConfigCache(), AggregateOptions{VaultPath: v.root})
	assert.ErrorIs(t, err, apperr.ErrConfigNotFound)
}

func TestSortTasks(t *testing.T) {
	mk := func(text string, p Priority, due string) TaskWithSource {
		ts := TaskWithSource{Task: Task{Text: text, Metadata: Metadata{Priority: p}}}
		if due != "" {
			ts.Metadata.Due = datePtr(date(due))
		}
		return ts
	}
	ts := []TaskWithSource{
		mk("none-late", "", "2026-01-01"),
		mk("med-nodue", PriorityMedium, ""),
		mk("low", PriorityLow, "2026-01-01"),
		mk("high-nodue", PriorityHigh, ""),
		mk("med-late", PriorityMedium, "2026-03-01"),
		mk("high-early", PriorityHigh, "2026-02-01"),
		mk("med-early", PriorityMedium, "2026-02-01"),
		mk("high-nodue-2", PriorityHigh, ""),
	}
	SortTasks(ts)
	assert.Equal(t, []string{
		"high-early", "high-nodue", "high-nodue-2",
		"med-early", "med-late", "med-nodue",
		"low", "none-late",
	}, texts(ts))
}
