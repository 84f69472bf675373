package tasks

import (
	"fmt"
	"log/slog"
	"slices"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/jgcallah/cadence/internal/apperr"
	"github.com/jgcallah/cadence/internal/vault"
)

// AggregateOptions selects the notes Aggregate scans.
type AggregateOptions struct {
	VaultPath string
	// DaysBack is the window size in days before today (inclusive). Nil
	// uses tasks.scan_days_back from the vault configuration.
	DaysBack         *int
	IncludeCompleted bool
	// NoteTypes defaults to daily notes only.
	NoteTypes []vault.NoteType
}

// Aggregator collects and categorizes tasks across periodic notes.
type Aggregator struct {
	files FileStore
	settings
}

// NewAggregator creates an Aggregator reading through files.
func NewAggregator(files FileStore, opts ...Option) *Aggregator {
	return &Aggregator{files: files, settings: newSettings(opts)}
}

// Aggregate scans every note of the requested types from today back through
// DaysBack days. Notes that are missing or unreadable are skipped.
func (a *Aggregator) Aggregate(cache *vault.ConfigCache, opts AggregateOptions) (*Aggregated, error) {
	cfg, err := cache.Get(opts.VaultPath)
	if err != nil {
		return nil, err
	}
	daysBack, err := windowSize(opts.DaysBack, cfg)
	if err != nil {
		return nil, err
	}
	types := opts.NoteTypes
	if len(types) == 0 {
		types = []vault.NoteType{vault.Daily}
	}

	today := civil.DateOf(a.now())
	loc := vault.NewLocator(opts.VaultPath, cfg)
	cands, err := candidates(loc, types, today, 0, daysBack, "")
	if err != nil {
		return nil, err
	}

	threshold := cfg.Tasks.StaleAfterDays
	out := &Aggregated{
		Open:      []TaskWithSource{},
		Completed: []TaskWithSource{},
		Overdue:   []TaskWithSource{},
		Stale:     []TaskWithSource{},
		ByPriority: map[Priority][]TaskWithSource{
			PriorityHigh:   {},
			PriorityMedium: {},
			PriorityLow:    {},
			PriorityNone:   {},
		},
	}
	for _, t := range a.scan(a.files, cands) {
		if t.Completed {
			if opts.IncludeCompleted {
				out.Completed = append(out.Completed, t)
			}
			continue
		}
		out.Open = append(out.Open, t)
		if t.Metadata.Due != nil && t.Metadata.Due.Before(today) {
			out.Overdue = append(out.Overdue, t)
		}
		if isStale(t, today, threshold) {
			out.Stale = append(out.Stale, t)
		}
		key := t.Metadata.Priority
		if key == "" {
			key = PriorityNone
		}
		out.ByPriority[key] = append(out.ByPriority[key], t)
	}

	SortTasks(out.Open)
	SortTasks(out.Completed)
	SortTasks(out.Overdue)
	SortTasks(out.Stale)
	for _, bucket := range out.ByPriority {
		SortTasks(bucket)
	}
	return out, nil
}

// isStale applies the staleness signals independently; any one suffices.
func isStale(t TaskWithSource, today civil.Date, threshold int) bool {
	m := t.Metadata
	if m.Age != nil && *m.Age > threshold {
		return true
	}
	if m.Age == nil && today.DaysSince(t.SourceDate) > threshold {
		return true
	}
	return m.Created != nil && today.DaysSince(*m.Created) > threshold
}

func windowSize(override *int, cfg *vault.Config) (int, error) {
	if override == nil {
		return cfg.Tasks.ScanDaysBack, nil
	}
	if *override < 0 {
		return 0, fmt.Errorf("%w: days back must be non-negative, got %d", apperr.ErrInvalidInput, *override)
	}
	return *override, nil
}

// candidate is one note to scan.
type candidate struct {
	path string
	date civil.Date
}

// candidates lists the notes of types covering anchor-from through
// anchor-to days, ordered by note date (period start), most recent first.
// Periodic notes that cover several days appear once. skip excludes one path.
func candidates(loc *vault.Locator, types []vault.NoteType, anchor civil.Date, from, to int, skip string) ([]candidate, error) {
	seen := make(map[string]bool)
	var out []candidate
	for _, nt := range types {
		for off := from; off <= to; off++ {
			d := anchor.AddDays(-off)
			path, err := loc.NotePath(nt, d)
			if err != nil {
				return nil, err
			}
			if path == skip || seen[path] {
				continue
			}
			seen[path] = true
			out = append(out, candidate{path: path, date: vault.PeriodStart(nt, d)})
		}
	}
	// Most recent first across note types; ties keep the requested type order.
	slices.SortStableFunc(out, func(a, b candidate) int {
		return b.date.Compare(a.date)
	})
	return out, nil
}

// scan reads and parses the candidates concurrently. The result keeps
// candidate order and file order within each note.
func (s settings) scan(files FileStore, cands []candidate) []TaskWithSource {
	results := make([][]TaskWithSource, len(cands))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, c := range cands {
		g.Go(func() error {
			if !files.Exists(c.path) {
				return nil
			}
			data, err := files.Read(c.path)
			if err != nil {
				s.logger.Debug("skipping unreadable note",
					slog.String("path", c.path),
					slog.String("error", err.Error()))
				return nil
			}
			parsed := Parse(string(data))
			ts := make([]TaskWithSource, len(parsed))
			for j, t := range parsed {
				ts[j] = TaskWithSource{Task: t, SourcePath: c.path, SourceDate: c.date}
			}
			results[i] = ts
			return nil
		})
	}
	_ = g.Wait()

	var out []TaskWithSource
	for _, ts := range results {
		out = append(out, ts...)
	}
	return out
}
