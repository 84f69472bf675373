package tasks

import (
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/jgcallah/cadence/internal/markdown"
	"github.com/jgcallah/cadence/internal/vault"
)

// RolloverOptions controls a rollover run.
type RolloverOptions struct {
	VaultPath string
	// SourceDaysBack defaults to tasks.scan_days_back.
	SourceDaysBack *int
	// TargetDate defaults to today.
	TargetDate *civil.Date
}

// Roller carries open tasks from earlier daily notes into a target daily
// note.
type Roller struct {
	files FileStore
	settings
}

// NewRoller creates a Roller reading and writing through files.
func NewRoller(files FileStore, opts ...Option) *Roller {
	return &Roller{files: files, settings: newSettings(opts)}
}

// Rollover copies every open task from the daily notes before the target
// date into the target note's task section. Tasks whose text is already
// present in that section (compared case-insensitively) are skipped, so
// running it twice adds nothing the second time. Each rolled task gets its
// age incremented and, when missing, created set to its source date.
func (r *Roller) Rollover(cache *vault.ConfigCache, opts RolloverOptions) (*RolloverResult, error) {
	cfg, err := cache.Get(opts.VaultPath)
	if err != nil {
		return nil, err
	}
	daysBack, err := windowSize(opts.SourceDaysBack, cfg)
	if err != nil {
		return nil, err
	}
	target := civil.DateOf(r.now())
	if opts.TargetDate != nil {
		target = *opts.TargetDate
	}

	loc := vault.NewLocator(opts.VaultPath, cfg)
	targetPath, err := loc.NotePath(vault.Daily, target)
	if err != nil {
		return nil, err
	}
	cands, err := candidates(loc, []vault.NoteType{vault.Daily}, target, 1, daysBack, targetPath)
	if err != nil {
		return nil, err
	}

	doc, err := readDocument(r.files, targetPath)
	if err != nil {
		return nil, err
	}
	barrier := make(map[string]bool)
	if section, ok := markdown.Section(doc.Lines, cfg.Sections.Tasks); ok {
		for _, t := range parseLines(section) {
			barrier[dedupKey(t)] = true
		}
	}

	result := &RolloverResult{
		RolledOver:     []TaskWithSource{},
		Skipped:        []SkippedTask{},
		TargetNotePath: targetPath,
	}
	var (
		picked []TaskWithSource
		lines  []string
	)
	for _, t := range r.scan(r.files, cands) {
		if t.Completed {
			continue
		}
		key := dedupKey(t.Task)
		if barrier[key] {
			result.Skipped = append(result.Skipped, SkippedTask{Task: t, Reason: ReasonAlreadyExists})
			continue
		}
		barrier[key] = true
		picked = append(picked, t)
		lines = append(lines, carryForward(t))
	}
	if len(lines) == 0 {
		return result, nil
	}

	at := insertUnderSection(doc, cfg.Sections.Tasks, lines...)
	if err := r.files.Write(targetPath, []byte(doc.String())); err != nil {
		return nil, fmt.Errorf("write %s: %w", targetPath, err)
	}
	r.logger.Info("rolled over tasks",
		slog.String("target", targetPath),
		slog.Int("rolled_over", len(picked)),
		slog.Int("skipped", len(result.Skipped)))

	for i, src := range picked {
		t, _ := ParseLine(lines[i], at+i)
		result.RolledOver = append(result.RolledOver, TaskWithSource{
			Task:       t,
			SourcePath: src.SourcePath,
			SourceDate: src.SourceDate,
		})
	}
	return result, nil
}

// dedupKey identifies a task across notes by its text. Tasks made only of
// tokens are keyed by the metadata rollover leaves unchanged.
func dedupKey(t Task) string {
	if text := strings.TrimSpace(t.Text); text != "" {
		return strings.ToLower(text)
	}
	m := t.Metadata
	parts := []string{"\x00"}
	if m.Due != nil {
		parts = append(parts, "due:"+m.Due.String())
	}
	if m.Scheduled != nil {
		parts = append(parts, "scheduled:"+m.Scheduled.String())
	}
	if m.Priority != "" {
		parts = append(parts, "priority:"+string(m.Priority))
	}
	for _, tag := range m.Tags {
		parts = append(parts, "#"+strings.ToLower(tag))
	}
	return strings.Join(parts, " ")
}

// carryForward rewrites a source line for the target note: indentation is
// dropped, age goes up by one and created defaults to the source date.
// Everything else on the line is kept as written.
func carryForward(t TaskWithSource) string {
	age := 0
	if t.Metadata.Age != nil {
		age = *t.Metadata.Age
	}
	u := MetadataUpdate{Age: Set(age + 1)}
	if t.Metadata.Created == nil {
		u.Created = Set(t.SourceDate)
	}
	return applyUpdate(strings.TrimLeft(t.Raw, " \t"), u)
}
