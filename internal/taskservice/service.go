// Package taskservice coordinates the task engine, the task index and change
// notifications. The REST API, the MCP server and the CLI all go through it.
package taskservice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/jgcallah/cadence/internal/apperr"
	"github.com/jgcallah/cadence/internal/index"
	"github.com/jgcallah/cadence/internal/storage"
	"github.com/jgcallah/cadence/internal/tasks"
	"github.com/jgcallah/cadence/internal/vault"
)

// KindRolledOver is passed to the Notifier after tasks were rolled into a
// note, in addition to the regular update notification.
const KindRolledOver = "rolled_over"

// Notifier receives a change kind ("created", "updated") and the
// vault-relative path of a note the service wrote.
type Notifier func(kind, path string)

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithIndex enables task search and keeps the index current after writes.
func WithIndex(db *index.DB) Option {
	return func(s *Service) {
		s.db = db
	}
}

// WithNotifier registers a callback for every note the service writes.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notify = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service exposes task operations for one vault.
type Service struct {
	store  storage.Provider
	cache  *vault.ConfigCache
	db     *index.DB
	notify Notifier
	logger *slog.Logger
	now    func() time.Time

	aggregator *tasks.Aggregator
	mutator    *tasks.Mutator
	roller     *tasks.Roller
}

// NewService creates a service for the vault behind store. cache is shared
// with the caller, which may clear it when the vault config changes.
func NewService(store storage.Provider, cache *vault.ConfigCache, opts ...Option) *Service {
	s := &Service{
		store:  store,
		cache:  cache,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	engineOpts := []tasks.Option{tasks.WithClock(s.now), tasks.WithLogger(s.logger)}
	s.aggregator = tasks.NewAggregator(store, engineOpts...)
	s.mutator = tasks.NewMutator(store, engineOpts...)
	s.roller = tasks.NewRoller(store, engineOpts...)
	return s
}

// VaultPath returns the absolute vault root.
func (s *Service) VaultPath() string {
	return s.store.Root()
}

// TaskResult is a task together with the vault-relative note holding it.
type TaskResult struct {
	tasks.Task
	Path string `json:"path"`
}

// AgendaRequest selects what Agenda aggregates.
type AgendaRequest struct {
	DaysBack         *int
	IncludeCompleted bool
	NoteTypes        []vault.NoteType
}

// Agenda aggregates tasks across recent periodic notes.
func (s *Service) Agenda(_ context.Context, req AgendaRequest) (*tasks.Aggregated, error) {
	return s.aggregator.Aggregate(s.cache, tasks.AggregateOptions{
		VaultPath:        s.VaultPath(),
		DaysBack:         req.DaysBack,
		IncludeCompleted: req.IncludeCompleted,
		NoteTypes:        req.NoteTypes,
	})
}

// Search queries the task index.
func (s *Service) Search(_ context.Context, q index.TaskQuery) ([]index.TaskRow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: task index is not enabled", apperr.ErrInvalidInput)
	}
	return s.db.Search(q)
}

// AddRequest describes a task to add. Path, when set, names a vault-relative
// note; otherwise the note of NoteType (default daily) for Date (default
// today) is used. Section defaults to sections.tasks.
type AddRequest struct {
	Path     string
	NoteType vault.NoteType
	Date     *civil.Date
	Section  string
	Text     string
	Metadata tasks.Metadata
}

// AddTask inserts a new task and returns it.
func (s *Service) AddTask(_ context.Context, req AddRequest) (*TaskResult, error) {
	cfg, err := s.cache.Get(s.VaultPath())
	if err != nil {
		return nil, err
	}
	path := req.Path
	if path == "" {
		nt := req.NoteType
		if nt == "" {
			nt = vault.Daily
		}
		d := civil.DateOf(s.now())
		if req.Date != nil {
			d = *req.Date
		}
		path, err = vault.NewLocator(s.VaultPath(), cfg).NotePath(nt, d)
		if err != nil {
			return nil, err
		}
	} else if err := checkNotePath(path); err != nil {
		return nil, err
	}
	section := req.Section
	if strings.TrimSpace(section) == "" {
		section = cfg.Sections.Tasks
	}

	t, err := s.mutator.AddTask(path, section, tasks.NewTask{Text: req.Text, Metadata: req.Metadata})
	if err != nil {
		return nil, err
	}
	return s.afterWrite(path, t), nil
}

// Toggle flips the completion state of the task at path:line.
func (s *Service) Toggle(_ context.Context, path string, line int) (*TaskResult, error) {
	if err := checkNotePath(path); err != nil {
		return nil, err
	}
	t, err := s.mutator.Toggle(path, line)
	if err != nil {
		return nil, err
	}
	return s.afterWrite(path, t), nil
}

// UpdateMetadata applies u to the task at path:line.
func (s *Service) UpdateMetadata(_ context.Context, path string, line int, u tasks.MetadataUpdate) (*TaskResult, error) {
	if err := checkNotePath(path); err != nil {
		return nil, err
	}
	if u.Empty() {
		return nil, fmt.Errorf("%w: no metadata fields to update", apperr.ErrInvalidInput)
	}
	t, err := s.mutator.UpdateMetadata(path, line, u)
	if err != nil {
		return nil, err
	}
	return s.afterWrite(path, t), nil
}

// RolloverRequest controls Rollover.
type RolloverRequest struct {
	SourceDaysBack *int
	TargetDate     *civil.Date
}

// Rollover carries open tasks from earlier daily notes into the target note.
func (s *Service) Rollover(_ context.Context, req RolloverRequest) (*tasks.RolloverResult, error) {
	res, err := s.roller.Rollover(s.cache, tasks.RolloverOptions{
		VaultPath:      s.VaultPath(),
		SourceDaysBack: req.SourceDaysBack,
		TargetDate:     req.TargetDate,
	})
	if err != nil {
		return nil, err
	}
	if len(res.RolledOver) > 0 {
		rel := s.reindex(res.TargetNotePath)
		if s.notify != nil {
			s.notify(KindRolledOver, rel)
		}
	}
	return res, nil
}

// ReloadConfig drops the cached vault configuration so the next call
// re-reads .cadence/config.yaml.
func (s *Service) ReloadConfig() {
	s.cache.Clear()
}

// Config returns the current vault configuration.
func (s *Service) Config() (*vault.Config, error) {
	return s.cache.Get(s.VaultPath())
}

// Stats returns open and completed counts from the index.
func (s *Service) Stats() (open, completed int, err error) {
	if s.db == nil {
		return 0, 0, nil
	}
	return s.db.Counts()
}

func (s *Service) afterWrite(path string, t tasks.Task) *TaskResult {
	rel := s.reindex(path)
	return &TaskResult{Task: t, Path: rel}
}

// reindex refreshes the index for path and notifies listeners. Index
// failures are logged; the watcher and the next sync repair them.
func (s *Service) reindex(path string) string {
	rel := s.rel(path)
	if s.db != nil {
		if _, err := index.IndexNote(s.db, s.store, rel); err != nil {
			s.logger.Warn("reindex failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
	}
	if s.notify != nil {
		s.notify(index.KindUpdated, rel)
	}
	return rel
}

func (s *Service) rel(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	if rel, err := filepath.Rel(s.VaultPath(), path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func checkNotePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path is required", apperr.ErrInvalidInput)
	}
	if !filepath.IsAbs(path) && !filepath.IsLocal(path) {
		return fmt.Errorf("%w: path must stay inside the vault: %s", apperr.ErrInvalidInput, path)
	}
	if !strings.HasSuffix(path, ".md") {
		return fmt.Errorf("%w: %s is not a Markdown note", apperr.ErrInvalidInput, path)
	}
	return nil
}
