package api

import (
	"github.com/jgcallah/cadence/internal/index"
	"github.com/jgcallah/cadence/internal/taskservice"
	"github.com/jgcallah/cadence/internal/tasks"
)

// AddTaskRequest is the request body for adding a task. Without a path the
// task goes to the note of note_type (default daily) for date (default
// today).
type AddTaskRequest struct {
	Text      string   `json:"text" example:"Buy milk" validate:"required"`
	Path      string   `json:"path,omitempty" example:"projects/home.md"`
	NoteType  string   `json:"note_type,omitempty" example:"daily"`
	Date      string   `json:"date,omitempty" example:"2026-02-15"`
	Section   string   `json:"section,omitempty" example:"## Tasks"`
	Due       string   `json:"due,omitempty" example:"2026-02-20"`
	Scheduled string   `json:"scheduled,omitempty" example:"2026-02-18"`
	Created   string   `json:"created,omitempty" example:"2026-02-15"`
	Priority  string   `json:"priority,omitempty" example:"high"`
	Age       *int     `json:"age,omitempty" example:"2"`
	Tags      []string `json:"tags,omitempty" example:"work,urgent"`
}

// TaskLocator addresses one task line.
type TaskLocator struct {
	Path string `json:"path" example:"journal/daily/2026/02/2026-02-15.md" validate:"required"`
	Line int    `json:"line" example:"4" validate:"required"`
}

// UpdateMetadataRequest is the request body for PATCH /tasks/metadata.
// Each key of fields sets a metadata field; a null value removes it and an
// absent key leaves it alone.
type UpdateMetadataRequest struct {
	TaskLocator
	Fields map[string]any `json:"fields" validate:"required"`
}

// RolloverRequest is the request body for POST /tasks/rollover.
type RolloverRequest struct {
	SourceDaysBack *int   `json:"source_days_back,omitempty" example:"7"`
	TargetDate     string `json:"target_date,omitempty" example:"2026-02-15"`
}

// TaskResult is a single task response (aliased from the service layer).
type TaskResult = taskservice.TaskResult

// AgendaResponse is the categorized task list (aliased from the engine).
type AgendaResponse = tasks.Aggregated

// RolloverResponse reports a rollover run (aliased from the engine).
type RolloverResponse = tasks.RolloverResult

// SearchResponse wraps task search results.
type SearchResponse struct {
	Tasks []index.TaskRow `json:"tasks" validate:"required"`
}
