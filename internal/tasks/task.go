// Package tasks is the task lifecycle engine: it parses checkbox tasks out of
// notes, aggregates them across a window of periodic notes, edits single task
// lines in place and rolls unfinished tasks forward into today's note.
package tasks

import (
	"strings"

	"cloud.google.com/go/civil"
)

// Priority is a task priority. The zero value means no priority.
type Priority string

// Priorities, highest first. PriorityNone is only used as a bucket key.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

// ParsePriority accepts high, medium or low in any case.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(s) {
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	}
	return "", false
}

// Rank orders priorities for sorting (lower sorts first).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Metadata is the inline metadata of a task line. Nil pointers and the
// empty Priority mean the field is absent.
type Metadata struct {
	Due       *civil.Date `json:"due,omitempty"`
	Scheduled *civil.Date `json:"scheduled,omitempty"`
	Created   *civil.Date `json:"created,omitempty"`
	Priority  Priority    `json:"priority,omitempty"`
	Age       *int        `json:"age,omitempty"`
	Tags      []string    `json:"tags,omitempty"`
}

// Task is one checkbox line.
type Task struct {
	Text      string   `json:"text"`
	Completed bool     `json:"completed"`
	Line      int      `json:"line"` // 1-indexed, valid for the file as read
	Metadata  Metadata `json:"metadata"`
	Raw       string   `json:"raw"`
}

// TaskWithSource is a task together with the note it was read from.
type TaskWithSource struct {
	Task
	SourcePath string     `json:"source_path"`
	SourceDate civil.Date `json:"source_date"`
}

// Aggregated holds the categorized result of Aggregator.Aggregate. Every
// bucket is sorted with SortTasks.
type Aggregated struct {
	Open       []TaskWithSource              `json:"open"`
	Completed  []TaskWithSource              `json:"completed"`
	Overdue    []TaskWithSource              `json:"overdue"`
	Stale      []TaskWithSource              `json:"stale"`
	ByPriority map[Priority][]TaskWithSource `json:"by_priority"`
}

// ReasonAlreadyExists is the skip reason for tasks already in the target note.
const ReasonAlreadyExists = "already exists"

// SkippedTask is a rollover candidate that was not carried forward.
type SkippedTask struct {
	Task   TaskWithSource `json:"task"`
	Reason string         `json:"reason"`
}

// RolloverResult reports what Roller.Rollover did.
type RolloverResult struct {
	RolledOver     []TaskWithSource `json:"rolled_over"`
	Skipped        []SkippedTask    `json:"skipped"`
	TargetNotePath string           `json:"target_note_path"`
}

// FileStore is the file access the engine needs. Write must be atomic.
type FileStore interface {
	Exists(path string) bool
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
}

func datePtr(d civil.Date) *civil.Date { return &d }

func intPtr(n int) *int { return &n }
