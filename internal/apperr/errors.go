// Package apperr holds the sentinel errors shared across Cadence packages.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrNotATask       = errors.New("not a task")
	ErrLineOutOfRange = errors.New("line out of range")
	ErrConfigNotFound = errors.New("vault configuration not found")
	ErrInvalidInput   = errors.New("invalid input")
)
