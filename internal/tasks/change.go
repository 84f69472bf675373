package tasks

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/jgcallah/cadence/internal/apperr"
)

type changeOp uint8

const (
	opKeep changeOp = iota
	opSet
	opRemove
)

// Change describes what to do with one metadata field. The zero value keeps
// the field untouched.
type Change[T any] struct {
	op    changeOp
	value T
}

// Keep leaves a field as it is.
func Keep[T any]() Change[T] { return Change[T]{} }

// Set replaces (or adds) a field.
func Set[T any](v T) Change[T] { return Change[T]{op: opSet, value: v} }

// Remove strips a field from the line.
func Remove[T any]() Change[T] { return Change[T]{op: opRemove} }

// IsKeep reports whether the change leaves the field alone.
func (c Change[T]) IsKeep() bool { return c.op == opKeep }

// IsRemove reports whether the change strips the field.
func (c Change[T]) IsRemove() bool { return c.op == opRemove }

// Value returns the new value of a Set change.
func (c Change[T]) Value() (T, bool) { return c.value, c.op == opSet }

func (c Change[T]) String() string {
	switch c.op {
	case opSet:
		return fmt.Sprintf("set(%v)", c.value)
	case opRemove:
		return "remove"
	default:
		return "keep"
	}
}

// MetadataUpdate lists the changes UpdateMetadata applies to a task line.
type MetadataUpdate struct {
	Created   Change[civil.Date]
	Due       Change[civil.Date]
	Scheduled Change[civil.Date]
	Priority  Change[Priority]
	Age       Change[int]
	Tags      Change[[]string]
}

// Empty reports whether the update changes nothing.
func (u MetadataUpdate) Empty() bool {
	return u.Created.IsKeep() && u.Due.IsKeep() && u.Scheduled.IsKeep() &&
		u.Priority.IsKeep() && u.Age.IsKeep() && u.Tags.IsKeep()
}

func (u MetadataUpdate) validate() error {
	if p, ok := u.Priority.Value(); ok {
		if _, valid := ParsePriority(string(p)); !valid {
			return fmt.Errorf("%w: priority must be high, medium or low, got %q", apperr.ErrInvalidInput, p)
		}
	}
	if n, ok := u.Age.Value(); ok && n < 0 {
		return fmt.Errorf("%w: age must be non-negative, got %d", apperr.ErrInvalidInput, n)
	}
	if tags, ok := u.Tags.Value(); ok {
		for _, t := range tags {
			if !validTagName(strings.TrimPrefix(t, "#")) {
				return fmt.Errorf("%w: invalid tag %q", apperr.ErrInvalidInput, t)
			}
		}
	}
	return nil
}

// ParseMetadataUpdate builds a MetadataUpdate from loosely typed input such
// as a decoded JSON object or MCP tool arguments. A key mapped to nil removes
// the field, a key mapped to a value sets it and an absent key keeps it.
// Dates are YYYY-MM-DD strings, age is a number and tags is a list of
// strings (or a single space/comma separated string).
func ParseMetadataUpdate(fields map[string]any) (MetadataUpdate, error) {
	var u MetadataUpdate
	for key, raw := range fields {
		var err error
		switch key {
		case "created":
			u.Created, err = dateChange(key, raw)
		case "due":
			u.Due, err = dateChange(key, raw)
		case "scheduled":
			u.Scheduled, err = dateChange(key, raw)
		case "priority":
			u.Priority, err = priorityChange(raw)
		case "age":
			u.Age, err = ageChange(raw)
		case "tags":
			u.Tags, err = tagsChange(raw)
		default:
			err = fmt.Errorf("%w: unknown metadata field %q", apperr.ErrInvalidInput, key)
		}
		if err != nil {
			return MetadataUpdate{}, err
		}
	}
	return u, u.validate()
}

func dateChange(key string, raw any) (Change[civil.Date], error) {
	if raw == nil {
		return Remove[civil.Date](), nil
	}
	s, ok := raw.(string)
	if !ok {
		return Change[civil.Date]{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD string", apperr.ErrInvalidInput, key)
	}
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return Change[civil.Date]{}, fmt.Errorf("%w: %s: %v", apperr.ErrInvalidInput, key, err)
	}
	return Set(d), nil
}

func priorityChange(raw any) (Change[Priority], error) {
	if raw == nil {
		return Remove[Priority](), nil
	}
	s, _ := raw.(string)
	if strings.EqualFold(s, string(PriorityNone)) {
		return Remove[Priority](), nil
	}
	p, ok := ParsePriority(s)
	if !ok {
		return Change[Priority]{}, fmt.Errorf("%w: priority must be high, medium or low, got %v", apperr.ErrInvalidInput, raw)
	}
	return Set(p), nil
}

func ageChange(raw any) (Change[int], error) {
	switch v := raw.(type) {
	case nil:
		return Remove[int](), nil
	case int:
		return Set(v), nil
	case int64:
		return Set(int(v)), nil
	case float64:
		if v != float64(int(v)) {
			return Change[int]{}, fmt.Errorf("%w: age must be a whole number", apperr.ErrInvalidInput)
		}
		return Set(int(v)), nil
	default:
		return Change[int]{}, fmt.Errorf("%w: age must be a number", apperr.ErrInvalidInput)
	}
}

func tagsChange(raw any) (Change[[]string], error) {
	var tags []string
	switch v := raw.(type) {
	case nil:
		return Remove[[]string](), nil
	case string:
		tags = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	case []string:
		tags = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return Change[[]string]{}, fmt.Errorf("%w: tags must be strings", apperr.ErrInvalidInput)
			}
			tags = append(tags, s)
		}
	default:
		return Change[[]string]{}, fmt.Errorf("%w: tags must be a list of strings", apperr.ErrInvalidInput)
	}
	return Set(tags), nil
}
