package tasks

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/jgcallah/cadence/internal/apperr"
	"github.com/jgcallah/cadence/internal/markdown"
)

// NewTask describes a task to add. A nil Created is stamped with today.
type NewTask struct {
	Text     string
	Metadata Metadata
}

// Mutator edits single task lines in place. Every operation reads the whole
// file, changes one line and writes the file back through FileStore.
type Mutator struct {
	files FileStore
	settings
}

// NewMutator creates a Mutator writing through files.
func NewMutator(files FileStore, opts ...Option) *Mutator {
	return &Mutator{files: files, settings: newSettings(opts)}
}

func (m *Mutator) today() civil.Date {
	return civil.DateOf(m.now())
}

// load reads path and tokenizes the 1-indexed line lineNumber.
func (m *Mutator) load(path string, lineNumber int) (*markdown.Document, *lineSyntax, error) {
	data, err := m.files.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
		}
		return nil, nil, err
	}
	doc := markdown.Split(string(data))
	if lineNumber < 1 || lineNumber > doc.Len() {
		return nil, nil, fmt.Errorf("%w: line %d of %s (%d lines)", apperr.ErrLineOutOfRange, lineNumber, path, doc.Len())
	}
	ls, ok := scanLine(doc.Lines[lineNumber-1])
	if !ok {
		return nil, nil, fmt.Errorf("%w: line %d of %s", apperr.ErrNotATask, lineNumber, path)
	}
	return doc, ls, nil
}

// replace swaps line lineNumber for updated and writes the file if anything
// changed. The file is left alone when updated would no longer be a task.
func (m *Mutator) replace(path string, doc *markdown.Document, lineNumber int, updated string) (Task, error) {
	t, ok := ParseLine(updated, lineNumber)
	if !ok {
		return Task{}, fmt.Errorf("%w: line %d of %s would be left without text or metadata", apperr.ErrInvalidInput, lineNumber, path)
	}
	if doc.Lines[lineNumber-1] != updated {
		doc.Lines[lineNumber-1] = updated
		if err := m.files.Write(path, []byte(doc.String())); err != nil {
			return Task{}, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return t, nil
}

// Toggle flips the checkbox of the task on lineNumber. Text, metadata and
// the file's line endings are left untouched.
func (m *Mutator) Toggle(path string, lineNumber int) (Task, error) {
	doc, ls, err := m.load(path, lineNumber)
	if err != nil {
		return Task{}, err
	}
	state := byte('x')
	if ls.completed {
		state = ' '
	}
	line := ls.line
	updated := line[:ls.box] + string(state) + line[ls.box+1:]
	return m.replace(path, doc, lineNumber, updated)
}

// UpdateMetadata applies u to the task on lineNumber. Set replaces the first
// existing token in place or appends a new one; Remove strips every token of
// that field. Tags are replaced as a whole.
func (m *Mutator) UpdateMetadata(path string, lineNumber int, u MetadataUpdate) (Task, error) {
	if err := u.validate(); err != nil {
		return Task{}, err
	}
	doc, ls, err := m.load(path, lineNumber)
	if err != nil {
		return Task{}, err
	}
	return m.replace(path, doc, lineNumber, applyUpdate(ls.line, u))
}

// applyUpdate edits line field by field in canonical token order,
// re-tokenizing after every step.
func applyUpdate(line string, u MetadataUpdate) string {
	line = applyDate(line, tokCreated, "created", u.Created)
	line = applyDate(line, tokDue, "due", u.Due)
	line = applyDate(line, tokScheduled, "scheduled", u.Scheduled)

	if p, ok := u.Priority.Value(); ok {
		p, _ = ParsePriority(string(p))
		line = setToken(line, priorityToken(p), tokPriority, tokBang)
	} else if u.Priority.IsRemove() {
		line = removeTokens(line, tokPriority, tokBang)
	}

	if n, ok := u.Age.Value(); ok {
		line = setToken(line, ageToken(n), tokAge)
	} else if u.Age.IsRemove() {
		line = removeTokens(line, tokAge)
	}

	if tags, ok := u.Tags.Value(); ok {
		line = removeTokens(line, tokTag)
		if norm := normalizeTags(tags); len(norm) > 0 {
			line = appendToken(line, tagTokens(norm))
		}
	} else if u.Tags.IsRemove() {
		line = removeTokens(line, tokTag)
	}
	return line
}

func applyDate(line string, kind tokenKind, key string, c Change[civil.Date]) string {
	if d, ok := c.Value(); ok {
		return setToken(line, dateToken(key, d), kind)
	}
	if c.IsRemove() {
		return removeTokens(line, kind)
	}
	return line
}

// setToken replaces the first token matching kinds (tried in order) with
// rendered, or appends rendered when none is present.
func setToken(line, rendered string, kinds ...tokenKind) string {
	ls, ok := scanLine(line)
	if !ok {
		// An earlier removal emptied the body; the checkbox is still there.
		return appendToken(line, rendered)
	}
	for _, k := range kinds {
		if t, found := ls.first(k); found {
			return line[:t.start] + rendered + line[t.end:]
		}
	}
	return appendToken(line, rendered)
}

func appendToken(line, rendered string) string {
	return strings.TrimRight(line, " \t") + " " + rendered
}

// removeTokens strips every token of kinds together with its leading
// whitespace. A token directly after the checkbox takes its trailing
// whitespace instead so the text stays separated from "]".
func removeTokens(line string, kinds ...tokenKind) string {
	ls, ok := scanLine(line)
	if !ok {
		return line
	}
	for i := len(ls.tokens) - 1; i >= 0; i-- {
		t := ls.tokens[i]
		if !matchesKind(t.kind, kinds) {
			continue
		}
		start, end := t.start, t.end
		for start > ls.body && isBlank(line[start-1]) {
			start--
		}
		if start == ls.body {
			start = t.start
			for end < len(line) && isBlank(line[end]) {
				end++
			}
		}
		line = line[:start] + line[end:]
	}
	return line
}

func matchesKind(k tokenKind, kinds []tokenKind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimPrefix(strings.TrimSpace(t), "#"); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// AddTask inserts a new open task directly under section in the note at
// path, creating the note and the section heading when they are missing.
// The returned task carries its line number in the written file.
func (m *Mutator) AddTask(path, section string, nt NewTask) (Task, error) {
	text := strings.TrimSpace(nt.Text)
	if text == "" || strings.ContainsAny(text, "\r\n") {
		return Task{}, fmt.Errorf("%w: task text must be a single non-empty line", apperr.ErrInvalidInput)
	}
	meta := nt.Metadata
	if meta.Created == nil {
		meta.Created = datePtr(m.today())
	}
	if meta.Priority == PriorityNone {
		meta.Priority = ""
	}
	if meta.Priority != "" {
		p, ok := ParsePriority(string(meta.Priority))
		if !ok {
			return Task{}, fmt.Errorf("%w: invalid priority %q", apperr.ErrInvalidInput, meta.Priority)
		}
		meta.Priority = p
	}
	if meta.Age != nil && *meta.Age < 0 {
		return Task{}, fmt.Errorf("%w: age must be non-negative", apperr.ErrInvalidInput)
	}
	meta.Tags = normalizeTags(meta.Tags)
	for _, t := range meta.Tags {
		if !validTagName(t) {
			return Task{}, fmt.Errorf("%w: invalid tag %q", apperr.ErrInvalidInput, t)
		}
	}

	line := FormatLine(text, false, meta)
	doc, err := readDocument(m.files, path)
	if err != nil {
		return Task{}, err
	}
	at := insertUnderSection(doc, section, line)
	if err := m.files.Write(path, []byte(doc.String())); err != nil {
		return Task{}, fmt.Errorf("write %s: %w", path, err)
	}
	t, _ := ParseLine(line, at)
	return t, nil
}

// readDocument reads path, treating a missing file as empty.
func readDocument(files FileStore, path string) (*markdown.Document, error) {
	if !files.Exists(path) {
		return markdown.Split(""), nil
	}
	data, err := files.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return markdown.Split(string(data)), nil
}

// insertUnderSection places lines right after the heading section. When
// the heading is missing it is appended, separated from existing content by
// a blank line. It returns the 1-indexed line number of the first inserted
// line.
func insertUnderSection(doc *markdown.Document, section string, lines ...string) int {
	if idx := markdown.FindHeading(doc.Lines, section); idx >= 0 {
		if idx+1 == doc.Len() {
			doc.TrailingEOL = true
		}
		doc.Insert(idx+1, lines...)
		return idx + 2
	}
	if n := doc.Len(); n > 0 && strings.TrimSpace(doc.Lines[n-1]) != "" {
		doc.Lines = append(doc.Lines, "")
	}
	doc.Lines = append(doc.Lines, strings.TrimSpace(section))
	at := doc.Len() + 1
	doc.Lines = append(doc.Lines, lines...)
	doc.TrailingEOL = true
	return at
}
