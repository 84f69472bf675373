package tasks

import (
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

type tokenKind int

const (
	tokCreated tokenKind = iota
	tokDue
	tokScheduled
	tokPriority
	tokBang
	tokAge
	tokTag
)

// token is a recognized metadata word; start and end are byte offsets into
// the full line.
type token struct {
	kind       tokenKind
	start, end int
	value      string
}

// span is an unrecognized word of the task text.
type span struct {
	start, end int
}

// lineSyntax is the tokenized form of a task line.
type lineSyntax struct {
	line      string
	box       int // offset of the checkbox state character
	completed bool
	body      int // offset of the first byte after "]"
	tokens    []token
	words     []span
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// scanLine tokenizes line. It reports false when the line is not a task:
// optional indentation, "- [", one of ' ', 'x', 'X', "]", whitespace and
// some non-blank text.
func scanLine(line string) (*lineSyntax, bool) {
	i := 0
	for i < len(line) && isBlank(line[i]) {
		i++
	}
	if !strings.HasPrefix(line[i:], "- [") || len(line) < i+6 {
		return nil, false
	}
	state := line[i+3]
	if state != ' ' && state != 'x' && state != 'X' {
		return nil, false
	}
	if line[i+4] != ']' || !isBlank(line[i+5]) {
		return nil, false
	}
	body := i + 5
	if strings.TrimSpace(line[body:]) == "" {
		return nil, false
	}

	ls := &lineSyntax{
		line:      line,
		box:       i + 3,
		completed: state != ' ',
		body:      body,
	}
	for pos := body; pos < len(line); {
		if isBlank(line[pos]) {
			pos++
			continue
		}
		end := pos
		for end < len(line) && !isBlank(line[end]) {
			end++
		}
		if kind, value, ok := classify(line[pos:end]); ok {
			ls.tokens = append(ls.tokens, token{kind: kind, start: pos, end: end, value: value})
		} else {
			ls.words = append(ls.words, span{start: pos, end: end})
		}
		pos = end
	}
	return ls, true
}

// classify recognizes a single whitespace-delimited word as a metadata token.
func classify(word string) (tokenKind, string, bool) {
	key, value, hasColon := strings.Cut(word, ":")
	if hasColon {
		switch key {
		case "due", "scheduled", "created":
			if len(value) != len("2006-01-02") {
				return 0, "", false
			}
			if _, err := civil.ParseDate(value); err != nil {
				return 0, "", false
			}
			return dateKinds[key], value, true
		case "age":
			if value == "" || strings.TrimLeft(value, "0123456789") != "" {
				return 0, "", false
			}
			if _, err := strconv.Atoi(value); err != nil {
				return 0, "", false
			}
			return tokAge, value, true
		case "priority":
			if p, ok := ParsePriority(value); ok {
				return tokPriority, string(p), true
			}
			return 0, "", false
		}
	}

	switch word {
	case "!":
		return tokBang, string(PriorityLow), true
	case "!!":
		return tokBang, string(PriorityMedium), true
	case "!!!":
		return tokBang, string(PriorityHigh), true
	}

	if len(word) > 1 && word[0] == '#' && validTagName(word[1:]) {
		return tokTag, word[1:], true
	}
	return 0, "", false
}

var dateKinds = map[string]tokenKind{
	"due":       tokDue,
	"scheduled": tokScheduled,
	"created":   tokCreated,
}

func validTagName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// first returns the first token of any of kinds, in line order.
func (ls *lineSyntax) first(kinds ...tokenKind) (token, bool) {
	for _, t := range ls.tokens {
		for _, k := range kinds {
			if t.kind == k {
				return t, true
			}
		}
	}
	return token{}, false
}

// text joins the non-token words with single spaces.
func (ls *lineSyntax) text() string {
	parts := make([]string, len(ls.words))
	for i, w := range ls.words {
		parts[i] = ls.line[w.start:w.end]
	}
	return strings.Join(parts, " ")
}

// metadata resolves the tokens into Metadata. The first occurrence of a
// field wins; an explicit priority: token beats any ! shorthand.
func (ls *lineSyntax) metadata() Metadata {
	var m Metadata
	for _, t := range ls.tokens {
		switch t.kind {
		case tokDue, tokScheduled, tokCreated:
			d, _ := civil.ParseDate(t.value)
			dst := m.dateField(t.kind)
			if *dst == nil {
				*dst = &d
			}
		case tokAge:
			if m.Age == nil {
				n, _ := strconv.Atoi(t.value)
				m.Age = &n
			}
		case tokTag:
			m.Tags = append(m.Tags, t.value)
		}
	}
	if t, ok := ls.first(tokPriority); ok {
		m.Priority = Priority(t.value)
	} else if t, ok := ls.first(tokBang); ok {
		m.Priority = Priority(t.value)
	}
	return m
}

func (m *Metadata) dateField(kind tokenKind) **civil.Date {
	switch kind {
	case tokDue:
		return &m.Due
	case tokScheduled:
		return &m.Scheduled
	default:
		return &m.Created
	}
}

// task builds the Task for this line at the given 1-indexed line number.
func (ls *lineSyntax) task(lineNumber int) Task {
	return Task{
		Text:      ls.text(),
		Completed: ls.completed,
		Line:      lineNumber,
		Metadata:  ls.metadata(),
		Raw:       ls.line,
	}
}
