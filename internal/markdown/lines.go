// Package markdown provides the small amount of Markdown structure Cadence
// needs: line splitting with line-ending preservation, heading sections and
// frontmatter.
package markdown

import "strings"

// Line endings.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// Document is note content split into lines. Lines never carry their line
// terminator. Split records each line's own terminator so that untouched
// lines are written back byte for byte; lines added later use EOL.
type Document struct {
	Lines       []string
	EOL         string
	TrailingEOL bool

	ends []string
}

// DetectLineEnding returns CRLF when the content uses it, LF otherwise.
func DetectLineEnding(content string) string {
	if strings.Contains(content, CRLF) {
		return CRLF
	}
	return LF
}

// Split breaks content into a Document.
func Split(content string) *Document {
	doc := &Document{EOL: DetectLineEnding(content)}
	if content == "" {
		return doc
	}
	parts := strings.Split(content, "\n")
	if parts[len(parts)-1] == "" {
		doc.TrailingEOL = true
		parts = parts[:len(parts)-1]
	}
	doc.ends = make([]string, len(parts))
	for i, p := range parts {
		terminated := i < len(parts)-1 || doc.TrailingEOL
		crlf := strings.HasSuffix(p, "\r")
		parts[i] = strings.TrimSuffix(p, "\r")
		switch {
		case terminated && crlf:
			doc.ends[i] = CRLF
		case terminated:
			doc.ends[i] = LF
		}
	}
	doc.Lines = parts
	return doc
}

// String joins the document back together with its original line endings.
func (d *Document) String() string {
	var b strings.Builder
	for i, line := range d.Lines {
		b.WriteString(line)
		if i < len(d.Lines)-1 || d.TrailingEOL {
			b.WriteString(d.end(i))
		}
	}
	return b.String()
}

func (d *Document) end(i int) string {
	if i < len(d.ends) && d.ends[i] != "" {
		return d.ends[i]
	}
	return d.EOL
}

// Len returns the number of lines.
func (d *Document) Len() int {
	return len(d.Lines)
}

// Insert places lines before index at (0-based). at == Len() appends.
func (d *Document) Insert(at int, lines ...string) {
	out := make([]string, 0, len(d.Lines)+len(lines))
	out = append(out, d.Lines[:at]...)
	out = append(out, lines...)
	out = append(out, d.Lines[at:]...)
	d.Lines = out

	if at <= len(d.ends) {
		ends := make([]string, 0, len(d.ends)+len(lines))
		ends = append(ends, d.ends[:at]...)
		ends = append(ends, make([]string, len(lines))...)
		ends = append(ends, d.ends[at:]...)
		d.ends = ends
	}
}
