package markdown

import "strings"

// HeadingLevel returns the ATX heading level of line (1-6), or 0 when the
// line is not a heading.
func HeadingLevel(line string) int {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0
	}
	if level < len(trimmed) && trimmed[level] != ' ' && trimmed[level] != '\t' {
		return 0
	}
	return level
}

// FindHeading returns the index of the first line equal to heading, compared
// case-insensitively after trimming whitespace. It returns -1 if absent.
func FindHeading(lines []string, heading string) int {
	want := strings.TrimSpace(heading)
	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line), want) {
			return i
		}
	}
	return -1
}

// SectionEnd returns the exclusive end index of the section opened by the
// heading at index start: the next heading of the same or a higher level,
// or len(lines).
func SectionEnd(lines []string, start int) int {
	level := HeadingLevel(lines[start])
	if level == 0 {
		level = 6
	}
	for i := start + 1; i < len(lines); i++ {
		if l := HeadingLevel(lines[i]); l > 0 && l <= level {
			return i
		}
	}
	return len(lines)
}

// Section returns the lines belonging to the section titled heading,
// excluding the heading itself, and whether the heading was found.
func Section(lines []string, heading string) ([]string, bool) {
	start := FindHeading(lines, heading)
	if start < 0 {
		return nil, false
	}
	return lines[start+1 : SectionEnd(lines, start)], true
}
