package tasks

import "github.com/jgcallah/cadence/internal/markdown"

// Parse extracts every task from note content in file order. Lines that are
// not tasks are skipped; Parse never fails.
func Parse(content string) []Task {
	return parseLines(markdown.Split(content).Lines)
}

// ParseLine parses a single line. lineNumber is copied into the result.
func ParseLine(line string, lineNumber int) (Task, bool) {
	ls, ok := scanLine(line)
	if !ok {
		return Task{}, false
	}
	return ls.task(lineNumber), true
}

func parseLines(lines []string) []Task {
	var out []Task
	for i, line := range lines {
		if t, ok := ParseLine(line, i+1); ok {
			out = append(out, t)
		}
	}
	return out
}
