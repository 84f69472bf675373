package tasks

import (
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

func dateToken(key string, d civil.Date) string {
	return key + ":" + d.String()
}

func priorityToken(p Priority) string {
	return "priority:" + string(p)
}

func ageToken(n int) string {
	return "age:" + strconv.Itoa(n)
}

func tagTokens(tags []string) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "#" + t
	}
	return strings.Join(parts, " ")
}

// metadataTokens renders m in the canonical order: created, due, scheduled,
// priority, age, tags.
func metadataTokens(m Metadata) []string {
	var out []string
	if m.Created != nil {
		out = append(out, dateToken("created", *m.Created))
	}
	if m.Due != nil {
		out = append(out, dateToken("due", *m.Due))
	}
	if m.Scheduled != nil {
		out = append(out, dateToken("scheduled", *m.Scheduled))
	}
	if m.Priority != "" && m.Priority != PriorityNone {
		out = append(out, priorityToken(m.Priority))
	}
	if m.Age != nil {
		out = append(out, ageToken(*m.Age))
	}
	if len(m.Tags) > 0 {
		out = append(out, tagTokens(m.Tags))
	}
	return out
}

// FormatLine renders a task line from its parts.
func FormatLine(text string, completed bool, m Metadata) string {
	box := "- [ ] "
	if completed {
		box = "- [x] "
	}
	parts := append([]string{strings.TrimSpace(text)}, metadataTokens(m)...)
	return box + strings.Join(parts, " ")
}
