package markdown

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// SplitFrontmatter separates YAML frontmatter (between leading --- lines)
// from the body. Missing or invalid frontmatter yields a nil map and the
// whole content as body.
func SplitFrontmatter(content string) (map[string]any, string) {
	doc := Split(content)
	if doc.Len() == 0 || strings.TrimSpace(doc.Lines[0]) != frontmatterDelim {
		return nil, content
	}
	end := -1
	for i := 1; i < doc.Len(); i++ {
		if strings.TrimSpace(doc.Lines[i]) == frontmatterDelim {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, content
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(doc.Lines[1:end], "\n")), &fm); err != nil {
		return nil, content
	}
	body := strings.Join(doc.Lines[end+1:], doc.EOL)
	if doc.TrailingEOL && end+1 < doc.Len() {
		body += doc.EOL
	}
	return fm, strings.TrimLeft(body, "\r\n")
}

// Title returns the frontmatter "title" if present, otherwise the first H1
// heading, otherwise the empty string.
func Title(content string) string {
	fm, body := SplitFrontmatter(content)
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range Split(body).Lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
