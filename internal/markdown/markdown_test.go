package markdown

import (
	"testing"
)

func TestSplit_RoundTripLF(t *testing.T) {
	in := "# Daily\n\n## Tasks\n- [ ] one\n"
	doc := Split(in)
	if doc.EOL != LF {
		t.Errorf("eol = %q, want LF", doc.EOL)
	}
	if doc.Len() != 4 {
		t.Fatalf("len = %d, want 4", doc.Len())
	}
	if got := doc.String(); got != in {
		t.Errorf("round trip = %q, want %q", got, in)
	}
}

func TestSplit_RoundTripCRLF(t *testing.T) {
	in := "## Tasks\r\n- [ ] one\r\n- [x] two"
	doc := Split(in)
	if doc.EOL != CRLF {
		t.Errorf("eol = %q, want CRLF", doc.EOL)
	}
	if doc.Lines[1] != "- [ ] one" {
		t.Errorf("line carries terminator: %q", doc.Lines[1])
	}
	if doc.TrailingEOL {
		t.Error("no trailing newline expected")
	}
	if got := doc.String(); got != in {
		t.Errorf("round trip = %q, want %q", got, in)
	}
}

func TestSplit_MixedLineEndings(t *testing.T) {
	in := "a\r\nb\n- [ ] T\n"
	doc := Split(in)
	if doc.EOL != CRLF {
		t.Errorf("eol = %q, want CRLF", doc.EOL)
	}
	if got := doc.String(); got != in {
		t.Errorf("round trip = %q, want %q", got, in)
	}

	doc.Lines[2] = "- [x] T"
	doc.Insert(1, "new")
	if got, want := doc.String(), "a\r\nnew\r\nb\n- [x] T\n"; got != want {
		t.Errorf("edited = %q, want %q", got, want)
	}
}

func TestSplit_Empty(t *testing.T) {
	doc := Split("")
	if doc.Len() != 0 || doc.String() != "" {
		t.Errorf("empty doc = %+v", doc)
	}
}

func TestInsert(t *testing.T) {
	doc := Split("a\nc\n")
	doc.Insert(1, "b")
	if got := doc.String(); got != "a\nb\nc\n" {
		t.Errorf("insert = %q", got)
	}
	doc.Insert(doc.Len(), "d")
	if got := doc.String(); got != "a\nb\nc\nd\n" {
		t.Errorf("append = %q", got)
	}
}

func TestHeadingLevel(t *testing.T) {
	cases := map[string]int{
		"# Title":     1,
		"## Tasks":    2,
		"  ### Deep":  3,
		"#tag":        0,
		"plain":       0,
		"####### no":  0,
		"- [ ] #task": 0,
	}
	for in, want := range cases {
		if got := HeadingLevel(in); got != want {
			t.Errorf("HeadingLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFindHeading_CaseInsensitiveTrimmed(t *testing.T) {
	lines := []string{"# Day", "", "  ## TASKS  ", "- [ ] x"}
	if got := FindHeading(lines, "## Tasks"); got != 2 {
		t.Errorf("FindHeading = %d, want 2", got)
	}
	if got := FindHeading(lines, "## Notes"); got != -1 {
		t.Errorf("FindHeading missing = %d, want -1", got)
	}
}

func TestSection_StopsAtSameLevelHeading(t *testing.T) {
	lines := []string{"## Tasks", "- [ ] a", "### Sub", "- [ ] b", "## Notes", "- [ ] c"}
	sec, ok := Section(lines, "## Tasks")
	if !ok {
		t.Fatal("section not found")
	}
	if len(sec) != 3 || sec[2] != "- [ ] b" {
		t.Errorf("section = %v", sec)
	}
}

func TestSplitFrontmatter(t *testing.T) {
	fm, body := SplitFrontmatter("---\ntitle: Hello\ntype: daily\n---\n# Hello\nBody text.\n")
	if fm["title"] != "Hello" || fm["type"] != "daily" {
		t.Errorf("frontmatter = %v", fm)
	}
	if body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontmatter_InvalidYAMLFallback(t *testing.T) {
	in := "---\n: invalid: yaml: {{{\n---\nBody\n"
	fm, body := SplitFrontmatter(in)
	if fm != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if body != in {
		t.Errorf("body = %q", body)
	}
}

func TestTitle(t *testing.T) {
	if got := Title("---\ntitle: FM Title\n---\n# H1 Title\n"); got != "FM Title" {
		t.Errorf("title = %q, want FM Title", got)
	}
	if got := Title("some text\n# My Heading\nmore"); got != "My Heading" {
		t.Errorf("title = %q, want My Heading", got)
	}
}
