package vault

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/jgcallah/cadence/internal/apperr"
)

// NoteType identifies a kind of periodic note.
type NoteType string

// Periodic note types.
const (
	Daily     NoteType = "daily"
	Weekly    NoteType = "weekly"
	Monthly   NoteType = "monthly"
	Quarterly NoteType = "quarterly"
	Yearly    NoteType = "yearly"
)

// NoteTypes lists every periodic note type.
var NoteTypes = []NoteType{Daily, Weekly, Monthly, Quarterly, Yearly}

// ParseNoteType validates s as a note type name.
func ParseNoteType(s string) (NoteType, error) {
	t := NoteType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range NoteTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown note type %q", apperr.ErrInvalidInput, s)
}

// Locator resolves the absolute path of a periodic note. Patterns are
// relative to the vault root and may contain these tokens:
//
//	{YYYY} calendar year       {MM} month (01-12)   {DD} day (01-31)
//	{GGGG} ISO week-year       {WW} ISO week (01-53) {Q} quarter (1-4)
type Locator struct {
	root  string
	paths PathsConfig
}

// NewLocator creates a locator for the vault at root.
func NewLocator(root string, cfg *Config) *Locator {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Locator{root: root, paths: cfg.Paths}
}

// NotePath returns where the note of type t covering date d lives.
func (l *Locator) NotePath(t NoteType, d civil.Date) (string, error) {
	pattern, err := l.pattern(t)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(Expand(pattern, d))), nil
}

func (l *Locator) pattern(t NoteType) (string, error) {
	var p string
	switch t {
	case Daily:
		p = l.paths.Daily
	case Weekly:
		p = l.paths.Weekly
	case Monthly:
		p = l.paths.Monthly
	case Quarterly:
		p = l.paths.Quarterly
	case Yearly:
		p = l.paths.Yearly
	default:
		return "", fmt.Errorf("%w: unknown note type %q", apperr.ErrInvalidInput, t)
	}
	if p == "" {
		return "", fmt.Errorf("%w: no path pattern configured for %s notes", apperr.ErrInvalidInput, t)
	}
	return p, nil
}

// Expand substitutes the date tokens of pattern for d.
func Expand(pattern string, d civil.Date) string {
	isoYear, isoWeek := d.In(time.UTC).ISOWeek()
	r := strings.NewReplacer(
		"{YYYY}", fmt.Sprintf("%04d", d.Year),
		"{MM}", fmt.Sprintf("%02d", int(d.Month)),
		"{DD}", fmt.Sprintf("%02d", d.Day),
		"{GGGG}", fmt.Sprintf("%04d", isoYear),
		"{WW}", fmt.Sprintf("%02d", isoWeek),
		"{Q}", fmt.Sprintf("%d", quarter(d)),
	)
	return r.Replace(pattern)
}

// PeriodStart returns the first day of the period of type t containing d.
// Weeks start on Monday.
func PeriodStart(t NoteType, d civil.Date) civil.Date {
	switch t {
	case Weekly:
		offset := (int(d.In(time.UTC).Weekday()) + 6) % 7
		return d.AddDays(-offset)
	case Monthly:
		return civil.Date{Year: d.Year, Month: d.Month, Day: 1}
	case Quarterly:
		return civil.Date{Year: d.Year, Month: time.Month((quarter(d)-1)*3 + 1), Day: 1}
	case Yearly:
		return civil.Date{Year: d.Year, Month: time.January, Day: 1}
	default:
		return d
	}
}

func quarter(d civil.Date) int {
	return (int(d.Month)-1)/3 + 1
}
