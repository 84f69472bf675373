// Package vault holds per-vault configuration and the mapping from periodic
// note types and calendar dates to note paths.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/jgcallah/cadence/internal/apperr"
	"github.com/jgcallah/cadence/internal/markdown"
	pkgconfig "github.com/jgcallah/cadence/pkg/config"
)

// ConfigDir is the vault-relative directory holding Cadence state.
const ConfigDir = ".cadence"

var mdPathRe = regexp.MustCompile(`\.md$`)

// Config is the contents of <vault>/.cadence/config.yaml.
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Sections SectionsConfig `yaml:"sections"`
}

// Validate validates the vault configuration.
func (c *Config) Validate() error {
	if err := c.Paths.Validate(); err != nil {
		return fmt.Errorf("paths: %w", err)
	}
	if err := c.Tasks.Validate(); err != nil {
		return fmt.Errorf("tasks: %w", err)
	}
	if err := c.Sections.Validate(); err != nil {
		return fmt.Errorf("sections: %w", err)
	}
	return nil
}

// PathsConfig holds the path pattern of each periodic note type, relative
// to the vault root. See Locator for the supported tokens.
type PathsConfig struct {
	Daily     string `yaml:"daily"`
	Weekly    string `yaml:"weekly"`
	Monthly   string `yaml:"monthly"`
	Quarterly string `yaml:"quarterly"`
	Yearly    string `yaml:"yearly"`
}

// Validate validates the path patterns.
func (c *PathsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Daily, validation.Required, validation.Match(mdPathRe)),
		validation.Field(&c.Weekly, validation.Match(mdPathRe)),
		validation.Field(&c.Monthly, validation.Match(mdPathRe)),
		validation.Field(&c.Quarterly, validation.Match(mdPathRe)),
		validation.Field(&c.Yearly, validation.Match(mdPathRe)),
	)
}

// TasksConfig holds task engine settings.
type TasksConfig struct {
	ScanDaysBack   int `yaml:"scan_days_back"`
	StaleAfterDays int `yaml:"stale_after_days"`
}

// Validate validates the task settings.
func (c *TasksConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ScanDaysBack, validation.Min(0), validation.Max(3660)),
		validation.Field(&c.StaleAfterDays, validation.Min(0)),
	)
}

// SectionsConfig names the headings Cadence writes under.
type SectionsConfig struct {
	Tasks string `yaml:"tasks"`
}

// Validate validates the section headings.
func (c *SectionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Tasks, validation.Required, validation.By(isHeading)),
	)
}

func isHeading(value any) error {
	s, _ := value.(string)
	if markdown.HeadingLevel(s) == 0 {
		return errors.New("must be a Markdown heading such as \"## Tasks\"")
	}
	return nil
}

// NewDefaultConfig returns a Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Daily:     "journal/daily/{YYYY}/{MM}/{YYYY}-{MM}-{DD}.md",
			Weekly:    "journal/weekly/{GGGG}/{GGGG}-W{WW}.md",
			Monthly:   "journal/monthly/{YYYY}/{YYYY}-{MM}.md",
			Quarterly: "journal/quarterly/{YYYY}/{YYYY}-Q{Q}.md",
			Yearly:    "journal/yearly/{YYYY}.md",
		},
		Tasks: TasksConfig{
			ScanDaysBack:   7,
			StaleAfterDays: 14,
		},
		Sections: SectionsConfig{
			Tasks: "## Tasks",
		},
	}
}

// ConfigPath returns the config file location for a vault.
func ConfigPath(vaultPath string) string {
	return filepath.Join(vaultPath, ConfigDir, "config.yaml")
}

// LoadConfig reads and validates the vault configuration. Fields missing
// from the file keep their defaults.
func LoadConfig(vaultPath string) (*Config, error) {
	path := ConfigPath(vaultPath)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (run 'cadence init')", apperr.ErrConfigNotFound, path)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault: marshal config: %w", err)
	}
	return out, nil
}
