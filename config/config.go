package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"meshlog/strutil"

	"gopkg.in/yaml.v3"
)

// Emoji header modes.
const (
	EmojiAuto   = "auto"
	EmojiAlways = "always"
	EmojiNever  = "never"
)

// UI modes.
const (
	UIText  = "text"
	UITview = "tview"
)

// Config represents the complete analyzer configuration
type Config struct {
	Report  ReportConfig  `yaml:"report"`
	Outputs OutputsConfig `yaml:"outputs"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`

	// LoadedFrom is the file or directory the config was read from.
	LoadedFrom string `yaml:"-"`
}

// ReportConfig controls the text report
type ReportConfig struct {
	Emoji      string `yaml:"emoji"`
	MaxErrors  int    `yaml:"max_errors"`
	ErrorWidth int    `yaml:"error_width"`
}

// OutputsConfig names the files written after analysis. An empty path
// disables that output.
type OutputsConfig struct {
	CSV     string `yaml:"csv"`
	Plot    string `yaml:"plot"`
	JSON    string `yaml:"json"`
	SQLite  string `yaml:"sqlite"`
	Metrics string `yaml:"metrics"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	File       string `yaml:"file"`
	Timestamps bool   `yaml:"timestamps"`
}

// UIConfig selects how the report is shown
type UIConfig struct {
	Mode string `yaml:"mode"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Report: ReportConfig{
			Emoji:      EmojiAuto,
			MaxErrors:  10,
			ErrorWidth: 80,
		},
		Outputs: OutputsConfig{
			CSV:  "mesh_data.csv",
			Plot: "mesh_analysis.png",
		},
		Logging: LoggingConfig{Timestamps: true},
		UI:      UIConfig{Mode: UIText},
	}
}

// Load reads a YAML file, or every *.yaml/*.yml file of a directory in name
// order, on top of Default. Keys missing from the files keep their defaults.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config path: %w", err)
	}
	files := []string{path}
	if info.IsDir() {
		files, err = yamlFiles(path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no YAML files in config directory %s", path)
		}
	}

	cfg := Default()
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", filepath.Base(file), err)
		}
	}
	cfg.LoadedFrom = path
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (c *Config) normalize() {
	c.Report.Emoji = strutil.NormalizeLower(c.Report.Emoji)
	c.UI.Mode = strutil.NormalizeLower(c.UI.Mode)
	if c.Report.Emoji == "" {
		c.Report.Emoji = EmojiAuto
	}
	if c.UI.Mode == "" {
		c.UI.Mode = UIText
	}
	c.Outputs.CSV = strings.TrimSpace(c.Outputs.CSV)
	c.Outputs.Plot = strings.TrimSpace(c.Outputs.Plot)
	c.Outputs.JSON = strings.TrimSpace(c.Outputs.JSON)
	c.Outputs.SQLite = strings.TrimSpace(c.Outputs.SQLite)
	c.Outputs.Metrics = strings.TrimSpace(c.Outputs.Metrics)
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

// Validate rejects values the analyzer cannot honor.
func (c *Config) Validate() error {
	switch c.Report.Emoji {
	case EmojiAuto, EmojiAlways, EmojiNever:
	default:
		return fmt.Errorf("report.emoji must be one of auto, always, never (got %q)", c.Report.Emoji)
	}
	if c.Report.MaxErrors < 0 {
		return fmt.Errorf("report.max_errors must be >= 0 (got %d)", c.Report.MaxErrors)
	}
	if c.Report.ErrorWidth <= 0 {
		return fmt.Errorf("report.error_width must be > 0 (got %d)", c.Report.ErrorWidth)
	}
	switch c.UI.Mode {
	case UIText, UITview:
	default:
		return fmt.Errorf("ui.mode must be text or tview (got %q)", c.UI.Mode)
	}
	return nil
}

// Print displays the configuration
func (c *Config) Print(w io.Writer) {
	source := c.LoadedFrom
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(w, "Config: %s\n", source)
	fmt.Fprintf(w, "Report: emoji=%s max_errors=%d error_width=%d\n", c.Report.Emoji, c.Report.MaxErrors, c.Report.ErrorWidth)
	var outs []string
	for _, o := range []struct{ name, path string }{
		{"csv", c.Outputs.CSV},
		{"plot", c.Outputs.Plot},
		{"json", c.Outputs.JSON},
		{"sqlite", c.Outputs.SQLite},
		{"metrics", c.Outputs.Metrics},
	} {
		if o.path != "" {
			outs = append(outs, o.name+"="+o.path)
		}
	}
	if len(outs) == 0 {
		outs = append(outs, "(none)")
	}
	fmt.Fprintf(w, "Outputs: %s\n", strings.Join(outs, ", "))
	if c.Logging.File != "" {
		fmt.Fprintf(w, "Log file: %s\n", c.Logging.File)
	}
	fmt.Fprintf(w, "UI: %s\n", c.UI.Mode)
}
