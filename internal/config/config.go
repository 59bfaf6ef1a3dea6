// Package config provides configuration types and defaults for fialiaoi.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Fialia9363/fialiaoi-cpp/internal/highlight"
	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/tracing"
)

// Config holds all configuration options for fialiaoi.
type Config struct {
	// Language is the active language: "c++" or "python".
	Language string `mapstructure:"language" yaml:"language"`
	// Root is the file browser root. Empty means the working directory.
	Root    string          `mapstructure:"root" yaml:"root"`
	Editor  EditorConfig    `mapstructure:"editor" yaml:"editor"`
	Theme   highlight.Theme `mapstructure:"theme" yaml:"theme"`
	Run     RunConfig       `mapstructure:"run" yaml:"run"`
	Watch   WatchConfig     `mapstructure:"watch" yaml:"watch"`
	Tree    TreeConfig      `mapstructure:"tree" yaml:"tree"`
	UI      UIConfig        `mapstructure:"ui" yaml:"ui"`
	Tracing tracing.Config  `mapstructure:"tracing" yaml:"tracing"`
}

// EditorConfig holds editing behavior options.
type EditorConfig struct {
	TabWidth   int  `mapstructure:"tab_width" yaml:"tab_width"`
	AutoIndent bool `mapstructure:"auto_indent" yaml:"auto_indent"` // Copy leading whitespace on Enter
	AutoPair   bool `mapstructure:"auto_pair" yaml:"auto_pair"`     // Close ( [ { " ' automatically
}

// RunConfig holds the compiler and interpreter used by the run action.
type RunConfig struct {
	CppCompiler string        `mapstructure:"cpp_compiler" yaml:"cpp_compiler"`
	CppFlags    []string      `mapstructure:"cpp_flags" yaml:"cpp_flags,omitempty"`
	Python      string        `mapstructure:"python" yaml:"python"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// WatchConfig controls reloading the open file when it changes on disk.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// TreeConfig controls the file browser.
type TreeConfig struct {
	CacheTTL   time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	ShowHidden bool          `mapstructure:"show_hidden" yaml:"show_hidden"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	MarkdownStyle string `mapstructure:"markdown_style" yaml:"markdown_style"` // "dark" (default) or "light"
	Accent        string `mapstructure:"accent" yaml:"accent,omitempty"`       // Focused pane border, directories
	Muted         string `mapstructure:"muted" yaml:"muted,omitempty"`         // Line numbers, hints, borders
	ShowStatus    bool   `mapstructure:"show_status" yaml:"show_status"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Language: "c++",
		Root:     "",
		Editor: EditorConfig{
			TabWidth:   4,
			AutoIndent: true,
			AutoPair:   true,
		},
		Theme: highlight.DefaultTheme(),
		Run: RunConfig{
			CppCompiler: "g++",
			Python:      "python",
			Timeout:     30 * time.Second,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
		Tree: TreeConfig{
			CacheTTL:   5 * time.Second,
			ShowHidden: false,
		},
		UI: UIConfig{
			MarkdownStyle: "dark",
			ShowStatus:    true,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Lang returns the configured language.
func (c Config) Lang() (lang.Language, error) {
	return lang.Parse(c.Language)
}

// DefaultTracesFilePath returns the trace file used when tracing.file_path is empty.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fialiaoi", "traces", "traces.jsonl")
	}
	return filepath.Join(home, ".config", "fialiaoi", "traces", "traces.jsonl")
}

// Validate checks the configuration for errors.
func Validate(c Config) error {
	if _, err := c.Lang(); err != nil {
		return fmt.Errorf("language: %w", err)
	}
	if c.Editor.TabWidth < 1 || c.Editor.TabWidth > 16 {
		return fmt.Errorf("editor.tab_width must be between 1 and 16, got %d", c.Editor.TabWidth)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("run.timeout must not be negative, got %s", c.Run.Timeout)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	switch c.UI.MarkdownStyle {
	case "", "dark", "light", "notty":
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", c.UI.MarkdownStyle)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

const templateHeader = `# fialiaoi configuration
#
# language: c++ or python
# theme colors accept hex ("#FFA500") or ANSI numbers ("208");
# an empty color leaves that category unstyled.
# tracing.exporter: none, file, stdout or otlp

`

// DefaultConfigTemplate returns the YAML written for a fresh install.
func DefaultConfigTemplate() (string, error) {
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}
	return templateHeader + string(data), nil
}
