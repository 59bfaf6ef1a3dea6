package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
)

func loadConfigFromYAML(t *testing.T, yaml string) Config {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0644))

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))

	l, err := cfg.Lang()
	require.NoError(t, err)
	require.Equal(t, lang.Cpp, l)
	require.Equal(t, "g++", cfg.Run.CppCompiler)
	require.Equal(t, "python", cfg.Run.Python)
	require.True(t, cfg.Editor.AutoIndent)
	require.True(t, cfg.Editor.AutoPair)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unsupported language", func(c *Config) { c.Language = "go" }, "unsupported language"},
		{"tab width zero", func(c *Config) { c.Editor.TabWidth = 0 }, "editor.tab_width"},
		{"negative timeout", func(c *Config) { c.Run.Timeout = -time.Second }, "run.timeout"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }, "watch.debounce"},
		{"markdown style", func(c *Config) { c.UI.MarkdownStyle = "sepia" }, "ui.markdown_style"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "tracing.sample_rate"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
		{"otlp endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
			c.Tracing.OTLPEndpoint = ""
		}, "tracing.otlp_endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	cfg := loadConfigFromYAML(t, `
language: python
editor:
  tab_width: 2
  auto_pair: false
theme:
  keyword: "#FF0000"
  comment: ""
run:
  python: python3
  timeout: 5s
watch:
  debounce: 50ms
`)

	l, err := cfg.Lang()
	require.NoError(t, err)
	require.Equal(t, lang.Python, l)
	require.Equal(t, 2, cfg.Editor.TabWidth)
	require.False(t, cfg.Editor.AutoPair)
	require.True(t, cfg.Editor.AutoIndent, "unset keys keep their defaults")
	require.Equal(t, "#FF0000", cfg.Theme.Keyword)
	require.Equal(t, "", cfg.Theme.Comment)
	require.Equal(t, "#00FFFF", cfg.Theme.FunctionName)
	require.Equal(t, "python3", cfg.Run.Python)
	require.Equal(t, 5*time.Second, cfg.Run.Timeout)
	require.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce)
}

func TestDefaultConfigTemplate_LoadsAsDefaults(t *testing.T) {
	content, err := DefaultConfigTemplate()
	require.NoError(t, err)
	require.Contains(t, content, "# fialiaoi configuration")

	cfg := loadConfigFromYAML(t, content)
	want := Defaults()

	require.Equal(t, want.Language, cfg.Language)
	require.Equal(t, want.Editor, cfg.Editor)
	require.Equal(t, want.Theme, cfg.Theme)
	require.Equal(t, want.Run.Timeout, cfg.Run.Timeout)
	require.Equal(t, want.Watch, cfg.Watch)
	require.Equal(t, want.Tree, cfg.Tree)
	require.Equal(t, want.Tracing.Exporter, cfg.Tracing.Exporter)
	require.NoError(t, Validate(cfg))
}

func TestDefaultTracesFilePath(t *testing.T) {
	require.Equal(t, "traces.jsonl", filepath.Base(DefaultTracesFilePath()))
}
