package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Fialia9363/fialiaoi-cpp/internal/app"
	"github.com/Fialia9363/fialiaoi-cpp/internal/config"
	"github.com/Fialia9363/fialiaoi-cpp/internal/document"
	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
	"github.com/Fialia9363/fialiaoi-cpp/internal/runner"
	"github.com/Fialia9363/fialiaoi-cpp/internal/tracing"
	"github.com/Fialia9363/fialiaoi-cpp/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in the editor.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".fialiaoi/config.yaml"

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "fialiaoi [file]",
	Short:   "A lightweight terminal editor for C++ and Python",
	Long:    `A terminal code editor with syntax highlighting, a symbol sidebar and one-key compile and run for C++ and Python.`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/fialiaoi/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"write a debug log to debug.log")
	rootCmd.PersistentFlags().StringP("language", "l", "",
		"language: c++ or python")
	rootCmd.Flags().StringP("root", "r", "",
		"directory shown in the file tree (default: current directory)")
	rootCmd.Flags().Bool("no-watch", false,
		"do not reload the open file when it changes on disk")

	// Bind flags to viper
	_ = viper.BindPFlag("language", rootCmd.PersistentFlags().Lookup("language"))
	_ = viper.BindPFlag("root", rootCmd.Flags().Lookup("root"))
}

// setDefaults registers every key so env and flag bindings see them.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("language", d.Language)
	v.SetDefault("root", d.Root)
	v.SetDefault("editor.tab_width", d.Editor.TabWidth)
	v.SetDefault("editor.auto_indent", d.Editor.AutoIndent)
	v.SetDefault("editor.auto_pair", d.Editor.AutoPair)
	v.SetDefault("theme.keyword", d.Theme.Keyword)
	v.SetDefault("theme.comment", d.Theme.Comment)
	v.SetDefault("theme.string", d.Theme.String)
	v.SetDefault("theme.function_name", d.Theme.FunctionName)
	v.SetDefault("run.cpp_compiler", d.Run.CppCompiler)
	v.SetDefault("run.cpp_flags", d.Run.CppFlags)
	v.SetDefault("run.python", d.Run.Python)
	v.SetDefault("run.timeout", d.Run.Timeout)
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("tree.cache_ttl", d.Tree.CacheTTL)
	v.SetDefault("tree.show_hidden", d.Tree.ShowHidden)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("ui.accent", d.UI.Accent)
	v.SetDefault("ui.muted", d.UI.Muted)
	v.SetDefault("ui.show_status", d.UI.ShowStatus)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

func initConfig() {
	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("FIALIAOI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .fialiaoi/config.yaml (current directory)
		// 2. ~/.config/fialiaoi/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "fialiaoi"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create the user default
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if home, herr := os.UserHomeDir(); herr == nil {
				defaultPath := filepath.Join(home, ".config", "fialiaoi", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	cfg = config.Defaults()
	_ = viper.Unmarshal(&cfg)
}

func debugEnabled() bool {
	return debug || os.Getenv("FIALIAOI_DEBUG") != ""
}

// startLogging enables the file logger in debug mode. The TUI owns the
// terminal, so logs go to debug.log.
func startLogging() func() {
	if !debugEnabled() {
		return func() {}
	}
	cleanup, err := log.InitWithTeaLog("debug.log", "fialiaoi")
	if err != nil {
		fmt.Fprintf(os.Stderr, "debug log unavailable: %v\n", err)
		return func() {}
	}
	log.Info(log.CatConfig, "Starting", "version", version, "config", viper.ConfigFileUsed())
	return cleanup
}

// startStderrLogging sends debug logs to the command's stderr. The headless
// commands use it as their PreRun.
func startStderrLogging(cmd *cobra.Command, _ []string) {
	if !debugEnabled() {
		return
	}
	log.InitWithWriter(cmd.ErrOrStderr(), log.LevelDebug)
	log.Debug(log.CatConfig, "Starting", "command", cmd.Name(), "config", viper.ConfigFileUsed())
}

// startTracing builds the tracer provider from the config.
func startTracing(c config.Config) *tracing.Provider {
	tc := c.Tracing
	if tc.Enabled && tc.Exporter == "file" && tc.FilePath == "" {
		tc.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tc)
	if err != nil {
		log.ErrorErr(log.CatTrace, "Tracing disabled", err)
		return tracing.Noop()
	}
	return provider
}

func stopTracing(p *tracing.Provider) {
	if !p.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "Flushing traces", err)
	}
}

func newRunner(c config.Config, p *tracing.Provider) *runner.Runner {
	return runner.New(runner.Options{
		CppCompiler: c.Run.CppCompiler,
		CppFlags:    c.Run.CppFlags,
		Python:      c.Run.Python,
		Timeout:     c.Run.Timeout,
	}, runner.WithTracer(p.Tracer()))
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	defer startLogging()()

	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		cfg.Watch.Enabled = false
	}
	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		cfg.Root = wd
	}

	provider := startTracing(cfg)
	defer stopTracing(provider)

	styles.ApplyTheme(cfg.UI.Accent, cfg.UI.Muted)
	zone.NewGlobal()

	var openPath string
	if len(args) == 1 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}
		openPath = abs
	}

	model := app.NewWithConfig(app.Services{
		FS:     afero.NewOsFs(),
		Config: &cfg,
		Runner: newRunner(cfg, provider),
		Tracer: provider.Tracer(),
	}, openPath)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, err := p.Run()

	// Clean up watcher resources
	if fm, ok := final.(app.Model); ok {
		if closeErr := fm.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// languageFor picks the language for a headless command: the flag, then the
// file extension, then the configured default.
func languageFor(cmd *cobra.Command, path string) (lang.Language, error) {
	if flag, _ := cmd.Flags().GetString("language"); flag != "" {
		return lang.Parse(flag)
	}
	if l, ok := document.DetectLanguage(path); ok {
		return l, nil
	}
	return cfg.Lang()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
