package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Fialia9363/fialiaoi-cpp/internal/highlight"
	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
	"github.com/Fialia9363/fialiaoi-cpp/internal/refresh"
	"github.com/Fialia9363/fialiaoi-cpp/internal/runner"
	"github.com/Fialia9363/fialiaoi-cpp/internal/symbols"
)

// ExitError carries a run's non-zero exit status out of Execute.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var highlightCmd = &cobra.Command{
	Use:    "highlight <file>",
	Short:  "Print a file with syntax highlighting",
	Args:   cobra.ExactArgs(1),
	PreRun: startStderrLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := languageFor(cmd, args[0])
		if err != nil {
			return err
		}
		color, _ := cmd.Flags().GetString("color")
		profile, err := colorProfile(color, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return printHighlighted(cmd.OutOrStdout(), afero.NewOsFs(), args[0], l, highlight.NewPainter(cfg.Theme), profile)
	},
}

var symbolsCmd = &cobra.Command{
	Use:    "symbols <file>",
	Short:  "List the function definitions found in a file",
	Args:   cobra.ExactArgs(1),
	PreRun: startStderrLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := languageFor(cmd, args[0])
		if err != nil {
			return err
		}
		return printSymbols(cmd.OutOrStdout(), afero.NewOsFs(), args[0], l)
	},
}

var runCmd = &cobra.Command{
	Use:    "run <file>",
	Short:  "Compile and run a file, printing its output",
	Args:   cobra.ExactArgs(1),
	PreRun: startStderrLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := languageFor(cmd, args[0])
		if err != nil {
			return err
		}
		provider := startTracing(cfg)
		defer stopTracing(provider)

		cmd.SilenceUsage = true
		return runFile(cmd.Context(), cmd.OutOrStdout(), newRunner(cfg, provider), args[0], l)
	},
}

func init() {
	highlightCmd.Flags().String("color", "auto", "color output: auto, always or never")
	rootCmd.AddCommand(highlightCmd, symbolsCmd, runCmd)
}

// colorProfile maps the --color flag to a termenv profile.
func colorProfile(mode string, w io.Writer) (termenv.Profile, error) {
	switch mode {
	case "always":
		return termenv.TrueColor, nil
	case "never":
		return termenv.Ascii, nil
	case "auto", "":
		if f, ok := w.(*os.File); ok {
			return termenv.NewOutput(f).Profile, nil
		}
		return termenv.Ascii, nil
	default:
		return termenv.Ascii, fmt.Errorf("--color must be auto, always or never, got %q", mode)
	}
}

func readSource(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// printHighlighted writes path with the paint plan applied under profile.
func printHighlighted(w io.Writer, fs afero.Fs, path string, l lang.Language, painter *highlight.Painter, profile termenv.Profile) error {
	src, err := readSource(fs, path)
	if err != nil {
		return err
	}
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(profile)
	defer lipgloss.SetColorProfile(prev)

	res := refresh.Run(src, l, painter)
	if res.Degraded > 0 {
		log.Debug(log.CatRefresh, "Tokens recovered as other", "count", res.Degraded)
	}
	_, err = io.WriteString(w, highlight.Render(src, res.Ranges))
	return err
}

// printSymbols writes one "line<TAB>name" row per definition.
func printSymbols(w io.Writer, fs afero.Fs, path string, l lang.Language) error {
	src, err := readSource(fs, path)
	if err != nil {
		return err
	}
	syms := symbols.Scan(src, l)
	log.Debug(log.CatRefresh, "Symbols scanned", "path", path, "count", len(syms))
	for _, sym := range syms {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", sym.Line, sym.Name); err != nil {
			return err
		}
	}
	return nil
}

// runFile runs path and copies its output to w. A failed compile or a
// non-zero exit becomes an ExitError.
func runFile(ctx context.Context, w io.Writer, r *runner.Runner, path string, l lang.Language) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := r.Run(ctx, path, l)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, res.Output); err != nil {
		return err
	}
	if !res.Success {
		code := res.ExitCode
		if code == 0 {
			code = 1
		}
		return &ExitError{Code: code}
	}
	return nil
}
