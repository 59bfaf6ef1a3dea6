package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/tracing"
)

// shellToolchain stands in for g++ and python: "compiling" copies the
// source (a shell script) to the output path, and "python" runs it with sh.
func shellToolchain(compileFails bool) CommandFactoryFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		switch name {
		case "g++":
			if compileFails {
				return exec.CommandContext(ctx, "sh", "-c", `echo "main.cpp:1: error: expected ';'" >&2; exit 1`)
			}
			// args: <src> -o <exe>
			return exec.CommandContext(ctx, "sh", append([]string{"-c", `cp "$1" "$3" && chmod +x "$3"`, "sh"}, args...)...)
		case "python":
			return exec.CommandContext(ctx, "sh", args...)
		default:
			return exec.CommandContext(ctx, name, args...)
		}
	}
}

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o644))
	return path
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestRun_NoPath(t *testing.T) {
	_, err := New(Options{}).Run(context.Background(), "", lang.Cpp)
	require.ErrorIs(t, err, ErrNoPath)
}

func TestRun_CppCompilesThenExecutes(t *testing.T) {
	skipOnWindows(t)
	src := writeScript(t, "main.cpp", "echo out\necho err >&2\n")
	tmp := t.TempDir()

	r := New(Options{}, WithCommandFactory(shellToolchain(false)), WithTempDir(tmp))
	res, err := r.Run(context.Background(), src, lang.Cpp)

	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, StageExecute, res.Stage)
	require.Equal(t, "out\nerr\n", res.Output, "stdout then stderr")

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Empty(t, entries, "build artifact removed")
}

func TestRun_CppCompileFailure(t *testing.T) {
	skipOnWindows(t)
	src := writeScript(t, "main.cpp", "echo never\n")

	r := New(Options{}, WithCommandFactory(shellToolchain(true)), WithTempDir(t.TempDir()))
	res, err := r.Run(context.Background(), src, lang.Cpp)

	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, StageCompile, res.Stage)
	require.Equal(t, 1, res.ExitCode)
	require.Contains(t, res.Output, "error: expected ';'")
	require.NotContains(t, res.Output, "never")
}

func TestRun_PythonNonZeroExit(t *testing.T) {
	skipOnWindows(t)
	src := writeScript(t, "a.py", "echo partial\nexit 3\n")

	r := New(Options{}, WithCommandFactory(shellToolchain(false)))
	res, err := r.Run(context.Background(), src, lang.Python)

	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 3, res.ExitCode)
	require.Equal(t, "partial\n", res.Output)
}

func TestRun_MissingToolchainIsError(t *testing.T) {
	src := writeScript(t, "a.py", "")

	r := New(Options{Python: "fialiaoi-no-such-interpreter"})
	_, err := r.Run(context.Background(), src, lang.Python)

	require.Error(t, err)
	require.Contains(t, err.Error(), "fialiaoi-no-such-interpreter")
}

func TestRun_UnknownLanguage(t *testing.T) {
	res, err := New(Options{}).Run(context.Background(), "/x", lang.Language(9))
	require.NoError(t, err)
	require.Equal(t, "unknown language", res.Output)
	require.False(t, res.Success)
}

func TestRun_Timeout(t *testing.T) {
	skipOnWindows(t)
	src := writeScript(t, "slow.py", "exec sleep 5\n")

	r := New(Options{Timeout: 100 * time.Millisecond}, WithCommandFactory(shellToolchain(false)))
	start := time.Now()
	res, err := r.Run(context.Background(), src, lang.Python)

	require.NoError(t, err)
	require.False(t, res.Success)
	require.Less(t, time.Since(start), 4*time.Second)
	require.Contains(t, res.Output, "deadline exceeded")
}

func TestRun_RecordsSpans(t *testing.T) {
	skipOnWindows(t)
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	src := writeScript(t, "main.cpp", "echo hi\n")
	r := New(Options{},
		WithCommandFactory(shellToolchain(false)),
		WithTempDir(t.TempDir()),
		WithTracer(provider.Tracer("test")),
	)
	_, err := r.Run(context.Background(), src, lang.Cpp)
	require.NoError(t, err)

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	require.ElementsMatch(t, []string{tracing.SpanRun, tracing.SpanCompile, tracing.SpanExecute}, names)
}
