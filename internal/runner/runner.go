// Package runner compiles and runs the open file with the toolchain for its
// language, capturing combined output for the console pane.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
	"github.com/Fialia9363/fialiaoi-cpp/internal/tracing"
)

// ErrNoPath is returned when asked to run a buffer that has not been saved.
var ErrNoPath = errors.New("nothing to run: file has no path")

// CommandFactoryFunc creates an exec.Cmd. Tests swap it to avoid real toolchains.
type CommandFactoryFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Stage names the step that produced a Result.
type Stage string

const (
	StageCompile Stage = "compile"
	StageExecute Stage = "execute"
)

// Result is the outcome of one run.
type Result struct {
	Output   string
	Success  bool
	ExitCode int
	Stage    Stage
	Duration time.Duration
}

// Options configures the toolchain.
type Options struct {
	CppCompiler string
	CppFlags    []string
	Python      string
	Timeout     time.Duration
}

// Runner executes source files.
type Runner struct {
	opts           Options
	tracer         trace.Tracer
	commandFactory CommandFactoryFunc
	tempDir        string
}

// Option configures a Runner.
type Option func(*Runner)

// WithTracer records compile and execute spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithCommandFactory replaces exec.CommandContext.
func WithCommandFactory(fn CommandFactoryFunc) Option {
	return func(r *Runner) { r.commandFactory = fn }
}

// WithTempDir sets where compiled executables are written.
func WithTempDir(dir string) Option {
	return func(r *Runner) { r.tempDir = dir }
}

// New creates a Runner. Empty toolchain names fall back to g++ and python.
func New(opts Options, options ...Option) *Runner {
	if opts.CppCompiler == "" {
		opts.CppCompiler = "g++"
	}
	if opts.Python == "" {
		opts.Python = "python"
	}
	r := &Runner{
		opts:           opts,
		tracer:         noop.NewTracerProvider().Tracer("runner"),
		commandFactory: exec.CommandContext,
		tempDir:        os.TempDir(),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run executes path as language l. A non-nil error means the toolchain could
// not be started; failed compiles and non-zero exits are reported in Result.
func (r *Runner) Run(ctx context.Context, path string, l lang.Language) (Result, error) {
	if path == "" {
		return Result{}, ErrNoPath
	}
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	ctx, span := r.tracer.Start(ctx, tracing.SpanRun, trace.WithAttributes(
		attribute.String(tracing.AttrLanguage, l.String()),
		attribute.String(tracing.AttrFilePath, path),
	))
	defer span.End()

	start := time.Now()
	var (
		res Result
		err error
	)
	switch l {
	case lang.Cpp:
		res, err = r.runCpp(ctx, path)
	case lang.Python:
		res, err = r.execute(ctx, r.opts.Python, path)
	default:
		return Result{Output: "unknown language", Stage: StageExecute}, nil
	}
	res.Duration = time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatRun, "Run failed to start", err, "path", path, "language", l.String())
		return res, err
	}
	span.SetAttributes(attribute.Int(tracing.AttrExitCode, res.ExitCode))
	if !res.Success {
		span.SetStatus(codes.Error, string(res.Stage)+" failed")
	}
	log.Info(log.CatRun, "Run finished", "path", path, "stage", string(res.Stage),
		"exit", res.ExitCode, "duration", res.Duration.String())
	return res, nil
}

func (r *Runner) runCpp(ctx context.Context, path string) (Result, error) {
	exe := filepath.Join(r.tempDir, "fialiaoi-"+uuid.New().String())
	if runtime.GOOS == "windows" {
		exe += ".exe"
	}
	defer func() { _ = os.Remove(exe) }()

	args := append(append([]string{}, r.opts.CppFlags...), path, "-o", exe)
	compiled, err := r.step(ctx, tracing.SpanCompile, StageCompile, r.opts.CppCompiler, args...)
	if err != nil || !compiled.Success {
		return compiled, err
	}
	return r.execute(ctx, exe)
}

func (r *Runner) execute(ctx context.Context, name string, args ...string) (Result, error) {
	return r.step(ctx, tracing.SpanExecute, StageExecute, name, args...)
}

// step runs one process and folds its stdout and stderr into a Result.
func (r *Runner) step(ctx context.Context, spanName string, stage Stage, name string, args ...string) (Result, error) {
	ctx, span := r.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String(tracing.AttrCommand, name),
	))
	defer span.End()

	cmd := r.commandFactory(ctx, name, args...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stage: stage}
	if stage == StageCompile {
		res.Output = stderr.String()
	} else {
		res.Output = stdout.String() + stderr.String()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Success = true
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if ctx.Err() != nil {
			res.Output += fmt.Sprintf("\n%s: %v", stage, ctx.Err())
		}
	default:
		span.RecordError(err)
		return res, fmt.Errorf("starting %s: %w", name, err)
	}
	span.SetAttributes(attribute.Int(tracing.AttrExitCode, res.ExitCode))
	return res, nil
}
