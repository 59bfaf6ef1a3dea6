// Package refresh runs the per-edit highlight and symbol refresh.
//
// Every edit re-derives everything from the current buffer snapshot:
// tokenize, paint, then scan. Nothing is memoized between runs, so running
// twice on the same buffer yields the same ranges and symbols.
package refresh

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Fialia9363/fialiaoi-cpp/internal/highlight"
	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
	"github.com/Fialia9363/fialiaoi-cpp/internal/symbols"
	"github.com/Fialia9363/fialiaoi-cpp/internal/tracing"
)

// State is the pipeline's run state.
type State int

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "refreshing"
	}
	return "idle"
}

// SymbolSink receives the symbol list of each run. The list replaces any
// previous one.
type SymbolSink interface {
	SetSymbols(syms []symbols.Symbol)
}

// Result is everything one run derives from a buffer.
type Result struct {
	Tokens   []highlight.Token
	Ranges   []highlight.StyledRange
	Symbols  []symbols.Symbol
	Degraded int
}

// Run is the pure form of the pipeline: (buffer, language) -> result.
func Run(src string, l lang.Language, painter *highlight.Painter) Result {
	tok := highlight.Analyze(src, l)
	return Result{
		Tokens:   tok.Tokens,
		Ranges:   painter.Plan(tok.Tokens),
		Symbols:  symbols.Scan(src, l),
		Degraded: tok.Degraded,
	}
}

// Pipeline drives refreshes for one editor. It is not safe for concurrent
// use; all calls happen on the UI event loop.
type Pipeline struct {
	painter  *highlight.Painter
	tracer   trace.Tracer
	language lang.Language
	state    State
	last     Result
	runs     int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTracer records a span per run.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithLanguage sets the initial language.
func WithLanguage(l lang.Language) Option {
	return func(p *Pipeline) {
		p.language = l
	}
}

// New creates a pipeline painting with painter.
func New(painter *highlight.Painter, opts ...Option) *Pipeline {
	p := &Pipeline{
		painter:  painter,
		tracer:   noop.NewTracerProvider().Tracer("noop"),
		language: lang.Cpp,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Language returns the language used by the next run.
func (p *Pipeline) Language() lang.Language {
	return p.language
}

// SetLanguage changes the language for subsequent runs.
func (p *Pipeline) SetLanguage(l lang.Language) {
	p.language = l
}

// State reports whether a run is in progress.
func (p *Pipeline) State() State {
	return p.state
}

// Last returns the result of the most recent run.
func (p *Pipeline) Last() Result {
	return p.last
}

// Runs returns how many refreshes have completed.
func (p *Pipeline) Runs() int {
	return p.runs
}

// OnEdit refreshes from src: tokens are painted onto surface, then symbols
// go to sink. Either may be nil. The run always completes.
func (p *Pipeline) OnEdit(ctx context.Context, src string, surface highlight.Surface, sink SymbolSink) Result {
	p.state = Refreshing
	defer func() { p.state = Idle }()

	start := time.Now()
	ctx, span := p.tracer.Start(ctx, tracing.SpanRefresh, trace.WithAttributes(
		attribute.String(tracing.AttrLanguage, p.language.String()),
		attribute.Int(tracing.AttrBufferBytes, len(src)),
	))
	defer span.End()

	var res Result

	_, tokSpan := p.tracer.Start(ctx, tracing.SpanTokenize)
	tok := highlight.Analyze(src, p.language)
	res.Tokens = tok.Tokens
	res.Degraded = tok.Degraded
	tokSpan.SetAttributes(
		attribute.Int(tracing.AttrTokens, len(res.Tokens)),
		attribute.Int(tracing.AttrDegraded, res.Degraded),
	)
	tokSpan.End()

	_, paintSpan := p.tracer.Start(ctx, tracing.SpanPaint)
	res.Ranges = p.painter.Plan(res.Tokens)
	if surface != nil {
		highlight.Apply(surface, res.Ranges)
	}
	paintSpan.SetAttributes(attribute.Int(tracing.AttrRanges, len(res.Ranges)))
	paintSpan.End()

	_, scanSpan := p.tracer.Start(ctx, tracing.SpanScan)
	res.Symbols = symbols.Scan(src, p.language)
	if sink != nil {
		sink.SetSymbols(res.Symbols)
	}
	scanSpan.SetAttributes(attribute.Int(tracing.AttrSymbols, len(res.Symbols)))
	scanSpan.End()

	p.last = res
	p.runs++

	log.Debug(log.CatRefresh, "Refreshed buffer",
		"language", p.language.String(),
		"bytes", len(src),
		"tokens", len(res.Tokens),
		"ranges", len(res.Ranges),
		"symbols", len(res.Symbols),
		"degraded", res.Degraded,
		"duration", time.Since(start))

	return res
}
