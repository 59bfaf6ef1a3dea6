package tracing

// Span names.
const (
	SpanRefresh  = "refresh"
	SpanTokenize = "refresh.tokenize"
	SpanPaint    = "refresh.paint"
	SpanScan     = "refresh.scan"
	SpanRun      = "run"
	SpanCompile  = "run.compile"
	SpanExecute  = "run.execute"
)

// Span attribute keys.
const (
	AttrLanguage    = "editor.language"
	AttrBufferBytes = "buffer.bytes"
	AttrTokens      = "refresh.tokens"
	AttrRanges      = "refresh.ranges"
	AttrSymbols     = "refresh.symbols"
	AttrDegraded    = "refresh.degraded"
	AttrFilePath    = "file.path"
	AttrCommand     = "run.command"
	AttrExitCode    = "run.exit_code"
)
