package highlight

import (
	"iter"
	"strings"
	"unicode/utf8"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
)

// lexerNames are the chroma registry names for each supported language.
var lexerNames = map[lang.Language]string{
	lang.Cpp:    "cpp",
	lang.Python: "python",
}

// tokeniseOptions keep chroma from rewriting line endings, so its output
// lines up byte-for-byte with the buffer.
var tokeniseOptions = &chroma.TokeniseOptions{State: "root", EnsureLF: false}

// Result is a fully collected tokenization.
type Result struct {
	Tokens []Token
	// Degraded counts spans that were recovered as Other because the lexer
	// failed or its output did not match the buffer.
	Degraded int
}

// lexerFor returns the coalescing chroma lexer for l, or nil.
func lexerFor(l lang.Language) chroma.Lexer {
	name, ok := lexerNames[l]
	if !ok {
		return nil
	}
	lexer := lexers.Get(name)
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

// Tokens returns the token sequence for src. The sequence is lazy and
// restartable: every range over it lexes src again from the start.
func Tokens(src string, l lang.Language) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		tokenize(src, l, yield)
	}
}

// Tokenize collects the token sequence for src.
func Tokenize(src string, l lang.Language) []Token {
	return Analyze(src, l).Tokens
}

// Analyze tokenizes src and reports how many spans had to be recovered.
func Analyze(src string, l lang.Language) Result {
	var res Result
	res.Degraded = tokenize(src, l, func(t Token) bool {
		res.Tokens = append(res.Tokens, t)
		return true
	})
	if res.Degraded > 0 {
		log.Debug(log.CatRefresh, "Tokenization degraded",
			"language", l.String(),
			"spans", res.Degraded,
			"bytes", len(src))
	}
	return res
}

// tokenize walks the chroma stream, emitting buffer-aligned tokens through
// yield. It returns the number of degraded spans.
func tokenize(src string, l lang.Language, yield func(Token) bool) int {
	if src == "" {
		return 0
	}

	lexer := lexerFor(l)
	if lexer == nil {
		yield(Token{Category: Other, Text: src, Start: 0, End: len(src)})
		return 1
	}

	it, err := lexer.Tokenise(tokeniseOptions, src)
	if err != nil {
		log.ErrorErr(log.CatRefresh, "Lexer failed", err, "language", l.String())
		yield(Token{Category: Other, Text: src, Start: 0, End: len(src)})
		return 1
	}

	degraded := 0
	pos := 0
	emit := func(cat Category, end int) bool {
		t := Token{Category: cat, Text: src[pos:end], Start: pos, End: end}
		pos = end
		return yield(t)
	}

	for tok := it(); tok != chroma.EOF; tok = it() {
		if pos == len(src) {
			// Anything left is text the lexer added (a trailing newline).
			break
		}
		if tok.Value == "" {
			continue
		}

		cat := categoryOf(tok.Type)
		if tok.Type == chroma.Error {
			degraded++
		}

		for val := tok.Value; val != "" && pos < len(src); {
			rest := src[pos:]
			switch {
			case strings.HasPrefix(rest, val):
				if !emit(cat, pos+len(val)) {
					return degraded
				}
				val = ""
			case strings.HasPrefix(val, rest):
				if !emit(cat, len(src)) {
					return degraded
				}
				val = ""
			default:
				if n := commonPrefixLen(rest, val); n > 0 {
					if !emit(cat, pos+n) {
						return degraded
					}
					val = val[n:]
					continue
				}
				// The lexer reads invalid UTF-8 as U+FFFD: the byte becomes
				// Other and matching resumes after the replacement.
				if r, size := utf8.DecodeRuneInString(rest); r == utf8.RuneError && size == 1 &&
					strings.HasPrefix(val, replacementChar) {
					if tok.Type != chroma.Error {
						degraded++
					}
					if !emit(Other, pos+1) {
						return degraded
					}
					val = val[len(replacementChar):]
					continue
				}
				// Lost alignment for good: the tail becomes Other.
				degraded++
				emit(Other, len(src))
				return degraded
			}
		}
	}

	if pos < len(src) {
		degraded++
		emit(Other, len(src))
	}
	return degraded
}

const replacementChar = string(utf8.RuneError)

// commonPrefixLen is the byte length of the longest shared prefix of a and b
// that ends on a rune boundary. Invalid bytes never match.
func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) {
		ra, sa := utf8.DecodeRuneInString(a[n:])
		rb, sb := utf8.DecodeRuneInString(b[n:])
		if ra != rb || sa != sb || (ra == utf8.RuneError && sa == 1) {
			break
		}
		n += sa
	}
	return n
}
