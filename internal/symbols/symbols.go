// Package symbols extracts function and definition names for the sidebar.
//
// This is a heuristic extractor, not a parser: one regular expression per
// language, applied in a single left-to-right pass. The C++ pattern reads
// "type name(params) {" and so also matches control statements such as
// "else if (x) {", and misses templates, macros and multi-line signatures.
package symbols

import (
	"time"

	"github.com/dlclark/regexp2"

	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
)

// Symbol is one sidebar entry.
type Symbol struct {
	Name string
	// Line is the 1-based line of the match start.
	Line int
}

// MatchTimeout bounds a single pattern search on pathological input.
const MatchTimeout = 250 * time.Millisecond

// Patterns by language. The first group is the symbol name.
const (
	CppPattern    = `\b\w+\s+(\w+)\s*\([^)]*\)\s*\{`
	PythonPattern = `def\s+(\w+)\s*\(`
)

var patterns = map[lang.Language]*regexp2.Regexp{
	lang.Cpp:    compile(CppPattern),
	lang.Python: compile(PythonPattern),
}

func compile(expr string) *regexp2.Regexp {
	re := regexp2.MustCompile(expr, regexp2.None)
	re.MatchTimeout = MatchTimeout
	return re
}

// Scan returns every definition name in src, in source order. Duplicates are
// kept. An empty result is not an error.
func Scan(src string, l lang.Language) []Symbol {
	re, ok := patterns[l]
	if !ok || src == "" {
		return nil
	}

	runes := []rune(src)
	var (
		out     []Symbol
		line    = 1
		scanned = 0
	)

	m, err := re.FindRunesMatch(runes)
	for m != nil {
		// Match offsets are rune indices.
		for ; scanned < m.Index; scanned++ {
			if runes[scanned] == '\n' {
				line++
			}
		}
		if g := m.GroupByNumber(1); g != nil && len(g.Captures) > 0 {
			out = append(out, Symbol{Name: g.String(), Line: line})
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		// Keep what was found before the timeout.
		log.Warn(log.CatRefresh, "Symbol scan stopped early",
			"language", l.String(),
			"found", len(out),
			"error", err.Error())
	}
	return out
}

// Names returns just the names, in order.
func Names(syms []Symbol) []string {
	if len(syms) == 0 {
		return nil
	}
	names := make([]string, len(syms))
	for i, s := range syms {
		names[i] = s.Name
	}
	return names
}
