// Package lang defines the languages the editor can highlight, scan and run.
package lang

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned by Parse for a language the editor does not know.
var ErrUnsupported = errors.New("unsupported language")

// Language selects the tokenizer, the symbol pattern and the run command.
type Language int

const (
	Cpp Language = iota
	Python
)

// All lists the supported languages in menu order.
var All = []Language{Cpp, Python}

// String returns the display name used in the status bar and config.
func (l Language) String() string {
	switch l {
	case Cpp:
		return "C++"
	case Python:
		return "Python"
	default:
		return fmt.Sprintf("Language(%d)", int(l))
	}
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == Cpp || l == Python
}

// Extension returns the default file extension, used when saving an unnamed buffer.
func (l Language) Extension() string {
	if l == Python {
		return ".py"
	}
	return ".cpp"
}

// Next cycles to the following language (C++ -> Python -> C++).
func (l Language) Next() Language {
	if l == Cpp {
		return Python
	}
	return Cpp
}

// Parse maps a configuration or flag value to a Language.
func Parse(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c++", "cpp", "cxx":
		return Cpp, nil
	case "python", "py":
		return Python, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Language) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupported, int(l))
	}
	return []byte(strings.ToLower(l.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Language) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
