// Package log is the editor's leveled, categorized logger. Nothing is logged
// unless --debug or FIALIAOI_DEBUG turns it on.
package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Category groups related log messages.
type Category string

const (
	CatConfig  Category = "config"  // Configuration loading/saving
	CatUI      Category = "ui"      // UI component updates
	CatRefresh Category = "refresh" // Highlight and symbol refresh pipeline
	CatRun     Category = "run"     // Compiler/interpreter invocation
	CatFS      Category = "fs"      // File reads, writes and directory listings
	CatWatcher Category = "watcher" // File watcher events
	CatTrace   Category = "trace"   // Tracing provider lifecycle
)

// Logger writes leveled lines to one writer. A nil global logger drops
// everything.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	minLevel Level
	now      func() time.Time
}

var defaultLogger *Logger

// InitWithTeaLog opens path through tea.LogToFile and logs every level to
// it. The returned func closes the file.
func InitWithTeaLog(path string, prefix string) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, err
	}
	defaultLogger = &Logger{writer: f, minLevel: LevelDebug, now: time.Now}
	return func() { _ = f.Close() }, nil
}

// InitWithWriter logs minLevel and above to w.
func InitWithWriter(w io.Writer, minLevel Level) {
	defaultLogger = &Logger{writer: w, minLevel: minLevel, now: time.Now}
}

// Reset drops the global logger.
func Reset() {
	defaultLogger = nil
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs at error level with err as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

func log(level Level, cat Category, msg string, fields ...any) {
	l := defaultLogger
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	// Format: 2026-10-14T10:45:00 [ERROR] [refresh] message key=value key2=value2
	var sb strings.Builder
	sb.WriteString(l.now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&sb, " [%s] [%s] %s", level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&sb, " %v=<missing>", fields[len(fields)-1])
	}
	sb.WriteString("\n")

	_, _ = io.WriteString(l.writer, sb.String())
}
