// Package document holds the editor buffer's on-disk identity: its path,
// the text last loaded or saved, and the language inferred from its name.
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"

	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
)

// ErrNoPath is returned when saving a document that was never given a path.
var ErrNoPath = errors.New("document has no path")

// Document tracks one file. The zero value is an unnamed, empty buffer.
type Document struct {
	fs    afero.Fs
	path  string
	saved string
}

// New creates an unnamed document backed by fs.
func New(fs afero.Fs) *Document {
	return &Document{fs: fs}
}

// Open reads path from fs.
func Open(fs afero.Fs, path string) (*Document, string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	text := string(data)
	log.Info(log.CatFS, "Opened file", "path", path, "bytes", len(data))
	return &Document{fs: fs, path: path, saved: text}, text, nil
}

// Path returns the file path, or "" for an unnamed buffer.
func (d *Document) Path() string { return d.path }

// Name returns the base name shown in the status bar.
func (d *Document) Name() string {
	if d.path == "" {
		return "[untitled]"
	}
	return filepath.Base(d.path)
}

// SetPath names an unnamed buffer, or renames for save-as.
func (d *Document) SetPath(path string) { d.path = path }

// Saved returns the text as of the last open, save or reload.
func (d *Document) Saved() string { return d.saved }

// Dirty reports whether text differs from what is on disk.
func (d *Document) Dirty(text string) bool { return text != d.saved }

// Save writes text to the document's path.
func (d *Document) Save(text string) error {
	if d.path == "" {
		return ErrNoPath
	}
	if dir := filepath.Dir(d.path); dir != "." {
		if err := d.fs.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(d.fs, d.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", d.path, err)
	}
	d.saved = text
	log.Info(log.CatFS, "Saved file", "path", d.path, "bytes", len(text))
	return nil
}

// Reload re-reads the file, returning the new contents.
func (d *Document) Reload() (string, error) {
	if d.path == "" {
		return "", ErrNoPath
	}
	data, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", d.path, err)
	}
	d.saved = string(data)
	return d.saved, nil
}

// Exists reports whether the document's path is present on disk.
func (d *Document) Exists() bool {
	if d.path == "" {
		return false
	}
	_, err := d.fs.Stat(d.path)
	return err == nil
}

// DetectLanguage infers a language from a file extension.
func DetectLanguage(path string) (lang.Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cpp", ".cc", ".cxx", ".c++", ".hpp", ".hh", ".hxx", ".h", ".c":
		return lang.Cpp, true
	case ".py", ".pyw":
		return lang.Python, true
	}
	return lang.Cpp, false
}

// Stats counts changed lines between two texts.
type Stats struct {
	Added   int
	Removed int
}

// Zero reports whether no lines changed.
func (s Stats) Zero() bool { return s.Added == 0 && s.Removed == 0 }

// String formats stats for the status bar, e.g. "+3 -1".
func (s Stats) String() string {
	return fmt.Sprintf("+%d -%d", s.Added, s.Removed)
}

// Changes reports the line-level difference between the saved text and text.
func (d *Document) Changes(text string) Stats {
	return LineStats(d.saved, text)
}

// LineStats diffs two texts line by line.
func LineStats(before, after string) Stats {
	if before == after {
		return Stats{}
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var s Stats
	for _, diff := range diffs {
		n := countLines(diff.Text)
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			s.Added += n
		case diffmatchpatch.DiffDelete:
			s.Removed += n
		case diffmatchpatch.DiffEqual:
		}
	}
	return s
}

// countLines counts lines in a diff chunk, including an unterminated last line.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
