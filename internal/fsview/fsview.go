// Package fsview lists directories for the file browser, caching each
// listing for a short TTL so redrawing the tree does not hit the disk.
package fsview

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/spf13/afero"

	"github.com/Fialia9363/fialiaoi-cpp/internal/log"
)

const defaultCleanupInterval = time.Minute

// Entry is one child of a listed directory.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
}

// Lister reads directory listings from an afero filesystem.
type Lister struct {
	fs         afero.Fs
	cache      *gocache.Cache
	ttl        time.Duration
	showHidden bool
}

// Option configures a Lister.
type Option func(*Lister)

// WithTTL sets how long a listing is reused. Zero disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(l *Lister) { l.ttl = ttl }
}

// WithHidden includes dot-files in listings.
func WithHidden(show bool) Option {
	return func(l *Lister) { l.showHidden = show }
}

// NewLister creates a Lister over fs.
func NewLister(fs afero.Fs, opts ...Option) *Lister {
	l := &Lister{fs: fs, ttl: 5 * time.Second}
	for _, opt := range opts {
		opt(l)
	}
	l.cache = gocache.New(l.ttl, defaultCleanupInterval)
	return l
}

// List returns the children of dir: directories first, then files, each
// sorted case-insensitively. An unreadable directory lists as empty.
func (l *Lister) List(dir string) []Entry {
	dir = filepath.Clean(dir)
	if l.ttl > 0 {
		if v, ok := l.cache.Get(dir); ok {
			if entries, ok := v.([]Entry); ok {
				return entries
			}
		}
	}

	infos, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		log.Warn(log.CatFS, "Cannot list directory", "dir", dir, "error", err.Error())
		return nil
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if !l.showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		entries = append(entries, Entry{
			Name:  name,
			Path:  filepath.Join(dir, name),
			IsDir: info.IsDir(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	if l.ttl > 0 {
		l.cache.Set(dir, entries, l.ttl)
	}
	return entries
}

// Invalidate drops cached listings for dir. With no arguments, all are dropped.
func (l *Lister) Invalidate(dirs ...string) {
	if len(dirs) == 0 {
		l.cache.Flush()
		return
	}
	for _, dir := range dirs {
		l.cache.Delete(filepath.Clean(dir))
	}
}

// IsDir reports whether path is a directory.
func (l *Lister) IsDir(path string) bool {
	ok, err := afero.IsDir(l.fs, path)
	return err == nil && ok
}
