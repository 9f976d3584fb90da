package watcher

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// Backend names accepted in Options.Backend.
const (
	BackendAuto     = "auto"
	BackendInotify  = "inotify"
	BackendFsnotify = "fsnotify"
)

// DefaultDebounce is the coalescing window for repeated changes to one path.
const DefaultDebounce = 5 * time.Second

// Options configures the file watcher behavior.
type Options struct {
	// IgnorePatterns are matched against the base name of every path.
	// nil selects the defaults; an empty slice disables pattern matching.
	IgnorePatterns []string

	// IgnoreHidden drops paths with a dot-prefixed segment below the
	// watched root.
	IgnoreHidden bool

	// Debounce collapses repeated changes to the same path into one event.
	Debounce time.Duration

	// Backend selects the notification source: auto, inotify or fsnotify.
	Backend string
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Backend == "" {
		o.Backend = BackendAuto
	}
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"Thumbs.db",
			"*.tmp",
		}
	}
}

// pathFilter drops paths matching the ignore options. The hidden check only
// looks at path segments below the watched root, so a root that itself sits
// under a dot directory (e.g. ~/.local/share) is still watched.
type pathFilter struct {
	opts Options

	mu    sync.RWMutex
	roots []string
}

func newPathFilter(opts Options) *pathFilter {
	return &pathFilter{opts: opts}
}

// addRoot records a watched root.
func (f *pathFilter) addRoot(root string) {
	root = filepath.Clean(root)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.Contains(f.roots, root) {
		f.roots = append(f.roots, root)
	}
}

// ignored reports whether events for path should be dropped.
func (f *pathFilter) ignored(path string) bool {
	path = filepath.Clean(path)

	if f.opts.IgnoreHidden && hiddenBelow(f.rootOf(path), path) {
		return true
	}

	base := filepath.Base(path)
	for _, pattern := range f.opts.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// rootOf returns the longest watched root containing path, or "".
func (f *pathFilter) rootOf(path string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	best := ""
	for _, root := range f.roots {
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best
}

func hiddenBelow(root, path string) bool {
	rel := path
	if root != "" {
		if r, err := filepath.Rel(root, path); err == nil {
			rel = r
		}
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
