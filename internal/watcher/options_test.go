package watcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions_SetDefaults(t *testing.T) {
	opts := Options{}
	opts.setDefaults()

	assert.Equal(t, DefaultDebounce, opts.Debounce)
	assert.Equal(t, BackendAuto, opts.Backend)
	assert.NotEmpty(t, opts.IgnorePatterns)
	assert.False(t, opts.IgnoreHidden)
}

func TestOptions_SetDefaultsKeepsExplicitValues(t *testing.T) {
	opts := Options{
		Debounce:       100,
		Backend:        BackendFsnotify,
		IgnorePatterns: []string{},
	}
	opts.setDefaults()

	assert.EqualValues(t, 100, opts.Debounce)
	assert.Equal(t, BackendFsnotify, opts.Backend)
	assert.Empty(t, opts.IgnorePatterns)
}

func TestPathFilter_Ignored(t *testing.T) {
	root := filepath.Join("/home", "ruler", ".local", "share", "Paradox Interactive", "Europa Universalis IV", "save games")

	tests := []struct {
		name   string
		opts   Options
		path   string
		ignore bool
	}{
		{"save file", Options{IgnorePatterns: []string{"*.tmp"}}, filepath.Join(root, "autosave.eu4"), false},
		{"temp file", Options{IgnorePatterns: []string{"*.tmp"}}, filepath.Join(root, "autosave.eu4.tmp"), true},
		{"hidden allowed by default", Options{}, filepath.Join(root, ".backup", "a.eu4"), false},
		{"hidden below root ignored", Options{IgnoreHidden: true}, filepath.Join(root, ".backup", "a.eu4"), true},
		{"hidden file below root ignored", Options{IgnoreHidden: true}, filepath.Join(root, ".a.eu4"), true},
		{"hidden root ancestors are not checked", Options{IgnoreHidden: true}, filepath.Join(root, "mp", "a.eu4"), false},
		{"root itself", Options{IgnoreHidden: true}, root, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPathFilter(tt.opts)
			f.addRoot(root)
			assert.Equal(t, tt.ignore, f.ignored(tt.path))
		})
	}
}

func TestPathFilter_LongestRootWins(t *testing.T) {
	f := newPathFilter(Options{IgnoreHidden: true})
	f.addRoot("/saves")
	f.addRoot("/saves/.archive")
	f.addRoot("/saves")

	assert.Len(t, f.roots, 2)
	assert.False(t, f.ignored("/saves/.archive/a.eu4"))
	assert.True(t, f.ignored("/saves/.other/a.eu4"))
	assert.True(t, f.ignored("/elsewhere/.x/a.eu4"), "paths outside every root are checked in full")
}
