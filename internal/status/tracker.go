// Package status keeps in-memory upload counters and serves them over HTTP.
package status

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rakaly/rakaly-uploader/internal/dispatch"
	"github.com/rakaly/rakaly-uploader/internal/errors"
)

// FileStatus is the last outcome recorded for one path.
type FileStatus struct {
	Path     string    `json:"path"`
	UploadID string    `json:"upload_id"`
	Format   string    `json:"format"`
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
	Elapsed  string    `json:"elapsed"`
}

// Snapshot is a point-in-time view of the tracker.
type Snapshot struct {
	WatchDir  string       `json:"watch_directory"`
	Endpoint  string       `json:"endpoint"`
	StartedAt time.Time    `json:"started_at"`
	Uptime    string       `json:"uptime"`
	Succeeded int64        `json:"succeeded"`
	Failed    int64        `json:"failed"`
	Files     []FileStatus `json:"files"`
}

// Tracker implements dispatch.Recorder. Counters are never persisted.
type Tracker struct {
	watchDir  string
	endpoint  string
	startedAt time.Time

	succeeded atomic.Int64
	failed    atomic.Int64
	last      *SyncMap[string, FileStatus]
}

// NewTracker creates a tracker for one watch directory and endpoint.
func NewTracker(watchDir, endpoint string) *Tracker {
	return &Tracker{
		watchDir:  watchDir,
		endpoint:  endpoint,
		startedAt: time.Now(),
		last:      NewSyncMap[string, FileStatus](),
	}
}

// Record stores an outcome.
func (t *Tracker) Record(o dispatch.Outcome) {
	fs := FileStatus{
		Path:     o.Path,
		UploadID: o.ID,
		Format:   o.Format.String(),
		Success:  o.Success(),
		At:       o.Finished,
		Elapsed:  o.Elapsed.String(),
	}
	if o.Success() {
		t.succeeded.Add(1)
	} else {
		t.failed.Add(1)
		fs.Error = o.Err.Error()
	}
	t.last.Store(o.Path, fs)
}

// Lookup returns the last outcome recorded for path.
func (t *Tracker) Lookup(path string) (FileStatus, error) {
	if path == "" {
		return FileStatus{}, errors.New(errors.CodeValidation, "path query parameter is required")
	}
	fs, ok := t.last.Load(filepath.Clean(path))
	if !ok {
		return FileStatus{}, errors.Newf(errors.CodeNotFound, "no upload recorded for %s", path)
	}
	return fs, nil
}

// Snapshot returns the current counters and per-file outcomes.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		WatchDir:  t.watchDir,
		Endpoint:  t.endpoint,
		StartedAt: t.startedAt,
		Uptime:    time.Since(t.startedAt).Truncate(time.Second).String(),
		Succeeded: t.succeeded.Load(),
		Failed:    t.failed.Load(),
		Files:     t.last.Values(),
	}
}
