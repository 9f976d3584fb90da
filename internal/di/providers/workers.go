package providers

import (
	"github.com/samber/do/v2"

	"github.com/rakaly/rakaly-uploader/internal/config"
	"github.com/rakaly/rakaly-uploader/internal/logger"
	"github.com/rakaly/rakaly-uploader/internal/watcher"
)

// FileWatcherHandle wraps the file watcher with shutdown capability.
type FileWatcherHandle struct {
	*watcher.Watcher
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	return h.Watcher.Stop()
}

// ProvideFileWatcher provides the file system watcher. It is not started;
// the event processor subscribes and starts it.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	w, err := watcher.New(log.Target("watcher").Logger, watcher.Options{
		Backend:        cfg.WatchBackend,
		IgnoreHidden:   cfg.IgnoreHidden,
		IgnorePatterns: cfg.IgnorePatterns,
	})
	if err != nil {
		return nil, err
	}

	return &FileWatcherHandle{Watcher: w}, nil
}
