//go:build !linux

package watcher

import (
	"log/slog"
	"runtime"

	"github.com/rakaly/rakaly-uploader/internal/errors"
)

func newInotifyBackend(_ *slog.Logger, _ Options) (Backend, error) {
	return nil, errors.Unsupportedf("inotify backend is not available on %s", runtime.GOOS)
}
