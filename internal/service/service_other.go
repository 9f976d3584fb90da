//go:build !windows

package service

import (
	"log/slog"
	"runtime"

	"github.com/rakaly/rakaly-uploader/internal/errors"
)

// Install is only supported on Windows.
func Install() error {
	return errors.Unsupportedf("install-service is not supported on %s", runtime.GOOS)
}

// Uninstall is only supported on Windows.
func Uninstall() error {
	return errors.Unsupportedf("uninstall-service is not supported on %s", runtime.GOOS)
}

// Run is only supported on Windows.
func Run(_ *slog.Logger, _ RunFunc) error {
	return errors.Unsupportedf("run-service is not supported on %s", runtime.GOOS)
}
