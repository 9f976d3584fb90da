// Package providers contains dependency injection providers for the uploader.
package providers

import (
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/rakaly/rakaly-uploader/internal/config"
	"github.com/rakaly/rakaly-uploader/internal/logger"
)

// ProvideLogger provides the structured logger. Records go to stdout and to
// the configured log file.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	level := logger.ParseLevel(cfg.LogLevel)
	log, err := logger.New(logger.Config{
		Writer:    os.Stdout,
		FilePath:  cfg.LogFile,
		Format:    cfg.LogFormat,
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("configuration loaded",
		"config", cfg.Path,
		"watch_directory", cfg.WatchDirectory,
		"api_url", cfg.APIURL,
		"log_file", cfg.LogFile,
	)

	return log, nil
}
