// Package di wires the uploader's components with samber/do.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/rakaly/rakaly-uploader/internal/config"
	"github.com/rakaly/rakaly-uploader/internal/di/providers"
	"github.com/rakaly/rakaly-uploader/internal/logger"
	"github.com/rakaly/rakaly-uploader/internal/processor"
)

// NewContainer creates the DI container for an already resolved
// configuration.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)

	// Upload pipeline
	do.Provide(injector, providers.ProvideUploadClient)
	do.Provide(injector, providers.ProvideTracker)
	do.Provide(injector, providers.ProvideDispatcher)
	do.Provide(injector, providers.ProvideEventProcessor)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)

	// Server
	do.Provide(injector, providers.ProvideStatusServer)

	return injector
}

// Run initializes every component and runs the watch loop until ctx is
// cancelled. Components are not shut down; callers use injector.Shutdown.
func Run(ctx context.Context, injector do.Injector) error {
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StatusServerHandle](injector); err != nil {
		return err
	}
	w, err := do.Invoke[*providers.FileWatcherHandle](injector)
	if err != nil {
		return err
	}
	ep, err := do.Invoke[*processor.EventProcessor](injector)
	if err != nil {
		return err
	}

	return ep.Watch(ctx, w.Watcher, cfg.WatchDirectory)
}
