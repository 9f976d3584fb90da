package providers

import (
	"github.com/samber/do/v2"

	"github.com/rakaly/rakaly-uploader/internal/config"
	"github.com/rakaly/rakaly-uploader/internal/dispatch"
	"github.com/rakaly/rakaly-uploader/internal/logger"
	"github.com/rakaly/rakaly-uploader/internal/processor"
	"github.com/rakaly/rakaly-uploader/internal/ratelimit"
	"github.com/rakaly/rakaly-uploader/internal/status"
	"github.com/rakaly/rakaly-uploader/internal/upload"
)

// ProvideUploadClient provides the client for the configured endpoint.
func ProvideUploadClient(i do.Injector) (*upload.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return upload.New(
		log.Target("upload").Logger,
		cfg.APIURL,
		upload.Credential{Username: cfg.Username, APIKey: cfg.APIKey},
		upload.Options{
			Timeout: cfg.UploadTimeout,
			Limiter: ratelimit.PerMinute(cfg.UploadsPerMinute),
		},
	)
}

// ProvideTracker provides the in-memory outcome tracker.
func ProvideTracker(i do.Injector) (*status.Tracker, error) {
	cfg := do.MustInvoke[*config.Config](i)
	client := do.MustInvoke[*upload.Client](i)
	return status.NewTracker(cfg.WatchDirectory, client.Endpoint()), nil
}

// ProvideDispatcher provides the signature-routing dispatcher.
func ProvideDispatcher(i do.Injector) (*dispatch.Dispatcher, error) {
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*upload.Client](i)
	tracker := do.MustInvoke[*status.Tracker](i)

	return dispatch.New(log.Target("dispatch").Logger, client, tracker), nil
}

// ProvideEventProcessor provides the event processor.
func ProvideEventProcessor(i do.Injector) (*processor.EventProcessor, error) {
	log := do.MustInvoke[*logger.Logger](i)
	dispatcher := do.MustInvoke[*dispatch.Dispatcher](i)

	return processor.NewEventProcessor(dispatcher, log.Target("watcher")), nil
}
