// Package processor runs the single-consumer loop that turns watch events
// into uploads.
package processor

import (
	"context"

	"github.com/rakaly/rakaly-uploader/internal/dispatch"
	"github.com/rakaly/rakaly-uploader/internal/errors"
	"github.com/rakaly/rakaly-uploader/internal/logger"
	"github.com/rakaly/rakaly-uploader/internal/watcher"
)

// Dispatcher uploads one save file.
type Dispatcher interface {
	Dispatch(ctx context.Context, path string) dispatch.Outcome
}

// Source is a started-on-demand stream of watch events.
type Source interface {
	Watch(path string) error
	Start(ctx context.Context) error
	Events() <-chan watcher.Event
}

// EventProcessor consumes watch events one at a time, in arrival order.
//
// A failing event never stops the loop: watch errors, unreadable files,
// unknown signatures and rejected uploads are logged and the next event is
// processed. Uploads block the loop.
type EventProcessor struct {
	dispatcher Dispatcher
	logger     *logger.Logger
}

// NewEventProcessor creates a new EventProcessor instance.
func NewEventProcessor(dispatcher Dispatcher, log *logger.Logger) *EventProcessor {
	return &EventProcessor{
		dispatcher: dispatcher,
		logger:     log,
	}
}

// Watch subscribes source to dir and runs the loop until ctx is cancelled.
// Failing to set up the subscription is fatal and returned.
func (ep *EventProcessor) Watch(ctx context.Context, source Source, dir string) error {
	if err := source.Watch(dir); err != nil {
		return errors.Wrapf(err, errors.CodeWatch, "unable to watch: %s", dir)
	}
	if err := source.Start(ctx); err != nil {
		return errors.Wrapf(err, errors.CodeWatch, "unable to watch: %s", dir)
	}

	ep.logger.Info("watching directory for save files", "dir", dir)
	ep.flush()

	return ep.Run(ctx, source.Events())
}

// Run processes events until ctx is cancelled. It returns an error only if
// the event stream ends while ctx is still live.
func (ep *EventProcessor) Run(ctx context.Context, events <-chan watcher.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New(errors.CodeWatch, "watch stream closed")
			}
			ep.ProcessEvent(ctx, ev)
			ep.flush()
		}
	}
}

// ProcessEvent handles a single event.
//
// Only created or modified save files reach the dispatcher; everything else
// is logged and dropped.
func (ep *EventProcessor) ProcessEvent(ctx context.Context, ev watcher.Event) {
	switch ev.Type {
	case watcher.EventError:
		log := ep.logger.WithError(ev.Err)
		if ev.Path != "" {
			log.Warn("watch error", "path", ev.Path)
		} else {
			log.Warn("watch error")
		}
		return
	case watcher.EventCreated, watcher.EventModified:
	default:
		ep.logger.Debug("ignoring event", "type", ev.Type.String(), "path", ev.Path)
		return
	}

	if !dispatch.IsSaveFile(ev.Path) {
		ep.logger.Debug("ignoring file", "type", ev.Type.String(), "path", ev.Path)
		return
	}

	ep.logger.Info("detected write", "path", ev.Path)
	ep.dispatcher.Dispatch(ctx, ev.Path)
}

func (ep *EventProcessor) flush() {
	if err := ep.logger.Flush(); err != nil {
		ep.logger.Debug("failed to flush log file", "error", err)
	}
}
