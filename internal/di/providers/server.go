package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/rakaly/rakaly-uploader/internal/config"
	"github.com/rakaly/rakaly-uploader/internal/errors"
	"github.com/rakaly/rakaly-uploader/internal/logger"
	"github.com/rakaly/rakaly-uploader/internal/status"
)

// StatusServerHandle wraps the status server with Shutdownable. Server is
// nil when no status address is configured.
type StatusServerHandle struct {
	*status.Server
}

// Shutdown implements do.Shutdownable.
func (h *StatusServerHandle) Shutdown() error {
	if h.Server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideStatusServer starts the status server when status_addr is set.
func ProvideStatusServer(i do.Injector) (*StatusServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.StatusAddr == "" {
		return &StatusServerHandle{}, nil
	}

	log := do.MustInvoke[*logger.Logger](i)
	tracker := do.MustInvoke[*status.Tracker](i)

	srv := status.NewServer(cfg.StatusAddr, tracker, log.Target("status").Logger)
	if err := srv.Start(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeConfig, "unable to serve status on %s", cfg.StatusAddr)
	}

	return &StatusServerHandle{Server: srv}, nil
}
