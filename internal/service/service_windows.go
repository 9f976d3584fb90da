//go:build windows

package service

import (
	"log/slog"
	"os"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/rakaly/rakaly-uploader/internal/errors"
)

// Install registers the running executable as an automatically started
// service.
func Install() error {
	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "unable to locate executable")
	}

	m, err := mgr.Connect()
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "unable to connect to service manager")
	}
	defer func() { _ = m.Disconnect() }()

	if s, err := m.OpenService(Name); err == nil {
		_ = s.Close()
		return errors.Newf(errors.CodeConfig, "service %s already exists", Name)
	}

	s, err := m.CreateService(Name, exe, mgr.Config{
		DisplayName: DisplayName,
		Description: Description,
		StartType:   mgr.StartAutomatic,
	}, RunArg)
	if err != nil {
		return errors.Wrapf(err, errors.CodeIO, "unable to create service %s", Name)
	}
	return s.Close()
}

// Uninstall removes the service registration.
func Uninstall() error {
	m, err := mgr.Connect()
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "unable to connect to service manager")
	}
	defer func() { _ = m.Disconnect() }()

	s, err := m.OpenService(Name)
	if err != nil {
		return errors.Wrapf(err, errors.CodeConfig, "service %s is not installed", Name)
	}
	defer func() { _ = s.Close() }()

	if err := s.Delete(); err != nil {
		return errors.Wrapf(err, errors.CodeIO, "unable to delete service %s", Name)
	}
	return nil
}

// Run hands control to the service manager and blocks until the service
// is stopped. Stop and shutdown requests cancel fn's context.
func Run(logger *slog.Logger, fn RunFunc) error {
	if err := svc.Run(Name, &handler{run: fn, logger: logger}); err != nil {
		return errors.Wrapf(err, errors.CodeIO, "unable to run service %s", Name)
	}
	return nil
}

type handler struct {
	run    RunFunc
	logger *slog.Logger
}

// Execute implements svc.Handler.
func (h *handler) Execute(_ []string, requests <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown

	changes <- svc.Status{State: svc.StartPending}

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- supervise(h.run, stop) }()

	changes <- svc.Status{State: svc.Running, Accepts: accepted}
	h.logger.Info("service running", "name", Name)

	for {
		select {
		case err := <-done:
			return h.finish(err, changes)
		case req := <-requests:
			switch req.Cmd {
			case svc.Interrogate:
				changes <- req.CurrentStatus
			case svc.Stop, svc.Shutdown:
				h.logger.Info("service stop requested", "name", Name)
				close(stop)
				return h.finish(<-done, changes)
			default:
				h.logger.Warn("unexpected service control request", "cmd", req.Cmd)
			}
		}
	}
}

func (h *handler) finish(err error, changes chan<- svc.Status) (bool, uint32) {
	changes <- svc.Status{State: svc.StopPending}
	if err != nil {
		h.logger.Error("service stopped", "error", err)
		return false, 1
	}
	h.logger.Info("service stopped", "name", Name)
	return false, 0
}
