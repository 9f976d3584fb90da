package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/rakaly/rakaly-uploader/internal/config"
	"github.com/rakaly/rakaly-uploader/internal/di"
	"github.com/rakaly/rakaly-uploader/internal/logger"
	"github.com/rakaly/rakaly-uploader/internal/service"
	"github.com/rakaly/rakaly-uploader/internal/setup"
)

func (a *app) run(args []string) error {
	inv, flagSet, err := parseArgs(args)
	if err != nil {
		return err
	}
	if inv.help {
		a.printHelp(flagSet)
		return nil
	}
	if inv.version {
		fmt.Fprintf(a.stdout, "rakaly %s\n", version)
		return nil
	}

	switch inv.command {
	case cmdInstall:
		if err := service.Install(); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "installed service %s\n", service.Name)
		return nil
	case cmdUninstall:
		if err := service.Uninstall(); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "removed service %s\n", service.Name)
		return nil
	}

	if inv.configPath == "" {
		if inv.configPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := a.configure(ctx, inv)
	if err != nil {
		return err
	}

	if inv.command == cmdRunService {
		return execute(cfg, func(log *logger.Logger, injector do.Injector) error {
			return service.Run(log.Target("service").Logger, func(ctx context.Context) error {
				return di.Run(ctx, injector)
			})
		})
	}
	return execute(cfg, func(_ *logger.Logger, injector do.Injector) error {
		return di.Run(ctx, injector)
	})
}

// configure collects credentials when the command needs them and loads the
// final configuration.
func (a *app) configure(ctx context.Context, inv invocation) (*config.Config, error) {
	switch inv.command {
	case cmdGUI:
		draft, err := config.Preview(inv.configPath, inv.overrides)
		if err != nil {
			return nil, err
		}
		creds, err := setup.RunForm(ctx, setup.FormInput{
			WatchDir: draft.WatchDirectory,
			Username: draft.Username,
			APIKey:   draft.APIKey,
		})
		if err != nil {
			return nil, err
		}
		if err := config.WriteCredentials(inv.configPath, creds.Username, creds.APIKey); err != nil {
			return nil, err
		}

	case cmdRun:
		if !config.Exists(inv.configPath) {
			fmt.Fprintf(a.stdout, "No configuration found at %s\n", inv.configPath)
			creds, err := setup.Prompt(a.stdin, a.stdout)
			if err != nil {
				return nil, err
			}
			if err := config.WriteCredentials(inv.configPath, creds.Username, creds.APIKey); err != nil {
				return nil, err
			}
			fmt.Fprintf(a.stdout, "Saved configuration to %s\n", inv.configPath)
		}
	}

	return config.Load(inv.configPath, inv.overrides)
}

// execute builds the container, runs loop, and shuts every component down.
// Errors from loop are logged and the log flushed before returning.
func execute(cfg *config.Config, loop func(*logger.Logger, do.Injector) error) error {
	injector := di.NewContainer(cfg)

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	err = loop(log, injector)
	if err != nil {
		log.WithError(err).Error("uploader stopped")
	}

	log.Info("shutting down")
	if shutdownErr := injector.Shutdown(); shutdownErr != nil {
		log.Error("shutdown error", "error", shutdownErr)
	}

	if err != nil {
		return reportedError{err}
	}
	return nil
}
