// rakaly watches a directory for EU4 save files and uploads every new or
// rewritten save to rakaly.com.
//
// Commands:
//
//	gui                 show the setup form, then watch (default)
//	run                 watch without a form; prompts once if no config exists
//	install-service     register as a Windows service
//	uninstall-service   remove the Windows service
//	run-service         entry point used by the Windows service manager
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/rakaly/rakaly-uploader/internal/config"
	"github.com/rakaly/rakaly-uploader/internal/errors"
	"github.com/rakaly/rakaly-uploader/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	cmdGUI        = "gui"
	cmdRun        = "run"
	cmdInstall    = "install-service"
	cmdUninstall  = "uninstall-service"
	cmdRunService = service.RunArg
)

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := a.run(os.Args[1:]); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type invocation struct {
	command    string
	configPath string
	overrides  config.Overrides
	help       bool
	version    bool
}

// reportedError wraps an error that has already been written to the log.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

func parseArgs(args []string) (invocation, *pflag.FlagSet, error) {
	var inv invocation

	flagSet := pflag.NewFlagSet("rakaly", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVarP(&inv.help, "help", "h", false, "show help")
	flagSet.BoolVar(&inv.version, "version", false, "print the version and exit")
	flagSet.StringVarP(&inv.configPath, "config", "c", "", "config file (default: <user config dir>/rakaly/config.yaml)")
	flagSet.StringVar(&inv.overrides.WatchDirectory, "watch-dir", "", "directory to watch for save files (default: executable directory)")
	flagSet.StringVar(&inv.overrides.APIURL, "api-url", "", "upload endpoint (default: "+config.DefaultAPIURL+")")
	flagSet.StringVar(&inv.overrides.LogLevel, "log-level", "", "debug, info, warn or error")

	if err := flagSet.Parse(args); err != nil {
		return inv, flagSet, errors.Wrap(err, errors.CodeValidation, "invalid arguments")
	}

	inv.command = cmdGUI
	rest := flagSet.Args()
	if len(rest) > 0 {
		inv.command = rest[0]
	}
	if len(rest) > 1 {
		return inv, flagSet, errors.Newf(errors.CodeValidation, "unexpected argument: %s", rest[1])
	}

	switch inv.command {
	case cmdGUI, cmdRun, cmdInstall, cmdUninstall, cmdRunService:
	default:
		return inv, flagSet, errors.Newf(errors.CodeValidation, "unknown command %q", inv.command)
	}
	return inv, flagSet, nil
}

func (a *app) printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(a.stdout, `rakaly uploads new EU4 save files to rakaly.com.

Usage:
  rakaly [command] [flags]

Commands:
  gui                 show the setup form, then watch (default)
  run                 watch without the form; asks for credentials on first run
  install-service     register as a Windows service that starts automatically
  uninstall-service   remove the Windows service
  run-service         used by the Windows service manager

Flags:
`)
	flagSet.SetOutput(a.stdout)
	flagSet.PrintDefaults()
}
