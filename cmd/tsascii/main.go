// Command tsascii converts seismic time series traces to text.
//
// Inputs are JSON-lines trace files; outputs are Simple or GeoCSV text in
// sample-list or time-pair layout, written per trace, to one shared file, to
// a ZIP archive, or both of the latter.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/internal/config"
	"github.com/arloliu/tsascii/pipeline"
)

// Build information
const (
	Version = "1.0.0"
	appName = "tsascii"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
)

func main() {
	os.Exit(runMain())
}

func runMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	getenv, err := config.DotEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return exitFailed
	}

	return run(ctx, os.Args[1:], getenv, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, getenv config.Getenv, stdout, stderr io.Writer) int {
	cfg, err := config.Parse(args, getenv, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", appName, err)

		return exitFailed
	}

	if cfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return exitOK
	}

	if len(cfg.Inputs) == 0 {
		_, _ = fmt.Fprintf(stderr, "%s: no input files specified\nTry '%s -h' for usage\n", appName, appName)

		return exitFailed
	}

	logger := cfg.NewLogger(stderr)
	logger.Info("starting", "version", Version, "inputs", len(cfg.Inputs))

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		logger.Error("cannot start conversion", "error", err, "fatal", errs.IsFatal(err))
		return exitFailed
	}

	report, err := p.Run(ctx)
	if err != nil {
		logger.Error("conversion aborted", "error", err, "fatal", errs.IsFatal(err))
		return exitFailed
	}

	if report.Duplicates > 0 {
		logger.Warn("some output names were produced more than once", "duplicates", report.Duplicates)
	}
	if report.Failed() {
		logger.Warn("conversion finished with errors",
			"input_errors", report.InputErrors,
			"trace_errors", report.TraceErrors)

		return exitFailed
	}

	return exitOK
}
