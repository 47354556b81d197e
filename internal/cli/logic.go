package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/dutree/internal/census"
	"github.com/idelchi/dutree/internal/du"
	"github.com/idelchi/dutree/internal/du/parallel"
	"github.com/idelchi/dutree/internal/du/sequential"
	"github.com/idelchi/dutree/internal/fsys"
	"github.com/idelchi/dutree/internal/logging"
	"github.com/idelchi/dutree/internal/report"
)

// newSource creates the traversal source selected by options.
//
//nolint:ireturn // The strategy is chosen at runtime.
func newSource(options Options, lister fsys.Lister, log logrus.FieldLogger) du.Source {
	if options.Strategy == "sequential" {
		return sequential.New(lister)
	}

	return parallel.New(lister, parallel.Options{Workers: options.Workers, Logger: log})
}

// scan runs a full traversal of options.Path and builds the report.
func scan(
	ctx context.Context,
	options Options,
	lister fsys.Lister,
	log logrus.FieldLogger,
	progressHook func(*du.Stats),
) (*report.Report, error) {
	drv := du.New(newSource(options, lister, log))

	log.WithFields(logrus.Fields{
		"path":     options.Path,
		"strategy": options.Strategy,
	}).Debug("starting traversal")

	start := time.Now()

	if err := drv.Begin(options.Path); err != nil {
		return nil, fmt.Errorf("scanning %q: %w", options.Path, err)
	}

	if err := drv.Run(ctx, options.Tick, progressHook); err != nil {
		return nil, fmt.Errorf("scanning %q: %w", options.Path, err)
	}

	elapsed := time.Since(start)

	for _, err := range drv.Errors() {
		log.WithError(err).Warn("skipped")
	}

	rep := report.Build(drv.Stats(), drv.Errors(), report.Options{
		Root:  options.Path,
		Depth: options.Depth,
		Top:   options.Top,
	})
	rep.Elapsed = elapsed
	rep.Strategy = options.Strategy

	if options.Verify {
		totals, err := census.Run(ctx, options.Path, log)
		if err != nil {
			return nil, fmt.Errorf("verifying %q: %w", options.Path, err)
		}

		if rep.WithCensus(totals); len(rep.Mismatch) > 0 {
			log.WithField("mismatch", rep.Mismatch).Warn("census disagrees with tree")
		}
	}

	return rep, nil
}

func logic(ctx context.Context, options Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger := logging.New(logging.Options{
		Debug:      options.Debug,
		File:       options.LogFile,
		MaxSizeMB:  10, //nolint:mnd // Rotation size for debug logs
		MaxBackups: 3,  //nolint:mnd // Rotated files kept
	})
	defer logger.Close()

	enableProgress := options.Output == "table" &&
		!options.Debug &&
		isatty.IsTerminal(os.Stderr.Fd())

	// Simple progress callback that prints directly to stderr
	var progressHook func(*du.Stats)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(os.Stderr, "\033[?25l")
		defer fmt.Fprint(os.Stderr, "\033[?25h")

		progressHook = func(stats *du.Stats) {
			head := stats.Head().Info()
			msg := fmt.Sprintf("Scanning… %d entries, %s",
				head.Entries(), humanize.IBytes(head.Size))
			fmt.Fprintf(os.Stderr, "\r\033[2K%s\r", msg)
		}
	}

	rep, err := scan(ctx, options, fsys.OS{}, logger, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(os.Stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	return render(rep, options.Output, os.Stdout)
}

// render writes rep in the requested format.
func render(rep *report.Report, output string, writer io.Writer) error {
	switch output {
	case "json":
		return PrintJSON(rep, writer)
	case "yaml":
		return PrintYAML(rep, writer)
	case "paths":
		return PrintPaths(rep, writer)
	case "table":
		return PrintTable(rep, writer)
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}
}
