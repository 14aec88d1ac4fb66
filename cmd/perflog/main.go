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

	"go.uber.org/zap"

	"github.com/atinylittleshell/perflog/internal/config"
	apperrors "github.com/atinylittleshell/perflog/internal/errors"
	"github.com/atinylittleshell/perflog/internal/logging"
	"github.com/atinylittleshell/perflog/internal/monitor"
	"github.com/atinylittleshell/perflog/internal/report"
	"github.com/atinylittleshell/perflog/internal/store"
	"github.com/atinylittleshell/perflog/internal/system"
)

var BUILD_VERSION = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	programName := "perflog"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.Parse(programName, cmdArgs, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitSuccess
		}
		fmt.Fprintf(stderr, "%s: %v\n", programName, err)
		return apperrors.ExitCode(err)
	}

	if cfg.ShowVersion {
		fmt.Fprintln(stdout, BUILD_VERSION)
		return apperrors.ExitSuccess
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, LogFile: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(stderr, "%s: initializing logger: %v\n", programName, err)
		return apperrors.ExitErrorConfig
	}
	defer func() {
		_ = logger.Sync() // Flush any buffered log entries
	}()

	logger.Debug("-------- new perflog run --------", zap.String("version", BUILD_VERSION), zap.Stringer("config", cfg))

	if cfg.Report {
		if err := report.Run(ctx, cfg.DBPath, cfg.Tail, stdout); err != nil {
			logger.Error("error reading database", zap.String("path", cfg.DBPath), zap.Error(err))
			return apperrors.ExitCode(err)
		}
		return apperrors.ExitSuccess
	}

	probe, err := system.NewProbe(cfg.Probe)
	if err != nil {
		logger.Error("error selecting probe", zap.Error(err))
		return apperrors.ExitErrorConfig
	}

	writer := store.NewWriter(cfg.DBPath, logger)
	m := monitor.New(probe, writer, stdout, cfg.Iterations, cfg.Interval, cfg.DBPath, monitor.WithLogger(logger))

	res, err := m.Run(ctx)
	logger.Debug("run finished", zap.Int("samples", len(res.Samples)), zap.Int("saved", res.Saved))
	return apperrors.ExitCode(err)
}
