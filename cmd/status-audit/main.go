// Command status-audit reports stored statuses that are not canonical and can
// rewrite them in place.
//
// Usage:
//
//	status-audit [-config configs/config.yaml] [-apply] [-xlsx report.xlsx] [-json] [-strict] [-v]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/application/service"
	"github.com/AisleiAvila/HomeService-sub001/internal/config"
	"github.com/AisleiAvila/HomeService-sub001/internal/container"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/migration"
	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/export"
	"github.com/AisleiAvila/HomeService-sub001/pkg/utils"
)

type options struct {
	configPath string
	apply      bool
	xlsxPath   string
	asJSON     bool
	actorID    int64
	strict     bool
	verbose    bool
}

// errUnknownStatuses is returned in strict mode when any stored status needed the fallback
var errUnknownStatuses = errors.New("unknown statuses found")

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "configs/config.yaml", "path to the YAML configuration file")
	flag.BoolVar(&opts.apply, "apply", false, "rewrite non-canonical statuses")
	flag.StringVar(&opts.xlsxPath, "xlsx", "", "also write the report to this .xlsx file")
	flag.BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	flag.Int64Var(&opts.actorID, "actor", 0, "administrator id recorded on backfill history entries")
	flag.BoolVar(&opts.strict, "strict", false, "exit non-zero when unknown statuses are found")
	flag.BoolVar(&opts.verbose, "v", false, "verbose logging")
	flag.Parse()

	logger, err := utils.NewCLILogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(opts, logger, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "status-audit: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, logger *zap.Logger, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	containerCfg, err := cfg.ToContainerConfig()
	if err != nil {
		return err
	}

	storage, err := container.OpenStorage(ctx, containerCfg, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = storage.Close() }()

	backfill := service.NewBackfillService(
		storage.Repos.Requests,
		container.ProvideMigrator(logger),
		container.NewLoggerAdapter(logger),
		service.WithActorID(opts.actorID),
	)

	var report migration.Report
	var result *service.BackfillResult
	if opts.apply {
		result, err = backfill.Apply(ctx)
		if err != nil {
			return err
		}
		report = result.Report
	} else {
		report, err = backfill.Report(ctx)
		if err != nil {
			return err
		}
	}

	if opts.xlsxPath != "" {
		if err := export.WriteStatusReport(report, opts.xlsxPath); err != nil {
			return err
		}
		logger.Info("Report written", zap.String("path", opts.xlsxPath))
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		payload := interface{}(report)
		if result != nil {
			payload = result
		}
		if err := enc.Encode(payload); err != nil {
			return err
		}
	} else {
		printReport(out, report, result)
	}

	if opts.strict && report.HasAnomalies() {
		return fmt.Errorf("%w: %d", errUnknownStatuses, report.Fallback)
	}
	return nil
}

func printReport(out io.Writer, report migration.Report, result *service.BackfillResult) {
	fmt.Fprintf(out, "total:     %d\n", report.Total)
	fmt.Fprintf(out, "canonical: %d\n", report.Canonical)
	fmt.Fprintf(out, "migrated:  %d\n", report.Migrated)
	fmt.Fprintf(out, "fallback:  %d\n", report.Fallback)

	if len(report.Unknown) > 0 {
		fmt.Fprintln(out, "unknown statuses (folded to "+migration.FallbackStatus.String()+"):")
		for _, raw := range report.Unknown {
			fmt.Fprintf(out, "  %q\n", raw)
		}
	}

	if result != nil {
		fmt.Fprintf(out, "updated: %d  conflicts: %d  failed: %d\n", result.Updated, result.Conflicts, result.Failed)
	}
}
