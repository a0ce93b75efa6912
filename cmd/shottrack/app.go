package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/shottrack/internal/config"
	"github.com/verte-zerg/shottrack/internal/export"
	"github.com/verte-zerg/shottrack/internal/logging"
	"github.com/verte-zerg/shottrack/internal/metrics"
	"github.com/verte-zerg/shottrack/internal/state"
	"github.com/verte-zerg/shottrack/internal/store"
)

const logFileName = "shottrack.log"

// app bundles everything a command needs once config has been resolved.
type app struct {
	cfg     config.FileConfig
	log     *zap.Logger
	logFile *os.File
	metrics *metrics.Manager
	store   *store.Store
	state   *state.State
	quoting export.Quoting
}

type appOptions struct {
	// logToFile sends logs next to the database instead of stderr, so
	// full-screen UIs are not drawn over.
	logToFile   bool
	onSaveError func(collection string, err error)
}

func openApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	dbPath := rootDBPath
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Storage.Path)
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	level := rootLogLevel
	applyStringConfig(cmd, "log-level", &level, fileCfg.Log.Level)

	quoting := export.QuotingRFC4180
	if fileCfg.Export.CSVQuoting != nil {
		quoting, err = export.ParseQuoting(*fileCfg.Export.CSVQuoting)
		if err != nil {
			return nil, fmt.Errorf("failed to read export.csv-quoting: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &app{cfg: fileCfg, quoting: quoting}
	var logOut io.Writer = os.Stderr
	if opts.logToFile {
		f, err := os.OpenFile(filepath.Join(filepath.Dir(dbPath), logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		logOut = f
	}
	a.log, err = logging.New(logOut, level)
	if err != nil {
		a.closeLog()
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	a.store, err = store.Open(dbPath)
	if err != nil {
		a.closeLog()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	var debounce time.Duration
	if fileCfg.Storage.DebounceMs != nil {
		debounce = time.Duration(*fileCfg.Storage.DebounceMs) * time.Millisecond
	}
	a.metrics = metrics.NewManager(metrics.WithHistogramBuckets(metrics.LocalBuckets))
	a.state, err = state.Open(commandContext(cmd), a.store, state.Options{
		Debounce:    debounce,
		Logger:      a.log.Named("state"),
		Metrics:     a.metrics,
		OnSaveError: opts.onSaveError,
	})
	if err != nil {
		if cerr := a.store.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
		a.closeLog()
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return a, nil
}

// close writes pending changes and releases the database. Errors are
// reported on stderr since commands have already produced their output.
func (a *app) close(ctx context.Context) {
	if err := a.state.Close(ctx); err != nil {
		logErrf("failed to save: %v\n", err)
		if store.IsQuotaExceeded(err) {
			logErrf("%s\n", quotaHint)
		}
	}
	if err := a.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
	_ = a.log.Sync()
	a.closeLog()
}

// flush writes pending changes now so commands can report save failures.
func (a *app) flush(ctx context.Context) error {
	if err := a.state.Flush(ctx); err != nil {
		if store.IsQuotaExceeded(err) {
			return fmt.Errorf("failed to save: %w\n%s", err, quotaHint)
		}
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func (a *app) closeLog() {
	if a.logFile == nil {
		return
	}
	if err := a.logFile.Close(); err != nil {
		// Best-effort close.
		_ = err
	}
	a.logFile = nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// exportDir resolves where export files go when --out is not given.
func (a *app) exportDir() string {
	if a.cfg.Export.Dir != nil && *a.cfg.Export.Dir != "" {
		return *a.cfg.Export.Dir
	}
	return "."
}
