package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/pronto/internal/config"
	"github.com/Tiliavir/pronto/internal/logging"
	"github.com/Tiliavir/pronto/internal/storage"
	"github.com/Tiliavir/pronto/internal/timecalc"
	"github.com/Tiliavir/pronto/internal/tracker"
)

var (
	configPath string
	verbose    bool
)

// now is the clock used by every command.
var now = time.Now

// app is built once per invocation by the root PersistentPreRunE.
var app struct {
	cfgPath string
	cfg     config.Config
	log     *zap.SugaredLogger
	store   storage.Store
	tracker *tracker.Tracker
}

var rootCmd = &cobra.Command{
	Use:   "pronto",
	Short: "pronto – track worked hours against a weekly schedule",
	Long: `pronto records entry and exit stamps for each day and reports worked
time, balance against the configured schedule and the predicted time to leave.
Settings live in ~/.pronto/config.yaml; records are stored under ~/.pronto/.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// exitError carries the process exit code for a failed command:
// 1 for usage errors, 2 for storage and I/O failures.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 1, err: fmt.Errorf(format, args...)}
}

func storageError(err error) error {
	return &exitError{code: 2, err: err}
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.pronto/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(inCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(stampCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(targetCmd)
	rootCmd.AddCommand(toleranceCmd)
	rootCmd.AddCommand(semesterCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(syncCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return storageError(err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return usageError("%w", err)
		}
		return storageError(err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, cmd.ErrOrStderr())
	if err != nil {
		return usageError("%w", err)
	}

	store, err := storage.Open(cfg, log)
	if err != nil {
		return storageError(err)
	}

	app.cfgPath = path
	app.cfg = cfg
	app.log = log
	app.store = store
	app.tracker = tracker.New(store, cfg, log)
	log.Debugw("ready", "config", path, "backend", cfg.Backend, "data_dir", cfg.DataDir)
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if app.store == nil {
		return nil
	}
	err := app.store.Close()
	app.store = nil
	_ = app.log.Sync()
	if err != nil {
		return storageError(err)
	}
	return nil
}

// saveConfig persists cfg and rebuilds the tracker around it.
func saveConfig(cfg config.Config) error {
	if err := config.Save(app.cfgPath, cfg); err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return usageError("%w", err)
		}
		return storageError(err)
	}
	app.cfg = cfg
	app.tracker = tracker.New(app.store, cfg, app.log)
	return nil
}

// parseDay reads a --date flag value; empty means the day of at.
func parseDay(s string, at time.Time) (time.Time, error) {
	if s == "" {
		return timecalc.StartOfDay(at), nil
	}
	d, err := timecalc.ParseDate(s, time.Local)
	if err != nil {
		return time.Time{}, usageError("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

// trackerError classifies an error from the tracker for the exit code.
func trackerError(err error) error {
	if errors.Is(err, tracker.ErrInvalidTime) || errors.Is(err, tracker.ErrStampNotFound) {
		return usageError("%w", err)
	}
	return storageError(err)
}
