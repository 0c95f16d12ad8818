package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"igcollect/internal/runlog"
	"igcollect/pkg/config"
	errs "igcollect/pkg/errors"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
	"igcollect/pkg/pipeline"
	"igcollect/pkg/ui"
	"igcollect/pkg/ui/tui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	dataDir       string
	accountLabel  string
	noColor       bool
	notifications bool
	quiet         bool
	verbose       bool
	useTUI        bool
)

// Data directory layout. Every store, report and the ledger live under
// config.DataDir with these names.
const (
	followersFile = "followers.json"
	followingFile = "following.json"
	postsFile     = "posts.json"
	commentsFile  = "comments.json"
	profilesCSV   = "profiles.csv"
	profilesJSON  = "profiles.json"
	ledgerFile    = "runs.db"
	reportsDir    = "reports"
	dashboardFile = "dashboard.html"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igcollect",
	Short: "Resumable Instagram follower and profile collection pipeline",
	Long: `igcollect collects follower lists, profiles, posts and comments into
local stores and derives CSV reports and an HTML dashboard from them.

Collection is batch-oriented and resumable: every batch is checkpointed
before the next one starts, so an interrupted run picks up where it left
off. Two collection strategies are available:
  - a hosted actor service (batch backend, needs an API token)
  - the Instagram web API directly (needs session cookies, slower)

For the report set alone, the official data export can be parsed without
any credentials at all ('igcollect parse').`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" && !quiet {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .igcollect.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for stores, reports and the run ledger")
	rootCmd.PersistentFlags().StringVarP(&accountLabel, "account", "a", "", "use a specific stored credential set")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "desktop notification when a run finishes")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show all output")
	rootCmd.PersistentFlags().BoolVar(&useTUI, "tui", false, "interactive terminal UI with live batch progress")

	rootCmd.SetVersionTemplate(`igcollect {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with the global flags merged in and
// initializes the logger.
func loadConfig() *config.Config {
	flags := make(map[string]interface{})
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		os.Exit(1)
	}
	return cfg
}

// dataPath resolves a file name inside the configured data directory,
// creating the directory on first use.
func dataPath(cfg *config.Config, name string) string {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		ui.PrintError("Failed to create data directory", err.Error())
		os.Exit(1)
	}
	return filepath.Join(cfg.DataDir, name)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. The
// collectors checkpoint at the next safe boundary and exit cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// startLedgerRun records a run row; ledger problems are logged, never fatal
func startLedgerRun(cfg *config.Config, command, target, backend string, units int) (*runlog.Ledger, string) {
	ledger, err := runlog.Open(dataPath(cfg, ledgerFile))
	if err != nil {
		logger.WithError(err).Warn("run ledger unavailable; continuing without it")
		return nil, ""
	}
	id, err := ledger.Start(context.Background(), command, target, backend, units)
	if err != nil {
		logger.WithError(err).Warn("failed to record run start")
		ledger.Close()
		return nil, ""
	}
	return ledger, id
}

// finishLedgerRun finalizes the ledger row if one was opened
func finishLedgerRun(ledger *runlog.Ledger, id string, out runlog.Outcome) {
	if ledger == nil {
		return
	}
	defer ledger.Close()
	if err := ledger.Finish(context.Background(), id, out); err != nil {
		logger.WithError(err).Warn("failed to record run finish")
	}
}

// outcomeStatus derives the ledger status from a collection error
func outcomeStatus(ctx context.Context, err error) models.RunStatus {
	if err == nil {
		return models.RunStatusSucceeded
	}
	if ctx.Err() != nil {
		return models.RunStatusAborted
	}
	return models.RunStatusFailed
}

// collectWithUI runs a collection function with either the console
// tracker or the full-screen TUI attached to its progress stream.
func collectWithUI(command, target string, collect func(onProgress func(pipeline.Progress)) error) error {
	if !useTUI {
		tracker := ui.NewTracker(quiet)
		err := collect(tracker.Handle)
		tracker.Finish()
		return err
	}

	terminal := tui.NewTUI(command, target)

	collectDone := make(chan error, 1)
	go func() {
		lastBatch := 0
		err := collect(func(p pipeline.Progress) {
			if p.Batches > 0 {
				terminal.BatchTotal(p.Batches)
			}
			if p.Batch > 0 && p.Batch != lastBatch {
				lastBatch = p.Batch
				terminal.BatchStarted(p.Batch, 0)
			}
			switch {
			case p.Status == models.RunStatusSucceeded && p.Batch > 0:
				terminal.BatchFinished(p.Batch, p.Records, nil)
			case p.Batch > 0:
				terminal.BatchStatus(p.Batch, p.Status)
			}
			if p.Units > 0 {
				terminal.UnitProgress(p.UnitsDone, p.Units, p.Records)
			}
		})
		terminal.Done(err)
		collectDone <- err
	}()

	tuiDone := make(chan error, 1)
	go func() {
		tuiDone <- terminal.Start()
	}()

	select {
	case err := <-collectDone:
		terminal.Stop()
		<-tuiDone
		return err
	case err := <-tuiDone:
		if err != nil {
			return fmt.Errorf("terminal UI failed: %w", err)
		}
		// User quit the TUI; wait for the collector to notice cancellation
		return <-collectDone
	}
}

// fail logs a command-ending error with its remediation hint, prints it,
// and exits
func fail(msg string, err error) {
	var apiErr *errs.Error
	hint := ""
	if errors.As(err, &apiErr) {
		hint = apiErr.Hint
	}
	logger.LogFatal(msg, err, hint)
	if hint != "" {
		ui.PrintError(msg, err.Error()+"\n  "+hint)
	} else {
		ui.PrintError(msg, err.Error())
	}
	os.Exit(1)
}

// notifyOutcome sends a desktop notification when enabled
func notifyOutcome(command string, records int, err error) {
	n := ui.NewNotifier(notifications)
	if err != nil {
		n.NotifyRunFailed(command, err)
		return
	}
	n.NotifyRunComplete(command, records)
}
