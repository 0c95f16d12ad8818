package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"igcollect/internal/runlog"
	"igcollect/pkg/models"
	"igcollect/pkg/ui"
)

var runsLimit int

// runsCmd prints the run ledger
var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show collection run history",
	Long: `Show the run ledger: one row per collection invocation with its
status, counts and timing. Pass a run id for the full detail of one run.`,
	Example: `  # The most recent runs
  igcollect runs

  # One run in detail
  igcollect runs 6b1e8f0c-...`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "how many runs to show")
}

func runRuns(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ledger, err := runlog.Open(dataPath(cfg, ledgerFile))
	if err != nil {
		ui.PrintError("Failed to open run ledger", err.Error())
		os.Exit(1)
	}
	defer ledger.Close()

	ctx := context.Background()

	if len(args) == 1 {
		run, err := ledger.Get(ctx, args[0])
		if err != nil {
			ui.PrintError("Run not found", err.Error())
			os.Exit(1)
		}
		printRunDetail(run)
		return
	}

	runs, err := ledger.List(ctx, runsLimit)
	if err != nil {
		ui.PrintError("Failed to list runs", err.Error())
		os.Exit(1)
	}
	if len(runs) == 0 {
		ui.PrintInfo("No runs recorded yet", "collection commands write the ledger automatically")
		return
	}

	fmt.Printf("%-36s  %-10s  %-16s  %-10s  %10s  %8s  %s\n",
		"ID", "COMMAND", "TARGET", "STATUS", "UNITS", "RECORDS", "STARTED")
	for _, r := range runs {
		fmt.Printf("%-36s  %-10s  %-16s  %-10s  %5d/%-4d  %8d  %s\n",
			r.ID, r.Command, truncateTarget(r.Target), coloredStatus(r.Status),
			r.UnitsDone, r.UnitsTotal, r.Records,
			r.StartedAt.Local().Format("2006-01-02 15:04"))
	}
}

func printRunDetail(r *models.CollectionRun) {
	ui.PrintHighlight("Run " + r.ID)
	ui.PrintInfo("Command", r.Command)
	if r.Target != "" {
		ui.PrintInfo("Target", r.Target)
	}
	ui.PrintInfo("Backend", r.Backend)
	ui.PrintInfo("Status", r.Status)
	ui.PrintInfo("Units", fmt.Sprintf("%d/%d", r.UnitsDone, r.UnitsTotal))
	ui.PrintInfo("Records", fmt.Sprintf("%d", r.Records))
	if r.UnitErrors > 0 {
		ui.PrintInfo("Unit errors", fmt.Sprintf("%d", r.UnitErrors))
	}
	ui.PrintInfo("Started", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if !r.FinishedAt.IsZero() {
		ui.PrintInfo("Finished", r.FinishedAt.Local().Format("2006-01-02 15:04:05"))
		ui.PrintInfo("Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String())
	}
	if r.ErrorMessage != "" {
		ui.PrintError("Error", r.ErrorMessage)
	}
}

func coloredStatus(status string) string {
	switch models.RunStatus(status) {
	case models.RunStatusSucceeded:
		return ui.Green(status)
	case models.RunStatusFailed, models.RunStatusAborted, models.RunStatusTimedOut:
		return ui.Red(status)
	case models.RunStatusRunning:
		return ui.Yellow(status)
	default:
		return status
	}
}

func truncateTarget(t string) string {
	if len(t) <= 16 {
		return t
	}
	return t[:15] + "…"
}
