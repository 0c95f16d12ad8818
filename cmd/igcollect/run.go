package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"igcollect/internal/runlog"
	"igcollect/pkg/ui"
)

var exportPath string

// runCmd chains parse, enrich and analyze into one invocation
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Parse, enrich and analyze in one pass",
	Long: `Run the full pipeline: parse the official export (when --export is
given), enrich every known follower handle into a full profile, and
write the report set.

Each stage checkpoints independently, so re-running after an interrupt
skips everything already collected.`,
	Example: `  # Full pipeline from a fresh export, direct enrichment
  igcollect run --export instagram-someaccount.zip --direct

  # Re-run after an interrupt; picks up where it stopped
  igcollect run --direct`,
	Args: cobra.NoArgs,
	Run:  runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&exportPath, "export", "", "official data export to parse first (ZIP, directory, or file)")
	runCmd.Flags().BoolVar(&directEnrich, "direct", false, "enrich through the Instagram web API")
	runCmd.Flags().BoolVar(&fastEnrich, "fast", false, "aggressive pacing profile (direct mode only)")
	runCmd.Flags().StringVar(&sinceDate, "since", "", "keep only entries followed on or after this date (YYYY-MM-DD)")
}

func runPipeline(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if fastEnrich {
		cfg.ApplyFastPacing()
	}

	ctx, cancel := signalContext()
	defer cancel()

	backend := "apify"
	if directEnrich {
		backend = "instagram"
	}
	ledger, runID := startLedgerRun(cfg, "run", "", backend, 0)

	var records int
	err := func() error {
		if exportPath != "" {
			added, err := parseExport(cfg, exportPath)
			if err != nil {
				return fmt.Errorf("parse stage failed: %w", err)
			}
			ui.PrintInfo("Parse", fmt.Sprintf("%d new follower entries", added))
		}

		units, err := enrichUnits(cfg)
		if err != nil {
			return err
		}

		var done, unitErrs int
		done, records, unitErrs, err = collectProfiles(ctx, cfg, units)
		if err != nil {
			return fmt.Errorf("enrich stage failed: %w", err)
		}
		ui.PrintInfo("Enrich", fmt.Sprintf("%d of %d handles done, %d unresolvable", done, len(units), unitErrs))

		written, err := analyze(cfg)
		if err != nil {
			return fmt.Errorf("analyze stage failed: %w", err)
		}
		ui.PrintInfo("Analyze", fmt.Sprintf("%d reports written", written))
		return nil
	}()

	finishLedgerRun(ledger, runID, runlog.Outcome{
		Status:  outcomeStatus(ctx, err),
		Records: records,
		Err:     err,
	})
	notifyOutcome("run", records, err)

	if err != nil {
		fail("Pipeline run failed", err)
	}
	ui.PrintSuccess("Pipeline complete")
}
