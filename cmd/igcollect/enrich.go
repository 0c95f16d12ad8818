package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"igcollect/internal/runlog"
	"igcollect/pkg/apify"
	"igcollect/pkg/config"
	"igcollect/pkg/instagram"
	"igcollect/pkg/logger"
	"igcollect/pkg/pipeline"
	"igcollect/pkg/ratelimit"
	"igcollect/pkg/store"
	"igcollect/pkg/ui"
	"igcollect/pkg/workunits"
)

var (
	directEnrich bool
	fastEnrich   bool
	unitsFile    string
)

// enrichCmd enriches collected follower handles into full profiles
var enrichCmd = &cobra.Command{
	Use:     "enrich",
	Aliases: []string{"profiles"},
	Short:   "Enrich follower handles into full profile records",
	Long: `Enrich every known follower handle into a full profile record.

By default handles are submitted to the actor profile scraper in large
batches and stored as documents (profiles.json). With --direct each
profile is fetched one at a time through the Instagram web API and
appended as a row (profiles.csv); every collected row is a checkpoint,
so an interrupted run resumes at the next handle.

Work units come from the follower store; use --units to read handles
from a file instead (one per line, # for comments).`,
	Example: `  # Batch enrichment via the actor service
  igcollect enrich

  # One profile at a time through the web API, paced
  igcollect enrich --direct

  # Direct mode, aggressive pacing, explicit handle list
  igcollect enrich --direct --fast --units handles.txt`,
	Args: cobra.NoArgs,
	Run:  runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().BoolVar(&directEnrich, "direct", false, "use the Instagram web API instead of the actor service")
	enrichCmd.Flags().BoolVar(&fastEnrich, "fast", false, "aggressive pacing profile (direct mode only)")
	enrichCmd.Flags().StringVar(&unitsFile, "units", "", "read handles from a file instead of the follower store")
}

func runEnrich(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if fastEnrich {
		cfg.ApplyFastPacing()
	}

	ctx, cancel := signalContext()
	defer cancel()

	units, err := enrichUnits(cfg)
	if err != nil {
		fail("No work units", err)
	}

	backend := "apify"
	if directEnrich {
		backend = "instagram"
	}
	ledger, runID := startLedgerRun(cfg, "enrich", "", backend, len(units))

	done, records, unitErrs, err := collectProfiles(ctx, cfg, units)

	finishLedgerRun(ledger, runID, runlog.Outcome{
		Status:     outcomeStatus(ctx, err),
		UnitsDone:  done,
		Records:    records,
		UnitErrors: unitErrs,
		Err:        err,
	})
	notifyOutcome("enrich", records, err)

	if err != nil {
		fail("Enrichment failed", err)
	}
	ui.PrintSuccess(fmt.Sprintf("Enriched %d of %d handles", records, len(units)))
}

// enrichUnits resolves the handle list for this run
func enrichUnits(cfg *config.Config) ([]string, error) {
	if unitsFile != "" {
		return workunits.FromFile(unitsFile)
	}
	followers := openFollowerStore(cfg, followersFile)
	return workunits.FromRecords(followers.Records())
}

// collectProfiles dispatches to the configured enrichment strategy and
// reports units done, records appended and per-unit error count.
func collectProfiles(ctx context.Context, cfg *config.Config, units []string) (int, int, int, error) {
	if directEnrich {
		return collectProfilesDirect(ctx, cfg, units)
	}
	return collectProfilesActor(ctx, cfg, units)
}

// collectProfilesActor submits handles to the actor profile scraper in
// large batches, checkpointing the document store after each.
func collectProfilesActor(ctx context.Context, cfg *config.Config, units []string) (int, int, int, error) {
	token, err := requireAPIToken(cfg)
	if err != nil {
		return 0, 0, 0, err
	}

	profiles, err := store.OpenJSON(dataPath(cfg, profilesJSON), store.ProfileKey)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to open profile store: %w", err)
	}

	client := apify.NewClient(cfg.Backend.Endpoint, token, logger.GetLogger())
	backend := apify.NewProfilesBackend(client, cfg, logger.GetLogger())

	var summary *pipeline.Summary
	err = collectWithUI("enrich", "", func(onProgress func(pipeline.Progress)) error {
		collector := pipeline.NewBatchCollector(backend, profiles, pipeline.Options{
			BatchSize:              cfg.Backend.ProfileBatch,
			PollInterval:           cfg.Backend.PollInterval,
			ContinueOnBatchFailure: cfg.Collector.ContinueOnBatchFailure,
			OnProgress:             onProgress,
		})
		var cerr error
		summary, cerr = collector.Collect(ctx, units)
		return cerr
	})
	if summary == nil {
		return 0, 0, 0, err
	}
	done := summary.Skipped + summary.Records
	return done, summary.Records, len(summary.FailedBatches), err
}

// collectProfilesDirect fetches one profile at a time through the web
// API, appending a checkpointed CSV row per handle.
func collectProfilesDirect(ctx context.Context, cfg *config.Config, units []string) (int, int, int, error) {
	if err := requireSession(cfg); err != nil {
		return 0, 0, 0, err
	}

	sink, err := store.OpenCSV(dataPath(cfg, profilesCSV))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to open profile rows: %w", err)
	}
	defer sink.Close()

	client := instagram.NewClient(cfg, logger.GetLogger())
	pacer := ratelimit.NewPacer(cfg.Pacing.PerUnitDelay, cfg.Pacing.BatchPauseEvery, cfg.Pacing.BatchPause, logger.GetLogger())

	var summary *pipeline.UnitSummary
	err = collectWithUI("enrich", "", func(onProgress func(pipeline.Progress)) error {
		collector := pipeline.NewUnitCollector(client.FetchProfile, sink, pipeline.UnitOptions{
			Pacer:      pacer,
			OnProgress: onProgress,
		})
		var cerr error
		summary, cerr = collector.Collect(ctx, units)
		return cerr
	})
	if summary == nil {
		return 0, 0, 0, err
	}
	return summary.Skipped + summary.Done, summary.Done, summary.NotFound, err
}
