package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"igcollect/internal/runlog"
	"igcollect/pkg/apify"
	"igcollect/pkg/config"
	"igcollect/pkg/logger"
	"igcollect/pkg/pipeline"
	"igcollect/pkg/ui"
	"igcollect/pkg/workunits"
)

var continueOnFail bool

// commentsCmd collects comments for every known post URL
var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Collect comments for all collected posts",
	Long: `Collect comments for every post URL in the post store, in batches,
with a checkpoint after every batch. Posts whose comments are already in
the comment store are skipped, so an interrupted run resumes where it
stopped.

Run 'igcollect posts <target>' first to fill the post store.`,
	Example: `  # Collect comments for all known posts
  igcollect comments

  # Skip a failed batch instead of aborting the run
  igcollect comments --continue-on-failure`,
	Args: cobra.NoArgs,
	Run:  runComments,
}

func init() {
	rootCmd.AddCommand(commentsCmd)
	commentsCmd.Flags().BoolVar(&continueOnFail, "continue-on-failure", false, "skip a failed batch and keep going")
}

func runComments(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if continueOnFail {
		cfg.Collector.ContinueOnBatchFailure = true
	}

	ctx, cancel := signalContext()
	defer cancel()

	posts := openPostStore(cfg)
	units, err := workunits.PostURLs(posts.Records())
	if err != nil {
		fail("No work units", err)
	}

	ledger, runID := startLedgerRun(cfg, "comments", "", "apify", len(units))

	summary, err := collectComments(ctx, cfg, units)

	var records, done int
	var unitErrs int
	if summary != nil {
		records = summary.Records
		done = summary.Skipped + summary.BatchesDone*cfg.BatchSize
		if done > summary.Units {
			done = summary.Units
		}
		unitErrs = len(summary.FailedBatches)
	}
	finishLedgerRun(ledger, runID, runlog.Outcome{
		Status:     outcomeStatus(ctx, err),
		UnitsDone:  done,
		Records:    records,
		UnitErrors: unitErrs,
		Err:        err,
	})
	notifyOutcome("comments", records, err)

	if err != nil {
		fail("Comment collection failed", err)
	}
	if summary != nil && len(summary.FailedBatches) > 0 {
		ui.PrintWarning(fmt.Sprintf("Collected %d comments; %d batch(es) failed and were skipped", records, len(summary.FailedBatches)))
		return
	}
	ui.PrintSuccess(fmt.Sprintf("Collected %d comment records across %d posts", records, len(units)))
}

func collectComments(ctx context.Context, cfg *config.Config, units []string) (*pipeline.Summary, error) {
	token, err := requireAPIToken(cfg)
	if err != nil {
		return nil, err
	}

	comments := openCommentStore(cfg)
	client := apify.NewClient(cfg.Backend.Endpoint, token, logger.GetLogger())
	backend := apify.NewCommentsBackend(client, cfg, logger.GetLogger())

	var summary *pipeline.Summary
	err = collectWithUI("comments", "", func(onProgress func(pipeline.Progress)) error {
		collector := pipeline.NewBatchCollector(backend, comments, pipeline.Options{
			BatchSize:              cfg.BatchSize,
			PollInterval:           cfg.Backend.PollInterval,
			ContinueOnBatchFailure: cfg.Collector.ContinueOnBatchFailure,
			OnProgress:             onProgress,
		})
		var cerr error
		summary, cerr = collector.Collect(ctx, units)
		return cerr
	})
	return summary, err
}
