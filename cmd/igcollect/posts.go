package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"igcollect/internal/runlog"
	"igcollect/pkg/apify"
	"igcollect/pkg/config"
	"igcollect/pkg/instagram"
	"igcollect/pkg/logger"
	"igcollect/pkg/pipeline"
	"igcollect/pkg/ui"
)

// postsCmd collects the target account's recent posts
var postsCmd = &cobra.Command{
	Use:   "posts <target>",
	Short: "Collect the target account's recent posts",
	Long: `Collect the target account's recent posts through the actor service
into the post store (posts.json in the data directory).

The collected post URLs become the work units for 'igcollect comments'.`,
	Example: `  igcollect posts someaccount`,
	Args:    cobra.ExactArgs(1),
	Run:     runPosts,
}

func init() {
	rootCmd.AddCommand(postsCmd)
}

func runPosts(cmd *cobra.Command, args []string) {
	target := instagram.SanitizeUsername(strings.TrimSpace(args[0]))
	cfg := loadConfig()

	ctx, cancel := signalContext()
	defer cancel()

	ledger, runID := startLedgerRun(cfg, "posts", target, "apify", 1)

	records, err := collectPosts(ctx, cfg, target)

	finishLedgerRun(ledger, runID, runlog.Outcome{
		Status:    outcomeStatus(ctx, err),
		UnitsDone: 1,
		Records:   records,
		Err:       err,
	})
	notifyOutcome("posts", records, err)

	if err != nil {
		fail("Post collection failed", err)
	}
	ui.PrintSuccess(fmt.Sprintf("Collected %d post records for %s", records, target))
}

func collectPosts(ctx context.Context, cfg *config.Config, target string) (int, error) {
	token, err := requireAPIToken(cfg)
	if err != nil {
		return 0, err
	}

	posts := openPostStore(cfg)
	client := apify.NewClient(cfg.Backend.Endpoint, token, logger.GetLogger())
	backend := apify.NewPostsBackend(client, cfg, logger.GetLogger())

	var summary *pipeline.Summary
	err = collectWithUI("posts", target, func(onProgress func(pipeline.Progress)) error {
		collector := pipeline.NewBatchCollector(backend, noResume{posts}, pipeline.Options{
			BatchSize:    1,
			PollInterval: cfg.Backend.PollInterval,
			OnProgress:   onProgress,
		})
		var cerr error
		summary, cerr = collector.Collect(ctx, []string{target})
		return cerr
	})
	if summary == nil {
		return 0, err
	}
	return summary.Records, err
}
