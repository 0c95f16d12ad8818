package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"igcollect/internal/runlog"
	"igcollect/pkg/apify"
	"igcollect/pkg/checkpoint"
	"igcollect/pkg/config"
	"igcollect/pkg/instagram"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
	"igcollect/pkg/pipeline"
	"igcollect/pkg/ui"
)

var (
	directFollowers bool
	fastPacing      bool
)

// followersCmd collects the target account's follower list
var followersCmd = &cobra.Command{
	Use:   "followers <target>",
	Short: "Collect the target account's follower list",
	Long: `Collect the follower list of the target account into the follower
store (followers.json in the data directory).

By default the run is submitted to the hosted actor service and polled
until it finishes. With --direct the followers are paged through the
Instagram web API using your session cookies, with a checkpoint written
after every page so an interrupted run resumes from its cursor.`,
	Example: `  # Collect via the actor service
  igcollect followers someaccount

  # Page the web API directly with session cookies
  igcollect followers someaccount --direct

  # Direct collection with the aggressive pacing profile
  igcollect followers someaccount --direct --fast`,
	Args: cobra.ExactArgs(1),
	Run:  runFollowers,
}

func init() {
	rootCmd.AddCommand(followersCmd)
	followersCmd.Flags().BoolVar(&directFollowers, "direct", false, "use the Instagram web API instead of the actor service")
	followersCmd.Flags().BoolVar(&fastPacing, "fast", false, "aggressive pacing profile (direct mode only)")
}

func runFollowers(cmd *cobra.Command, args []string) {
	target := instagram.SanitizeUsername(strings.TrimSpace(args[0]))
	cfg := loadConfig()
	if fastPacing {
		cfg.ApplyFastPacing()
	}

	ctx, cancel := signalContext()
	defer cancel()

	backend := "apify"
	if directFollowers {
		backend = "instagram"
	}
	ledger, runID := startLedgerRun(cfg, "followers", target, backend, 1)

	var records int
	var err error
	if directFollowers {
		records, err = collectFollowersDirect(ctx, cfg, target)
	} else {
		records, err = collectFollowersActor(ctx, cfg, target)
	}

	finishLedgerRun(ledger, runID, runlog.Outcome{
		Status:    outcomeStatus(ctx, err),
		UnitsDone: 1,
		Records:   records,
		Err:       err,
	})
	notifyOutcome("followers", records, err)

	if err != nil {
		fail("Follower collection failed", err)
	}
	ui.PrintSuccess(fmt.Sprintf("Collected %d follower records for %s", records, target))
}

// noResume disables resume skipping for runs whose store is keyed by the
// collected records rather than the submitted units.
type noResume struct {
	pipeline.ResultStore
}

func (noResume) Identifiers() map[string]struct{} { return nil }

// collectFollowersActor submits one follower run to the actor service
func collectFollowersActor(ctx context.Context, cfg *config.Config, target string) (int, error) {
	token, err := requireAPIToken(cfg)
	if err != nil {
		return 0, err
	}

	followers := openFollowerStore(cfg, followersFile)
	client := apify.NewClient(cfg.Backend.Endpoint, token, logger.GetLogger())
	backend := apify.NewFollowersBackend(client, cfg, logger.GetLogger())

	var summary *pipeline.Summary
	err = collectWithUI("followers", target, func(onProgress func(pipeline.Progress)) error {
		collector := pipeline.NewBatchCollector(backend, noResume{followers}, pipeline.Options{
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

// collectFollowersDirect pages the web API with a checkpoint per page.
// The pagination cursor is persisted alongside the store so a second
// invocation resumes mid-walk.
func collectFollowersDirect(ctx context.Context, cfg *config.Config, target string) (int, error) {
	if err := requireSession(cfg); err != nil {
		return 0, err
	}

	followers := openFollowerStore(cfg, followersFile)
	client := instagram.NewClient(cfg, logger.GetLogger())

	profile, err := client.ResolveProfile(ctx, target)
	if err != nil {
		return 0, err
	}
	logger.WithFields(map[string]interface{}{
		"target":    target,
		"id":        profile.ID,
		"followers": profile.FollowerCount,
	}).Info("target resolved")

	walks, err := checkpoint.NewManager(cfg.DataDir, target)
	if err != nil {
		return 0, err
	}
	walk, err := walks.Load()
	if err != nil {
		return 0, err
	}
	if walk == nil {
		walk, err = walks.Create(target, profile.ID)
		if err != nil {
			return 0, err
		}
	} else {
		logger.WithFields(map[string]interface{}{
			"cursor":    walk.Cursor,
			"collected": walk.Collected,
		}).Info("resuming follower walk from checkpoint")
	}

	collected := walk.Collected
	err = collectWithUI("followers", target, func(onProgress func(pipeline.Progress)) error {
		return client.CollectFollowers(ctx, profile.ID, walk.Cursor, func(page []models.RawRecord, nextCursor string) error {
			followers.Append(page...)
			if err := followers.Save(); err != nil {
				return fmt.Errorf("failed to checkpoint follower page: %w", err)
			}
			if err := walks.Advance(walk, nextCursor, len(page)); err != nil {
				return err
			}
			collected += len(page)
			onProgress(pipeline.Progress{
				UnitsDone: collected,
				Units:     profile.FollowerCount,
				Records:   collected,
				Status:    models.RunStatusRunning,
			})
			return nil
		})
	})
	if err != nil {
		return collected, err
	}

	// A finished walk needs no cursor
	if err := walks.Delete(); err != nil {
		logger.WithError(err).Warn("failed to remove walk checkpoint")
	}
	return collected, nil
}
