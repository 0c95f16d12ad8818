package apify

import (
	"context"

	"igcollect/pkg/config"
	errs "igcollect/pkg/errors"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
	"igcollect/pkg/pipeline"
	"igcollect/pkg/retry"
)

// InputBuilder shapes a batch of work units into one actor's input document.
// Each actor expects its own key for the unit list.
type InputBuilder func(units []string) map[string]any

// ActorBackend runs one actor per batch. It implements pipeline.BatchBackend;
// transient network and throttling errors on the service calls themselves are
// retried here, while run-level failures surface to the collector untouched.
type ActorBackend struct {
	client  *Client
	actor   string
	input   InputBuilder
	timeout int
	memory  int
	retrier *retry.Retrier
	logger  logger.Logger
}

func newActorBackend(client *Client, cfg *config.Config, actor string, input InputBuilder, log logger.Logger) *ActorBackend {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ActorBackend{
		client:  client,
		actor:   actor,
		input:   input,
		timeout: cfg.Backend.TimeoutSecs,
		memory:  cfg.Backend.MemoryMBytes,
		retrier: retry.NewRetrier(cfg.Retry, log),
		logger:  log,
	}
}

// NewFollowersBackend collects the follower list of a single target account
func NewFollowersBackend(client *Client, cfg *config.Config, log logger.Logger) *ActorBackend {
	input := func(units []string) map[string]any {
		target := ""
		if len(units) > 0 {
			target = units[0]
		}
		return map[string]any{
			"username":     target,
			"maxFollowers": 0, // 0 means all
		}
	}
	return newActorBackend(client, cfg, cfg.Backend.FollowersActor, input, log)
}

// NewPostsBackend collects recent posts for the given accounts
func NewPostsBackend(client *Client, cfg *config.Config, log logger.Logger) *ActorBackend {
	limit := cfg.Backend.ResultsLimit
	input := func(units []string) map[string]any {
		return map[string]any{
			"username":     units,
			"resultsLimit": limit,
		}
	}
	return newActorBackend(client, cfg, cfg.Backend.PostsActor, input, log)
}

// NewCommentsBackend collects comments for batches of post URLs
func NewCommentsBackend(client *Client, cfg *config.Config, log logger.Logger) *ActorBackend {
	limit := cfg.Backend.ResultsLimit
	input := func(units []string) map[string]any {
		return map[string]any{
			"directUrls":   units,
			"resultsLimit": limit,
		}
	}
	return newActorBackend(client, cfg, cfg.Backend.CommentsActor, input, log)
}

// NewProfilesBackend bulk-enriches batches of handles into full profiles
func NewProfilesBackend(client *Client, cfg *config.Config, log logger.Logger) *ActorBackend {
	input := func(units []string) map[string]any {
		return map[string]any{
			"usernames": units,
		}
	}
	return newActorBackend(client, cfg, cfg.Backend.ProfilesActor, input, log)
}

// Submit starts one actor run for the batch
func (b *ActorBackend) Submit(ctx context.Context, units []string) (pipeline.RunHandle, error) {
	var info *RunInfo
	err := b.retrier.Do(ctx, func() error {
		var opErr error
		info, opErr = b.client.StartRun(ctx, b.actor, b.input(units), b.timeout, b.memory)
		return opErr
	})
	if err != nil {
		return pipeline.RunHandle{}, err
	}
	return pipeline.RunHandle{ID: info.ID, DatasetID: info.DatasetID}, nil
}

// Status reports the run's current lifecycle state
func (b *ActorBackend) Status(ctx context.Context, h pipeline.RunHandle) (models.RunStatus, error) {
	var info *RunInfo
	err := b.retrier.Do(ctx, func() error {
		var opErr error
		info, opErr = b.client.GetRun(ctx, h.ID)
		return opErr
	})
	if err != nil {
		return "", err
	}
	return info.Status, nil
}

// Results drains the run's dataset. The dataset id from submission is used
// when present; otherwise it is re-resolved from the run.
func (b *ActorBackend) Results(ctx context.Context, h pipeline.RunHandle) ([]models.RawRecord, error) {
	datasetID := h.DatasetID
	if datasetID == "" {
		info, err := b.client.GetRun(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		if info.DatasetID == "" {
			return nil, errs.New(errs.ErrorTypeServerError, "run has no dataset")
		}
		datasetID = info.DatasetID
	}

	var items []models.RawRecord
	err := b.retrier.Do(ctx, func() error {
		var opErr error
		items, opErr = b.client.DatasetItems(ctx, datasetID)
		return opErr
	})
	return items, err
}
