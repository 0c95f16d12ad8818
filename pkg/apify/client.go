// Package apify is the remote batch backend client: it starts actor runs
// for a batch of work units, polls run status, and drains dataset items
// page by page.
package apify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	errs "igcollect/pkg/errors"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
)

// datasetPageSize is the page size used when draining dataset items
const datasetPageSize = 1000

// Client talks to the actor service REST API
type Client struct {
	http   *resty.Client
	logger logger.Logger
}

// NewClient creates a client against the given endpoint using the API token
func NewClient(endpoint, token string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	http := resty.New()
	http.SetBaseURL(endpoint)
	http.SetAuthToken(token)
	http.SetTimeout(60 * time.Second)
	http.SetHeader("Content-Type", "application/json")

	return &Client{http: http, logger: log}
}

// runData is the envelope the run endpoints return
type runData struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// RunInfo describes one actor run
type RunInfo struct {
	ID        string
	Status    models.RunStatus
	DatasetID string
}

// StartRun starts an actor run with the given input
func (c *Client) StartRun(ctx context.Context, actor string, input map[string]any, timeoutSecs, memoryMBytes int) (*RunInfo, error) {
	var out runData
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("timeout", fmt.Sprintf("%d", timeoutSecs)).
		SetQueryParam("memory", fmt.Sprintf("%d", memoryMBytes)).
		SetBody(input).
		SetResult(&out).
		Post(fmt.Sprintf("/v2/acts/%s/runs", actor))
	if err != nil {
		return nil, errs.NewWithCode(errs.ErrorTypeNetwork, fmt.Sprintf("failed to start run: %v", err), 0)
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	info := &RunInfo{
		ID:        out.Data.ID,
		Status:    mapStatus(out.Data.Status),
		DatasetID: out.Data.DefaultDatasetID,
	}
	c.logger.InfoWithFields("actor run started", map[string]interface{}{
		"actor":  actor,
		"run":    info.ID,
		"status": string(info.Status),
	})
	return info, nil
}

// GetRun fetches the current state of a run
func (c *Client) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	var out runData
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/v2/actor-runs/%s", runID))
	if err != nil {
		return nil, errs.NewWithCode(errs.ErrorTypeNetwork, fmt.Sprintf("failed to get run %s: %v", runID, err), 0)
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	return &RunInfo{
		ID:        out.Data.ID,
		Status:    mapStatus(out.Data.Status),
		DatasetID: out.Data.DefaultDatasetID,
	}, nil
}

// DatasetItems drains a dataset completely, page by page. The feed is
// single-pass; the returned slice is the cached, complete result set.
func (c *Client) DatasetItems(ctx context.Context, datasetID string) ([]models.RawRecord, error) {
	var all []models.RawRecord
	offset := 0

	for {
		var page []models.RawRecord
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("format", "json").
			SetQueryParam("offset", fmt.Sprintf("%d", offset)).
			SetQueryParam("limit", fmt.Sprintf("%d", datasetPageSize)).
			SetResult(&page).
			Get(fmt.Sprintf("/v2/datasets/%s/items", datasetID))
		if err != nil {
			return nil, errs.NewWithCode(errs.ErrorTypeNetwork, fmt.Sprintf("failed to fetch dataset page: %v", err), 0)
		}
		if err := c.checkStatus(resp); err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(page) < datasetPageSize {
			break
		}
		offset += len(page)
	}

	c.logger.DebugWithFields("dataset drained", map[string]interface{}{
		"dataset": datasetID,
		"items":   len(all),
	})
	return all, nil
}

// checkStatus maps HTTP status codes to typed errors
func (c *Client) checkStatus(resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == 401 || code == 403:
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "actor service rejected the API token",
			Code:    code,
			Hint:    "set APIFY_TOKEN or run 'igcollect auth login'",
		}
	case code == 404:
		return errs.NewWithCode(errs.ErrorTypeNotFound, "resource not found", code)
	case code == 429:
		return errs.NewWithCode(errs.ErrorTypeRateLimit, "rate limit exceeded", code)
	case code >= 500:
		return errs.NewWithCode(errs.ErrorTypeServerError, "actor service error", code)
	default:
		return errs.NewWithCode(errs.ErrorTypeUnknown, fmt.Sprintf("unexpected status code %d", code), code)
	}
}

// mapStatus converts the service's run states to the canonical lifecycle
func mapStatus(s string) models.RunStatus {
	switch s {
	case "READY":
		return models.RunStatusPending
	case "RUNNING", "TIMING-OUT", "ABORTING":
		return models.RunStatusRunning
	case "SUCCEEDED":
		return models.RunStatusSucceeded
	case "FAILED":
		return models.RunStatusFailed
	case "ABORTED":
		return models.RunStatusAborted
	case "TIMED-OUT":
		return models.RunStatusTimedOut
	default:
		return models.RunStatusPending
	}
}
