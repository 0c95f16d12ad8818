package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"igcollect/pkg/config"
	errs "igcollect/pkg/errors"
	"igcollect/pkg/logger"
	"igcollect/pkg/models"
	"igcollect/pkg/retry"
)

// Client is an authenticated web-API client. Every request carries the
// session cookies and the app id header, and passes through a proactive
// rate limiter before it leaves the process. The limiter interval and the
// follower-walk pauses come from the instagram configuration section.
type Client struct {
	httpClient     *http.Client
	headers        map[string]string
	baseURL        string
	pageSize       int
	pagePause      time.Duration
	pagePauseEvery int
	limiter        *rate.Limiter
	retrier        *retry.Retrier
	logger         logger.Logger
}

// NewClient creates a client from the resolved configuration. The session
// cookies must already be populated; use pkg/auth to load them.
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	ig := cfg.Instagram
	cookie := fmt.Sprintf("sessionid=%s; csrftoken=%s; ds_user_id=%s",
		ig.SessionID, ig.CSRFToken, ig.DSUserID)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: map[string]string{
			"User-Agent":       ig.UserAgent,
			"Accept":           "*/*",
			"Accept-Language":  "en-US,en;q=0.9",
			"X-IG-App-ID":      ig.AppID,
			"X-CSRFToken":      ig.CSRFToken,
			"X-Requested-With": "XMLHttpRequest",
			"Referer":          BaseURL + "/",
			"Cookie":           cookie,
		},
		baseURL:        BaseURL,
		pageSize:       ig.PageSize,
		pagePause:      ig.PagePause,
		pagePauseEvery: ig.PagePauseEvery,
		// rate.Every treats a zero interval as no limit
		limiter: rate.NewLimiter(rate.Every(ig.PageDelay), 1),
		retrier: retry.NewRetrier(cfg.Retry, log),
		logger:  log,
	}
}

// SetBaseURL points the client at a different host (used by tests)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// webProfileResponse is the profile resolution envelope. The user document
// is kept as a raw map so the normalizer sees the upstream field names.
type webProfileResponse struct {
	Data struct {
		User map[string]any `json:"user"`
	} `json:"data"`
	RequireLogin bool   `json:"require_login"`
	Status       string `json:"status"`
}

// followersResponse is one page of the follower listing
type followersResponse struct {
	Users     []models.RawRecord `json:"users"`
	NextMaxID string             `json:"next_max_id"`
	Status    string             `json:"status"`
}

// Profile is the resolved identity of a target account
type Profile struct {
	ID            string
	Username      string
	FullName      string
	FollowerCount int
	IsPrivate     bool
	Raw           models.RawRecord
}

// getJSON performs one authenticated GET, waits on the limiter first, and
// maps status codes to typed errors
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("request cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err))
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewWithCode(errs.ErrorTypeNetwork, fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode)
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"body_preview": preview,
		})
		return errs.NewWithCode(errs.ErrorTypeParsing, fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode)
	}

	return nil
}

// checkResponseStatus maps response codes to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.SessionExpired(resp.StatusCode)
	case http.StatusNotFound:
		return errs.NewWithCode(errs.ErrorTypeNotFound, "resource not found", resp.StatusCode)
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit signal", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.NewWithCode(errs.ErrorTypeRateLimit, "rate limit exceeded", resp.StatusCode)
	default:
		if resp.StatusCode >= 500 {
			return errs.NewWithCode(errs.ErrorTypeServerError, "server error", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return errs.NewWithCode(errs.ErrorTypeUnknown, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), resp.StatusCode)
		}
		return nil
	}
}

// ResolveProfile resolves a handle to its identity, retrying through
// throttling and transient network errors
func (c *Client) ResolveProfile(ctx context.Context, username string) (*Profile, error) {
	username = SanitizeUsername(username)
	url := GetProfileURL(c.baseURL, username)

	var response webProfileResponse
	err := c.retrier.Do(ctx, func() error {
		return c.getJSON(ctx, url, &response)
	})
	if err != nil {
		return nil, err
	}

	if response.RequireLogin {
		return nil, errs.SessionExpired(http.StatusUnauthorized)
	}
	if response.Data.User == nil {
		return nil, errs.NewWithCode(errs.ErrorTypeNotFound, fmt.Sprintf("no such account: %s", username), http.StatusNotFound)
	}

	raw := models.RawRecord(response.Data.User)
	profile := &Profile{
		ID:       raw.String("id", "pk"),
		Username: raw.String("username"),
		FullName: raw.String("full_name"),
		Raw:      raw,
	}
	if counts, ok := raw["edge_followed_by"].(map[string]any); ok {
		if n, ok := counts["count"].(float64); ok {
			profile.FollowerCount = int(n)
		}
	}
	if p, ok := raw["is_private"].(bool); ok {
		profile.IsPrivate = p
	}

	c.logger.InfoWithFields("profile resolved", map[string]interface{}{
		"username":  profile.Username,
		"user_id":   profile.ID,
		"followers": profile.FollowerCount,
	})
	return profile, nil
}

// FetchProfile fetches one account's full profile as a raw record. It has
// the shape the per-unit collector expects.
func (c *Client) FetchProfile(ctx context.Context, username string) (models.RawRecord, error) {
	profile, err := c.ResolveProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	return profile.Raw, nil
}

// FollowersPage fetches one page of a user's followers. The returned cursor
// is empty on the last page.
func (c *Client) FollowersPage(ctx context.Context, userID, maxID string) ([]models.RawRecord, string, error) {
	url := GetFollowersURL(c.baseURL, userID, c.pageSize, maxID)

	var response followersResponse
	err := c.retrier.Do(ctx, func() error {
		response = followersResponse{}
		return c.getJSON(ctx, url, &response)
	})
	if err != nil {
		return nil, "", err
	}

	return response.Users, response.NextMaxID, nil
}

// CollectFollowers walks the full follower list starting from cursor.
// onPage is called once per fetched page with the page's records and the
// cursor of the NEXT page; persisting both is the caller's checkpoint, so
// an interrupted walk resumes at the last unprocessed page. Every
// pagePauseEvery pages the walk rests a little longer.
func (c *Client) CollectFollowers(ctx context.Context, userID, cursor string, onPage func(records []models.RawRecord, nextCursor string) error) error {
	page := 0
	for {
		records, next, err := c.FollowersPage(ctx, userID, cursor)
		if err != nil {
			return err
		}
		page++

		if err := onPage(records, next); err != nil {
			return err
		}

		c.logger.DebugWithFields("follower page collected", map[string]interface{}{
			"page":    page,
			"records": len(records),
			"more":    next != "",
		})

		if next == "" {
			return nil
		}
		cursor = next

		if c.pagePauseEvery > 0 && page%c.pagePauseEvery == 0 {
			c.logger.InfoWithFields("pausing between follower pages", map[string]interface{}{
				"page":  page,
				"pause": c.pagePause.String(),
			})
			if err := retry.Wait(ctx, c.pagePause); err != nil {
				return fmt.Errorf("collection interrupted: %w", err)
			}
		}
	}
}
