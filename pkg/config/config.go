package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the collection pipeline.
// It is passed explicitly into the pipeline constructor; nothing reads
// process-wide state after Load returns.
type Config struct {
	// DataDir is where all stores, reports and the run ledger live
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// BatchSize bounds comment batches; the profile actor uses its own size
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// Backend configures the remote batch backend (actor service)
	Backend BackendConfig `yaml:"backend" json:"backend"`

	// Instagram configures the direct web-API client
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Pacing configures the proactive inter-request throttle
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Retry configures reactive backoff on throttling/transient errors
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Collector configures batch-failure policy
	Collector CollectorConfig `yaml:"collector" json:"collector"`

	// Reports configures the derived-view thresholds
	Reports ReportsConfig `yaml:"reports" json:"reports"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BackendConfig holds the remote batch backend settings. Actor identifiers
// are configuration, not code.
type BackendConfig struct {
	Endpoint       string        `yaml:"endpoint" json:"endpoint"`
	FollowersActor string        `yaml:"followers_actor" json:"followers_actor"`
	PostsActor     string        `yaml:"posts_actor" json:"posts_actor"`
	CommentsActor  string        `yaml:"comments_actor" json:"comments_actor"`
	ProfilesActor  string        `yaml:"profiles_actor" json:"profiles_actor"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval"`
	ResultsLimit   int           `yaml:"results_limit" json:"results_limit"`
	TimeoutSecs    int           `yaml:"timeout_secs" json:"timeout_secs"`
	MemoryMBytes   int           `yaml:"memory_mbytes" json:"memory_mbytes"`
	ProfileBatch   int           `yaml:"profile_batch" json:"profile_batch"`
}

// InstagramConfig holds direct web-API settings
type InstagramConfig struct {
	SessionID string `yaml:"session_id" json:"session_id"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	DSUserID  string `yaml:"ds_user_id" json:"ds_user_id"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	AppID     string `yaml:"app_id" json:"app_id"`
	PageSize  int    `yaml:"page_size" json:"page_size"`

	// PageDelay is the proactive floor between any two web-API requests;
	// zero disables the throttle
	PageDelay time.Duration `yaml:"page_delay" json:"page_delay"`
	// PagePause is the longer rest taken every PagePauseEvery follower
	// pages; PagePauseEvery 0 disables it
	PagePause      time.Duration `yaml:"page_pause" json:"page_pause"`
	PagePauseEvery int           `yaml:"page_pause_every" json:"page_pause_every"`
}

// PacingConfig holds the proactive throttle: a fixed delay after every
// unit plus a longer pause after every N units.
type PacingConfig struct {
	PerUnitDelay    time.Duration `yaml:"per_unit_delay" json:"per_unit_delay"`
	BatchPauseEvery int           `yaml:"batch_pause_every" json:"batch_pause_every"`
	BatchPause      time.Duration `yaml:"batch_pause" json:"batch_pause"`
}

// RetryConfig holds reactive backoff settings
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts" json:"max_attempts"`
	RateLimitBase time.Duration `yaml:"rate_limit_base" json:"rate_limit_base"`
	NetworkBase   time.Duration `yaml:"network_base" json:"network_base"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
}

// CollectorConfig holds batch-collector policy settings
type CollectorConfig struct {
	// ContinueOnBatchFailure skips a failed batch and moves on instead of
	// aborting the whole run. Off by default.
	ContinueOnBatchFailure bool `yaml:"continue_on_batch_failure" json:"continue_on_batch_failure"`
}

// ReportsConfig holds thresholds and keyword lists for the derived views
type ReportsConfig struct {
	NoteworthyFollowers int      `yaml:"noteworthy_followers" json:"noteworthy_followers"`
	LargeFollowing      int      `yaml:"large_following" json:"large_following"`
	LocalKeywords       []string `yaml:"local_keywords" json:"local_keywords"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir:   "data",
		BatchSize: 50,
		Backend: BackendConfig{
			Endpoint:       "https://api.apify.com",
			FollowersActor: "instaprism~instagram-followers-scraper",
			PostsActor:     "apify~instagram-post-scraper",
			CommentsActor:  "apify~instagram-comment-scraper",
			ProfilesActor:  "apify~instagram-profile-scraper",
			PollInterval:   15 * time.Second,
			ResultsLimit:   200,
			TimeoutSecs:    3600,
			MemoryMBytes:   4096,
			ProfileBatch:   1000,
		},
		Instagram: InstagramConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			AppID:          "936619743392459",
			PageSize:       100,
			PageDelay:      2 * time.Second,
			PagePause:      15 * time.Second,
			PagePauseEvery: 10,
		},
		Pacing: PacingConfig{
			PerUnitDelay:    4 * time.Second,
			BatchPauseEvery: 40,
			BatchPause:      45 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:   8,
			RateLimitBase: 60 * time.Second,
			NetworkBase:   30 * time.Second,
			MaxDelay:      900 * time.Second,
		},
		Collector: CollectorConfig{
			ContinueOnBatchFailure: false,
		},
		Reports: ReportsConfig{
			NoteworthyFollowers: 5000,
			LargeFollowing:      25000,
			LocalKeywords: []string{
				"queens", "astoria", "lic", "long island city",
				"nyc", "new york", "brooklyn",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("IGCOLLECT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("IGCOLLECT_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.BatchSize = n
		}
	}
	if v := os.Getenv("APIFY_TOKEN"); v != "" {
		// Token is resolved through pkg/auth; presence here is not an error,
		// we just never copy it into the config struct.
		_ = v
	}
	if v := os.Getenv("IGCOLLECT_BACKEND_ENDPOINT"); v != "" {
		c.Backend.Endpoint = v
	}
	if v := os.Getenv("IG_SESSION_ID"); v != "" {
		c.Instagram.SessionID = v
	}
	if v := os.Getenv("IG_CSRF_TOKEN"); v != "" {
		c.Instagram.CSRFToken = v
	}
	if v := os.Getenv("IG_DS_USER_ID"); v != "" {
		c.Instagram.DSUserID = v
	}
	if v := os.Getenv("IGCOLLECT_USER_AGENT"); v != "" {
		c.Instagram.UserAgent = v
	}
	if v := os.Getenv("IGCOLLECT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IGCOLLECT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".igcollect.yaml",
		".igcollect.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igcollect", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igcollect", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igcollect.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data directory is required"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.Backend.Endpoint == "" {
		errs = append(errs, errors.New("backend endpoint is required"))
	}
	if c.Backend.PollInterval <= 0 {
		errs = append(errs, errors.New("backend poll interval must be positive"))
	}
	if c.Backend.ProfileBatch <= 0 {
		errs = append(errs, errors.New("profile batch size must be positive"))
	}
	if c.Instagram.PageSize <= 0 || c.Instagram.PageSize > 200 {
		errs = append(errs, errors.New("instagram page size must be between 1 and 200"))
	}
	if c.Pacing.PerUnitDelay < 0 {
		errs = append(errs, errors.New("per-unit delay cannot be negative"))
	}
	if c.Pacing.BatchPauseEvery < 0 {
		errs = append(errs, errors.New("batch pause interval cannot be negative"))
	}
	if c.Instagram.PageDelay < 0 || c.Instagram.PagePause < 0 || c.Instagram.PagePauseEvery < 0 {
		errs = append(errs, errors.New("instagram page pacing values cannot be negative"))
	}
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}
	if c.Retry.MaxDelay < c.Retry.RateLimitBase {
		errs = append(errs, errors.New("retry max delay must be at least the rate limit base delay"))
	}
	if c.Reports.NoteworthyFollowers < 0 || c.Reports.LargeFollowing < 0 {
		errs = append(errs, errors.New("report thresholds cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, errors.New("invalid log format"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.DataDir = dataDir
	}
	if batchSize, ok := flags["batch-size"].(int); ok && batchSize > 0 {
		c.BatchSize = batchSize
	}
	if endpoint, ok := flags["backend-endpoint"].(string); ok && endpoint != "" {
		c.Backend.Endpoint = endpoint
	}
	if sessionID, ok := flags["session-id"].(string); ok && sessionID != "" {
		c.Instagram.SessionID = sessionID
	}
	if csrfToken, ok := flags["csrf-token"].(string); ok && csrfToken != "" {
		c.Instagram.CSRFToken = csrfToken
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if fast, ok := flags["fast"].(bool); ok && fast {
		c.ApplyFastPacing()
	}
	if cont, ok := flags["continue-on-failure"].(bool); ok && cont {
		c.Collector.ContinueOnBatchFailure = true
	}
}

// ApplyFastPacing switches to the aggressive pacing profile. Riskier with
// respect to rate limits; intended for small accounts.
func (c *Config) ApplyFastPacing() {
	c.Pacing.PerUnitDelay = 1500 * time.Millisecond
	c.Pacing.BatchPauseEvery = 50
	c.Pacing.BatchPause = 15 * time.Second
	c.Instagram.PageDelay = 1 * time.Second
	c.Instagram.PagePause = 5 * time.Second
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igcollect.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
