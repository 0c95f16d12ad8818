package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igcollect/pkg/config"
	"igcollect/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igcollect configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - .env files
  - Configuration file (.igcollect.yaml)
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.igcollect.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration merged from all sources.

Sensitive values like session cookies will be masked for security.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".igcollect.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# igcollect configuration file
#
# Credentials are NOT configured here; use 'igcollect auth login' or the
# APIFY_TOKEN / IG_SESSION_ID / IG_CSRF_TOKEN / IG_DS_USER_ID environment
# variables.

# Where all stores, reports and the run ledger live
data_dir: data

# Comment batches; the profile actor uses backend.profile_batch
batch_size: 50

# Remote batch backend (actor service)
backend:
  endpoint: https://api.apify.com
  # Actor identifiers are configuration, not code
  followers_actor: instaprism~instagram-followers-scraper
  posts_actor: apify~instagram-post-scraper
  comments_actor: apify~instagram-comment-scraper
  profiles_actor: apify~instagram-profile-scraper
  poll_interval: 15s
  results_limit: 200
  timeout_secs: 3600
  memory_mbytes: 4096
  profile_batch: 1000

# Direct web-API client
instagram:
  # Browser user agent sent with every request
  user_agent: ""
  page_size: 100
  # Floor between any two requests, and the longer rest taken every
  # page_pause_every follower pages
  page_delay: 2s
  page_pause: 15s
  page_pause_every: 10

# Proactive throttle for direct collection
pacing:
  per_unit_delay: 4s
  batch_pause_every: 40
  batch_pause: 45s

# Reactive backoff on throttling and transient errors
retry:
  max_attempts: 8
  rate_limit_base: 60s
  network_base: 30s
  max_delay: 900s

# Batch-failure policy
collector:
  continue_on_batch_failure: false

# Report thresholds
reports:
  noteworthy_followers: 5000
  large_following: 25000
  local_keywords:
    - queens
    - astoria
    - lic
    - long island city
    - nyc
    - new york
    - brooklyn

# Logging
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log format: console, json
  format: console
  # Log file path; empty logs to stderr
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'igcollect auth login' to store credentials")
	fmt.Println("2. Run 'igcollect config validate' to check the configuration")
	fmt.Println("3. Start collecting with 'igcollect followers <target>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Mask session values that leaked into the config via env
	displayCfg := *cfg
	displayCfg.Instagram.SessionID = maskValue(displayCfg.Instagram.SessionID)
	displayCfg.Instagram.CSRFToken = maskValue(displayCfg.Instagram.CSRFToken)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (auto-discovered)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		possiblePaths := []string{
			".igcollect.yaml",
			".igcollect.yml",
			filepath.Join(os.Getenv("HOME"), ".config", "igcollect", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".igcollect.yaml"),
		}
		for _, p := range possiblePaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
		if path == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings, errors []string

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		errors = append(errors, fmt.Sprintf("Cannot create data directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}
	if cfg.Backend.FollowersActor == "" {
		warnings = append(warnings, "no followers actor configured; 'igcollect followers' needs one")
	}
	if cfg.Backend.ProfilesActor == "" {
		warnings = append(warnings, "no profiles actor configured; batch 'igcollect enrich' needs one")
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, e := range errors {
			fmt.Printf("  - %s\n", e)
		}
		os.Exit(1)
	}
	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Data directory: %s\n", cfg.DataDir)
	fmt.Printf("  Batch size: %d (profiles: %d)\n", cfg.BatchSize, cfg.Backend.ProfileBatch)
	fmt.Printf("  Backend endpoint: %s\n", cfg.Backend.Endpoint)
	fmt.Printf("  Poll interval: %s\n", cfg.Backend.PollInterval)
	fmt.Printf("  Pacing: %s per unit, %s every %d units\n",
		cfg.Pacing.PerUnitDelay, cfg.Pacing.BatchPause, cfg.Pacing.BatchPauseEvery)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

// maskValue hides all but the edges of a sensitive value
func maskValue(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "***"
	}
	return v[:4] + "..." + v[len(v)-4:]
}
