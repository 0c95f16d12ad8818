package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"igcollect/pkg/config"
	"igcollect/pkg/export"
	"igcollect/pkg/logger"
	"igcollect/pkg/ui"
)

var (
	sinceDate     string
	skipFollowing bool
)

// parseCmd parses the official Instagram data export
var parseCmd = &cobra.Command{
	Use:   "parse <export-path>",
	Short: "Parse the official Instagram data export",
	Long: `Parse the follower and following lists out of an official Instagram
data export and merge them into the local stores. The export can be the
downloaded ZIP, the extracted directory, or a single followers file;
both JSON shapes and the HTML format are understood.

No credentials are needed. The parsed handles become the work units for
'igcollect enrich'.`,
	Example: `  # Parse the downloaded export ZIP
  igcollect parse instagram-someaccount-2026-08-25.zip

  # Parse an extracted directory, followers from March 2024 on
  igcollect parse ./export --since 2024-03-01`,
	Args: cobra.ExactArgs(1),
	Run:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVar(&sinceDate, "since", "", "keep only entries followed on or after this date (YYYY-MM-DD)")
	parseCmd.Flags().BoolVar(&skipFollowing, "skip-following", false, "do not parse the following list")
}

func runParse(cmd *cobra.Command, args []string) {
	path := args[0]
	cfg := loadConfig()

	added, err := parseExport(cfg, path)
	if err != nil {
		fail("Export parsing failed", err)
	}
	ui.PrintSuccess(fmt.Sprintf("Parsed export: %d new follower entries", added))
}

// parseExport merges the export's follower (and following) lists into the
// stores and returns how many follower entries were new.
func parseExport(cfg *config.Config, path string) (int, error) {
	entries, err := export.ParseFollowers(path)
	if err != nil {
		return 0, err
	}
	if sinceDate != "" {
		entries, err = export.FilterSince(entries, sinceDate)
		if err != nil {
			return 0, err
		}
	}

	followers := openFollowerStore(cfg, followersFile)
	added := followers.Append(entriesToRaw(entries)...)
	if err := followers.Save(); err != nil {
		return 0, fmt.Errorf("failed to save follower store: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"entries": len(entries),
		"new":     added,
	}).Info("follower list parsed")

	if !skipFollowing {
		following, err := export.ParseFollowing(path)
		if err == nil {
			fs := openFollowerStore(cfg, followingFile)
			fs.Append(entriesToRaw(following)...)
			if err := fs.Save(); err != nil {
				return added, fmt.Errorf("failed to save following store: %w", err)
			}
			logger.WithField("entries", len(following)).Info("following list parsed")
		} else {
			// Exports without a following list are common; the cross-reference
			// reports are simply skipped later.
			logger.WithError(err).Debug("no following list in export")
		}
	}

	return added, nil
}
