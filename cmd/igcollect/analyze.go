package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"igcollect/pkg/config"
	"igcollect/pkg/logger"
	"igcollect/pkg/report"
	"igcollect/pkg/ui"
)

// analyzeCmd derives the report set from everything collected
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Generate the report set from collected data",
	Long: `Normalize everything collected so far and write the derived report
set (CSV views plus the HTML dashboard) into <data-dir>/reports.

Which reports appear depends on what has been collected: cross-reference
views need the following list, commenter views need comment data.`,
	Example: `  igcollect analyze`,
	Args:    cobra.NoArgs,
	Run:     runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	written, err := analyze(cfg)
	if err != nil {
		fail("Report generation failed", err)
	}
	ui.PrintSuccess(fmt.Sprintf("Wrote %d reports to %s", written, dataPath(cfg, reportsDir)))
}

// analyze assembles the report inputs, writes every derivable view and
// the dashboard, and logs the summary. Returns how many files were written.
func analyze(cfg *config.Config) (int, error) {
	in, err := loadReportInputs(cfg)
	if err != nil {
		return 0, err
	}
	if len(in.Profiles) == 0 && len(in.Followers) == 0 {
		return 0, fmt.Errorf("nothing collected yet; run 'igcollect parse' or 'igcollect followers' first")
	}

	gen := report.NewGenerator(cfg.Reports, logger.GetLogger())
	dir := dataPath(cfg, reportsDir)

	files, err := gen.WriteAll(dir, in)
	if err != nil {
		return 0, err
	}

	if err := gen.WriteDashboard(filepath.Join(dir, dashboardFile), in); err != nil {
		return len(files), fmt.Errorf("failed to write dashboard: %w", err)
	}

	if len(in.Profiles) > 0 {
		s := gen.Summarize(in.Profiles)
		ui.PrintHighlight("Collection summary")
		ui.PrintInfo("Profiles", fmt.Sprintf("%d", s.Total))
		ui.PrintInfo("Verified", fmt.Sprintf("%d", s.Verified))
		ui.PrintInfo("Business", fmt.Sprintf("%d", s.Business))
		ui.PrintInfo("Private", fmt.Sprintf("%d", s.Private))
		ui.PrintInfo("Median followers", fmt.Sprintf("%.0f", s.MedianFollowers))
		ui.PrintInfo("Mean followers", fmt.Sprintf("%.0f", s.MeanFollowers))
	}

	return len(files) + 1, nil
}
