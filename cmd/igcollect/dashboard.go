package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"igcollect/pkg/logger"
	"igcollect/pkg/report"
	"igcollect/pkg/ui"
)

var (
	serveAddr  string
	outputHTML string
)

// dashboardCmd renders or serves the chart dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render or serve the chart dashboard",
	Long: `Render the chart dashboard from the collected data. By default the
HTML file is written into the reports directory; with --serve the
dashboard is re-derived from the stores on every request, so it stays
current while collection runs elsewhere.`,
	Example: `  # Write reports/dashboard.html
  igcollect dashboard

  # Serve live on localhost
  igcollect dashboard --serve :8080`,
	Args: cobra.NoArgs,
	Run:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&serveAddr, "serve", "", "serve the dashboard over HTTP on this address instead of writing a file")
	dashboardCmd.Flags().StringVarP(&outputHTML, "output", "o", "", "output path (default <data-dir>/reports/dashboard.html)")
}

func runDashboard(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	gen := report.NewGenerator(cfg.Reports, logger.GetLogger())

	if serveAddr != "" {
		ui.PrintInfo("Serving dashboard", "http://"+displayAddr(serveAddr))
		err := gen.ServeDashboard(serveAddr, func() (report.Inputs, error) {
			return loadReportInputs(cfg)
		})
		if err != nil {
			ui.PrintError("Dashboard server failed", err.Error())
			os.Exit(1)
		}
		return
	}

	in, err := loadReportInputs(cfg)
	if err != nil {
		ui.PrintError("Failed to load collected data", err.Error())
		os.Exit(1)
	}

	path := outputHTML
	if path == "" {
		path = filepath.Join(dataPath(cfg, reportsDir), dashboardFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		ui.PrintError("Failed to create output directory", err.Error())
		os.Exit(1)
	}
	if err := gen.WriteDashboard(path, in); err != nil {
		ui.PrintError("Failed to write dashboard", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Dashboard written to %s", path))
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
