package report

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"igcollect/pkg/models"
)

// topAccountsShown bounds the bar chart so huge follower sets stay readable
const topAccountsShown = 25

// RenderDashboard writes the HTML dashboard for the given inputs
func (g *Generator) RenderDashboard(w io.Writer, in Inputs) error {
	if err := g.accountTypesPie(in.Profiles).Render(w); err != nil {
		return fmt.Errorf("failed to render account types chart: %w", err)
	}
	if err := g.topAccountsBar(in.Profiles).Render(w); err != nil {
		return fmt.Errorf("failed to render top accounts chart: %w", err)
	}
	if len(in.Followers) > 0 {
		if err := g.growthLine(in.Followers).Render(w); err != nil {
			return fmt.Errorf("failed to render growth chart: %w", err)
		}
	}
	if len(in.Comments) > 0 {
		if err := g.commentersBar(in.Comments).Render(w); err != nil {
			return fmt.Errorf("failed to render commenters chart: %w", err)
		}
	}
	return nil
}

// WriteDashboard renders the dashboard to an HTML file
func (g *Generator) WriteDashboard(path string, in Inputs) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dashboard file: %w", err)
	}
	if err := g.RenderDashboard(f, in); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ServeDashboard serves the dashboard over HTTP, re-deriving the charts
// from loadInputs on every request so a running collection shows up on
// refresh
func (g *Generator) ServeDashboard(addr string, loadInputs func() (Inputs, error)) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		in, err := loadInputs()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := g.RenderDashboard(w, in); err != nil {
			g.logger.WithError(err).Error("dashboard render failed")
		}
	})

	g.logger.InfoWithFields("dashboard listening", map[string]interface{}{
		"addr": addr,
	})
	return http.ListenAndServe(addr, mux)
}

func (g *Generator) accountTypesPie(recs []models.NormalizedRecord) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Account Types"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	var business, private, verified, plain int
	for _, r := range recs {
		switch {
		case r.IsVerified:
			verified++
		case r.IsBusiness || r.IsProfessional:
			business++
		case r.IsPrivate:
			private++
		default:
			plain++
		}
	}

	pie.AddSeries("Accounts", []opts.PieData{
		{Name: "Verified", Value: verified},
		{Name: "Business", Value: business},
		{Name: "Private", Value: private},
		{Name: "Personal", Value: plain},
	})
	return pie
}

func (g *Generator) topAccountsBar(recs []models.NormalizedRecord) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Largest Followers"}))

	sorted := g.AllFollowers(recs)
	if len(sorted) > topAccountsShown {
		sorted = sorted[:topAccountsShown]
	}

	var x []string
	var y []opts.BarData
	for _, r := range sorted {
		x = append(x, r.Handle)
		y = append(y, opts.BarData{Value: r.FollowerCount})
	}
	bar.SetXAxis(x).AddSeries("Followers", y)
	return bar
}

func (g *Generator) growthLine(followers []models.FollowerEntry) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Follower Growth"}))

	var x []string
	var cumulative, monthly []opts.LineData
	for _, p := range g.FollowerGrowth(followers) {
		x = append(x, p.Month)
		cumulative = append(cumulative, opts.LineData{Value: p.Cumulative})
		monthly = append(monthly, opts.LineData{Value: p.New})
	}
	line.SetXAxis(x).
		AddSeries("Cumulative", cumulative).
		AddSeries("New per month", monthly)
	return line
}

func (g *Generator) commentersBar(comments []models.Comment) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Top Commenters"}))

	counts := g.TopCommenters(comments)
	if len(counts) > topAccountsShown {
		counts = counts[:topAccountsShown]
	}

	var x []string
	var y []opts.BarData
	for _, c := range counts {
		x = append(x, c.Handle)
		y = append(y, opts.BarData{Value: c.Comments})
	}
	bar.SetXAxis(x).AddSeries("Comments", y)
	return bar
}
