package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"igcollect/pkg/models"
	"igcollect/pkg/pipeline"
)

const progressBarWidth = 30

// Tracker renders collection progress on a single console line. It is fed
// through Handle, which satisfies the collector's OnProgress hook.
type Tracker struct {
	mu        sync.Mutex
	startTime time.Time
	records   int
	quiet     bool
}

// NewTracker creates a console progress tracker
func NewTracker(quiet bool) *Tracker {
	return &Tracker{
		startTime: time.Now(),
		quiet:     quiet,
	}
}

// Handle renders one progress update; safe for concurrent use
func (t *Tracker) Handle(p pipeline.Progress) {
	if t.quiet {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if p.Records > 0 {
		t.records = p.Records
	}

	var bar, counts string
	switch {
	case p.Batches > 0:
		bar = renderBar(p.Batch, p.Batches)
		counts = fmt.Sprintf("batch %d/%d", p.Batch, p.Batches)
	case p.Units > 0:
		bar = renderBar(p.UnitsDone, p.Units)
		counts = fmt.Sprintf("%d/%d", p.UnitsDone, p.Units)
	default:
		counts = fmt.Sprintf("%d done", p.UnitsDone)
	}

	elapsed := time.Since(t.startTime).Round(time.Second)
	line := fmt.Sprintf("\r%s %s %s  %s records  %s",
		bar, counts, statusLabel(p.Status), formatCount(t.records), Dim(elapsed.String()))
	fmt.Print(line + strings.Repeat(" ", 4))
}

// Finish terminates the progress line and prints the final tally
func (t *Tracker) Finish() {
	if t.quiet {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.startTime).Round(time.Second)
	fmt.Printf("\n%s\n", Dim(fmt.Sprintf("%s records in %s", formatCount(t.records), elapsed)))
}

// renderBar draws a block progress bar for done out of total
func renderBar(done, total int) string {
	if total <= 0 {
		return ""
	}
	if done > total {
		done = total
	}
	filled := progressBarWidth * done / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
	return Cyan("[" + bar + "]")
}

// statusLabel colors a run status for display
func statusLabel(s models.RunStatus) string {
	switch s {
	case models.RunStatusSucceeded:
		return Green(string(s))
	case models.RunStatusFailed, models.RunStatusAborted, models.RunStatusTimedOut:
		return Red(string(s))
	case models.RunStatusRunning:
		return Yellow(string(s))
	case "":
		return ""
	default:
		return Dim(string(s))
	}
}

// formatCount renders an integer with thousands separators
func formatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}
