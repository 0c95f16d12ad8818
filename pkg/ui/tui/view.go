package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"igcollect/pkg/models"
)

const batchPanelRows = 6

// View renders the full TUI frame
func (m *Model) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderProgress())
	if len(m.order) > 0 {
		sections = append(sections, m.renderBatches())
	}
	sections = append(sections, m.renderStats())
	if len(m.logMessages) > 0 {
		sections = append(sections, m.renderLog())
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	title := fmt.Sprintf("igcollect · %s", m.command)
	if m.target != "" {
		title += " @" + m.target
	}
	switch {
	case m.done && m.finalErr != nil:
		title += "  " + errorStyle.Render("FAILED")
	case m.done:
		title += "  " + successStyle.Render("DONE")
	default:
		title += "  " + m.spinner.View()
	}
	return headerStyle.Render(title)
}

func (m *Model) renderProgress() string {
	bar := m.bar.ViewAs(m.completedFraction())

	var label string
	switch {
	case m.unitsTotal > 0:
		label = fmt.Sprintf(" %s/%s units", FormatCount(m.unitsDone), FormatCount(m.unitsTotal))
	case m.batchesTotal > 0:
		finished := 0
		for _, b := range m.batches {
			if b.Status.Terminal() {
				finished++
			}
		}
		label = fmt.Sprintf(" %d/%d batches", finished, m.batchesTotal)
	}

	return panelStyle.Width(m.panelWidth()).Render(bar + label)
}

func (m *Model) renderBatches() string {
	var rows []string
	rows = append(rows, panelTitleStyle.Render("BATCHES"))
	for _, b := range m.activeBatches(batchPanelRows) {
		line := fmt.Sprintf("#%-3d %4d units  %s", b.Number, b.Units, m.renderStatus(b.Status))
		if b.Status == models.RunStatusSucceeded {
			line += fmt.Sprintf("  %s records", FormatCount(b.Records))
		}
		if b.Err != nil {
			line += "  " + errorStyle.Render(truncate(b.Err.Error(), 40))
		}
		rows = append(rows, line)
	}
	return panelStyle.Width(m.panelWidth()).Render(strings.Join(rows, "\n"))
}

func (m *Model) renderStatus(s models.RunStatus) string {
	switch s {
	case models.RunStatusSucceeded:
		return successStyle.Render("✓ " + string(s))
	case models.RunStatusFailed, models.RunStatusAborted, models.RunStatusTimedOut:
		return errorStyle.Render("✗ " + string(s))
	case models.RunStatusRunning:
		return runningStyle.Render(m.spinner.View() + string(s))
	default:
		return pendingStyle.Render(string(s))
	}
}

func (m *Model) renderStats() string {
	elapsed := FormatDuration(time.Since(m.startTime))

	parts := []string{
		statsLabelStyle.Render("RECORDS ") + statsValueStyle.Render(FormatCount(m.records)),
		statsLabelStyle.Render("ELAPSED ") + statsValueStyle.Render(elapsed),
	}

	if !m.backoffUntil.IsZero() && time.Now().Before(m.backoffUntil) {
		wait := FormatDuration(time.Until(m.backoffUntil))
		note := m.backoffNote
		if note == "" {
			note = "rate limited"
		}
		parts = append(parts, warningStyle.Render(fmt.Sprintf("⏸ %s, resuming in %s", note, wait)))
	}

	return panelStyle.Width(m.panelWidth()).Render(strings.Join(parts, "   "))
}

func (m *Model) renderLog() string {
	var rows []string
	rows = append(rows, panelTitleStyle.Render("LOG"))
	for _, msg := range m.logMessages {
		ts := logTimeStyle.Render(msg.Time.Format("15:04:05"))
		var level string
		switch msg.Level {
		case "ERROR":
			level = errorStyle.Render(msg.Level)
		case "SUCCESS":
			level = successStyle.Render(msg.Level)
		case "WARN":
			level = warningStyle.Render(msg.Level)
		default:
			level = logInfoStyle.Render(msg.Level)
		}
		rows = append(rows, fmt.Sprintf("%s %s %s", ts, level, truncate(msg.Message, m.panelWidth()-22)))
	}
	return panelStyle.Width(m.panelWidth()).Render(strings.Join(rows, "\n"))
}

func (m *Model) renderFooter() string {
	if m.showHelp {
		return footerStyle.Render("q quit · ctrl+l clear log · ? hide help")
	}
	if m.done {
		return footerStyle.Render("press q to exit")
	}
	return footerStyle.Render("? help")
}

// panelWidth keeps panels inside the terminal with a small margin
func (m *Model) panelWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	return w
}

// truncate shortens s to max runes with an ellipsis
func truncate(s string, max int) string {
	if max <= 3 {
		max = 3
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
