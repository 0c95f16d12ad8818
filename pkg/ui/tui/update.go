package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"igcollect/pkg/models"
)

// Message types for the TUI

// BatchStartMsg is sent when a batch is submitted to the backend
type BatchStartMsg struct {
	Number int
	Units  int
}

// BatchTotalMsg fixes the expected number of batches
type BatchTotalMsg struct {
	Total int
}

// BatchStatusMsg carries a polled remote run state
type BatchStatusMsg struct {
	Number int
	Status models.RunStatus
}

// BatchDoneMsg is sent when a batch reaches a terminal state
type BatchDoneMsg struct {
	Number  int
	Records int
	Error   error
}

// UnitProgressMsg updates per-unit counters for direct collection
type UnitProgressMsg struct {
	Done    int
	Total   int
	Records int
}

// BackoffMsg announces a rate-limit wait; a zero Until clears it
type BackoffMsg struct {
	Until time.Time
	Note  string
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// RunDoneMsg ends the run; Error is the terminal failure if any
type RunDoneMsg struct {
	Error error
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tea.Batch(
			tickCmd(),
			m.spinner.Tick,
		)

	case BatchStartMsg:
		m.StartBatch(msg.Number, msg.Units)
		m.AddLogMessage("INFO", "Submitted batch "+FormatCount(msg.Number))
		return m, nil

	case BatchTotalMsg:
		m.SetBatchTotal(msg.Total)
		return m, nil

	case BatchStatusMsg:
		m.SetBatchStatus(msg.Number, msg.Status)
		return m, nil

	case BatchDoneMsg:
		m.FinishBatch(msg.Number, msg.Records, msg.Error)
		if msg.Error != nil {
			m.AddLogMessage("ERROR", "Batch failed: "+msg.Error.Error())
		} else {
			m.AddLogMessage("SUCCESS", "Batch checkpointed: "+FormatCount(msg.Records)+" records")
		}
		return m, nil

	case UnitProgressMsg:
		m.SetUnitProgress(msg.Done, msg.Total, msg.Records)
		return m, nil

	case BackoffMsg:
		m.SetBackoff(msg.Until, msg.Note)
		if !msg.Until.IsZero() {
			m.AddLogMessage("WARN", "Backing off: "+msg.Note)
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case RunDoneMsg:
		m.SetDone(msg.Error)
		if msg.Error != nil {
			m.AddLogMessage("ERROR", "Run failed: "+msg.Error.Error())
		} else {
			m.AddLogMessage("SUCCESS", "Run complete")
		}
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = []LogMessage{}
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
