package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"igcollect/pkg/models"
)

// TUI wraps the bubbletea program and exposes collection-run hooks that
// are safe to call from the collector goroutine.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a TUI for one collection run
func NewTUI(command, target string) *TUI {
	model := NewModel(command, target)
	program := tea.NewProgram(&model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start runs the TUI; blocks until the user quits or Stop is called
func (t *TUI) Start() error {
	go func() {
		// Kick off the spinner once the program is receiving
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// BatchTotal fixes the expected number of batches
func (t *TUI) BatchTotal(total int) {
	t.Send(BatchTotalMsg{Total: total})
}

// BatchStarted notifies the TUI that a batch was submitted
func (t *TUI) BatchStarted(number, units int) {
	t.Send(BatchStartMsg{Number: number, Units: units})
}

// BatchStatus updates the polled remote state of a batch
func (t *TUI) BatchStatus(number int, status models.RunStatus) {
	t.Send(BatchStatusMsg{Number: number, Status: status})
}

// BatchFinished records a batch outcome
func (t *TUI) BatchFinished(number, records int, err error) {
	t.Send(BatchDoneMsg{Number: number, Records: records, Error: err})
}

// UnitProgress updates per-unit counters for direct collection
func (t *TUI) UnitProgress(done, total, records int) {
	t.Send(UnitProgressMsg{Done: done, Total: total, Records: records})
}

// Backoff announces a rate-limit wait ending at until
func (t *TUI) Backoff(until time.Time, note string) {
	t.Send(BackoffMsg{Until: until, Note: note})
}

// Log sends a log line to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Done marks the run finished
func (t *TUI) Done(err error) {
	t.Send(RunDoneMsg{Error: err})
}

// Records returns the running record total
func (t *TUI) Records() int {
	return t.model.Records()
}
