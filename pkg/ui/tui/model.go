// Package tui renders a live terminal view of a collection run: batch
// lifecycle, record counts and backoff waits, built on bubbletea.
package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"igcollect/pkg/models"
)

const maxLogMessages = 8

// BatchState tracks one submitted batch through its lifecycle
type BatchState struct {
	Number  int
	Units   int
	Status  models.RunStatus
	Records int
	Err     error
}

// LogMessage is one line in the scrolling log panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
}

// Model holds the full TUI state for a collection run
type Model struct {
	mu sync.RWMutex

	spinner spinner.Model
	bar     progress.Model

	command string
	target  string

	batchesTotal int
	batches      map[int]*BatchState
	order        []int

	unitsDone  int
	unitsTotal int
	records    int

	backoffUntil time.Time
	backoffNote  string

	logMessages []LogMessage

	startTime time.Time
	width     int
	height    int
	done      bool
	finalErr  error
	showHelp  bool
}

// NewModel creates a model for the given command and target
func NewModel(command, target string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle

	return Model{
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient()),
		command:   command,
		target:    target,
		batches:   make(map[int]*BatchState),
		startTime: time.Now(),
		width:     80,
		height:    24,
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// StartBatch registers a newly submitted batch
func (m *Model) StartBatch(number, units int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[number]; !ok {
		m.order = append(m.order, number)
	}
	m.batches[number] = &BatchState{
		Number: number,
		Units:  units,
		Status: models.RunStatusRunning,
	}
	if number > m.batchesTotal {
		m.batchesTotal = number
	}
}

// SetBatchTotal fixes the expected batch count up front
func (m *Model) SetBatchTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchesTotal = total
}

// SetBatchStatus updates the remote state of a running batch
func (m *Model) SetBatchStatus(number int, status models.RunStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.batches[number]; ok {
		b.Status = status
	}
}

// FinishBatch records a batch outcome; err marks it failed
func (m *Model) FinishBatch(number, records int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.batches[number]
	if !ok {
		b = &BatchState{Number: number}
		m.batches[number] = b
		m.order = append(m.order, number)
	}
	b.Records = records
	b.Err = err
	if err != nil {
		b.Status = models.RunStatusFailed
	} else {
		b.Status = models.RunStatusSucceeded
		m.records += records
	}
}

// SetUnitProgress updates per-unit counters for direct collection
func (m *Model) SetUnitProgress(done, total, records int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unitsDone = done
	m.unitsTotal = total
	if records > 0 {
		m.records = records
	}
}

// SetBackoff records an active rate-limit wait; a zero time clears it
func (m *Model) SetBackoff(until time.Time, note string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.backoffUntil = until
	m.backoffNote = note
}

// AddLogMessage appends to the scrolling log, keeping the newest lines
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})
	if len(m.logMessages) > maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-maxLogMessages:]
	}
}

// SetDone marks the run finished; err is the terminal failure if any
func (m *Model) SetDone(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.done = true
	m.finalErr = err
}

// Records returns the running record total
func (m *Model) Records() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records
}

// completedFraction is the fraction of work finished, for the progress bar
func (m *Model) completedFraction() float64 {
	if m.unitsTotal > 0 {
		return float64(m.unitsDone) / float64(m.unitsTotal)
	}
	if m.batchesTotal > 0 {
		finished := 0
		for _, b := range m.batches {
			if b.Status.Terminal() {
				finished++
			}
		}
		return float64(finished) / float64(m.batchesTotal)
	}
	return 0
}

// activeBatches returns batches in submission order, newest last
func (m *Model) activeBatches(limit int) []*BatchState {
	out := make([]*BatchState, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.batches[n])
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// FormatCount renders an integer with thousands separators
func FormatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

// FormatDuration renders an elapsed duration compactly
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
