// Package tui renders apply progress with Bubble Tea.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Step is one unit of work shown in the progress list.
type Step struct {
	Name   string // display name
	Key    string // matched against StepMsg.Step
	Done   bool
	Active bool
	Err    error
}

// Model is the Bubble Tea model for an apply run.
type Model struct {
	Title    string
	Subtitle string
	Steps    []Step

	StartTime    time.Time
	SpinnerFrame int
	Width        int
	Height       int

	Err  error
	Done bool
}

// NewModel creates a progress model for the given steps.
func NewModel(title, subtitle string, steps []Step) Model {
	return Model{
		Title:     title,
		Subtitle:  subtitle,
		Steps:     steps,
		StartTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.Err == nil && !m.Done {
				m.Err = errAborted
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StepMsg:
		// A failed step does not quit: later bookkeeping steps still
		// report. The runner quits the program when fn returns.
		m.updateStep(msg)
		if msg.Err != nil {
			m.Err = msg.Err
		}

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updateStep(msg StepMsg) {
	idx := -1
	for i, step := range m.Steps {
		if step.Key == msg.Step {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	// Mark previous steps as done
	for i := 0; i < idx; i++ {
		m.Steps[i].Done = true
		m.Steps[i].Active = false
	}

	if msg.Done {
		m.Steps[idx].Done = true
		m.Steps[idx].Active = false
	} else {
		m.Steps[idx].Active = true
	}

	if msg.Err != nil {
		m.Steps[idx].Err = msg.Err
	}
}

func (m Model) stepsDone() int {
	done := 0
	for _, step := range m.Steps {
		if step.Done {
			done++
		}
	}
	return done
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
