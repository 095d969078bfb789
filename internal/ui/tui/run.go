package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

var errAborted = errors.New("aborted")

// Run wraps fn with a Bubble Tea progress display. fn reports step
// transitions on the channel; Run returns fn's error, or errAborted when the
// user quits early.
func Run(ctx context.Context, title, subtitle string, steps []Step, fn func(ch chan<- StepMsg) error) error {
	m := NewModel(title, subtitle, steps)

	p := tea.NewProgram(m, tea.WithContext(ctx))

	go func() {
		ch := make(chan StepMsg, 10)
		go func() {
			defer close(ch)
			if err := fn(ch); err != nil {
				p.Send(ErrMsg{Err: err})
			}
		}()

		for msg := range ch {
			p.Send(msg)
		}

		p.Send(DoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress display: %w", err)
	}

	fm := finalModel.(Model)
	if fm.Err != nil {
		return fm.Err
	}
	return nil
}

// RunPlain executes fn without a TUI, printing one line per completed step.
// Used when stdout is not a terminal.
func RunPlain(w io.Writer, steps []Step, fn func(ch chan<- StepMsg) error) error {
	names := make(map[string]string, len(steps))
	for _, step := range steps {
		names[step.Key] = step.Name
	}

	ch := make(chan StepMsg, 10)
	errc := make(chan error, 1)
	go func() {
		defer close(ch)
		errc <- fn(ch)
	}()

	for msg := range ch {
		name, ok := names[msg.Step]
		if !ok {
			name = msg.Step
		}
		switch {
		case msg.Err != nil:
			fmt.Fprintf(w, "%s %s: %v\n", crossMark, name, msg.Err)
		case msg.Done:
			fmt.Fprintf(w, "%s %s\n", checkMark, name)
		}
	}

	return <-errc
}
