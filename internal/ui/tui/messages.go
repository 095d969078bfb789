package tui

// StepMsg reports progress on a named apply step.
type StepMsg struct {
	Step string // step key
	Done bool
	Err  error
}

// TickMsg drives the spinner.
type TickMsg struct{}

// ErrMsg aborts the run with an error.
type ErrMsg struct {
	Err error
}

// DoneMsg signals that the whole run finished.
type DoneMsg struct{}
