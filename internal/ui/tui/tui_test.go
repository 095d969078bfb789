package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func testSteps() []Step {
	return []Step{
		{Name: "Load plan", Key: "load"},
		{Name: "Create server", Key: "create"},
		{Name: "Record journal", Key: "journal"},
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
		{3600 * time.Second, "1h0m"},
		{3661 * time.Second, "1h1m"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestModelUpdateStep(t *testing.T) {
	m := NewModel("apply", "", testSteps())

	// Start the create step
	m.updateStep(StepMsg{Step: "create"})
	if !m.Steps[1].Active {
		t.Error("expected create step to be active")
	}
	if !m.Steps[0].Done {
		t.Error("expected earlier step to be marked done")
	}

	// Complete it
	m.updateStep(StepMsg{Step: "create", Done: true})
	if !m.Steps[1].Done {
		t.Error("expected create step to be done")
	}
	if m.Steps[1].Active {
		t.Error("expected create step to not be active after done")
	}

	// Start journal
	m.updateStep(StepMsg{Step: "journal"})
	if !m.Steps[2].Active {
		t.Error("expected journal step to be active")
	}
}

func TestModelUpdateStep_UnknownKey(t *testing.T) {
	m := NewModel("apply", "", testSteps())
	m.updateStep(StepMsg{Step: "bogus", Done: true})
	for i, step := range m.Steps {
		if step.Done || step.Active {
			t.Errorf("step %d unexpectedly modified", i)
		}
	}
}

func TestModelUpdateStep_Error(t *testing.T) {
	m := NewModel("apply", "", testSteps())
	stepErr := errors.New("server create failed")

	updated, cmd := m.Update(StepMsg{Step: "create", Err: stepErr})
	fm := updated.(Model)

	if fm.Err == nil {
		t.Fatal("expected model error to be set")
	}
	if fm.Steps[1].Err == nil {
		t.Error("expected step error to be recorded")
	}
	if cmd != nil {
		t.Error("expected no quit on a failed step; later steps still report")
	}
}

func TestModelUpdate_Done(t *testing.T) {
	m := NewModel("apply", "", testSteps())
	updated, _ := m.Update(DoneMsg{})
	fm := updated.(Model)
	if !fm.Done {
		t.Error("expected Done to be true")
	}
}

func TestModelUpdate_Err(t *testing.T) {
	m := NewModel("apply", "", testSteps())
	updated, _ := m.Update(ErrMsg{Err: errors.New("boom")})
	fm := updated.(Model)
	if fm.Err == nil {
		t.Error("expected Err to be set")
	}
}

func TestStepsDone(t *testing.T) {
	m := NewModel("apply", "", testSteps())
	if m.stepsDone() != 0 {
		t.Errorf("expected 0 done, got %d", m.stepsDone())
	}
	m.Steps[0].Done = true
	m.Steps[1].Done = true
	if m.stepsDone() != 2 {
		t.Errorf("expected 2 done, got %d", m.stepsDone())
	}
}

func TestRenderView_Header(t *testing.T) {
	m := NewModel("apply", "plan-0b15884e", testSteps())
	m.StartTime = time.Now()

	output := renderView(m)

	if !strings.Contains(output, "netreserve: apply") {
		t.Error("expected title in output")
	}
	if !strings.Contains(output, "plan-0b15884e") {
		t.Error("expected subtitle in output")
	}
	if !strings.Contains(output, "0/3") {
		t.Error("expected step counter in output")
	}
}

func TestRenderView_Steps(t *testing.T) {
	m := NewModel("apply", "", testSteps())
	m.StartTime = time.Now()
	m.Steps[0].Done = true
	m.Steps[1].Err = errors.New("conflict")

	output := renderView(m)

	if !strings.Contains(output, checkMark) {
		t.Error("expected check mark for done step")
	}
	if !strings.Contains(output, crossMark) {
		t.Error("expected cross mark for failed step")
	}
	if !strings.Contains(output, pending) {
		t.Error("expected pending mark for untouched step")
	}
	if !strings.Contains(output, "Create server") {
		t.Error("expected step name in output")
	}
}

func TestRenderView_Error(t *testing.T) {
	m := NewModel("apply", "", testSteps())
	m.StartTime = time.Now()
	m.Err = errors.New("reservation vanished between plan and apply")

	output := renderView(m)

	if !strings.Contains(output, "Failed") {
		t.Error("expected failed status in header")
	}
	if !strings.Contains(output, "reservation vanished") {
		t.Error("expected error message in output")
	}
}

func TestRunPlain(t *testing.T) {
	var buf bytes.Buffer
	err := RunPlain(&buf, testSteps(), func(ch chan<- StepMsg) error {
		ch <- StepMsg{Step: "load", Done: true}
		ch <- StepMsg{Step: "create", Done: true}
		return nil
	})
	if err != nil {
		t.Fatalf("RunPlain returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "[OK] Load plan") {
		t.Error("expected load step line in output")
	}
	if !strings.Contains(out, "[OK] Create server") {
		t.Error("expected create step line in output")
	}
	if strings.Contains(out, "Record journal") {
		t.Error("did not expect unreported step in output")
	}
}

func TestRunPlain_Error(t *testing.T) {
	var buf bytes.Buffer
	stepErr := errors.New("volume attach failed")
	err := RunPlain(&buf, testSteps(), func(ch chan<- StepMsg) error {
		ch <- StepMsg{Step: "load", Done: true}
		ch <- StepMsg{Step: "create", Err: stepErr}
		return stepErr
	})
	if !errors.Is(err, stepErr) {
		t.Fatalf("expected step error, got %v", err)
	}
	if !strings.Contains(buf.String(), "[!!] Create server: volume attach failed") {
		t.Error("expected failure line in output")
	}
}
