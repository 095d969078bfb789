package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderSteps(&b, m)

	if m.Err != nil && m.Err != errAborted {
		renderError(&b, m)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("netreserve: %s", m.Title)
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render("Failed")
	case m.Done:
		status += readyStyle.Render("Done")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") +
			warningStyle.Render(fmt.Sprintf("%d/%d", m.stepsDone(), len(m.Steps)))
	}
	b.WriteString(status)
	b.WriteString("\n")

	if m.Subtitle != "" {
		b.WriteString(dimStyle.Render("  " + m.Subtitle))
		b.WriteString("\n")
	}
}

func renderSteps(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Steps"))
	b.WriteString("\n")

	for _, step := range m.Steps {
		var icon string
		var style styleFunc
		switch {
		case step.Err != nil:
			icon = crossMark
			style = sf(failedStyle)
		case step.Done:
			icon = checkMark
			style = sf(readyStyle)
		case step.Active:
			icon = currentSpinner(m.SpinnerFrame)
			style = sf(activeStyle)
		default:
			icon = pending
			style = sf(dimStyle)
		}
		fmt.Fprintf(b, "    %s %s\n", style(icon), style(step.Name))
	}
}

func renderError(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Error"))
	b.WriteString("\n")
	fmt.Fprintf(b, "    %s\n", failedStyle.Render(m.Err.Error()))
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed: %s  |  q: quit", elapsed)))
	b.WriteString("\n")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
