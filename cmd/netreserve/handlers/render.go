package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/netreserve/netreserve/internal/journal"
	"github.com/netreserve/netreserve/internal/reconcile"
)

// Colors matching internal/ui/tui/styles.go palette.
var (
	planColorGreen  = lipgloss.Color("#22c55e")
	planColorRed    = lipgloss.Color("#ef4444")
	planColorYellow = lipgloss.Color("#eab308")
	planColorBlue   = lipgloss.Color("#3b82f6")
	planColorDim    = lipgloss.Color("#6b7280")
	planColorWhite  = lipgloss.Color("#f9fafb")
)

var (
	planTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(planColorWhite)

	planSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(planColorBlue)

	planDimStyle = lipgloss.NewStyle().
			Foreground(planColorDim)

	planGreenStyle = lipgloss.NewStyle().
			Foreground(planColorGreen)

	planRedStyle = lipgloss.NewStyle().
			Foreground(planColorRed)

	planYellowStyle = lipgloss.NewStyle().
			Foreground(planColorYellow)
)

// renderPlan produces the lipgloss-styled plan preview shown after
// planning and before apply.
func renderPlan(plan *reconcile.Plan) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(planTitleStyle.Render(fmt.Sprintf("  netreserve plan: %s %s", plan.Action, plan.Kind)))
	b.WriteString("\n")
	b.WriteString(planDimStyle.Render("  " + strings.Repeat("═", 44)))
	b.WriteString("\n\n")

	renderPlanRow(&b, "Plan ID", plan.ID)
	renderPlanRow(&b, "Created", plan.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	renderPlanRow(&b, "Backend", plan.Backend)
	renderPlanRow(&b, "Identity", plan.Identity)
	renderPlanRow(&b, "Reference", plan.Ref)
	renderPlanRow(&b, "View", plan.View)
	renderPlanRow(&b, "Supernet", plan.Supernet)
	renderPlanRow(&b, "Project", plan.Project)

	if len(plan.Params) > 0 {
		b.WriteString("\n")
		b.WriteString(planSectionStyle.Render("  Parameters"))
		b.WriteString("\n")
		b.WriteString(planDimStyle.Render("  " + strings.Repeat("─", 35)))
		b.WriteString("\n")
		for _, key := range sortedParamKeys(plan.Params) {
			renderPlanRow(&b, key, elide(plan.Params[key]))
		}
	}

	if len(plan.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(planSectionStyle.Render("  Warnings"))
		b.WriteString("\n")
		for _, w := range plan.Warnings {
			b.WriteString(planYellowStyle.Render("    ! " + w))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case plan.State == reconcile.StateApplied:
		b.WriteString(planGreenStyle.Render("  Applied"))
	case plan.State == reconcile.StateApplyFailed:
		b.WriteString(planRedStyle.Render("  Apply failed"))
	case plan.Actionable:
		b.WriteString(planGreenStyle.Render("  Actionable"))
	default:
		b.WriteString(planDimStyle.Render("  Nothing to do"))
	}
	b.WriteString(planDimStyle.Render("  " + plan.Rationale))
	b.WriteString("\n")

	return b.String()
}

func renderPlanRow(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "    %-22s %s\n", planDimStyle.Render(label), value)
}

func sortedParamKeys(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// elide keeps embedded documents (IAM policies) from flooding the
// preview; the full value is always in the plan file.
func elide(s string) string {
	const max = 96
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// renderHistory produces the journal listing for the history command.
func renderHistory(entries []journal.Entry) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(planTitleStyle.Render("  netreserve history"))
	b.WriteString("\n")
	b.WriteString(planDimStyle.Render("  " + strings.Repeat("═", 44)))
	b.WriteString("\n\n")

	if len(entries) == 0 {
		b.WriteString(planDimStyle.Render("  no recorded runs"))
		b.WriteString("\n")
		return b.String()
	}

	for _, e := range entries {
		outcome := e.Outcome
		style := planDimStyle
		switch e.Outcome {
		case journal.OutcomeApplied, journal.OutcomeActionable:
			style = planGreenStyle
		case journal.OutcomeFailed:
			style = planRedStyle
		}
		if e.ErrorClass != "" {
			outcome += " (" + e.ErrorClass + ")"
		}
		fmt.Fprintf(b, "    %s  %-18s %-22s %s\n",
			planDimStyle.Render(e.CreatedAt.Format("2006-01-02 15:04")),
			style.Render(outcome),
			e.Command,
			e.Identity)
	}

	return b.String()
}
