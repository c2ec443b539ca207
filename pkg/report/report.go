// Package report generates markdown summaries of flow runs and renders
// them for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/query"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

// Generate builds a markdown report for a run against its flow version.
func Generate(v *flow.Version, r *run.FlowRun) (string, error) {
	if v == nil || v.Trigger == nil {
		return "", fmt.Errorf("nil flow version")
	}
	if r == nil {
		return "", fmt.Errorf("nil flow run")
	}

	var b strings.Builder

	name := v.DisplayName
	if name == "" {
		name = v.ID
	}
	fmt.Fprintf(&b, "# Run %s\n\n", r.ID)
	fmt.Fprintf(&b, "- **Flow:** %s (`%s`)\n", name, r.FlowVersionID)
	fmt.Fprintf(&b, "- **Status:** %s %s\n", statusGlyph(r.Status.Severity()), r.Status)

	failed, hasFailed := run.FindFailedStep(r)
	if hasFailed {
		fmt.Fprintf(&b, "- **Failed step:** `%s`\n", failed)
	}
	b.WriteString("\n")

	if hasFailed {
		writeFailureSection(&b, v, r, failed)
	}
	writeLoopSection(&b, v, r)
	writeStepTable(&b, v, r)

	return b.String(), nil
}

// writeFailureSection describes the failing step, the loop iterations
// it failed under, and its error message.
func writeFailureSection(b *strings.Builder, v *flow.Version, r *run.FlowRun, failed string) {
	b.WriteString("## Failure\n\n")

	state := run.FindLoopsState(v, r, nil)
	indexes := run.EffectiveIndexes(v, r, state)
	out := run.ExtractStepOutput(failed, indexes, r.Steps, v.Trigger)

	if path, ok := flow.PathToStep(v.Trigger, failed); ok && len(path) > 0 {
		parts := make([]string, 0, len(path))
		for _, a := range path {
			if a.IsLoop() {
				parts = append(parts, fmt.Sprintf("`%s` (iteration %d)", a.Name, indexes[a.Name]))
			}
		}
		fmt.Fprintf(b, "`%s` failed inside %s.\n\n", failed, strings.Join(parts, " → "))
	} else {
		fmt.Fprintf(b, "`%s` failed at the top level of the run.\n\n", failed)
	}

	if out != nil && out.ErrorMessage != "" {
		fmt.Fprintf(b, "> %s\n\n", out.ErrorMessage)
	}
}

func writeLoopSection(b *strings.Builder, v *flow.Version, r *run.FlowRun) {
	loops := flow.Loops(v.Trigger)
	if len(loops) == 0 {
		return
	}

	state := run.FindLoopsState(v, r, nil)
	indexes := run.EffectiveIndexes(v, r, state)

	b.WriteString("## Loops\n\n")
	b.WriteString("| Loop | Iterations | Showing |\n")
	b.WriteString("|------|-----------:|--------:|\n")
	for _, loop := range loops {
		out := run.ExtractStepOutput(loop.Name, indexes, r.Steps, v.Trigger)
		iterations := "-"
		if out != nil && out.Loop != nil {
			iterations = fmt.Sprintf("%d", len(out.Loop.Iterations))
		}
		fmt.Fprintf(b, "| `%s` | %s | %d |\n", loop.Name, iterations, indexes[loop.Name])
	}
	b.WriteString("\n")
}

func writeStepTable(b *strings.Builder, v *flow.Version, r *run.FlowRun) {
	rows := query.Rows(v, r, nil)

	b.WriteString("## Steps\n\n")
	b.WriteString("| | Step | Type | Status | Duration |\n")
	b.WriteString("|-|------|------|--------|---------:|\n")
	for _, row := range rows {
		indent := strings.Repeat("&nbsp;&nbsp;", row.Depth)
		status := "-"
		glyph := " "
		duration := "-"
		if row.Executed {
			status = row.Status
			glyph = statusGlyph(run.Severity(row.Severity))
			if row.DurationMS > 0 {
				duration = fmt.Sprintf("%dms", row.DurationMS)
			}
		}
		typ := row.Type
		if typ == "" {
			typ = "trigger"
		}
		fmt.Fprintf(b, "| %s | %s`%s` | %s | %s | %s |\n",
			glyph, indent, row.Name, typ, status, duration)
	}
}

func statusGlyph(s run.Severity) string {
	switch s {
	case run.SeveritySuccess:
		return "✓"
	case run.SeverityError:
		return "✗"
	}
	return "○"
}

// Render converts a markdown report to styled terminal output. Falls
// back to the raw markdown if rendering fails.
func Render(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}
