package explorer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/query"
	"github.com/ormasoftchile/flowlens/pkg/report"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

// effective returns the loop state with sentinels and out-of-range
// requests folded onto recorded iterations.
func (e *Explorer) effective() map[string]int {
	return run.EffectiveIndexes(e.version, e.flowRun, e.loopState)
}

// handleSteps lists every step with its status under the current loop
// iteration selection.
func (e *Explorer) handleSteps() {
	rows := query.Rows(e.version, e.flowRun, e.loopState)
	for _, row := range rows {
		glyph := "·"
		status := ""
		if row.Executed {
			status = " — " + row.Status
			switch run.Severity(row.Severity) {
			case run.SeveritySuccess:
				glyph = "✓"
			case run.SeverityError:
				glyph = "✗"
			default:
				glyph = "○"
			}
		}
		indent := strings.Repeat("  ", row.Depth)
		fmt.Fprintf(e.output, "  %s %s%s%s\n", glyph, indent, row.Name, status)
	}
}

// handleFailed locates and describes the causal failed step.
func (e *Explorer) handleFailed() {
	name, ok := run.FindFailedStep(e.flowRun)
	if !ok {
		fmt.Fprintf(e.output, "No failed step in this run.\n")
		return
	}
	fmt.Fprintf(e.output, "Failed step: %s\n", name)

	if path, found := flow.PathToStep(e.version.Trigger, name); found && len(path) > 0 {
		eff := e.effective()
		for _, loop := range path {
			fmt.Fprintf(e.output, "  inside %s (iteration %d)\n", loop.Name, eff[loop.Name])
		}
	}
	if out := run.ExtractStepOutput(name, e.effective(), e.flowRun.Steps, e.version.Trigger); out != nil && out.ErrorMessage != "" {
		fmt.Fprintf(e.output, "  error: %s\n", out.ErrorMessage)
	}
}

// handleOutput resolves and prints one step's record under the current
// loop iteration selection.
func (e *Explorer) handleOutput(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(e.output, "Usage: output <step>\n")
		return
	}
	name := parts[1]
	if !flow.Contains(e.version.Trigger, name) {
		fmt.Fprintf(e.output, "Unknown step: %q. Use 'steps' to list the flow.\n", name)
		return
	}

	out := run.ExtractStepOutput(name, e.effective(), e.flowRun.Steps, e.version.Trigger)
	if out == nil {
		fmt.Fprintf(e.output, "No output recorded for %q under the current iteration selection.\n", name)
		return
	}

	fmt.Fprintf(e.output, "  status: %s\n", out.Status)
	if out.DurationMS > 0 {
		fmt.Fprintf(e.output, "  duration: %dms\n", out.DurationMS)
	}
	if out.ErrorMessage != "" {
		fmt.Fprintf(e.output, "  error: %s\n", out.ErrorMessage)
	}
	if out.Loop != nil {
		fmt.Fprintf(e.output, "  loop: %d iteration(s) recorded\n", len(out.Loop.Iterations))
	}
	if len(out.Output) > 0 && string(out.Output) != "null" {
		display := string(out.Output)
		var pretty map[string]any
		if err := json.Unmarshal(out.Output, &pretty); err == nil {
			if formatted, err := json.MarshalIndent(pretty, "  ", "  "); err == nil {
				display = string(formatted)
			}
		}
		fmt.Fprintf(e.output, "  output: %s\n", display)
	}
}

// handlePath shows the loop ancestry of a step.
func (e *Explorer) handlePath(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(e.output, "Usage: path <step>\n")
		return
	}
	name := parts[1]
	path, ok := flow.PathToStep(e.version.Trigger, name)
	if !ok {
		fmt.Fprintf(e.output, "Step %q is not part of this flow.\n", name)
		return
	}
	if len(path) == 0 {
		fmt.Fprintf(e.output, "%s is a top-level step.\n", name)
		return
	}
	names := make([]string, 0, len(path))
	for _, loop := range path {
		names = append(names, loop.Name)
	}
	fmt.Fprintf(e.output, "%s → %s\n", strings.Join(names, " → "), name)
}

// handleLoop sets the display iteration for one loop.
func (e *Explorer) handleLoop(parts []string) {
	if len(parts) < 3 {
		fmt.Fprintf(e.output, "Usage: loop <name> <iteration>\n")
		return
	}
	name := parts[1]
	a := flow.ActionByName(e.version.Trigger, name)
	if a == nil || !a.IsLoop() {
		fmt.Fprintf(e.output, "%q is not a loop in this flow.\n", name)
		return
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil || idx < 0 {
		fmt.Fprintf(e.output, "Iteration must be a non-negative integer, got %q.\n", parts[2])
		return
	}
	e.loopState[name] = idx

	eff := e.effective()
	if eff[name] != idx {
		fmt.Fprintf(e.output, "%s: requested %d, showing %d (last recorded iteration).\n", name, idx, eff[name])
		return
	}
	fmt.Fprintf(e.output, "%s: showing iteration %d.\n", name, idx)
}

// handleState prints the current and effective loop iteration state.
func (e *Explorer) handleState() {
	loops := flow.Loops(e.version.Trigger)
	if len(loops) == 0 {
		fmt.Fprintf(e.output, "This flow has no loops.\n")
		return
	}
	eff := e.effective()
	for _, loop := range loops {
		requested := "last"
		if idx, ok := e.loopState[loop.Name]; ok && idx != run.LastIteration {
			requested = strconv.Itoa(idx)
		}
		total := 0
		if out := run.ExtractStepOutput(loop.Name, eff, e.flowRun.Steps, e.version.Trigger); out != nil && out.Loop != nil {
			total = len(out.Loop.Iterations)
		}
		fmt.Fprintf(e.output, "  %s: requested=%s showing=%d recorded=%d\n",
			loop.Name, requested, eff[loop.Name], total)
	}
}

// handleReport prints the markdown run report.
func (e *Explorer) handleReport() {
	md, err := report.Generate(e.version, e.flowRun)
	if err != nil {
		fmt.Fprintf(e.output, "Error: %v\n", err)
		return
	}
	fmt.Fprint(e.output, report.Render(md, 100))
}

// handleHelp prints command usage.
func (e *Explorer) handleHelp() {
	fmt.Fprintf(e.output, `Commands:
  steps                 List every step with its status
  failed                Locate the step that caused the run to fail
  output <step>         Show a step's record under the current iterations
  path <step>           Show the loops enclosing a step
  loop <name> <n>       Select iteration n of a loop for display
  state                 Show the loop iteration selection
  report                Print the run report
  help                  Show this help
  quit                  Exit the explorer
`)
}
