// Package query flattens a flow run into step rows and filters them
// with expr-lang expressions. Read-only: rows are copies, the run and
// flow are never mutated.
package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

// Row is one step of the flow joined with its recorded output under the
// current loop display indices.
type Row struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Depth       int    `json:"depth"`
	Executed    bool   `json:"executed"`
	DurationMS  int64  `json:"duration_ms,omitempty"`
}

// Rows joins every step of the flow (trigger included, loop bodies
// indented by depth) with its output resolved under loopState. A nil
// loopState means the failure-seeking default: loops enclosing the
// failed step show the iteration the failure happened in. The
// LastIteration sentinel is clamped before resolution.
func Rows(version *flow.Version, r *run.FlowRun, loopState map[string]int) []Row {
	if version == nil {
		return nil
	}
	if loopState == nil {
		loopState = run.FindLoopsState(version, r, nil)
	}
	eff := run.EffectiveIndexes(version, r, loopState)

	var steps *run.StepMap
	if r != nil {
		steps = r.Steps
	}

	nodes := flow.Steps(version.Trigger)
	rows := make([]Row, 0, len(nodes))
	for _, n := range nodes {
		row := Row{
			Name:        n.Name,
			DisplayName: n.DisplayName,
			Type:        string(n.Type),
			Depth:       n.Depth,
		}
		if out := run.ExtractStepOutput(n.Name, eff, steps, version.Trigger); out != nil {
			row.Status = string(out.Status)
			row.Severity = string(out.Status.Severity())
			row.Executed = true
			row.DurationMS = out.DurationMS
			if row.Type == "" {
				row.Type = string(out.Type)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Compile builds a boolean filter program over Row fields. Expressions
// see lower-case identifiers: name, display_name, type, status,
// severity, depth, executed, duration_ms.
func Compile(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.Env(rowEnv(Row{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return program, nil
}

// Filter returns the rows for which the expression evaluates to true.
func Filter(rows []Row, expression string) ([]Row, error) {
	program, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	var matched []Row
	for _, row := range rows {
		out, err := expr.Run(program, rowEnv(row))
		if err != nil {
			return nil, fmt.Errorf("eval filter %q on step %q: %w", expression, row.Name, err)
		}
		if keep, ok := out.(bool); ok && keep {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func rowEnv(row Row) map[string]any {
	return map[string]any{
		"name":         row.Name,
		"display_name": row.DisplayName,
		"type":         row.Type,
		"status":       row.Status,
		"severity":     row.Severity,
		"depth":        row.Depth,
		"executed":     row.Executed,
		"duration_ms":  row.DurationMS,
	}
}
