package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/query"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

// loadPair loads the flow version and run snapshot named in the
// request arguments.
func loadPair(args map[string]any) (*flow.Version, *run.FlowRun, *mcp.CallToolResult) {
	flowPath, _ := args["flow"].(string)
	runPath, _ := args["run"].(string)
	if flowPath == "" || runPath == "" {
		return nil, nil, errorResult("flow and run arguments are required")
	}
	v, err := flow.LoadFile(flowPath)
	if err != nil {
		return nil, nil, errorResult(fmt.Sprintf("load flow: %s", err))
	}
	r, err := run.LoadSnapshot(runPath)
	if err != nil {
		return nil, nil, errorResult(fmt.Sprintf("load run: %s", err))
	}
	return v, r, nil
}

// HandleFailedStep implements the flowlens/failed_step MCP tool.
func HandleFailedStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, r, errRes := loadPair(req.GetArguments())
	if errRes != nil {
		return errRes, nil
	}

	name, ok := run.FindFailedStep(r)
	response := map[string]any{
		"run_id":     r.ID,
		"run_status": string(r.Status),
		"found":      ok,
	}
	if ok {
		response["failed_step"] = name
		if path, found := flow.PathToStep(v.Trigger, name); found {
			ancestry := make([]string, 0, len(path))
			for _, loop := range path {
				ancestry = append(ancestry, loop.Name)
			}
			response["loop_ancestry"] = ancestry
		}
		indexes := run.EffectiveIndexes(v, r, run.FindLoopsState(v, r, nil))
		if out := run.ExtractStepOutput(name, indexes, r.Steps, v.Trigger); out != nil && out.ErrorMessage != "" {
			response["error_message"] = out.ErrorMessage
		}
	}
	return jsonResult(response)
}

// HandleStepOutput implements the flowlens/step_output MCP tool.
func HandleStepOutput(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	v, r, errRes := loadPair(args)
	if errRes != nil {
		return errRes, nil
	}
	step, _ := args["step"].(string)
	if step == "" {
		return errorResult("step argument is required"), nil
	}

	// Caller-selected iterations override the failure-seeking default.
	state := run.FindLoopsState(v, r, nil)
	if raw, ok := args["loop_indexes"].(map[string]any); ok {
		for name, idx := range raw {
			if n, ok := idx.(float64); ok {
				state[name] = int(n)
			}
		}
	}
	indexes := run.EffectiveIndexes(v, r, state)

	out := run.ExtractStepOutput(step, indexes, r.Steps, v.Trigger)
	if out == nil {
		return textResult(fmt.Sprintf("no output recorded for step %q under the selected iterations", step)), nil
	}

	response := map[string]any{
		"step":         step,
		"status":       string(out.Status),
		"loop_indexes": indexes,
	}
	if out.DurationMS > 0 {
		response["duration_ms"] = out.DurationMS
	}
	if out.ErrorMessage != "" {
		response["error_message"] = out.ErrorMessage
	}
	if out.Loop != nil {
		response["iterations_recorded"] = len(out.Loop.Iterations)
	}
	if len(out.Output) > 0 && string(out.Output) != "null" {
		response["output"] = json.RawMessage(out.Output)
	}
	return jsonResult(response)
}

// HandleLoopsState implements the flowlens/loops_state MCP tool.
func HandleLoopsState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, r, errRes := loadPair(req.GetArguments())
	if errRes != nil {
		return errRes, nil
	}

	state := run.FindLoopsState(v, r, nil)
	effective := run.EffectiveIndexes(v, r, state)

	requested := make(map[string]any, len(state))
	for name, idx := range state {
		if idx == run.LastIteration {
			requested[name] = "last"
		} else {
			requested[name] = idx
		}
	}

	return jsonResult(map[string]any{
		"run_id":    r.ID,
		"requested": requested,
		"effective": effective,
	})
}

// HandleSteps implements the flowlens/steps MCP tool.
func HandleSteps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	v, r, errRes := loadPair(args)
	if errRes != nil {
		return errRes, nil
	}

	rows := query.Rows(v, r, nil)
	if where, _ := args["where"].(string); where != "" {
		filtered, err := query.Filter(rows, where)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		rows = filtered
	}
	return jsonResult(rows)
}

// HandleValidate implements the flowlens/validate MCP tool. Flow files
// are detected by extension; everything else validates as a run
// snapshot.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	if isFlowFile(path) {
		v, err := flow.LoadFile(path)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(fmt.Sprintf("✓ flow %s is valid (%d steps)", v.ID, len(flow.Steps(v.Trigger)))), nil
	}

	r, errs := run.ValidateFile(path)
	if len(errs) > 0 {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ run %s is valid (%s)", r.ID, r.Status)), nil
}

// HandleSchema implements the flowlens/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	schemaType, _ := args["type"].(string)

	var data []byte
	var err error

	switch schemaType {
	case "flow":
		data, err = flow.GenerateJSONSchema()
	case "run":
		data, err = run.GenerateJSONSchema()
	default:
		return errorResult(fmt.Sprintf("unknown schema type %q — use 'flow' or 'run'", schemaType)), nil
	}

	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// isFlowFile checks if a file is a flow version definition.
func isFlowFile(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

func formatErrors(errs []*run.ValidationError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
