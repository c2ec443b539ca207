package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with flowlens tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"flowlens",
		version,
		server.WithToolCapabilities(true),
	)

	// Register tools
	s.AddTool(
		mcp.NewTool("flowlens/failed_step",
			mcp.WithDescription("Locate the step that caused a flow run to fail, with its loop ancestry"),
			mcp.WithString("flow", mcp.Required(), mcp.Description("Path to the flow version YAML file")),
			mcp.WithString("run", mcp.Required(), mcp.Description("Path to the run snapshot JSON file")),
		),
		HandleFailedStep,
	)

	s.AddTool(
		mcp.NewTool("flowlens/step_output",
			mcp.WithDescription("Resolve one step's output record, descending into loop iterations"),
			mcp.WithString("flow", mcp.Required(), mcp.Description("Path to the flow version YAML file")),
			mcp.WithString("run", mcp.Required(), mcp.Description("Path to the run snapshot JSON file")),
			mcp.WithString("step", mcp.Required(), mcp.Description("Name of the step to resolve")),
			mcp.WithObject("loop_indexes", mcp.Description("Loop name to iteration index selection (optional)")),
		),
		HandleStepOutput,
	)

	s.AddTool(
		mcp.NewTool("flowlens/loops_state",
			mcp.WithDescription("Compute the failure-seeking loop display state for a run"),
			mcp.WithString("flow", mcp.Required(), mcp.Description("Path to the flow version YAML file")),
			mcp.WithString("run", mcp.Required(), mcp.Description("Path to the run snapshot JSON file")),
		),
		HandleLoopsState,
	)

	s.AddTool(
		mcp.NewTool("flowlens/steps",
			mcp.WithDescription("List every step of a run with status, optionally filtered by an expression"),
			mcp.WithString("flow", mcp.Required(), mcp.Description("Path to the flow version YAML file")),
			mcp.WithString("run", mcp.Required(), mcp.Description("Path to the run snapshot JSON file")),
			mcp.WithString("where", mcp.Description("Filter expression, e.g. status == \"FAILED\" (optional)")),
		),
		HandleSteps,
	)

	s.AddTool(
		mcp.NewTool("flowlens/validate",
			mcp.WithDescription("Validate a flow version YAML file or a run snapshot JSON file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the file to validate")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("flowlens/schema",
			mcp.WithDescription("Export flowlens JSON Schema (flow or run)"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Schema type: 'flow' or 'run'")),
		),
		HandleSchema,
	)

	return s
}
