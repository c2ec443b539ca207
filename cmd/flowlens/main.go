package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/flowlens/pkg/diagram"
	"github.com/ormasoftchile/flowlens/pkg/explorer"
	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/query"
	"github.com/ormasoftchile/flowlens/pkg/report"
	"github.com/ormasoftchile/flowlens/pkg/run"
	"github.com/ormasoftchile/flowlens/pkg/tui"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flowlens",
	Short: "Flow run inspection toolkit",
	Long:  "flowlens — resolve step outputs, locate failures, and explore loop iterations in recorded flow runs.",
}

// loadPair loads the flow version and run snapshot from the shared
// --flow and --run flags.
func loadPair(flowPath, runPath string) (*flow.Version, *run.FlowRun, error) {
	v, err := flow.LoadFile(flowPath)
	if err != nil {
		return nil, nil, err
	}
	r, err := run.LoadSnapshot(runPath)
	if err != nil {
		return nil, nil, err
	}
	return v, r, nil
}

// parseLoopFlags parses repeated --loop name=index selections.
func parseLoopFlags(flags []string) (map[string]int, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	state := make(map[string]int, len(flags))
	for _, f := range flags {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --loop %q: expected name=index", f)
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid --loop %q: index must be a non-negative integer", f)
		}
		state[parts[0]] = idx
	}
	return state, nil
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a flow version YAML file or a run snapshot JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		v, err := flow.LoadFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s is valid (%d steps)\n", v.ID, len(flow.Steps(v.Trigger)))
		return nil
	}

	r, errs := run.ValidateFile(path)
	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(errs))
		for i, e := range errs {
			fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
			}
		}
		return fmt.Errorf("validation failed with %d error(s)", len(errs))
	}
	fmt.Printf("✓ %s is valid (%s)\n", r.ID, r.Status)
	return nil
}

// --- failed ---

var (
	failedFlow string
	failedRun  string
)

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "Locate the step that caused a run to fail",
	RunE:  runFailed,
}

func runFailed(cmd *cobra.Command, args []string) error {
	v, r, err := loadPair(failedFlow, failedRun)
	if err != nil {
		return err
	}

	name, ok := run.FindFailedStep(r)
	if !ok {
		fmt.Printf("No failed step in run %s (%s).\n", r.ID, r.Status)
		return nil
	}

	indexes := run.EffectiveIndexes(v, r, run.FindLoopsState(v, r, nil))
	fmt.Printf("Failed step: %s\n", name)
	if path, found := flow.PathToStep(v.Trigger, name); found && len(path) > 0 {
		for _, loop := range path {
			fmt.Printf("  inside %s (iteration %d)\n", loop.Name, indexes[loop.Name])
		}
	}
	if out := run.ExtractStepOutput(name, indexes, r.Steps, v.Trigger); out != nil && out.ErrorMessage != "" {
		fmt.Printf("  error: %s\n", out.ErrorMessage)
	}
	return nil
}

// --- output ---

var (
	outputFlow  string
	outputRun   string
	outputLoops []string
)

var outputCmd = &cobra.Command{
	Use:   "output [step]",
	Short: "Resolve one step's output record, descending into loop iterations",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutput,
}

func runOutput(cmd *cobra.Command, args []string) error {
	v, r, err := loadPair(outputFlow, outputRun)
	if err != nil {
		return err
	}
	step := args[0]
	if !flow.Contains(v.Trigger, step) {
		return fmt.Errorf("step %q is not part of flow %s", step, v.ID)
	}

	selected, err := parseLoopFlags(outputLoops)
	if err != nil {
		return err
	}
	state := run.FindLoopsState(v, r, selected)
	indexes := run.EffectiveIndexes(v, r, state)

	out := run.ExtractStepOutput(step, indexes, r.Steps, v.Trigger)
	if out == nil {
		fmt.Printf("No output recorded for %q under the selected iterations.\n", step)
		return nil
	}

	doc := map[string]any{
		"step":         step,
		"status":       string(out.Status),
		"loop_indexes": indexes,
	}
	if out.DurationMS > 0 {
		doc["duration_ms"] = out.DurationMS
	}
	if out.ErrorMessage != "" {
		doc["error_message"] = out.ErrorMessage
	}
	if out.Loop != nil {
		doc["iterations_recorded"] = len(out.Loop.Iterations)
	}
	if len(out.Output) > 0 && string(out.Output) != "null" {
		doc["output"] = json.RawMessage(out.Output)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// --- state ---

var (
	stateFlow string
	stateRun  string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the failure-seeking loop display state for a run",
	RunE:  runState,
}

func runState(cmd *cobra.Command, args []string) error {
	v, r, err := loadPair(stateFlow, stateRun)
	if err != nil {
		return err
	}

	loops := flow.Loops(v.Trigger)
	if len(loops) == 0 {
		fmt.Printf("Flow %s has no loops.\n", v.ID)
		return nil
	}

	state := run.FindLoopsState(v, r, nil)
	effective := run.EffectiveIndexes(v, r, state)
	for _, loop := range loops {
		requested := "last"
		if idx := state[loop.Name]; idx != run.LastIteration {
			requested = strconv.Itoa(idx)
		}
		fmt.Printf("  %s: requested=%s showing=%d\n", loop.Name, requested, effective[loop.Name])
	}
	return nil
}

// --- steps ---

var (
	stepsFlow  string
	stepsRun   string
	stepsWhere string
	stepsJSON  bool
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List every step of a run with its status",
	RunE:  runSteps,
}

func runSteps(cmd *cobra.Command, args []string) error {
	v, r, err := loadPair(stepsFlow, stepsRun)
	if err != nil {
		return err
	}

	rows := query.Rows(v, r, nil)
	if stepsWhere != "" {
		rows, err = query.Filter(rows, stepsWhere)
		if err != nil {
			return err
		}
	}

	if stepsJSON {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

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
		fmt.Printf("  %s %s%s%s\n", glyph, strings.Repeat("  ", row.Depth), row.Name, status)
	}
	return nil
}

// --- report ---

var (
	reportFlow string
	reportRun  string
	reportRaw  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a markdown report for a run",
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	v, r, err := loadPair(reportFlow, reportRun)
	if err != nil {
		return err
	}
	md, err := report.Generate(v, r)
	if err != nil {
		return err
	}
	if reportRaw {
		fmt.Print(md)
		return nil
	}
	fmt.Print(report.Render(md, 100))
	return nil
}

// --- diagram ---

var diagramFormat string

var diagramCmd = &cobra.Command{
	Use:   "diagram [flow.yaml]",
	Short: "Generate a Mermaid or ASCII diagram of a flow",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagram,
}

func runDiagram(cmd *cobra.Command, args []string) error {
	v, err := flow.LoadFile(args[0])
	if err != nil {
		return err
	}
	out, err := diagram.Generate(v, diagram.Format(diagramFormat))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// --- view ---

var (
	viewFlow string
	viewRun  string
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the interactive run viewer",
	RunE:  runView,
}

func runView(cmd *cobra.Command, args []string) error {
	v, r, err := loadPair(viewFlow, viewRun)
	if err != nil {
		return err
	}
	return tui.Run(tui.Config{Version: v, Run: r})
}

// --- explore ---

var (
	exploreFlow string
	exploreRun  string
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Start the interactive run explorer REPL",
	RunE:  runExplore,
}

func runExplore(cmd *cobra.Command, args []string) error {
	v, r, err := loadPair(exploreFlow, exploreRun)
	if err != nil {
		return err
	}
	e, err := explorer.New(v, r)
	if err != nil {
		return err
	}
	return e.Run()
}

// --- schema ---

var schemaType string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export JSON Schema to stdout",
	RunE:  runSchemaExport,
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	switch schemaType {
	case "flow":
		data, err = flow.GenerateJSONSchema()
	case "run":
		data, err = run.GenerateJSONSchema()
	default:
		return fmt.Errorf("unknown schema type %q: use 'flow' or 'run'", schemaType)
	}
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	var out json.RawMessage = data
	formatted, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(string(formatted))
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowlens %s (build: %s)\n", version, commit)
	},
}

func init() {
	// failed flags
	failedCmd.Flags().StringVar(&failedFlow, "flow", "", "Path to the flow version YAML file")
	failedCmd.Flags().StringVar(&failedRun, "run", "", "Path to the run snapshot JSON file")
	failedCmd.MarkFlagRequired("flow")
	failedCmd.MarkFlagRequired("run")

	// output flags
	outputCmd.Flags().StringVar(&outputFlow, "flow", "", "Path to the flow version YAML file")
	outputCmd.Flags().StringVar(&outputRun, "run", "", "Path to the run snapshot JSON file")
	outputCmd.Flags().StringArrayVar(&outputLoops, "loop", nil, "Select a loop iteration (name=index), repeatable")
	outputCmd.MarkFlagRequired("flow")
	outputCmd.MarkFlagRequired("run")

	// state flags
	stateCmd.Flags().StringVar(&stateFlow, "flow", "", "Path to the flow version YAML file")
	stateCmd.Flags().StringVar(&stateRun, "run", "", "Path to the run snapshot JSON file")
	stateCmd.MarkFlagRequired("flow")
	stateCmd.MarkFlagRequired("run")

	// steps flags
	stepsCmd.Flags().StringVar(&stepsFlow, "flow", "", "Path to the flow version YAML file")
	stepsCmd.Flags().StringVar(&stepsRun, "run", "", "Path to the run snapshot JSON file")
	stepsCmd.Flags().StringVar(&stepsWhere, "where", "", `Filter expression, e.g. status == "FAILED"`)
	stepsCmd.Flags().BoolVar(&stepsJSON, "json", false, "Emit step rows as JSON")
	stepsCmd.MarkFlagRequired("flow")
	stepsCmd.MarkFlagRequired("run")

	// report flags
	reportCmd.Flags().StringVar(&reportFlow, "flow", "", "Path to the flow version YAML file")
	reportCmd.Flags().StringVar(&reportRun, "run", "", "Path to the run snapshot JSON file")
	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "Print raw markdown without terminal styling")
	reportCmd.MarkFlagRequired("flow")
	reportCmd.MarkFlagRequired("run")

	// diagram flags
	diagramCmd.Flags().StringVar(&diagramFormat, "format", "ascii", "Diagram format: mermaid or ascii")

	// view flags
	viewCmd.Flags().StringVar(&viewFlow, "flow", "", "Path to the flow version YAML file")
	viewCmd.Flags().StringVar(&viewRun, "run", "", "Path to the run snapshot JSON file")
	viewCmd.MarkFlagRequired("flow")
	viewCmd.MarkFlagRequired("run")

	// explore flags
	exploreCmd.Flags().StringVar(&exploreFlow, "flow", "", "Path to the flow version YAML file")
	exploreCmd.Flags().StringVar(&exploreRun, "run", "", "Path to the run snapshot JSON file")
	exploreCmd.MarkFlagRequired("flow")
	exploreCmd.MarkFlagRequired("run")

	// schema subcommands
	schemaExportCmd.Flags().StringVar(&schemaType, "type", "flow", "Schema type: flow or run")
	schemaCmd.AddCommand(schemaExportCmd)

	// root subcommands
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(failedCmd)
	rootCmd.AddCommand(outputCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}
