// Package explorer implements an interactive REPL for inspecting flow
// runs: resolving step outputs, locating failures, and paging through
// loop iterations.
package explorer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

// Explorer provides an interactive prompt over a flow version and a
// run snapshot. It never mutates the run; the only session state is
// the per-loop display iteration.
type Explorer struct {
	version *flow.Version
	flowRun *run.FlowRun

	// loopState holds the requested display iteration per loop name,
	// seeded from the failure-seeking initial state.
	loopState map[string]int

	output io.Writer
	rl     *readline.Instance
}

// New creates an explorer for the given version and run.
func New(version *flow.Version, r *run.FlowRun) (*Explorer, error) {
	if version == nil || version.Trigger == nil {
		return nil, fmt.Errorf("nil flow version")
	}
	if r == nil {
		return nil, fmt.Errorf("nil flow run")
	}
	return &Explorer{
		version:   version,
		flowRun:   r,
		loopState: run.FindLoopsState(version, r, nil),
		output:    os.Stdout,
	}, nil
}

// Run starts the interactive REPL loop.
func (e *Explorer) Run() error {
	commands := []string{"steps", "failed", "output", "path", "loop",
		"state", "report", "help", "quit"}

	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          e.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	e.rl = rl
	defer rl.Close()

	fmt.Fprintf(e.output, "flowlens explorer — run %s (%s)\n", e.flowRun.ID, e.flowRun.Status)
	fmt.Fprintf(e.output, "Type 'help' for available commands, 'steps' to list the flow.\n\n")

	for {
		rl.SetPrompt(e.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		switch cmd {
		case "steps", "s":
			e.handleSteps()
		case "failed", "f":
			e.handleFailed()
		case "output", "o":
			e.handleOutput(parts)
		case "path", "p":
			e.handlePath(parts)
		case "loop", "l":
			e.handleLoop(parts)
		case "state":
			e.handleState()
		case "report", "r":
			e.handleReport()
		case "help", "?":
			e.handleHelp()
		case "quit", "q":
			fmt.Fprintf(e.output, "Exiting explorer.\n")
			return nil
		default:
			fmt.Fprintf(e.output, "Unknown command: %q. Type 'help' for available commands.\n", cmd)
		}
	}
}

// buildPrompt creates the prompt string: flowlens[run_id | STATUS]>
func (e *Explorer) buildPrompt() string {
	return fmt.Sprintf("flowlens[%s | %s]> ", e.flowRun.ID, e.flowRun.Status)
}
