package run

import (
	"testing"

	"github.com/ormasoftchile/flowlens/pkg/flow"
)

// TestFindFailedStepTopLevel finds a directly failed entry.
func TestFindFailedStepTopLevel(t *testing.T) {
	r := &FlowRun{Status: RunFailed, Steps: stepsOf(
		stepEntry{"a", step(flow.ActionCode, StepSucceeded, `{}`)},
		stepEntry{"b", step(flow.ActionHTTP, StepFailed, "")},
		stepEntry{"c", step(flow.ActionCode, StepSucceeded, `{}`)},
	)}
	name, ok := FindFailedStep(r)
	if !ok || name != "b" {
		t.Errorf("got (%q, %v), want (b, true)", name, ok)
	}
}

// TestFindFailedStepInsideLoop digs into iteration snapshots, matching
// spec property 5: loop "B" fails in iteration 2 at step "C".
func TestFindFailedStepInsideLoop(t *testing.T) {
	loopB := loopStep(StepFailed,
		stepsOf(stepEntry{"C", step(flow.ActionCode, StepSucceeded, `{}`)}),
		stepsOf(stepEntry{"C", step(flow.ActionCode, StepSucceeded, `{}`)}),
		stepsOf(stepEntry{"C", step(flow.ActionCode, StepFailed, "")}),
	)
	r := &FlowRun{Status: RunFailed, Steps: stepsOf(
		stepEntry{"A", step(flow.ActionCode, StepSucceeded, `{}`)},
		stepEntry{"B", loopB},
	)}
	name, ok := FindFailedStep(r)
	if !ok || name != "C" {
		t.Errorf("got (%q, %v), want (C, true)", name, ok)
	}
}

// TestFindFailedStepLoopAggregateFallback: when a loop is marked FAILED
// but no recorded iteration contains a failing step, the aggregate
// itself is the failure. Iterations are always searched first so a
// nested failure is never masked by the aggregate status.
func TestFindFailedStepLoopAggregateFallback(t *testing.T) {
	l := loopStep(StepFailed,
		stepsOf(stepEntry{"inner", step(flow.ActionCode, StepSucceeded, `{}`)}),
	)
	r := &FlowRun{Status: RunFailed, Steps: stepsOf(stepEntry{"L", l})}
	name, ok := FindFailedStep(r)
	if !ok || name != "L" {
		t.Errorf("got (%q, %v), want (L, true)", name, ok)
	}
}

// TestFindFailedStepScanOrder: a failure inside an earlier sibling loop
// wins over a later top-level failure, and vice versa — whichever entry
// the ordered scan reaches first.
func TestFindFailedStepScanOrder(t *testing.T) {
	failingLoop := loopStep(StepFailed,
		stepsOf(stepEntry{"deep", step(flow.ActionCode, StepFailed, "")}),
	)

	// Loop first: its nested failure is found before the sibling's.
	r := &FlowRun{Steps: stepsOf(
		stepEntry{"loop1", failingLoop},
		stepEntry{"late", step(flow.ActionCode, StepFailed, "")},
	)}
	if name, _ := FindFailedStep(r); name != "deep" {
		t.Errorf("loop-first scan: got %q, want deep", name)
	}

	// Top-level failure first: the loop is never descended into.
	r = &FlowRun{Steps: stepsOf(
		stepEntry{"early", step(flow.ActionCode, StepFailed, "")},
		stepEntry{"loop1", failingLoop},
	)}
	if name, _ := FindFailedStep(r); name != "early" {
		t.Errorf("top-level-first scan: got %q, want early", name)
	}
}

// TestFindFailedStepEarliestIteration verifies iteration order
// precedence inside one loop.
func TestFindFailedStepEarliestIteration(t *testing.T) {
	l := loopStep(StepFailed,
		stepsOf(stepEntry{"x", step(flow.ActionCode, StepSucceeded, `{}`)}),
		stepsOf(stepEntry{"x", step(flow.ActionCode, StepFailed, "")}),
		stepsOf(stepEntry{"y", step(flow.ActionCode, StepFailed, "")}),
	)
	r := &FlowRun{Steps: stepsOf(stepEntry{"L", l})}
	if name, _ := FindFailedStep(r); name != "x" {
		t.Errorf("got %q, want x from the earliest failing iteration", name)
	}
}

// TestFindFailedStepNone returns the explicit none value on an
// all-green run and on empty/nil inputs.
func TestFindFailedStepNone(t *testing.T) {
	r := &FlowRun{Status: RunSucceeded, Steps: stepsOf(
		stepEntry{"a", step(flow.ActionCode, StepSucceeded, `{}`)},
		stepEntry{"L", loopStep(StepSucceeded,
			stepsOf(stepEntry{"inner", step(flow.ActionCode, StepSucceeded, `{}`)}),
		)},
	)}
	if name, ok := FindFailedStep(r); ok {
		t.Errorf("all-green run reported failure %q", name)
	}
	if _, ok := FindFailedStep(nil); ok {
		t.Error("nil run reported a failure")
	}
	if _, ok := FindFailedStep(&FlowRun{}); ok {
		t.Error("empty run reported a failure")
	}
}

// --- FindLoopsState ------------------------------------------------------

// nestedVersionForState: trigger -> A -> B(loop){C} -> D(loop){E}.
func nestedVersionForState() *flow.Version {
	return &flow.Version{
		APIVersion: "flow/v0",
		ID:         "state",
		Trigger: &flow.Trigger{
			Name: "trigger",
			Type: flow.TriggerManual,
			NextAction: &flow.Action{
				Name: "A",
				Type: flow.ActionCode,
				NextAction: &flow.Action{
					Name:            "B",
					Type:            flow.ActionLoop,
					FirstLoopAction: &flow.Action{Name: "C", Type: flow.ActionCode},
					NextAction: &flow.Action{
						Name:            "D",
						Type:            flow.ActionLoop,
						FirstLoopAction: &flow.Action{Name: "E", Type: flow.ActionCode},
					},
				},
			},
		},
	}
}

// TestFindLoopsStateFailure pins spec property 5: the loop containing
// the failure gets the sentinel, unrelated loops keep caller values.
func TestFindLoopsStateFailure(t *testing.T) {
	v := nestedVersionForState()
	r := &FlowRun{Status: RunFailed, Steps: stepsOf(
		stepEntry{"A", step(flow.ActionCode, StepSucceeded, `{}`)},
		stepEntry{"B", loopStep(StepFailed,
			stepsOf(stepEntry{"C", step(flow.ActionCode, StepSucceeded, `{}`)}),
			stepsOf(stepEntry{"C", step(flow.ActionCode, StepSucceeded, `{}`)}),
			stepsOf(stepEntry{"C", step(flow.ActionCode, StepFailed, "")}),
		)},
	)}

	state := FindLoopsState(v, r, map[string]int{"D": 4})
	if state["B"] != LastIteration {
		t.Errorf("B = %d, want the LastIteration sentinel", state["B"])
	}
	if state["D"] != 4 {
		t.Errorf("D = %d, want the caller's 4 preserved", state["D"])
	}
}

// TestFindLoopsStateNoFailure pins spec property 6: indices pass
// through unchanged, absent loops default to 0.
func TestFindLoopsStateNoFailure(t *testing.T) {
	v := nestedVersionForState()
	r := &FlowRun{Status: RunSucceeded, Steps: stepsOf(
		stepEntry{"A", step(flow.ActionCode, StepSucceeded, `{}`)},
	)}

	state := FindLoopsState(v, r, map[string]int{"B": 1})
	if state["B"] != 1 {
		t.Errorf("B = %d, want 1", state["B"])
	}
	if state["D"] != 0 {
		t.Errorf("D = %d, want default 0", state["D"])
	}
}

// TestFindLoopsStatePreservesUnrelatedEntries keeps caller entries that
// name no loop of this flow.
func TestFindLoopsStatePreservesUnrelatedEntries(t *testing.T) {
	v := nestedVersionForState()
	state := FindLoopsState(v, &FlowRun{}, map[string]int{"other_flow_loop": 7})
	if state["other_flow_loop"] != 7 {
		t.Errorf("unrelated entry = %d, want 7", state["other_flow_loop"])
	}
	if len(state) != 3 { // B, D, other_flow_loop
		t.Errorf("state has %d entries: %v", len(state), state)
	}
}

// TestFindLoopsStateNestedFailure marks every enclosing loop of a
// deeply nested failure.
func TestFindLoopsStateNestedFailure(t *testing.T) {
	v := &flow.Version{
		APIVersion: "flow/v0",
		ID:         "nested",
		Trigger: &flow.Trigger{
			Name: "trigger",
			Type: flow.TriggerManual,
			NextAction: &flow.Action{
				Name: "L1",
				Type: flow.ActionLoop,
				FirstLoopAction: &flow.Action{
					Name:            "L2",
					Type:            flow.ActionLoop,
					FirstLoopAction: &flow.Action{Name: "leaf", Type: flow.ActionTool},
				},
			},
		},
	}
	r := &FlowRun{Status: RunFailed, Steps: stepsOf(
		stepEntry{"L1", loopStep(StepFailed,
			stepsOf(stepEntry{"L2", loopStep(StepFailed,
				stepsOf(stepEntry{"leaf", step(flow.ActionTool, StepFailed, "")}),
			)}),
		)},
	)}
	state := FindLoopsState(v, r, nil)
	if state["L1"] != LastIteration || state["L2"] != LastIteration {
		t.Errorf("state = %v, want sentinel for both L1 and L2", state)
	}
}

// TestClampIteration folds the sentinel and out-of-range values onto
// real iteration indices.
func TestClampIteration(t *testing.T) {
	tests := []struct {
		idx, n, want int
	}{
		{LastIteration, 3, 2},
		{0, 3, 0},
		{2, 3, 2},
		{5, 3, 2},
		{-1, 3, 0},
		{LastIteration, 0, 0},
	}
	for _, tt := range tests {
		if got := ClampIteration(tt.idx, tt.n); got != tt.want {
			t.Errorf("ClampIteration(%d, %d) = %d, want %d", tt.idx, tt.n, got, tt.want)
		}
	}
}
