package run

import (
	"math"

	"github.com/ormasoftchile/flowlens/pkg/flow"
)

// LastIteration is the display-index sentinel meaning "show the final
// iteration". It is deliberately out of range for any real run;
// renderers clamp it to the last recorded iteration. MaxInt32 survives
// JSON round-trips through float64 consumers exactly.
const LastIteration = math.MaxInt32

// FindFailedStep returns the name of the first step recorded as FAILED,
// searching top-level entries in recorded order and, for each loop,
// every iteration snapshot depth-first. The second result is false when
// no step at any depth failed — a normal outcome, not an error.
func FindFailedStep(r *FlowRun) (string, bool) {
	if r == nil {
		return "", false
	}
	return findFailedIn(r.Steps)
}

// findFailedIn applies the per-entry rule to one ordered step mapping:
// a loop entry's iterations are searched first, so a loop marked FAILED
// because an iteration failed reports the nested step rather than the
// aggregate; a plain entry's own FAILED status wins over later siblings.
func findFailedIn(steps *StepMap) (string, bool) {
	if steps == nil {
		return "", false
	}
	for pair := steps.Oldest(); pair != nil; pair = pair.Next() {
		out := pair.Value
		if out == nil {
			continue
		}
		if out.Type == flow.ActionLoop && out.Loop != nil {
			if name, ok := findFailedStepInLoop(out.Loop); ok {
				return name, true
			}
		}
		if out.Status == StepFailed {
			return pair.Key, true
		}
	}
	return "", false
}

// findFailedStepInLoop searches a loop's iterations in execution order.
// The earliest iteration containing a failure wins; later iterations
// are not examined.
func findFailedStepInLoop(loop *LoopStepResult) (string, bool) {
	for _, snap := range loop.Iterations {
		if name, ok := findFailedIn(snap); ok {
			return name, true
		}
	}
	return "", false
}

// FindLoopsState computes the display iteration index for every loop in
// the flow. Loops whose body contains the run's failed step get the
// LastIteration sentinel; every other loop keeps the caller's previous
// index, defaulting to 0. Entries in current for names that are not
// loops of this flow are preserved untouched.
func FindLoopsState(version *flow.Version, r *FlowRun, current map[string]int) map[string]int {
	state := make(map[string]int, len(current))
	for name, idx := range current {
		state[name] = idx
	}
	if version == nil {
		return state
	}

	failedAncestors := map[string]bool{}
	if r != nil && r.Steps != nil && r.Steps.Len() > 0 {
		if failed, ok := FindFailedStep(r); ok {
			if path, ok := flow.PathToStep(version.Trigger, failed); ok {
				for _, a := range path {
					failedAncestors[a.Name] = true
				}
			}
		}
	}

	for _, loop := range flow.Loops(version.Trigger) {
		switch {
		case failedAncestors[loop.Name]:
			state[loop.Name] = LastIteration
		default:
			if idx, ok := current[loop.Name]; ok {
				state[loop.Name] = idx
			} else {
				state[loop.Name] = 0
			}
		}
	}
	return state
}

// EffectiveIndexes clamps a display state against the iterations each
// loop actually recorded, folding the LastIteration sentinel onto real
// indices. Loops are processed parents-first, so a nested loop's
// aggregate is resolved under its parent's already-clamped index. The
// result is safe to hand to ExtractStepOutput.
func EffectiveIndexes(version *flow.Version, r *FlowRun, state map[string]int) map[string]int {
	eff := make(map[string]int, len(state))
	if version == nil || r == nil {
		return eff
	}
	for _, loop := range flow.Loops(version.Trigger) {
		iterations := 0
		if agg := ExtractStepOutput(loop.Name, eff, r.Steps, version.Trigger); agg != nil && agg.Loop != nil {
			iterations = len(agg.Loop.Iterations)
		}
		eff[loop.Name] = ClampIteration(state[loop.Name], iterations)
	}
	return eff
}

// ClampIteration resolves a display index against the recorded
// iteration count, folding the LastIteration sentinel (and any other
// out-of-range value) onto the final iteration. Returns 0 when the loop
// recorded nothing.
func ClampIteration(idx, iterations int) int {
	if iterations <= 0 {
		return 0
	}
	if idx < 0 {
		return 0
	}
	if idx >= iterations {
		return iterations - 1
	}
	return idx
}
