package run

import "github.com/ormasoftchile/flowlens/pkg/flow"

// ExtractStepOutput returns the recorded output for stepName, descending
// through loop aggregates using the caller's per-loop iteration indices.
//
// Resolution never panics: a loop index that is absent, negative, or
// past the recorded iterations is a broken link in the descent, and the
// result is nil rather than the enclosing aggregate. Top-level steps
// and loop aggregates themselves resolve on the fast path without
// consulting the tree.
func ExtractStepOutput(stepName string, loopIndexes map[string]int, steps *StepMap, trigger *flow.Trigger) *StepOutput {
	if steps == nil {
		return nil
	}
	if out, ok := steps.Get(stepName); ok {
		return out
	}

	path, ok := flow.PathToStep(trigger, stepName)
	if !ok {
		return nil
	}
	// PathToStep already restricts the path to loop ancestors, but that
	// is a structural guarantee, not a type-level one. Re-filter.
	ancestors := path[:0:0]
	for _, a := range path {
		if a.IsLoop() {
			ancestors = append(ancestors, a)
		}
	}
	if len(ancestors) == 0 {
		// Exists at top level yet absent from steps: never executed.
		return nil
	}

	current, _ := steps.Get(ancestors[0].Name)
	for i, loop := range ancestors {
		key := stepName
		if i+1 < len(ancestors) {
			key = ancestors[i+1].Name
		}
		next, ok := descend(current, loopIndexes, loop.Name, key)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// descend looks up key inside the selected iteration snapshot of a loop
// aggregate. The second result reports whether the snapshot existed;
// when it did, the returned value replaces the cursor even if nil, so a
// missing entry inside a real snapshot resolves to "no output" rather
// than to an unrelated stale value.
func descend(out *StepOutput, loopIndexes map[string]int, loopName, key string) (*StepOutput, bool) {
	if out == nil || out.Loop == nil {
		return nil, false
	}
	idx, ok := loopIndexes[loopName]
	if !ok || idx < 0 || idx >= len(out.Loop.Iterations) {
		return nil, false
	}
	snap := out.Loop.Iterations[idx]
	if snap == nil {
		return nil, false
	}
	v, _ := snap.Get(key)
	return v, true
}
