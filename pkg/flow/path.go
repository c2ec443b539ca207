package flow

// PathToStep locates the step named target in the tree rooted at
// trigger and returns its loop ancestors in root-to-target order.
//
// The result distinguishes three cases:
//   - (nil, false)        — target does not exist anywhere in the tree
//   - (empty slice, true) — target exists at top level (no loop ancestors)
//   - (non-empty, true)   — target is nested; the slice holds every loop
//     action whose body chain contains it
//
// Only loop ancestors appear in the path: siblings and non-loop nodes do
// not affect output addressing.
func PathToStep(trigger *Trigger, target string) ([]*Action, bool) {
	if trigger == nil {
		return nil, false
	}
	if trigger.Name == target {
		return []*Action{}, true
	}
	return pathInChain(trigger.NextAction, target)
}

// pathInChain searches the linear chain headed by a, descending into
// loop bodies. The returned path is built loop-ancestor-first on the way
// back up the recursion.
func pathInChain(a *Action, target string) ([]*Action, bool) {
	for ; a != nil; a = a.NextAction {
		if a.Name == target {
			return []*Action{}, true
		}
		if a.IsLoop() {
			if sub, ok := pathInChain(a.FirstLoopAction, target); ok {
				return append([]*Action{a}, sub...), true
			}
		}
	}
	return nil, false
}
