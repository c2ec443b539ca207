package flow

// StepNode is one visited node during a walk, with its loop nesting
// depth (0 for top-level steps).
type StepNode struct {
	Name        string
	DisplayName string
	Type        ActionType
	Depth       int
}

// WalkActions visits every action reachable from a, following both
// next-action edges and loop body edges, in definition order.
func WalkActions(a *Action, fn func(*Action)) {
	for ; a != nil; a = a.NextAction {
		fn(a)
		if a.IsLoop() {
			WalkActions(a.FirstLoopAction, fn)
		}
	}
}

// Loops returns every loop action in the tree, flattened regardless of
// nesting depth, in definition order.
func Loops(trigger *Trigger) []*Action {
	if trigger == nil {
		return nil
	}
	var loops []*Action
	WalkActions(trigger.NextAction, func(a *Action) {
		if a.IsLoop() {
			loops = append(loops, a)
		}
	})
	return loops
}

// Steps flattens the whole tree (trigger included) into display rows
// with nesting depth. Loop bodies follow their loop, indented one level.
func Steps(trigger *Trigger) []StepNode {
	if trigger == nil {
		return nil
	}
	nodes := []StepNode{{
		Name:        trigger.Name,
		DisplayName: trigger.DisplayName,
		Type:        "", // the trigger has no action type
		Depth:       0,
	}}
	return appendChain(nodes, trigger.NextAction, 0)
}

func appendChain(nodes []StepNode, a *Action, depth int) []StepNode {
	for ; a != nil; a = a.NextAction {
		nodes = append(nodes, StepNode{
			Name:        a.Name,
			DisplayName: a.DisplayName,
			Type:        a.Type,
			Depth:       depth,
		})
		if a.IsLoop() {
			nodes = appendChain(nodes, a.FirstLoopAction, depth+1)
		}
	}
	return nodes
}

// Contains reports whether a step with the given name exists anywhere in
// the tree.
func Contains(trigger *Trigger, name string) bool {
	_, ok := PathToStep(trigger, name)
	return ok
}

// ActionByName returns the action with the given name, or nil. The
// trigger is not an action and is never returned.
func ActionByName(trigger *Trigger, name string) *Action {
	if trigger == nil {
		return nil
	}
	var found *Action
	WalkActions(trigger.NextAction, func(a *Action) {
		if found == nil && a.Name == name {
			found = a
		}
	})
	return found
}
