package flow

import "testing"

// buildNestedVersion returns a flow with a two-level nested loop:
//
//	trigger -> fetch -> each_order(loop) -> notify
//	                      └ each_line(loop)
//	                          └ reserve -> price
func buildNestedVersion() *Version {
	return &Version{
		APIVersion: "flow/v0",
		ID:         "order-sync",
		Trigger: &Trigger{
			Name: "trigger",
			Type: TriggerSchedule,
			NextAction: &Action{
				Name: "fetch",
				Type: ActionHTTP,
				NextAction: &Action{
					Name:  "each_order",
					Type:  ActionLoop,
					Items: "steps.fetch.body.orders",
					FirstLoopAction: &Action{
						Name:  "each_line",
						Type:  ActionLoop,
						Items: "loop.item.lines",
						FirstLoopAction: &Action{
							Name: "reserve",
							Type: ActionTool,
							NextAction: &Action{
								Name: "price",
								Type: ActionCode,
							},
						},
					},
					NextAction: &Action{
						Name: "notify",
						Type: ActionCode,
					},
				},
			},
		},
	}
}

// TestPathToStepDistinguishesMissingFromTopLevel verifies the three-way
// result: missing step vs top-level step vs nested step.
func TestPathToStepDistinguishesMissingFromTopLevel(t *testing.T) {
	v := buildNestedVersion()

	path, ok := PathToStep(v.Trigger, "no_such_step")
	if ok {
		t.Fatalf("expected not found, got path of %d ancestors", len(path))
	}
	if path != nil {
		t.Errorf("not-found path should be nil, got %v", path)
	}

	path, ok = PathToStep(v.Trigger, "fetch")
	if !ok {
		t.Fatal("fetch should be found")
	}
	if path == nil || len(path) != 0 {
		t.Errorf("top-level step should have a defined empty path, got %v", path)
	}
}

// TestPathToStepTrigger checks that the trigger itself resolves as a
// top-level step.
func TestPathToStepTrigger(t *testing.T) {
	v := buildNestedVersion()
	path, ok := PathToStep(v.Trigger, "trigger")
	if !ok || len(path) != 0 {
		t.Errorf("trigger: ok=%v path=%v, want found with empty path", ok, path)
	}
}

// TestPathToStepNested verifies root-to-target ordering of loop
// ancestors at each nesting depth.
func TestPathToStepNested(t *testing.T) {
	v := buildNestedVersion()

	tests := []struct {
		step string
		want []string
	}{
		{"each_order", nil},                         // the loop itself is top-level
		{"each_line", []string{"each_order"}},       // one level deep
		{"reserve", []string{"each_order", "each_line"}},
		{"price", []string{"each_order", "each_line"}},
		{"notify", nil}, // after the loop, not inside it
	}
	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			path, ok := PathToStep(v.Trigger, tt.step)
			if !ok {
				t.Fatalf("step %q not found", tt.step)
			}
			if len(path) != len(tt.want) {
				t.Fatalf("path length = %d, want %d", len(path), len(tt.want))
			}
			for i, a := range path {
				if a.Name != tt.want[i] {
					t.Errorf("path[%d] = %q, want %q", i, a.Name, tt.want[i])
				}
				if !a.IsLoop() {
					t.Errorf("path[%d] (%q) is not a loop action", i, a.Name)
				}
			}
		})
	}
}

// TestPathToStepNilTrigger ensures a nil tree reports not-found rather
// than panicking.
func TestPathToStepNilTrigger(t *testing.T) {
	if _, ok := PathToStep(nil, "anything"); ok {
		t.Error("nil trigger should not find any step")
	}
}
