package flow

import "testing"

// TestLoopsFlattensNesting checks that Loops enumerates loops at every
// depth in definition order.
func TestLoopsFlattensNesting(t *testing.T) {
	v := buildNestedVersion()
	loops := Loops(v.Trigger)
	if len(loops) != 2 {
		t.Fatalf("got %d loops, want 2", len(loops))
	}
	if loops[0].Name != "each_order" || loops[1].Name != "each_line" {
		t.Errorf("loops = [%s %s], want [each_order each_line]", loops[0].Name, loops[1].Name)
	}
}

// TestStepsDepth verifies the flattened display rows carry loop nesting
// depth, with the trigger first.
func TestStepsDepth(t *testing.T) {
	v := buildNestedVersion()
	steps := Steps(v.Trigger)

	want := []struct {
		name  string
		depth int
	}{
		{"trigger", 0},
		{"fetch", 0},
		{"each_order", 0},
		{"each_line", 1},
		{"reserve", 2},
		{"price", 2},
		{"notify", 0},
	}
	if len(steps) != len(want) {
		t.Fatalf("got %d rows, want %d", len(steps), len(want))
	}
	for i, w := range want {
		if steps[i].Name != w.name || steps[i].Depth != w.depth {
			t.Errorf("row %d = %s@%d, want %s@%d", i, steps[i].Name, steps[i].Depth, w.name, w.depth)
		}
	}
}

// TestActionByName covers found, nested and missing lookups.
func TestActionByName(t *testing.T) {
	v := buildNestedVersion()
	if a := ActionByName(v.Trigger, "reserve"); a == nil || a.Type != ActionTool {
		t.Errorf("reserve lookup = %+v", a)
	}
	if a := ActionByName(v.Trigger, "trigger"); a != nil {
		t.Errorf("trigger should not resolve to an action, got %+v", a)
	}
	if a := ActionByName(v.Trigger, "ghost"); a != nil {
		t.Errorf("missing step resolved to %+v", a)
	}
}
