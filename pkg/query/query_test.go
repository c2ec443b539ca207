package query

import (
	"testing"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

func loadFixtures(t *testing.T) (*flow.Version, *run.FlowRun) {
	t.Helper()
	v, err := flow.LoadFile("../../testdata/flows/order-sync.yaml")
	if err != nil {
		t.Fatalf("load flow: %v", err)
	}
	r, err := run.LoadSnapshot("../../testdata/runs/order-sync-failed.json")
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	return v, r
}

// TestRowsJoinsFlowAndRun checks row count, ordering and the resolved
// status of a nested step under the failure's loop state.
func TestRowsJoinsFlowAndRun(t *testing.T) {
	v, r := loadFixtures(t)
	state := run.FindLoopsState(v, r, nil)
	rows := Rows(v, r, state)

	if len(rows) != 7 {
		t.Fatalf("got %d rows, want 7", len(rows))
	}
	if rows[0].Name != "trigger" || rows[0].Depth != 0 {
		t.Errorf("first row = %+v, want the trigger", rows[0])
	}

	byName := map[string]Row{}
	for _, row := range rows {
		byName[row.Name] = row
	}
	if got := byName["reserve_stock"]; got.Status != "FAILED" || got.Depth != 2 {
		t.Errorf("reserve_stock row = %+v", got)
	}
	if got := byName["notify_done"]; got.Executed {
		t.Errorf("notify_done should be unexecuted, got %+v", got)
	}
}

// TestFilterExpressions runs a few representative filters.
func TestFilterExpressions(t *testing.T) {
	v, r := loadFixtures(t)
	rows := Rows(v, r, run.FindLoopsState(v, r, nil))

	tests := []struct {
		expr string
		want []string
	}{
		{`status == "FAILED"`, []string{"each_order", "each_line", "reserve_stock"}},
		{`severity == "error" && depth > 1`, []string{"reserve_stock"}},
		{`!executed`, []string{"price_line", "notify_done"}},
		{`type == "loop"`, []string{"each_order", "each_line"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Filter(rows, tt.expr)
			if err != nil {
				t.Fatalf("filter: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("matched %d rows %v, want %v", len(got), names(got), tt.want)
			}
			for i, row := range got {
				if row.Name != tt.want[i] {
					t.Errorf("match[%d] = %q, want %q", i, row.Name, tt.want[i])
				}
			}
		})
	}
}

// TestFilterRejectsBadExpression surfaces compile errors.
func TestFilterRejectsBadExpression(t *testing.T) {
	if _, err := Filter(nil, "status =="); err == nil {
		t.Fatal("expected compile error")
	}
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}
