package report

import (
	"strings"
	"testing"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

func loadFixture(t *testing.T) (*flow.Version, *run.FlowRun) {
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

func TestGenerate_FailedRun(t *testing.T) {
	v, r := loadFixture(t)

	md, err := Generate(v, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"# Run run_8f2d1c",
		"✗ FAILED",
		"**Failed step:** `reserve_stock`",
		"## Failure",
		"stock service returned 503",
		"## Loops",
		"## Steps",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q, got:\n%s", want, md)
		}
	}

	// The failure section names both enclosing loops with the
	// iterations the failed record was found under.
	if !strings.Contains(md, "`each_order` (iteration 1)") {
		t.Errorf("missing outer loop iteration, got:\n%s", md)
	}
	if !strings.Contains(md, "`each_line` (iteration 0)") {
		t.Errorf("missing inner loop iteration, got:\n%s", md)
	}

	// Unexecuted steps show as dashes, not invented statuses.
	if !strings.Contains(md, "`notify_done` | code | - | - |") {
		t.Errorf("expected unexecuted notify_done row, got:\n%s", md)
	}
}

func TestGenerate_SucceededRun(t *testing.T) {
	v, err := flow.LoadFile("../../testdata/flows/simple.yaml")
	if err != nil {
		t.Fatalf("load flow: %v", err)
	}
	r, err := run.LoadSnapshot("../../testdata/runs/simple-succeeded.json")
	if err != nil {
		t.Fatalf("load run: %v", err)
	}

	md, err := Generate(v, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(md, "## Failure") {
		t.Errorf("unexpected failure section in succeeded run:\n%s", md)
	}
	if strings.Contains(md, "## Loops") {
		t.Errorf("unexpected loop section for loop-free flow:\n%s", md)
	}
	if !strings.Contains(md, "✓ SUCCEEDED") {
		t.Errorf("missing success status, got:\n%s", md)
	}
}

func TestGenerate_NilInputs(t *testing.T) {
	v, r := loadFixture(t)
	if _, err := Generate(nil, r); err == nil {
		t.Error("expected error for nil version")
	}
	if _, err := Generate(v, nil); err == nil {
		t.Error("expected error for nil run")
	}
}

func TestRender_FallsBackOnEmpty(t *testing.T) {
	v, r := loadFixture(t)
	md, err := Generate(v, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := Render(md, 80)
	if strings.TrimSpace(out) == "" {
		t.Error("rendered report is empty")
	}
}
