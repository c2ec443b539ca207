package run

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ormasoftchile/flowlens/pkg/flow"
)

// TestLoadSnapshotPreservesOrder checks that step entries come back in
// recorded order, which the failure scan depends on.
func TestLoadSnapshotPreservesOrder(t *testing.T) {
	r, err := LoadSnapshot("../../testdata/runs/order-sync-failed.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"trigger", "fetch_orders", "each_order"}
	var got []string
	for pair := r.Steps.Oldest(); pair != nil; pair = pair.Next() {
		got = append(got, pair.Key)
	}
	if len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("steps[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestLoadSnapshotDecodesLoopIterations checks nested loop outputs are
// decoded recursively.
func TestLoadSnapshotDecodesLoopIterations(t *testing.T) {
	r, err := LoadSnapshot("../../testdata/runs/order-sync-failed.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	outer, ok := r.Steps.Get("each_order")
	if !ok || outer.Loop == nil {
		t.Fatal("each_order loop output not decoded")
	}
	if len(outer.Loop.Iterations) != 2 {
		t.Fatalf("outer iterations = %d, want 2", len(outer.Loop.Iterations))
	}
	inner, ok := outer.Loop.Iterations[1].Get("each_line")
	if !ok || inner.Loop == nil {
		t.Fatal("nested each_line loop output not decoded")
	}
	if len(inner.Loop.Iterations) != 1 {
		t.Errorf("inner iterations = %d, want 1", len(inner.Loop.Iterations))
	}
}

// TestSnapshotRoundTrip re-encodes a loaded snapshot and decodes it
// again, expecting identical structure.
func TestSnapshotRoundTrip(t *testing.T) {
	r, err := LoadSnapshot("../../testdata/runs/order-sync-failed.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	path := filepath.Join(t.TempDir(), "run.json")
	if err := SaveSnapshot(r, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	name1, ok1 := FindFailedStep(r)
	name2, ok2 := FindFailedStep(again)
	if name1 != name2 || ok1 != ok2 {
		t.Errorf("failed step changed across round trip: (%q,%v) vs (%q,%v)", name1, ok1, name2, ok2)
	}
	if r.Steps.Len() != again.Steps.Len() {
		t.Errorf("step count changed: %d vs %d", r.Steps.Len(), again.Steps.Len())
	}
}

// TestFixtureResolution exercises the full chain on the checked-in
// fixture pair: failed step, loops state, and output extraction with
// clamped indices.
func TestFixtureResolution(t *testing.T) {
	v, err := flow.LoadFile("../../testdata/flows/order-sync.yaml")
	if err != nil {
		t.Fatalf("load flow: %v", err)
	}
	r, err := LoadSnapshot("../../testdata/runs/order-sync-failed.json")
	if err != nil {
		t.Fatalf("load run: %v", err)
	}

	failed, ok := FindFailedStep(r)
	if !ok || failed != "reserve_stock" {
		t.Fatalf("failed step = (%q, %v), want reserve_stock", failed, ok)
	}

	state := FindLoopsState(v, r, nil)
	if state["each_order"] != LastIteration || state["each_line"] != LastIteration {
		t.Fatalf("state = %v, want sentinel for both loops", state)
	}

	// Clamp the sentinel against the recorded iteration counts, then
	// resolve the failing step's record.
	outer, _ := r.Steps.Get("each_order")
	idx := map[string]int{
		"each_order": ClampIteration(state["each_order"], len(outer.Loop.Iterations)),
	}
	inner, _ := outer.Loop.Iterations[idx["each_order"]].Get("each_line")
	idx["each_line"] = ClampIteration(state["each_line"], len(inner.Loop.Iterations))

	got := ExtractStepOutput("reserve_stock", idx, r.Steps, v.Trigger)
	if got == nil || got.Status != StepFailed {
		t.Fatalf("resolved output = %+v, want the FAILED reserve_stock record", got)
	}
	if got.ErrorMessage != "stock service returned 503" {
		t.Errorf("error message = %q", got.ErrorMessage)
	}
}

// TestValidateFileAcceptsFixtures runs the 2-phase pipeline over the
// valid snapshots.
func TestValidateFileAcceptsFixtures(t *testing.T) {
	files, err := filepath.Glob("../../testdata/runs/*.json")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no run fixtures found")
	}
	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			r, errs := ValidateFile(f)
			if len(errs) > 0 {
				t.Fatalf("expected valid, got: %v", errs[0])
			}
			if r == nil || r.ID == "" {
				t.Error("validated run is empty")
			}
		})
	}
}

// TestValidateFileRejectsBadStatus flags unknown status enums at the
// semantic phase.
func TestValidateFileRejectsBadStatus(t *testing.T) {
	_, errs := ValidateFile("../../testdata/invalid/bad-status.json")
	if len(errs) == 0 {
		t.Fatal("expected semantic errors for bad statuses")
	}
	for _, e := range errs {
		if e.Phase != "semantic" {
			t.Errorf("unexpected phase %q: %v", e.Phase, e)
		}
	}
}

// TestSeverityMapping pins the status → presentation classes.
func TestSeverityMapping(t *testing.T) {
	stepWant := map[StepStatus]Severity{
		StepRunning:   SeverityNeutral,
		StepPaused:    SeverityNeutral,
		StepStopped:   SeveritySuccess,
		StepSucceeded: SeveritySuccess,
		StepFailed:    SeverityError,
	}
	for status, want := range stepWant {
		if got := status.Severity(); got != want {
			t.Errorf("step %s → %s, want %s", status, got, want)
		}
	}

	runWant := map[RunStatus]Severity{
		RunRunning:       SeverityNeutral,
		RunPaused:        SeverityNeutral,
		RunStopped:       SeveritySuccess,
		RunSucceeded:     SeveritySuccess,
		RunFailed:        SeverityError,
		RunQuotaExceeded: SeverityError,
		RunInternalError: SeverityError,
		RunTimeout:       SeverityError,
	}
	for status, want := range runWant {
		if got := status.Severity(); got != want {
			t.Errorf("run %s → %s, want %s", status, got, want)
		}
	}
}

// TestStepOutputMarshalPrefersDecodedLoop ensures edits to decoded
// iterations win over the original raw bytes.
func TestStepOutputMarshalPrefersDecodedLoop(t *testing.T) {
	out := loopStep(StepSucceeded,
		stepsOf(stepEntry{"inner", step(flow.ActionCode, StepSucceeded, `{"i":0}`)}),
	)
	out.Output = json.RawMessage(`{"iterations":[]}`) // stale

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back StepOutput
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Loop == nil || len(back.Loop.Iterations) != 1 {
		t.Errorf("round-tripped loop = %+v, want one iteration", back.Loop)
	}
}
