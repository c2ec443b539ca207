// Package run defines the recorded state of one flow execution and the
// pure resolution operations over it: locating a step's output through
// nested loop iterations, finding the failed step, and computing
// per-loop display indices.
//
// Everything here operates on immutable snapshots supplied by the
// caller; no function mutates its inputs.
package run

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ormasoftchile/flowlens/pkg/flow"
)

// StepMap is an insertion-ordered mapping from step name to output.
// Order matters: the failure scan resolves ties by whichever entry was
// recorded first, so the run's steps must round-trip as an ordered
// sequence, not a plain map.
type StepMap = orderedmap.OrderedMap[string, *StepOutput]

// NewStepMap returns an empty ordered step mapping.
func NewStepMap() *StepMap {
	return orderedmap.New[string, *StepOutput]()
}

// FlowRun is one execution instance of a flow version. Steps holds only
// top-level results; outputs of steps nested in loops live inside the
// owning loop's iteration snapshots.
type FlowRun struct {
	ID            string    `json:"id"`
	FlowVersionID string    `json:"flow_version_id,omitempty"`
	Status        RunStatus `json:"status"`
	Steps         *StepMap  `json:"steps,omitempty"`
}

// LoopStepResult is the aggregated output of a loop step: one snapshot
// of the body's step outputs per executed iteration, in execution order.
type LoopStepResult struct {
	Iterations []*StepMap `json:"iterations"`
}

// StepOutput is the recorded result of one step in one run. For loop
// steps Loop carries the decoded iteration snapshots and Output the raw
// bytes they came from; for every other step Output is the opaque
// recorded payload.
type StepOutput struct {
	Type         flow.ActionType
	Status       StepStatus
	Output       json.RawMessage
	Loop         *LoopStepResult
	ErrorMessage string
	DurationMS   int64
}

// stepOutputWire is the snapshot envelope as written by the executor.
type stepOutputWire struct {
	Type         flow.ActionType `json:"type"`
	Status       StepStatus      `json:"status"`
	Output       json.RawMessage `json:"output,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	DurationMS   int64           `json:"duration_ms,omitempty"`
}

// UnmarshalJSON decodes the wire envelope and, for loop steps, decodes
// the output payload into iteration snapshots.
func (s *StepOutput) UnmarshalJSON(data []byte) error {
	var w stepOutputWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode step output: %w", err)
	}
	s.Type = w.Type
	s.Status = w.Status
	s.Output = w.Output
	s.ErrorMessage = w.ErrorMessage
	s.DurationMS = w.DurationMS
	s.Loop = nil

	if w.Type == flow.ActionLoop && len(w.Output) > 0 && !bytes.Equal(w.Output, []byte("null")) {
		var lr LoopStepResult
		if err := json.Unmarshal(w.Output, &lr); err != nil {
			return fmt.Errorf("decode loop iterations: %w", err)
		}
		s.Loop = &lr
	}
	return nil
}

// MarshalJSON writes the same envelope back. A decoded loop result wins
// over stale raw bytes so edits to Loop survive a round trip.
func (s *StepOutput) MarshalJSON() ([]byte, error) {
	w := stepOutputWire{
		Type:         s.Type,
		Status:       s.Status,
		Output:       s.Output,
		ErrorMessage: s.ErrorMessage,
		DurationMS:   s.DurationMS,
	}
	if s.Loop != nil {
		data, err := json.Marshal(s.Loop)
		if err != nil {
			return nil, fmt.Errorf("encode loop iterations: %w", err)
		}
		w.Output = data
	}
	return json.Marshal(w)
}
