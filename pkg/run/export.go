package run

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// runDocument mirrors the snapshot wire format for schema export. The
// resolution types keep steps in an ordered map whose internals are
// invisible to reflection, so the reflector works from this parallel
// shape instead.
type runDocument struct {
	ID            string                  `json:"id"                        jsonschema:"required"`
	FlowVersionID string                  `json:"flow_version_id,omitempty"`
	Status        string                  `json:"status"                    jsonschema:"required,enum=RUNNING,enum=SUCCEEDED,enum=STOPPED,enum=FAILED,enum=PAUSED,enum=QUOTA_EXCEEDED,enum=INTERNAL_ERROR,enum=TIMEOUT"`
	Steps         map[string]stepDocument `json:"steps,omitempty"`
}

// stepDocument is one step's recorded envelope. A loop step's output
// holds {"iterations": [...]} where each element maps step names to
// further stepDocuments; JSON Schema keeps that payload opaque.
type stepDocument struct {
	Type         string `json:"type"                    jsonschema:"required"`
	Status       string `json:"status"                  jsonschema:"required,enum=RUNNING,enum=PAUSED,enum=STOPPED,enum=SUCCEEDED,enum=FAILED"`
	Output       any    `json:"output,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	DurationMS   int64  `json:"duration_ms,omitempty"`
}

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document for
// the run snapshot format using invopop/jsonschema.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&runDocument{})
	s.ID = "https://github.com/ormasoftchile/flowlens/schemas/run-v0.json"
	s.Title = "Flow Run Snapshot v0"
	s.Description = "Schema for flowlens run snapshot JSON documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
