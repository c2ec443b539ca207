package run

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadSnapshot reads a FlowRun from a JSON snapshot file.
func LoadSnapshot(path string) (*FlowRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run snapshot: %w", err)
	}
	var r FlowRun
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal run snapshot: %w", err)
	}
	return &r, nil
}

// SaveSnapshot persists a FlowRun to a JSON file.
func SaveSnapshot(r *FlowRun, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write run snapshot: %w", err)
	}
	return nil
}
