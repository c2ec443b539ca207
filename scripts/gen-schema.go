//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/flowlens/pkg/flow"
	"github.com/ormasoftchile/flowlens/pkg/run"
)

func main() {
	flowData, err := flow.GenerateJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/flow-v0.json", flowData, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/flow-v0.json")

	runData, err := run.GenerateJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating run schema: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/run-v0.json", runData, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/run-v0.json")
}
