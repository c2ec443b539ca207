// Package flow defines the Go struct types for the flow-version YAML
// schema and provides strict YAML parsing plus structural queries over
// the trigger/action tree.
package flow

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// TriggerType identifies how a flow starts.
type TriggerType string

const (
	TriggerWebhook  TriggerType = "webhook"
	TriggerSchedule TriggerType = "schedule"
	TriggerManual   TriggerType = "manual"
)

// ActionType identifies the variant of an action node. ActionLoop is the
// distinguished variant that owns a nested body chain and records one
// output snapshot per iteration.
type ActionType string

const (
	ActionCode ActionType = "code"
	ActionHTTP ActionType = "http"
	ActionTool ActionType = "tool"
	ActionLoop ActionType = "loop"
)

// Version is an immutable snapshot of a workflow's structure.
type Version struct {
	APIVersion  string   `yaml:"apiVersion"             json:"apiVersion"             jsonschema:"required,enum=flow/v0"`
	ID          string   `yaml:"id"                     json:"id"                     jsonschema:"required"`
	DisplayName string   `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Trigger     *Trigger `yaml:"trigger"                json:"trigger"                jsonschema:"required"`
}

// Trigger is the root node of a flow version. Its NextAction heads the
// top-level action chain.
type Trigger struct {
	Name        string      `yaml:"name"                   json:"name"         jsonschema:"required"`
	DisplayName string      `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Type        TriggerType `yaml:"type"                   json:"type"         jsonschema:"required,enum=webhook,enum=schedule,enum=manual"`
	NextAction  *Action     `yaml:"next_action,omitempty"  json:"next_action,omitempty"`
}

// Action is a single node in the action tree. Every action may have a
// linear successor; loop actions additionally own FirstLoopAction, the
// head of the nested body chain executed once per iteration. Items is
// the expression selecting what the loop iterates over — carried as
// definition data, never evaluated here.
type Action struct {
	Name            string     `yaml:"name"                        json:"name"  jsonschema:"required"`
	DisplayName     string     `yaml:"display_name,omitempty"      json:"display_name,omitempty"`
	Type            ActionType `yaml:"type"                        json:"type"  jsonschema:"required,enum=code,enum=http,enum=tool,enum=loop"`
	Items           string     `yaml:"items,omitempty"             json:"items,omitempty"`
	NextAction      *Action    `yaml:"next_action,omitempty"       json:"next_action,omitempty"`
	FirstLoopAction *Action    `yaml:"first_loop_action,omitempty" json:"first_loop_action,omitempty"`
}

// IsLoop reports whether the action is the loop variant.
func (a *Action) IsLoop() bool {
	return a != nil && a.Type == ActionLoop
}

// LoadFile reads and parses a flow-version YAML file with strict
// unknown-field rejection (yaml.v3 KnownFields).
func LoadFile(path string) (*Version, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flow version: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a flow version from an io.Reader with strict
// unknown-field rejection.
func Load(r io.Reader) (*Version, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var v Version
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode flow version: %w", err)
	}
	return &v, nil
}
