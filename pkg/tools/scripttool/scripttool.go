// Package scripttool turns config.ToolConfig definitions into toolbox.Tool
// values. It derives each tool's input JSON Schema, validates and defaults
// caller arguments against it, and hands the typed inputs to an Executor.
package scripttool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/germanamz/any-script-mcp/pkg/config"
	"github.com/germanamz/any-script-mcp/pkg/scalar"
	"github.com/germanamz/any-script-mcp/pkg/tools/toolbox"
)

// Executor runs a tool with validated inputs.
type Executor interface {
	Run(ctx context.Context, tool config.ToolConfig, inputs map[string]scalar.Value) (string, error)
}

// Schema returns the JSON Schema callers' arguments must satisfy. Inputs
// with a default or required: false are optional; the default is published
// so clients can show it.
func Schema(tool config.ToolConfig) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(tool.Inputs)),
	}

	for _, name := range inputNames(tool) {
		in := tool.Inputs[name]

		prop := &jsonschema.Schema{
			Type:        string(in.Type),
			Description: in.Description,
		}

		if in.HasDefault() {
			data, err := json.Marshal(in.Default)
			if err == nil {
				prop.Default = data
			}
		}

		schema.Properties[name] = prop

		if !in.Optional() {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// New builds the toolbox.Tool for one script tool.
func New(tool config.ToolConfig, exec Executor) (toolbox.Tool, error) {
	schema := Schema(tool)

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return toolbox.Tool{}, fmt.Errorf("scripttool: %s: resolve schema: %w", tool.Name, err)
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return toolbox.Tool{}, fmt.Errorf("scripttool: %s: marshal schema: %w", tool.Name, err)
	}

	return toolbox.Tool{
		Name:        tool.Name,
		Title:       tool.Name,
		Description: tool.Description,
		InputSchema: raw,
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			inputs, err := Arguments(resolved, tool, input)
			if err != nil {
				return "", err
			}

			return exec.Run(ctx, tool, inputs)
		},
	}, nil
}

// Register adds a tool for every entry in cfg to tb, in config order.
func Register(tb *toolbox.ToolBox, cfg config.Config, exec Executor) error {
	for _, tool := range cfg.Tools {
		t, err := New(tool, exec)
		if err != nil {
			return err
		}

		tb.Register(t)
	}

	return nil
}

// Arguments validates input against the resolved schema, fills in defaults,
// and converts declared inputs to scalar values. Undeclared keys are dropped.
func Arguments(resolved *jsonschema.Resolved, tool config.ToolConfig, input json.RawMessage) (map[string]scalar.Value, error) {
	args := make(map[string]any)
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	if args == nil {
		args = make(map[string]any)
	}

	if err := resolved.ApplyDefaults(&args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	if err := resolved.Validate(&args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	inputs := make(map[string]scalar.Value, len(tool.Inputs))
	for name, in := range tool.Inputs {
		raw, ok := args[name]
		if !ok {
			continue
		}

		v, err := scalar.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid arguments: %s: %w", name, err)
		}

		if v.Kind() != in.Type.Kind() {
			return nil, fmt.Errorf("invalid arguments: %s: expected %s, got %s", name, in.Type, v.Kind())
		}

		inputs[name] = v
	}

	return inputs, nil
}

// inputNames returns declared order when known, else sorted names.
func inputNames(tool config.ToolConfig) []string {
	if len(tool.InputOrder) == len(tool.Inputs) {
		return tool.InputOrder
	}

	names := make([]string, 0, len(tool.Inputs))
	for name := range tool.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
