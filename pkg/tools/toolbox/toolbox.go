package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Call for an unregistered tool name.
var ErrNotFound = errors.New("tool not found")

// ToolBox is a collection of tools kept in registration order, so listings
// are stable across runs.
type ToolBox struct {
	order []string
	tools map[string]Tool
}

// New creates a new ToolBox ready for use.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds one or more tools to the ToolBox. If a tool with the same name
// already exists, it is replaced in place.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		if _, ok := tb.tools[t.Name]; !ok {
			tb.order = append(tb.order, t.Name)
		}
		tb.tools[t.Name] = t
	}
}

// Get returns a tool by name and a boolean indicating whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Tools returns all registered tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		result = append(result, tb.tools[name])
	}
	return result
}

// Call runs the named tool's handler with input. An empty input is treated
// as an empty JSON object.
func (tb *ToolBox) Call(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := tb.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	return t.Handler(ctx, input)
}
