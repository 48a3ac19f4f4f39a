// Package toolbox holds the tools a server publishes, in the order they were
// registered. Tools and Call keep that order; the MCP listing does not (see
// mcpserver).
package toolbox

import (
	"context"
	"encoding/json"
)

// emptyObject is the schema of a tool that takes no arguments.
var emptyObject = json.RawMessage(`{"type":"object"}`)

// Handler runs one call. input is a JSON object; the returned text is sent
// back to the caller verbatim.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is one callable unit. Name is the key callers use; Title is a display
// name and may be empty.
type Tool struct {
	Name        string
	Title       string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// Schema returns InputSchema, or an empty object schema when none is set.
func (t Tool) Schema() json.RawMessage {
	if len(t.InputSchema) == 0 {
		return emptyObject
	}

	return t.InputSchema
}
