package config

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

const schemaID = "https://raw.githubusercontent.com/germanamz/any-script-mcp/main/config.schema.json"

// JSONSchema describes the config file format for editors and linters.
func JSONSchema() *jsonschema.Schema {
	input := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"type": {
				Enum:        []any{string(InputString), string(InputNumber), string(InputBoolean)},
				Description: "Input value type",
			},
			"description": {Type: "string"},
			"required": {
				Type:    "boolean",
				Default: json.RawMessage("true"),
			},
			"default": {
				Types:       []string{"string", "number", "boolean"},
				Description: "Value used when the caller omits the input; makes the input optional",
			},
		},
		Required: []string{"type", "description"},
	}

	minTimeout := 0.0
	tool := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name": {
				Type:    "string",
				Pattern: namePattern.String(),
			},
			"description": {Type: "string"},
			"inputs": {
				Type:                 "object",
				PropertyNames:        &jsonschema.Schema{Pattern: namePattern.String()},
				AdditionalProperties: input,
				Default:              json.RawMessage("{}"),
			},
			"run": {
				Type:        "string",
				Description: "Script body written to a temporary file",
			},
			"shell": {
				Type:        "string",
				Description: fmt.Sprintf("Command template; %s is replaced with the script path", Placeholder),
				Default:     mustJSON(DefaultShell),
			},
			"timeout": {
				Type:             "integer",
				ExclusiveMinimum: &minTimeout,
				Description:      "Timeout in milliseconds",
				Default:          mustJSON(DefaultTimeout.Milliseconds()),
			},
		},
		Required: []string{"name", "description", "run"},
	}

	return &jsonschema.Schema{
		Schema:      "http://json-schema.org/draft-07/schema#",
		ID:          schemaID,
		Title:       "Any Script MCP Configuration",
		Description: "Configuration schema for any-script-mcp, an MCP server that exposes shell scripts as MCP tools",
		Type:        "object",
		Properties: map[string]*jsonschema.Schema{
			"tools": {
				Type:  "array",
				Items: tool,
			},
		},
		Required: []string{"tools"},
	}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return data
}
