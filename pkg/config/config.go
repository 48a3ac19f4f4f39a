// Package config loads script tool definitions from one or more YAML files.
//
// Sources are resolved from the ANY_SCRIPT_MCP_CONFIG path list (or the
// per-user default path), parsed and validated independently, then merged in
// order. The first source to define a tool name wins; a broken source never
// hides tools from a working one. Load returns a Config snapshot that is not
// reloaded afterwards.
package config

import (
	"regexp"
	"strings"
	"time"

	"github.com/germanamz/any-script-mcp/pkg/scalar"
)

const (
	// DefaultShell runs the script with bash, exiting on the first failing
	// command.
	DefaultShell = "bash -e {0}"

	// DefaultTimeout is the wall-clock limit for a tool without a timeout.
	DefaultTimeout = 300_000 * time.Millisecond

	// Placeholder is replaced with the script path in a shell template.
	Placeholder = "{0}"
)

// namePattern constrains tool and input names.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidName reports whether s is usable as a tool or input name.
func ValidName(s string) bool { return namePattern.MatchString(s) }

// EnvKey returns name upper-cased with hyphens turned into underscores. Two
// inputs of one tool may not share a key.
func EnvKey(name string) string {
	return strings.ReplaceAll(strings.ToUpper(name), "-", "_")
}

// InputType is the declared type of a tool input.
type InputType string

const (
	InputString  InputType = "string"
	InputNumber  InputType = "number"
	InputBoolean InputType = "boolean"
)

// Kind returns the scalar kind values of this type must have.
func (t InputType) Kind() scalar.Kind {
	switch t {
	case InputString:
		return scalar.KindString
	case InputNumber:
		return scalar.KindNumber
	case InputBoolean:
		return scalar.KindBool
	default:
		return 0
	}
}

// ToolInput describes one argument of a tool.
type ToolInput struct {
	Type        InputType
	Description string
	// Required defaults to true. An input with a Default is optional to
	// callers regardless of Required.
	Required bool
	// Default is the zero Value when the input has no default.
	Default scalar.Value
}

// HasDefault reports whether the input declares a default value.
func (in ToolInput) HasDefault() bool { return in.Default.IsValid() }

// Optional reports whether callers may omit the input.
func (in ToolInput) Optional() bool { return in.HasDefault() || !in.Required }

// ToolConfig is a single script tool definition.
type ToolConfig struct {
	Name        string
	Description string
	Inputs      map[string]ToolInput
	// InputOrder lists input names in declaration order.
	InputOrder []string
	Run        string
	Shell      string
	Timeout    time.Duration
}

// Config is an ordered set of tools with unique names.
type Config struct {
	Tools []ToolConfig
}

// Tool returns the tool named name.
func (c Config) Tool(name string) (ToolConfig, bool) {
	for _, t := range c.Tools {
		if t.Name == name {
			return t, true
		}
	}

	return ToolConfig{}, false
}

// Names returns tool names in order.
func (c Config) Names() []string {
	names := make([]string, len(c.Tools))
	for i, t := range c.Tools {
		names[i] = t.Name
	}

	return names
}
