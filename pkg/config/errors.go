package config

import (
	"fmt"
	"strings"
)

// Error is implemented by the three config failure shapes: *LoadError,
// *ValidationError, and *MultipleErrors.
type Error interface {
	error
	configError()
}

const (
	msgNotFound  = "Configuration file not found"
	msgNoSources = "No configuration files found"
	unknownPath  = "unknown"
)

// LoadError reports a source that could not be read or parsed.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("config: load %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (*LoadError) configError() {}

// Issue is one schema violation inside a source.
type Issue struct {
	// Path is the dot-joined location of the offending field, e.g.
	// "tools.0.inputs.name". Empty for the document root.
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}

	return i.Path + ": " + i.Message
}

// ValidationError reports a well-formed document that breaks the tool
// schema.
type ValidationError struct {
	Path   string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}

	return fmt.Sprintf("config: invalid %s: %s", e.Path, strings.Join(parts, "; "))
}

func (*ValidationError) configError() {}

// SourceError pairs a failed source with its error.
type SourceError struct {
	Path string
	Err  Error
}

// MultipleErrors reports that every attempted source failed. Errors keep the
// order in which sources were attempted.
type MultipleErrors struct {
	Errors []SourceError
}

func (e *MultipleErrors) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config: %d sources failed", len(e.Errors))

	for _, se := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(se.Err.Error())
	}

	return b.String()
}

func (e *MultipleErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, se := range e.Errors {
		errs[i] = se.Err
	}

	return errs
}

func (*MultipleErrors) configError() {}
