package config

import (
	"io"
	"log/slog"
)

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	log     *slog.Logger
	skipped *[]SourceError
}

// WithLogger logs failed sources at WARN and dropped duplicate tools at DEBUG.
func WithLogger(log *slog.Logger) LoadOption {
	return func(o *loadOptions) { o.log = log }
}

// WithSkipped stores the sources that failed during a successful Load, in
// attempt order. On failure the same information is in the returned error.
func WithSkipped(dst *[]SourceError) LoadOption {
	return func(o *loadOptions) { o.skipped = dst }
}

// Load parses every path in order and merges the results. A tool name
// already defined by an earlier source is ignored in later ones.
//
// Load succeeds when at least one tool was loaded. Otherwise it returns the
// single source's error unchanged when exactly one source failed, a
// *MultipleErrors when several failed, or a *LoadError ("No configuration
// files found") when nothing failed.
func Load(paths []string, opts ...LoadOption) (Config, error) {
	o := loadOptions{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	tools := newOrderedMap[string, ToolConfig]()
	var failed []SourceError

	for _, path := range paths {
		cfg, err := LoadSource(path)
		if err != nil {
			o.log.Warn("config source skipped", "path", path, "error", err)
			failed = append(failed, SourceError{Path: path, Err: err.(Error)}) //nolint:errorlint // LoadSource only returns Error values

			continue
		}

		for _, tool := range cfg.Tools {
			if !tools.SetIfAbsent(tool.Name, tool) {
				o.log.Debug("duplicate tool ignored", "tool", tool.Name, "path", path)
			}
		}
	}

	if o.skipped != nil {
		*o.skipped = failed
	}

	switch {
	case tools.Len() > 0:
		return Config{Tools: tools.Values()}, nil
	case len(failed) == 1:
		return Config{}, failed[0].Err
	case len(failed) > 1:
		return Config{}, &MultipleErrors{Errors: failed}
	}

	first := unknownPath
	if len(paths) > 0 {
		first = paths[0]
	}

	return Config{}, &LoadError{Path: first, Message: msgNoSources}
}

// LoadFromEnv is Load over Paths(lookup).
func LoadFromEnv(lookup LookupEnv, opts ...LoadOption) (Config, error) {
	return Load(Paths(lookup), opts...)
}
