package executor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/germanamz/any-script-mcp/pkg/config"
	"github.com/germanamz/any-script-mcp/pkg/scalar"
)

const (
	envPrefix   = "INPUTS__"
	envJSONName = "INPUTS_JSON"
)

// EnvName returns the variable an input is exposed as: INPUTS__ followed by
// the upper-cased name with hyphens turned into underscores.
func EnvName(input string) string {
	return envPrefix + config.EnvKey(input)
}

// Environ returns base overlaid with one INPUTS__<NAME> variable per input
// and INPUTS_JSON holding all inputs with their JSON types. base is not
// modified. Overlaid keys replace any base entry with the same key.
func Environ(base []string, inputs map[string]scalar.Value) ([]string, error) {
	payload, err := json.Marshal(jsonInputs(inputs))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", envJSONName, err)
	}

	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	overlay := make(map[string]string, len(inputs)+1)
	keys := make([]string, 0, len(inputs)+1)

	for _, name := range names {
		key := EnvName(name)
		if _, seen := overlay[key]; !seen {
			keys = append(keys, key)
		}
		overlay[key] = inputs[name].String()
	}

	overlay[envJSONName] = string(payload)
	keys = append(keys, envJSONName)

	env := make([]string, 0, len(base)+len(keys))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := overlay[key]; replaced {
			continue
		}
		env = append(env, kv)
	}

	for _, key := range keys {
		env = append(env, key+"="+overlay[key])
	}

	return env, nil
}

// jsonInputs never returns nil so an input-less tool gets "{}".
func jsonInputs(inputs map[string]scalar.Value) map[string]scalar.Value {
	if inputs == nil {
		return map[string]scalar.Value{}
	}

	return inputs
}
