package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/germanamz/any-script-mcp/pkg/scalar"
)

// ErrMultipleDocuments reports a source holding more than one YAML document.
var ErrMultipleDocuments = errors.New("source contains multiple YAML documents")

// LoadSource reads, parses, and validates the single file at path. Tools are
// returned as declared, duplicates included. Failures are *LoadError or
// *ValidationError.
func LoadSource(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		msg := err.Error()
		if errors.Is(err, fs.ErrNotExist) {
			msg = msgNotFound
		}

		return Config{}, &LoadError{Path: path, Message: msg, Err: err}
	}

	return Parse(path, data)
}

// Parse parses and validates a YAML document. path is only used to label
// errors.
func Parse(path string, data []byte) (Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	err := dec.Decode(&doc)
	if err == nil {
		var extra yaml.Node
		if err = dec.Decode(&extra); err == nil {
			err = ErrMultipleDocuments
		}
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &LoadError{Path: path, Message: err.Error(), Err: err}
	}

	v := &validator{}
	cfg := v.document(&doc)

	if len(v.issues) > 0 {
		return Config{}, &ValidationError{Path: path, Issues: v.issues}
	}

	return cfg, nil
}

// validator walks a yaml.Node tree and collects every schema issue instead of
// stopping at the first one.
type validator struct {
	issues []Issue
}

func (v *validator) fail(path []string, n *yaml.Node, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if n != nil && n.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, n.Line)
	}

	v.issues = append(v.issues, Issue{Path: strings.Join(path, "."), Message: msg})
}

func (v *validator) document(doc *yaml.Node) Config {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	root = deref(root)
	if root.Kind != yaml.MappingNode {
		v.fail(nil, root, "expected object, received %s", typeOf(root))
		return Config{}
	}

	toolsNode := lookup(root, "tools")
	if toolsNode == nil {
		v.fail([]string{"tools"}, root, "required")
		return Config{}
	}

	if toolsNode.Kind != yaml.SequenceNode {
		v.fail([]string{"tools"}, toolsNode, "expected array, received %s", typeOf(toolsNode))
		return Config{}
	}

	cfg := Config{Tools: make([]ToolConfig, 0, len(toolsNode.Content))}
	for i, item := range toolsNode.Content {
		if tool, ok := v.tool([]string{"tools", strconv.Itoa(i)}, deref(item)); ok {
			cfg.Tools = append(cfg.Tools, tool)
		}
	}

	return cfg
}

func (v *validator) tool(path []string, n *yaml.Node) (ToolConfig, bool) {
	if n.Kind != yaml.MappingNode {
		v.fail(path, n, "expected object, received %s", typeOf(n))
		return ToolConfig{}, false
	}

	before := len(v.issues)
	tool := ToolConfig{
		Shell:   DefaultShell,
		Timeout: DefaultTimeout,
		Inputs:  map[string]ToolInput{},
	}

	var nameOK bool
	tool.Name, nameOK = v.requiredString(path, n, "name")
	if nameOK && !ValidName(tool.Name) {
		v.fail(at(path, "name"), lookup(n, "name"), "must match %s", namePattern)
	}

	tool.Description, _ = v.requiredString(path, n, "description")
	tool.Run, _ = v.requiredString(path, n, "run")

	if s := present(n, "shell"); s != nil {
		if shell, ok := v.stringValue(at(path, "shell"), s); ok {
			if !strings.Contains(shell, Placeholder) {
				v.fail(at(path, "shell"), s, "must contain the %s placeholder", Placeholder)
			}
			tool.Shell = shell
		}
	}

	if t := present(n, "timeout"); t != nil {
		if d, ok := v.timeout(at(path, "timeout"), t); ok {
			tool.Timeout = d
		}
	}

	if in := present(n, "inputs"); in != nil {
		tool.Inputs, tool.InputOrder = v.inputs(at(path, "inputs"), in)
	}

	return tool, len(v.issues) == before
}

func (v *validator) inputs(path []string, n *yaml.Node) (map[string]ToolInput, []string) {
	inputs := map[string]ToolInput{}

	if n.Kind != yaml.MappingNode {
		v.fail(path, n, "expected object, received %s", typeOf(n))
		return inputs, nil
	}

	var order []string
	keys := map[string]string{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], deref(n.Content[i+1])
		name := keyNode.Value
		p := at(path, name)

		if !ValidName(name) {
			v.fail(p, keyNode, "input name must match %s", namePattern)
			continue
		}

		if _, dup := inputs[name]; dup {
			v.fail(p, keyNode, "duplicate input name")
			continue
		}

		if other, clash := keys[EnvKey(name)]; clash {
			v.fail(p, keyNode, "input name collides with %q as %s", other, EnvKey(name))
			continue
		}
		keys[EnvKey(name)] = name

		if in, ok := v.input(p, valNode); ok {
			inputs[name] = in
			order = append(order, name)
		}
	}

	return inputs, order
}

func (v *validator) input(path []string, n *yaml.Node) (ToolInput, bool) {
	if n.Kind != yaml.MappingNode {
		v.fail(path, n, "expected object, received %s", typeOf(n))
		return ToolInput{}, false
	}

	before := len(v.issues)
	in := ToolInput{Required: true}

	if typ, ok := v.requiredString(path, n, "type"); ok {
		in.Type = InputType(typ)
		if in.Type.Kind() == 0 {
			v.fail(at(path, "type"), lookup(n, "type"),
				"expected %q, %q or %q, received %q", InputString, InputNumber, InputBoolean, typ)
		}
	}

	in.Description, _ = v.requiredString(path, n, "description")

	if r := present(n, "required"); r != nil {
		if r.ShortTag() != "!!bool" {
			v.fail(at(path, "required"), r, "expected boolean, received %s", typeOf(r))
		} else if err := r.Decode(&in.Required); err != nil {
			v.fail(at(path, "required"), r, "%v", err)
		}
	}

	if d := present(n, "default"); d != nil {
		in.Default = v.defaultValue(at(path, "default"), d, in.Type)
	}

	return in, len(v.issues) == before
}

func (v *validator) defaultValue(path []string, n *yaml.Node, typ InputType) scalar.Value {
	if n.Kind != yaml.ScalarNode {
		v.fail(path, n, "expected string, number or boolean, received %s", typeOf(n))
		return scalar.Value{}
	}

	var raw any
	if err := n.Decode(&raw); err != nil {
		v.fail(path, n, "%v", err)
		return scalar.Value{}
	}

	val, err := scalar.FromAny(raw)
	if err != nil {
		v.fail(path, n, "expected string, number or boolean, received %s", typeOf(n))
		return scalar.Value{}
	}

	if want := typ.Kind(); want != 0 && val.Kind() != want {
		v.fail(path, n, "expected %s, received %s", want, val.Kind())
		return scalar.Value{}
	}

	return val
}

func (v *validator) timeout(path []string, n *yaml.Node) (time.Duration, bool) {
	tag := n.ShortTag()
	if n.Kind != yaml.ScalarNode || (tag != "!!int" && tag != "!!float") {
		v.fail(path, n, "expected number, received %s", typeOf(n))
		return 0, false
	}

	var ms float64
	if err := n.Decode(&ms); err != nil {
		v.fail(path, n, "%v", err)
		return 0, false
	}

	switch {
	case ms != math.Trunc(ms):
		v.fail(path, n, "expected integer, received float")
	case ms <= 0:
		v.fail(path, n, "must be greater than 0")
	case ms > float64(math.MaxInt64/int64(time.Millisecond)):
		v.fail(path, n, "too large")
	default:
		return time.Duration(ms) * time.Millisecond, true
	}

	return 0, false
}

func (v *validator) requiredString(path []string, n *yaml.Node, key string) (string, bool) {
	val := lookup(n, key)
	if val == nil {
		v.fail(at(path, key), n, "required")
		return "", false
	}

	return v.stringValue(at(path, key), val)
}

func (v *validator) stringValue(path []string, n *yaml.Node) (string, bool) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		v.fail(path, n, "expected string, received %s", typeOf(n))
		return "", false
	}

	return n.Value, true
}

// lookup returns the value for key in mapping n, or nil.
func lookup(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return deref(n.Content[i+1])
		}
	}

	return nil
}

// present is lookup for optional keys: an explicit null counts as absent.
func present(n *yaml.Node, key string) *yaml.Node {
	val := lookup(n, key)
	if val == nil || (val.Kind == yaml.ScalarNode && val.ShortTag() == "!!null") {
		return nil
	}

	return val
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	return n
}

func typeOf(n *yaml.Node) string {
	if n == nil {
		return "null"
	}

	switch n.Kind {
	case yaml.MappingNode:
		return "object"
	case yaml.SequenceNode:
		return "array"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int", "!!float":
			return "number"
		case "!!bool":
			return "boolean"
		case "!!null":
			return "null"
		default:
			return "string"
		}
	default:
		return "null"
	}
}

func at(path []string, segment string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)

	return append(out, segment)
}
