package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/any-script-mcp/pkg/config"
)

const sampleConfig = `tools:
  - name: greet
    description: Greets someone
    inputs:
      name:
        type: string
        description: Who to greet
      greeting:
        type: string
        description: Greeting word
        default: Hello
    shell: sh {0}
    run: |
      printf '%s, %s!' "$INPUTS__GREETING" "$INPUTS__NAME"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--env", ""))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := execute(t, "schema")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Any Script MCP Configuration", doc["title"])
}

func TestCheckCommand(t *testing.T) {
	good := writeConfig(t, sampleConfig)
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	out, _, err := execute(t, "check", "--config", good+string(os.PathListSeparator)+missing)
	require.NoError(t, err)

	assert.Contains(t, out, "greet")
	assert.Contains(t, out, "Greets someone")
	assert.Contains(t, out, "name,greeting")
	assert.Contains(t, out, "skipped "+missing+": ")
	assert.Contains(t, out, "Configuration file not found")
}

func TestCheckCommand_NothingLoads(t *testing.T) {
	bad := writeConfig(t, "tools: [")

	_, _, err := execute(t, "check", "--config", bad)
	require.Error(t, err)

	var loadErr *config.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, bad, loadErr.Path)
}

func TestCheckCommand_UsesEnvVar(t *testing.T) {
	t.Setenv(config.EnvVar, writeConfig(t, sampleConfig))

	out, _, err := execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "greet")
}

func TestCallCommand(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	out, _, err := execute(t, "call", "greet", `{"name":"Ann"}`, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ann!", out)
}

func TestCallCommand_InvalidArguments(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	_, _, err := execute(t, "call", "greet", "--config", path)
	require.ErrorContains(t, err, "invalid arguments")
}

func TestCallCommand_UnknownTool(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	_, _, err := execute(t, "call", "nope", "--config", path)
	require.EqualError(t, err, "tool not found: nope")
}

func TestLogLevel(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	_, stderr, err := execute(t, "call", "greet", `{"name":"x"}`, "--config", path, "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, stderr, "tool started")
	assert.Contains(t, stderr, "tool finished")

	_, _, err = execute(t, "schema", "--log-level", "loud")
	require.EqualError(t, err, `invalid --log-level "loud"`)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "absent.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANY_SCRIPT_MCP_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Setenv("ANY_SCRIPT_MCP_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("ANY_SCRIPT_MCP_TEST_VALUE"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("ANY_SCRIPT_MCP_TEST_VALUE"))
}
