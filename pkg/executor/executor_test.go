//go:build unix

package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/any-script-mcp/pkg/config"
	"github.com/germanamz/any-script-mcp/pkg/scalar"
)

func newTestRunner(t *testing.T, opts ...Option) (*Runner, string) {
	t.Helper()

	dir := t.TempDir()

	return New(append([]Option{WithTempDir(dir)}, opts...)...), dir
}

func tool(run string) config.ToolConfig {
	return config.ToolConfig{
		Name:    "test_tool",
		Run:     run,
		Shell:   config.DefaultShell,
		Timeout: 10 * time.Second,
	}
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()

	var execErr *Error
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, kind, execErr.Kind, execErr.Error())

	return execErr
}

func assertNoScripts(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "script files must be removed")
}

func TestRun_Echo(t *testing.T) {
	r, dir := newTestRunner(t)

	out, err := r.Run(context.Background(), tool(`echo "$INPUTS__MESSAGE"`),
		map[string]scalar.Value{"message": scalar.String("Hello World")})
	require.NoError(t, err)
	assert.Equal(t, "Hello World\n", out, "output is returned untrimmed")
	assertNoScripts(t, dir)
}

func TestRun_HyphenatedInput(t *testing.T) {
	r, _ := newTestRunner(t)

	out, err := r.Run(context.Background(), tool(`echo "$INPUTS__USER_NAME"`),
		map[string]scalar.Value{"user-name": scalar.String("Alice")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", strings.TrimSpace(out))
}

func TestRun_MultipleInputs(t *testing.T) {
	r, _ := newTestRunner(t)

	out, err := r.Run(context.Background(), tool(`echo "$INPUTS__FIRST $INPUTS__SECOND"`),
		map[string]scalar.Value{"first": scalar.String("Value"), "second": scalar.Number(42)})
	require.NoError(t, err)
	assert.Equal(t, "Value 42", strings.TrimSpace(out))
}

func TestRun_BooleanInput(t *testing.T) {
	r, _ := newTestRunner(t)
	script := tool(`
if [ "$INPUTS__ENABLED" = "true" ]; then
  echo "enabled"
else
  echo "disabled"
fi`)

	out, err := r.Run(context.Background(), script, map[string]scalar.Value{"enabled": scalar.Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, "enabled", strings.TrimSpace(out))

	out, err = r.Run(context.Background(), script, map[string]scalar.Value{"enabled": scalar.Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, "disabled", strings.TrimSpace(out))
}

func TestRun_Multiline(t *testing.T) {
	r, _ := newTestRunner(t)

	out, err := r.Run(context.Background(), tool(`
echo "Hello, $INPUTS__NAME!"
echo "Welcome to the test"
echo "Line 3"`), map[string]scalar.Value{"name": scalar.String("Bob")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello, Bob!", "Welcome to the test", "Line 3"},
		strings.Split(strings.TrimSpace(out), "\n"))
}

func TestRun_InputsJSONPreservesTypes(t *testing.T) {
	r, _ := newTestRunner(t)

	out, err := r.Run(context.Background(), tool(`echo "$INPUTS_JSON"`), map[string]scalar.Value{
		"count":  scalar.Number(42),
		"active": scalar.Bool(true),
		"name":   scalar.String("x"),
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &decoded))
	assert.Equal(t, float64(42), decoded["count"])
	assert.Equal(t, true, decoded["active"])
	assert.Equal(t, "x", decoded["name"])
}

func TestRun_CustomShell(t *testing.T) {
	r, _ := newTestRunner(t)
	tc := tool(`echo "Custom shell: $INPUTS__TEXT"`)
	tc.Shell = "sh {0}"

	out, err := r.Run(context.Background(), tc, map[string]scalar.Value{"text": scalar.String("test message")})
	require.NoError(t, err)
	assert.Equal(t, "Custom shell: test message", strings.TrimSpace(out))
}

func TestRun_EmptyShellUsesDefault(t *testing.T) {
	r, dir := newTestRunner(t)
	tc := tool(`echo "ran: $INPUTS__TEXT"`)
	tc.Shell = ""

	out, err := r.Run(context.Background(), tc, map[string]scalar.Value{"text": scalar.String("yes")})
	require.NoError(t, err)
	assert.Equal(t, "ran: yes\n", out)
	assertNoScripts(t, dir)
}

func TestRun_PlaceholderReplacedEverywhere(t *testing.T) {
	r, dir := newTestRunner(t)
	tc := tool(`echo "$INPUTS__MESSAGE"`)
	tc.Shell = "echo 'Script path: {0}' && sh {0}"

	out, err := r.Run(context.Background(), tc, map[string]scalar.Value{"message": scalar.String("Hello")})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^Script path: `+regexp.QuoteMeta(dir)+`/script-\d+-[0-9a-f-]+$`, lines[0])
	assert.Equal(t, "Hello", lines[1])
}

func TestRun_NoShebangInjected(t *testing.T) {
	r, _ := newTestRunner(t)
	tc := tool("ignored")
	tc.Shell = "cat {0}"

	out, err := r.Run(context.Background(), tc, nil)
	require.NoError(t, err)
	assert.Equal(t, "ignored", out)
}

func TestRun_BaseEnvironment(t *testing.T) {
	r, _ := newTestRunner(t, WithBaseEnv([]string{"PATH=" + os.Getenv("PATH"), "GREETING=hi"}))

	out, err := r.Run(context.Background(), tool(`echo "$GREETING"`), nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", strings.TrimSpace(out))
}

func TestRun_NonZeroExit(t *testing.T) {
	r, dir := newTestRunner(t)

	_, err := r.Run(context.Background(), tool("echo oops >&2\nexit 3"), nil)

	execErr := requireKind(t, err, KindNonZeroExit)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Equal(t, "oops\n", execErr.Stderr)
	assert.Equal(t, `tool "test_tool": exited with code 3: oops`, execErr.Error())
	assertNoScripts(t, dir)
}

func TestRun_BashErrexitStopsScript(t *testing.T) {
	r, _ := newTestRunner(t)

	_, err := r.Run(context.Background(), tool("false\necho unreachable"), nil)
	requireKind(t, err, KindNonZeroExit)
}

func TestRun_Timeout(t *testing.T) {
	r, dir := newTestRunner(t)
	marker := filepath.Join(t.TempDir(), "leaked")

	tc := tool(`(sleep 1; touch "` + marker + `") &
sleep 2
echo "Should timeout"`)
	tc.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := r.Run(context.Background(), tc, nil)
	elapsed := time.Since(start)

	execErr := requireKind(t, err, KindTimeout)
	assert.Equal(t, 100*time.Millisecond, execErr.Timeout)
	assert.Contains(t, execErr.Error(), "timed out after 100ms")
	assert.Less(t, elapsed, 1500*time.Millisecond)
	assertNoScripts(t, dir)

	// The background subshell belongs to the killed process group.
	time.Sleep(1500 * time.Millisecond)
	assert.NoFileExists(t, marker)
}

func TestRun_LongerTimeoutSucceeds(t *testing.T) {
	r, _ := newTestRunner(t)
	tc := tool(`echo "Quick execution"`)
	tc.Timeout = time.Minute

	out, err := r.Run(context.Background(), tc, nil)
	require.NoError(t, err)
	assert.Equal(t, "Quick execution", strings.TrimSpace(out))
}

func TestRun_ZeroTimeoutUsesDefault(t *testing.T) {
	r, _ := newTestRunner(t)
	tc := tool(`echo "Default timeout"`)
	tc.Timeout = 0

	out, err := r.Run(context.Background(), tc, nil)
	require.NoError(t, err)
	assert.Equal(t, "Default timeout", strings.TrimSpace(out))
}

func TestRun_Canceled(t *testing.T) {
	r, dir := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := r.Run(ctx, tool("sleep 5"), nil)

	requireKind(t, err, KindCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assertNoScripts(t, dir)
}

func TestRun_OutputTooLarge(t *testing.T) {
	r, dir := newTestRunner(t, WithMaxOutput(16))

	_, err := r.Run(context.Background(), tool("yes"), nil)

	execErr := requireKind(t, err, KindOutputTooLarge)
	assert.Equal(t, int64(16), execErr.Limit)
	assert.Contains(t, execErr.Error(), "output exceeded 16 B")
	assertNoScripts(t, dir)
}

func TestRun_OutputAtLimit(t *testing.T) {
	r, _ := newTestRunner(t, WithMaxOutput(6))

	out, err := r.Run(context.Background(), tool("echo hello"), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestRun_SpawnFailure(t *testing.T) {
	r, dir := newTestRunner(t, WithShell(filepath.Join(t.TempDir(), "no-such-shell"), "-c"))

	_, err := r.Run(context.Background(), tool("echo hi"), nil)

	requireKind(t, err, KindIO)
	assertNoScripts(t, dir)
}

func TestRun_WriteFailure(t *testing.T) {
	r := New(WithTempDir(filepath.Join(t.TempDir(), "missing-dir")))

	_, err := r.Run(context.Background(), tool("echo hi"), nil)

	execErr := requireKind(t, err, KindIO)
	assert.Contains(t, execErr.Error(), "create script")
}

func TestRun_Concurrent(t *testing.T) {
	r, dir := newTestRunner(t)

	const n = 8
	var wg sync.WaitGroup
	outs := make([]string, n)
	errs := make([]error, n)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outs[i], errs[i] = r.Run(context.Background(), tool(`echo "$INPUTS__N"`),
				map[string]scalar.Value{"n": scalar.Number(float64(i))})
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, scalar.Number(float64(i)).String(), strings.TrimSpace(outs[i]))
	}
	assertNoScripts(t, dir)
}

func TestRun_Logs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r, _ := newTestRunner(t, WithLogger(log))

	_, err := r.Run(context.Background(), tool("echo hi"), nil)
	require.NoError(t, err)
	_, err = r.Run(context.Background(), tool("exit 1"), nil)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "tool started")
	assert.Contains(t, out, "tool finished")
	assert.Contains(t, out, "tool failed")
	assert.Contains(t, out, "tool=test_tool")
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "bash -e /tmp/s", Command("bash -e {0}", "/tmp/s"))
	assert.Equal(t, "cat /x && sh /x", Command("cat {0} && sh {0}", "/x"))
	assert.Equal(t, "true", Command("true", "/x"))
}
