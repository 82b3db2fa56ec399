package debfoundry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureTrimsTrailingNewlines(t *testing.T) {
	e := NewExecutor(context.Background())
	out, err := e.Capture("sh", []string{"-c", `printf 'hello\n\n\n'`}, RunOpts{})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestCaptureRawOutputKeepsStructure(t *testing.T) {
	e := NewExecutor(context.Background())
	out, err := e.Capture("sh", []string{"-c", `printf 'a\n\nb\n'`}, RunOpts{RawOutput: true})
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb\n", out)
}

func TestCaptureDropEmptyLines(t *testing.T) {
	e := NewExecutor(context.Background())
	out, err := e.Capture("sh", []string{"-c", `printf 'a\n   \n\nb\n'`}, RunOpts{DropEmptyLines: true})
	require.NoError(t, err)
	assert.Equal(t, "a\nb", out)
}

func TestCaptureRunsInDir(t *testing.T) {
	dir := t.TempDir()
	e := NewExecutor(context.Background())
	out, err := e.Capture("pwd", nil, RunOpts{Dir: dir})
	require.NoError(t, err)
	assert.Contains(t, out, dir)
}

func TestCaptureFailureIncludesStderr(t *testing.T) {
	e := NewExecutor(context.Background())
	_, err := e.Capture("sh", []string{"-c", `echo "disk on fire" >&2; exit 3`}, RunOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestCaptureDiscardStderr(t *testing.T) {
	e := NewExecutor(context.Background())
	_, err := e.Capture("sh", []string{"-c", `echo "noise" >&2; exit 3`}, RunOpts{DiscardStderr: true})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "noise")
}

func TestCaptureMissingToolFailsToStart(t *testing.T) {
	e := NewExecutor(context.Background())
	_, err := e.Capture("debfoundry-no-such-tool", nil, RunOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start")
}

func TestCaptureContextCancellationKillsChild(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	e := NewExecutor(ctx)

	start := time.Now()
	_, err := e.Capture("sleep", []string{"30"}, RunOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDropEmptyLines(t *testing.T) {
	assert.Equal(t, "", dropEmptyLines("\n  \n\t\n"))
	assert.Equal(t, "a\nb\n", dropEmptyLines("a\n\nb\n"))
}
