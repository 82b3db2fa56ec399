package debfoundry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Executor provides a consistent interface for executing external tools,
// isolating each child in its own process group so cancellation can kill
// the whole tree. There is no timeout: a hanging tool hangs the run.
type Executor struct {
	Context context.Context // The context to use for cancellation
}

func NewExecutor(ctx context.Context) *Executor {
	return &Executor{Context: ctx}
}

// RunOpts adjusts how a single command invocation is captured.
type RunOpts struct {
	Dir            string // working directory for the child, if set
	DropEmptyLines bool   // remove whitespace-only lines from the capture
	DiscardStderr  bool   // throw the error stream away instead of buffering it
	RawOutput      bool   // keep stdout byte-exact; skip newline normalization
}

// Capture runs name with args and returns its standard output as text.
// By default trailing newlines are trimmed; RawOutput disables that for
// callers that must preserve blank-line structure verbatim.
func (e *Executor) Capture(name string, args []string, opts RunOpts) (string, error) {
	cmd := exec.CommandContext(e.Context, name, args...)
	cmd.Dir = opts.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if opts.DiscardStderr {
		cmd.Stderr = io.Discard
	} else {
		cmd.Stderr = &stderr
	}

	// Isolate the process group for context-based cleanup.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", name, err)
	}
	pgid := cmd.Process.Pid

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-e.Context.Done():
			syscall.Kill(-pgid, syscall.SIGKILL)
		case <-done:
		}
	}()

	if waitErr := cmd.Wait(); waitErr != nil {
		if e.Context.Err() != nil {
			time.Sleep(100 * time.Millisecond)
			return "", fmt.Errorf("command aborted: %v", e.Context.Err())
		}
		diag := strings.TrimSpace(stderr.String())
		if diag != "" {
			return "", fmt.Errorf("%s failed: %w: %s", name, waitErr, diag)
		}
		return "", fmt.Errorf("%s failed: %w", name, waitErr)
	}

	out := stdout.String()
	if opts.DropEmptyLines {
		out = dropEmptyLines(out)
	}
	if !opts.RawOutput {
		out = strings.TrimRight(out, "\n")
	}
	return out, nil
}

// dropEmptyLines removes lines containing nothing but whitespace.
func dropEmptyLines(s string) string {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n") + "\n"
}
