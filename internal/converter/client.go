package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// ErrUnavailable indicates the external tool could not be launched at all,
// as opposed to launching and failing.
var ErrUnavailable = errors.New("converter tool unavailable")

// Result captures one subprocess invocation outcome.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Elapsed  time.Duration
}

// Success reports whether the tool exited cleanly before the deadline.
// Artifact existence is checked by the caller, not here.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Diagnostic returns the most useful human-readable failure text.
func (r Result) Diagnostic() string {
	if r.TimedOut {
		return fmt.Sprintf("conversion timed out after %s", r.Elapsed.Round(time.Second))
	}
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(r.Stdout); msg != "" {
		return msg
	}
	return "unknown conversion error"
}

// Runner defines the behaviour the dispatcher needs from the adapter.
type Runner interface {
	Run(ctx context.Context, inputPath, outputPath string) (Result, error)
}

// Client invokes the external conversion tool.
type Client struct {
	command    string
	scriptArgs []string
	timeout    time.Duration
}

// New constructs a converter client. scriptArgs are inserted between the
// command and the --input/--output pair, typically the interpreter script.
func New(command string, scriptArgs []string, timeoutSeconds int) (*Client, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errors.New("converter command required")
	}
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		command:    command,
		scriptArgs: append([]string(nil), scriptArgs...),
		timeout:    timeout,
	}, nil
}

// Timeout returns the per-invocation wall-clock bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Run executes the tool against inputPath, expecting it to write outputPath.
// A non-zero exit is reported through the Result, never as an error; the only
// error condition is a subprocess that cannot start (ErrUnavailable) or an
// execution fault outside the tool's control.
func (c *Client) Run(ctx context.Context, inputPath, outputPath string) (Result, error) {
	if inputPath == "" {
		return Result{}, errors.New("input path required")
	}
	if outputPath == "" {
		return Result{}, errors.New("output path required")
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string(nil), c.scriptArgs...), "--input", inputPath, "--output", outputPath)
	cmd := exec.CommandContext(runCtx, c.command, args...) //nolint:gosec
	// Ensure Wait returns shortly after the context kills the process even
	// when the tool leaked the pipe to a child.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, c.command, err)
		}
		return Result{}, fmt.Errorf("start converter: %w", err)
	}

	waitErr := cmd.Wait()
	result := Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("wait converter: %w", waitErr)
	}

	result.ExitCode = 0
	return result, nil
}
