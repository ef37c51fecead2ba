package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTool writes an executable shell script and returns its path.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write tool: %v", err)
	}
	return path
}

func TestRunSuccessCapturesOutput(t *testing.T) {
	tool := writeTool(t, `echo "converted $2 -> $4"`)
	client, err := New(tool, nil, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := client.Run(context.Background(), "in.ifc", "out.frag")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success() {
		t.Fatalf("expected success, got %+v", result)
	}
	if !strings.Contains(result.Stdout, "converted in.ifc -> out.frag") {
		t.Fatalf("unexpected stdout: %q", result.Stdout)
	}
}

func TestRunNonZeroExitIsResultNotError(t *testing.T) {
	tool := writeTool(t, `echo "bad model" >&2; exit 3`)
	client, err := New(tool, nil, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := client.Run(context.Background(), "in.ifc", "out.frag")
	if err != nil {
		t.Fatalf("non-zero exit must not be an error: %v", err)
	}
	if result.Success() {
		t.Fatal("expected failure result")
	}
	if result.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", result.ExitCode)
	}
	if result.Diagnostic() != "bad model" {
		t.Fatalf("diagnostic = %q", result.Diagnostic())
	}
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	tool := writeTool(t, `sleep 30`)
	client, err := New(tool, nil, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := client.Run(context.Background(), "in.ifc", "out.frag")
	if err != nil {
		t.Fatalf("timeout must be reported in the result: %v", err)
	}
	if !result.TimedOut {
		t.Fatalf("expected timeout, got %+v", result)
	}
	if result.Success() {
		t.Fatal("timed-out run must not be a success")
	}
	if !strings.Contains(result.Diagnostic(), "timed out") {
		t.Fatalf("diagnostic = %q", result.Diagnostic())
	}
}

func TestRunMissingToolIsUnavailable(t *testing.T) {
	client, err := New("fragmill-no-such-tool", nil, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Run(context.Background(), "in.ifc", "out.frag")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRunScriptArgsPrecedeFlags(t *testing.T) {
	// Interpreter-style invocation: sh <script> --input ... --output ...
	script := filepath.Join(t.TempDir(), "convert.sh")
	body := "#!/bin/sh\necho \"args: $*\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	client, err := New("sh", []string{script}, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := client.Run(context.Background(), "a.ifc", "a.frag")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(result.Stdout, "--input a.ifc --output a.frag") {
		t.Fatalf("unexpected argv forwarding: %q", result.Stdout)
	}
}

func TestNewRequiresCommand(t *testing.T) {
	if _, err := New("  ", nil, 10); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestDiagnosticFallsBackToStdoutThenGeneric(t *testing.T) {
	r := Result{ExitCode: 1, Stdout: "only stdout"}
	if r.Diagnostic() != "only stdout" {
		t.Fatalf("diagnostic = %q", r.Diagnostic())
	}
	r = Result{ExitCode: 1}
	if r.Diagnostic() != "unknown conversion error" {
		t.Fatalf("diagnostic = %q", r.Diagnostic())
	}
}
