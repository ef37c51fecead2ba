package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fragmill/internal/api"
)

func runCommand(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	full := append([]string{"--bind", strings.TrimPrefix(server.URL, "http://")}, args...)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatusCommandRendersTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.StatusSummaryResponse{
			Running:     true,
			PID:         42,
			SourceFiles: 1,
			Fragments:   1,
			Jobs: []api.JobPayload{
				{Filename: "tower.ifc", Status: "completed", Progress: 100, OutputFile: "tower.frag"},
			},
		})
	}))
	defer server.Close()

	out, err := runCommand(t, server, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "pid 42") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "tower.ifc") || !strings.Contains(out, "completed") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusCommandJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.JobPayload{Filename: "tower.ifc", Status: "ready"})
	}))
	defer server.Close()

	out, err := runCommand(t, server, "status", "tower.ifc", "--json")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var payload api.JobPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if payload.Filename != "tower.ifc" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestConvertCommandWaitsForCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(api.JobPayload{Filename: "tower.ifc", Status: "pending"})
			return
		}
		json.NewEncoder(w).Encode(api.JobPayload{
			Filename: "tower.ifc", Status: "completed", Progress: 100, OutputFile: "tower.frag",
		})
	}))
	defer server.Close()

	out, err := runCommand(t, server, "convert", "tower.ifc")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out, "completed") || !strings.Contains(out, "tower.frag") {
		t.Errorf("output = %q", out)
	}
}

func TestConvertCommandFailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.JobPayload{Filename: "tower.ifc", Status: "failed", Message: "bad model"})
	}))
	defer server.Close()

	_, err := runCommand(t, server, "convert", "tower.ifc")
	if err == nil || !strings.Contains(err.Error(), "bad model") {
		t.Fatalf("err = %v, want failure with tool message", err)
	}
}

func TestFilesCommandEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.FileListResponse{})
	}))
	defer server.Close()

	out, err := runCommand(t, server, "files")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if !strings.Contains(out, "No source files found") {
		t.Errorf("output = %q", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only-a"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "only-a") {
		t.Errorf("table = %q", out)
	}
}
