package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fragmill/internal/jobs"
)

func writeFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestListFilesMergesRegistryState(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeFile(t, inputDir, "tower.ifc", 2048)
	writeFile(t, inputDir, "site plan.ifc", 1024)
	writeFile(t, inputDir, "notes.txt", 10)
	writeFile(t, outputDir, "tower.frag", 512)

	registry := jobs.NewRegistry()
	job := registry.Get("tower.ifc")
	end := time.Now()
	job.MarkProcessing("attempt", end.Add(-time.Second))
	job.MarkCompleted("tower.frag", "conversion completed", end)
	registry.Upsert(job)

	files, err := ListFiles(inputDir, outputDir, registry)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2 (txt excluded): %+v", len(files), files)
	}
	// Sorted by filename: "site plan.ifc" before "tower.ifc".
	if files[0].Filename != "site plan.ifc" || files[0].Status != "ready" {
		t.Errorf("unexpected first entry: %+v", files[0])
	}
	tower := files[1]
	if tower.Status != "completed" {
		t.Errorf("tower status = %s, want completed", tower.Status)
	}
	if !tower.HasOutput || tower.OutputFile != "tower.frag" {
		t.Errorf("tower output = %+v", tower)
	}
	if tower.OutputSizeMB == nil {
		t.Error("expected output size for tower")
	}
}

func TestListFilesMissingDir(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "absent"), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("got %d files, want 0", len(files))
	}
}

func TestListFragments(t *testing.T) {
	outputDir := t.TempDir()
	writeFile(t, outputDir, "b.frag", 100)
	writeFile(t, outputDir, "a.frag", 100)
	writeFile(t, outputDir, "stray.log", 100)

	fragments, err := ListFragments(outputDir)
	if err != nil {
		t.Fatalf("ListFragments: %v", err)
	}
	if len(fragments) != 2 || fragments[0].Filename != "a.frag" || fragments[1].Filename != "b.frag" {
		t.Fatalf("fragments = %+v", fragments)
	}
}

func TestFindFragmentAcceptsSourceName(t *testing.T) {
	outputDir := t.TempDir()
	writeFile(t, outputDir, "Office_Tower.frag", 100)

	if _, ok := FindFragment(outputDir, "Office Tower.ifc"); !ok {
		t.Error("expected lookup by source name to resolve")
	}
	if _, ok := FindFragment(outputDir, "Office_Tower.frag"); !ok {
		t.Error("expected lookup by artifact name to resolve")
	}
	if _, ok := FindFragment(outputDir, "missing.ifc"); ok {
		t.Error("expected miss for unknown file")
	}
}

func TestFromJobTruncatesProgress(t *testing.T) {
	job := jobs.NewJob("tower.ifc")
	job.MarkProcessing("attempt-1", time.Now().Add(-time.Second))
	ratio := 80.0
	job.CompressionRatio = &ratio
	job.MarkCompleted("tower.frag", "conversion completed", time.Now())

	payload := FromJob(job)
	if payload.Progress != 100 {
		t.Errorf("progress = %d, want 100", payload.Progress)
	}
	if payload.Status != "completed" || payload.OutputFile != "tower.frag" {
		t.Errorf("payload = %+v", payload)
	}
	if payload.CompressionRatio == nil || *payload.CompressionRatio != 80.0 {
		t.Errorf("compression ratio = %v", payload.CompressionRatio)
	}
}

func TestFromJobFormatsTimestamps(t *testing.T) {
	job := jobs.NewJob("tower.ifc")
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.MarkProcessing("attempt-1", start)
	payload := FromJob(job)
	if payload.StartTime == "" || payload.EndTime != "" {
		t.Errorf("payload times = %q / %q", payload.StartTime, payload.EndTime)
	}
	if payload.Status != "processing" || payload.AttemptID != "attempt-1" {
		t.Errorf("payload = %+v", payload)
	}
}
