package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fragmill/internal/dispatch"
	"fragmill/internal/jobs"
	"fragmill/internal/logging"
)

type captureEnqueuer struct {
	mu    sync.Mutex
	names []string
}

func (c *captureEnqueuer) Enqueue(filename string, opts dispatch.Options) (*jobs.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, filename)
	job := jobs.NewJob(filename)
	job.MarkPending("test")
	return job, nil
}

func (c *captureEnqueuer) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func waitForEnqueue(t *testing.T, enq *captureEnqueuer, want int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if names := enq.snapshot(); len(names) >= want {
			return names
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d enqueues, got %v", want, enq.snapshot())
	return nil
}

func startWatcher(t *testing.T, dir string, settle time.Duration) (*Watcher, *captureEnqueuer) {
	t.Helper()
	enq := &captureEnqueuer{}
	w, err := New(Options{Dir: dir, Settle: settle}, enq, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, enq
}

func TestWatcherEnqueuesSettledFile(t *testing.T) {
	dir := t.TempDir()
	_, enq := startWatcher(t, dir, 50*time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "tower.ifc"), []byte("model"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	names := waitForEnqueue(t, enq, 1)
	if names[0] != "tower.ifc" {
		t.Errorf("enqueued %q, want tower.ifc", names[0])
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	_, enq := startWatcher(t, dir, 20*time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "model.ifc"), []byte("model"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	names := waitForEnqueue(t, enq, 1)
	for _, name := range names {
		if name == "notes.txt" {
			t.Fatalf("non-source file was enqueued: %v", names)
		}
	}
}

func TestWatcherDebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	_, enq := startWatcher(t, dir, 150*time.Millisecond)

	path := filepath.Join(dir, "big.ifc")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Simulate a slow copy: several writes inside the settle window.
	for i := 0; i < 5; i++ {
		if _, err := f.Write(make([]byte, 1024)); err != nil {
			t.Fatalf("write chunk: %v", err)
		}
		if err := f.Sync(); err != nil {
			t.Fatalf("sync: %v", err)
		}
		time.Sleep(30 * time.Millisecond)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	waitForEnqueue(t, enq, 1)
	// Give a stray second timer the chance to fire before asserting.
	time.Sleep(300 * time.Millisecond)
	if names := enq.snapshot(); len(names) != 1 {
		t.Fatalf("enqueued %d times, want 1: %v", len(names), names)
	}
}

func TestWatcherUppercaseExtension(t *testing.T) {
	dir := t.TempDir()
	_, enq := startWatcher(t, dir, 20*time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "SITE.IFC"), []byte("model"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	names := waitForEnqueue(t, enq, 1)
	if names[0] != "SITE.IFC" {
		t.Errorf("enqueued %q, want SITE.IFC", names[0])
	}
}

func TestWatcherStopCancelsTimers(t *testing.T) {
	dir := t.TempDir()
	w, enq := startWatcher(t, dir, time.Hour)

	if err := os.WriteFile(filepath.Join(dir, "tower.ifc"), []byte("model"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Let the event reach the loop before stopping.
	time.Sleep(100 * time.Millisecond)
	w.Stop()

	if names := enq.snapshot(); len(names) != 0 {
		t.Fatalf("enqueued after stop: %v", names)
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w, err := New(Options{Dir: filepath.Join(t.TempDir(), "absent")}, &captureEnqueuer{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing directory")
	}
}
