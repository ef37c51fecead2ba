package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"fragmill/internal/fileutil"
	"fragmill/internal/jobs"
	"fragmill/internal/logging"
)

type request struct {
	filename string
	opts     Options
}

// Start launches the background worker pool that drains the conversion queue.
// Calling Start on a running dispatcher is a no-op.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	workers := d.cfg.Converter.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := d.cfg.Converter.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.queue = make(chan request, queueSize)
	d.running = true

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx, i)
	}
	d.logger.Info("worker pool started",
		logging.Int("workers", workers),
		logging.Int("queue_size", queueSize),
	)
	return nil
}

// Stop cancels the workers and waits for in-flight conversions to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
	d.logger.Info("worker pool stopped")
}

// Enqueue queues filename for background conversion and returns the pending
// snapshot. Files already pending or processing collapse into the existing
// attempt. A full queue returns ErrQueueFull with the job left ready.
func (d *Dispatcher) Enqueue(filename string, opts Options) (*jobs.Job, error) {
	filename, err := d.validateSource(filename)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(filepath.Join(d.cfg.Paths.InputDir, filename)); statErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}

	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil, ErrNotRunning
	}
	queue := d.queue
	d.mu.Unlock()

	job, started := d.registry.BeginPending(filename, uuid.NewString())
	if !started {
		return job, nil
	}

	select {
	case queue <- request{filename: filename, opts: opts}:
		d.logger.Debug("queued for conversion", logging.String(logging.FieldFilename, filename))
		return job, nil
	default:
		job.Status = jobs.StatusReady
		job.Message = ""
		job.AttemptID = ""
		job.UpdatedAt = time.Now()
		d.registry.Upsert(job)
		return nil, ErrQueueFull
	}
}

// EnqueueAll queues every source file in the input directory, skipping files
// already in flight. It returns the filenames it queued.
func (d *Dispatcher) EnqueueAll() ([]string, error) {
	names, err := fileutil.ListSources(d.cfg.Paths.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scan input directory: %w", err)
	}
	queued := make([]string, 0, len(names))
	for _, name := range names {
		if job, ok := d.registry.Lookup(name); ok && job.InFlight() {
			continue
		}
		if _, err := d.Enqueue(name, Options{}); err != nil {
			if err == ErrQueueFull {
				return queued, err
			}
			continue
		}
		queued = append(queued, name)
	}
	return queued, nil
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	logger := d.logger.With(logging.Int("worker", id))
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.queue:
			if _, err := d.Convert(ctx, req.filename, req.opts); err != nil {
				logger.Warn("queued conversion error",
					logging.String(logging.FieldFilename, req.filename),
					logging.Error(err),
				)
			}
		}
	}
}
