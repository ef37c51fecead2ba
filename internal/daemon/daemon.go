package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"fragmill/internal/config"
	"fragmill/internal/dispatch"
	"fragmill/internal/history"
	"fragmill/internal/jobs"
	"fragmill/internal/logging"
	"fragmill/internal/watch"
)

// Daemon coordinates the background conversion services and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	dispatcher *dispatch.Dispatcher
	watcher    *watch.Watcher
	store      *history.Store
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Watching     bool
	InputDir     string
	OutputDir    string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies. watcher and store
// may be nil when the corresponding features are disabled.
func New(cfg *config.Config, dispatcher *dispatch.Dispatcher, watcher *watch.Watcher, store *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || dispatcher == nil || logger == nil {
		return nil, errors.New("daemon requires config, dispatcher, and logger")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "fragmilld.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		dispatcher: dispatcher,
		watcher:    watcher,
		store:      store,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock and launches the worker pool, watcher, and
// API server. When convert_on_start is enabled, existing unconverted source
// files are queued immediately.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fragmill daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.dispatcher.Start(runCtx); err != nil {
		d.abortStart()
		return fmt.Errorf("start dispatcher: %w", err)
	}
	if d.watcher != nil {
		if err := d.watcher.Start(runCtx); err != nil {
			d.dispatcher.Stop()
			d.abortStart()
			return fmt.Errorf("start watcher: %w", err)
		}
	}
	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			if d.watcher != nil {
				d.watcher.Stop()
			}
			d.dispatcher.Stop()
			d.abortStart()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("fragmill daemon started", logging.String("lock", d.lockPath))

	if d.cfg.Watch.ConvertOnStart {
		queued, err := d.dispatcher.EnqueueAll()
		if err != nil {
			d.logger.Warn("startup conversion sweep failed", logging.Error(err))
		} else if len(queued) > 0 {
			d.logger.Info("queued existing source files", logging.Int("count", len(queued)))
		}
	}
	return nil
}

func (d *Daemon) abortStart() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}

// Stop halts background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.api != nil {
		d.api.stop()
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.dispatcher.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("fragmill daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information for the health endpoint.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Watching:     d.watcher != nil,
		InputDir:     d.cfg.Paths.InputDir,
		OutputDir:    d.cfg.Paths.OutputDir,
		LockFilePath: d.lockPath,
	}
}

// Addr returns the API listen address, empty until Start succeeds.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// RunBatch performs a synchronous one-shot conversion of every source file
// and returns once the batch finishes. Used by the convert-only mode.
func (d *Daemon) RunBatch(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	batch, err := d.dispatcher.ConvertAll(ctx)
	if err != nil {
		return err
	}
	failed := 0
	for _, job := range batch {
		if job.Status != jobs.StatusCompleted {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(batch))
	}
	return nil
}
