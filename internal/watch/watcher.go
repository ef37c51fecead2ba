package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"fragmill/internal/dispatch"
	"fragmill/internal/fileutil"
	"fragmill/internal/jobs"
	"fragmill/internal/logging"
)

// Enqueuer is the slice of the dispatcher the watcher needs.
type Enqueuer interface {
	Enqueue(filename string, opts dispatch.Options) (*jobs.Job, error)
}

// Options configures a Watcher.
type Options struct {
	// Dir is the directory to monitor. Subdirectories are ignored.
	Dir string
	// Settle is how long a file must stay quiet before it is enqueued.
	// Zero means enqueue immediately.
	Settle time.Duration
}

// Watcher drives conversions from filesystem events.
type Watcher struct {
	opts     Options
	enqueuer Enqueuer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	timers  map[string]*time.Timer
}

// New constructs a watcher for opts.Dir.
func New(opts Options, enqueuer Enqueuer, logger *slog.Logger) (*Watcher, error) {
	if opts.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if enqueuer == nil {
		return nil, errors.New("watcher requires an enqueuer")
	}
	return &Watcher{
		opts:     opts,
		enqueuer: enqueuer,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Start begins monitoring. It returns once the fsnotify watch is registered;
// event handling continues in the background until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.opts.Dir); err != nil {
		fsw.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop(runCtx, fsw)

	w.logger.Info("watching for source files",
		logging.String("dir", w.opts.Dir),
		logging.Duration("settle", w.opts.Settle),
	)
	return nil
}

// Stop halts monitoring and cancels any pending settle timers.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	w.cancel = nil
	for name, timer := range w.timers {
		timer.Stop()
		delete(w.timers, name)
	}
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.logger.Info("watcher stopped")
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	name := filepath.Base(event.Name)
	if !fileutil.IsSource(name) {
		return
	}

	w.logger.Debug("source file event",
		logging.String(logging.FieldFilename, name),
		logging.String(logging.FieldEventType, event.Op.String()),
	)

	if w.opts.Settle <= 0 {
		w.settle(name)
		return
	}

	// Reset the per-file timer on every event so partially copied files
	// only fire once writes stop.
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	if timer, ok := w.timers[name]; ok {
		timer.Stop()
	}
	w.timers[name] = time.AfterFunc(w.opts.Settle, func() { w.settle(name) })
	w.mu.Unlock()
}

// settle fires once a file has been quiet for the settle window.
func (w *Watcher) settle(name string) {
	w.mu.Lock()
	delete(w.timers, name)
	running := w.running
	w.mu.Unlock()
	if !running && w.opts.Settle > 0 {
		return
	}

	if _, err := w.enqueuer.Enqueue(name, dispatch.Options{}); err != nil {
		w.logger.Warn("failed to queue detected file",
			logging.String(logging.FieldFilename, name),
			logging.Error(err),
		)
		return
	}
	w.logger.Info("detected new source file", logging.String(logging.FieldFilename, name))
}
