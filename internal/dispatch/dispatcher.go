package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fragmill/internal/config"
	"fragmill/internal/converter"
	"fragmill/internal/fileutil"
	"fragmill/internal/jobs"
	"fragmill/internal/logging"
)

// Recorder receives terminal job states for the audit trail.
type Recorder interface {
	Record(ctx context.Context, job *jobs.Job) error
}

// Options modifies a single conversion request.
type Options struct {
	// Force invokes the tool even when the artifact already exists.
	Force bool
	// OutputName overrides the derived artifact filename.
	OutputName string
}

// Dispatcher coordinates conversions against the registry and the external
// tool. It is safe for concurrent use.
type Dispatcher struct {
	cfg      *config.Config
	registry *jobs.Registry
	runner   converter.Runner
	recorder Recorder
	logger   *slog.Logger

	locks keyedMutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	queue   chan request
}

// New constructs a dispatcher. recorder may be nil when history is disabled.
func New(cfg *config.Config, registry *jobs.Registry, runner converter.Runner, recorder Recorder, logger *slog.Logger) (*Dispatcher, error) {
	if cfg == nil || registry == nil || runner == nil {
		return nil, errors.New("dispatcher requires config, registry, and runner")
	}
	return &Dispatcher{
		cfg:      cfg,
		registry: registry,
		runner:   runner,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "dispatcher"),
	}, nil
}

// Registry exposes the job registry for read-only projections.
func (d *Dispatcher) Registry() *jobs.Registry {
	return d.registry
}

// Convert runs one conversion attempt synchronously and returns the job's
// terminal snapshot. Conversion failures come back as a failed job with a nil
// error; ErrNotFound and converter.ErrUnavailable are returned as errors.
func (d *Dispatcher) Convert(ctx context.Context, filename string, opts Options) (*jobs.Job, error) {
	filename, err := d.validateSource(filename)
	if err != nil {
		return nil, err
	}
	srcPath := filepath.Join(d.cfg.Paths.InputDir, filename)
	info, err := os.Stat(srcPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("stat source %s: %w", filename, err)
	}

	outputName := strings.TrimSpace(opts.OutputName)
	if outputName == "" {
		outputName = fileutil.ArtifactName(filename)
	} else {
		outputName = filepath.Base(outputName)
	}
	outPath := filepath.Join(d.cfg.Paths.OutputDir, outputName)

	// One in-flight conversion per filename. A concurrent caller blocks here,
	// then observes the winner's artifact through the idempotency check.
	unlock := d.locks.lock(filename)
	defer unlock()

	job := d.registry.Get(filename)

	if !opts.Force {
		if size, ok := fileutil.FileSize(outPath); ok {
			d.completeExisting(job, outputName, size)
			d.registry.Upsert(job)
			d.logger.Debug("artifact already present, skipping conversion",
				logging.String(logging.FieldFilename, filename),
				logging.String(logging.FieldOutput, outputName),
			)
			return job, nil
		}
	}

	if maxMB := d.cfg.Converter.MaxSourceMB; maxMB > 0 && info.Size() > int64(maxMB)*1024*1024 {
		job.MarkFailed(fmt.Sprintf("source is %.1f MB, exceeds the %d MB limit", fileutil.SizeMB(info.Size()), maxMB), time.Now())
		d.finishJob(ctx, job)
		return job, nil
	}

	attemptID := uuid.NewString()
	start := time.Now()
	job.MarkProcessing(attemptID, start)
	d.registry.Upsert(job)
	d.logger.Info("conversion started",
		logging.String(logging.FieldFilename, filename),
		logging.String(logging.FieldOutput, outputName),
		logging.String("attempt_id", attemptID),
	)

	result, runErr := d.runner.Run(ctx, srcPath, outPath)
	finished := time.Now()

	if runErr != nil {
		job.MarkFailed(runErr.Error(), finished)
		d.finishJob(ctx, job)
		if errors.Is(runErr, converter.ErrUnavailable) {
			return job, runErr
		}
		return job, nil
	}

	if !result.Success() {
		job.MarkFailed("conversion failed: "+result.Diagnostic(), finished)
		d.finishJob(ctx, job)
		return job, nil
	}

	outSize, ok := fileutil.FileSize(outPath)
	if !ok {
		// Zero exit with nothing on disk still counts as a failure.
		job.MarkFailed("conversion failed: output file not found", finished)
		d.finishJob(ctx, job)
		return job, nil
	}

	ratio := compressionRatio(info.Size(), outSize)
	sizeMB := fileutil.SizeMB(outSize)
	job.CompressionRatio = &ratio
	job.OutputSizeMB = &sizeMB
	job.MarkCompleted(outputName, fmt.Sprintf("conversion completed, compression %.1f%%", ratio), finished)
	d.finishJob(ctx, job)
	d.logger.Info("conversion completed",
		logging.String(logging.FieldFilename, filename),
		logging.String(logging.FieldOutput, outputName),
		logging.Float64("compression_ratio", ratio),
		logging.Duration("elapsed", finished.Sub(start)),
	)
	return job, nil
}

// ConvertAll converts every source file in the input directory. A failure on
// one file does not abort the batch; the returned slice holds each file's
// terminal snapshot in directory order.
func (d *Dispatcher) ConvertAll(ctx context.Context) ([]*jobs.Job, error) {
	names, err := fileutil.ListSources(d.cfg.Paths.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scan input directory: %w", err)
	}
	out := make([]*jobs.Job, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		job, err := d.Convert(ctx, name, Options{})
		if err != nil {
			// Keep going; the batch is fail-isolated. Unlaunchable-tool
			// errors still produced a failed job snapshot.
			d.logger.Warn("batch conversion error",
				logging.String(logging.FieldFilename, name),
				logging.Error(err),
			)
			if job == nil {
				continue
			}
		}
		out = append(out, job)
	}
	return out, nil
}

// Status returns the job for filename, lazily creating a ready record when a
// source file exists. Unknown filenames yield ErrNotFound.
func (d *Dispatcher) Status(filename string) (*jobs.Job, error) {
	filename, err := d.validateSource(filename)
	if err != nil {
		return nil, err
	}
	if job, ok := d.registry.Lookup(filename); ok {
		return job, nil
	}
	if _, statErr := os.Stat(filepath.Join(d.cfg.Paths.InputDir, filename)); statErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	return d.registry.Get(filename), nil
}

func (d *Dispatcher) validateSource(filename string) (string, error) {
	trimmed := filepath.Base(strings.TrimSpace(filename))
	if trimmed == "" || trimmed == "." || !fileutil.IsSource(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, filename)
	}
	return trimmed, nil
}

func (d *Dispatcher) completeExisting(job *jobs.Job, outputName string, size int64) {
	sizeMB := fileutil.SizeMB(size)
	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.Message = "already converted"
	job.OutputFile = outputName
	job.OutputSizeMB = &sizeMB
	job.UpdatedAt = time.Now()
}

// finishJob publishes a terminal state and appends it to the audit trail.
func (d *Dispatcher) finishJob(ctx context.Context, job *jobs.Job) {
	d.registry.Upsert(job)
	if d.recorder == nil {
		return
	}
	if err := d.recorder.Record(ctx, job); err != nil {
		d.logger.Warn("history record failed",
			logging.String(logging.FieldFilename, job.Filename),
			logging.Error(err),
		)
	}
	if job.Status == jobs.StatusFailed {
		d.logger.Error("conversion failed",
			logging.String(logging.FieldFilename, job.Filename),
			logging.String("message", job.Message),
		)
	}
}

func compressionRatio(inSize, outSize int64) float64 {
	if inSize <= 0 {
		return 0
	}
	return fileutil.Round2((1 - float64(outSize)/float64(inSize)) * 100)
}

// keyedMutex hands out one mutex per key, created on demand and kept for the
// process lifetime (bounded by the number of distinct source files).
type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*sync.Mutex)
	}
	entry, ok := k.m[key]
	if !ok {
		entry = &sync.Mutex{}
		k.m[key] = entry
	}
	k.mu.Unlock()

	entry.Lock()
	return entry.Unlock
}
