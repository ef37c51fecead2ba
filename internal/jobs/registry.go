package jobs

import (
	"sort"
	"sync"
)

// Registry is the in-memory job store keyed by source filename.
//
// All accessors work on copies: callers mutate their copy and publish it back
// with Upsert, so concurrent readers from the status path never race with the
// dispatcher's read-modify-write cycles.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Get returns the job for filename, creating a ready record if absent.
func (r *Registry) Get(filename string) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[filename]
	if !ok {
		job = NewJob(filename)
		r.jobs[filename] = job
	}
	return job.Clone()
}

// Lookup returns the job for filename without creating one.
func (r *Registry) Lookup(filename string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[filename]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// BeginPending transitions filename to pending and reports whether this call
// started the attempt. When the job is already pending or processing the
// stored record is left untouched and the existing snapshot is returned, so
// concurrent enqueues collapse into one attempt.
func (r *Registry) BeginPending(filename, attemptID string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[filename]
	if !ok {
		job = NewJob(filename)
		r.jobs[filename] = job
	}
	if job.InFlight() {
		return job.Clone(), false
	}
	job.MarkPending(attemptID)
	return job.Clone(), true
}

// Upsert atomically replaces the stored record for job.Filename.
func (r *Registry) Upsert(job *Job) {
	if job == nil || job.Filename == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.Filename] = job.Clone()
}

// List returns all records ordered by filename.
func (r *Registry) List() []*Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
