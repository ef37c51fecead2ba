package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a conversion job.
type Status string

const (
	StatusReady      Status = "ready"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusReady,
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Job is the tracked record for one source file's conversion attempts.
//
// Progress carries no intermediate values: it is 100 exactly when the status
// is completed, and 0 otherwise.
type Job struct {
	Filename         string
	AttemptID        string
	Status           Status
	Progress         float64
	Message          string
	StartTime        *time.Time
	EndTime          *time.Time
	OutputFile       string
	CompressionRatio *float64
	OutputSizeMB     *float64
	UpdatedAt        time.Time
}

// NewJob returns a fresh ready record for filename.
func NewJob(filename string) *Job {
	return &Job{
		Filename:  filename,
		Status:    StatusReady,
		UpdatedAt: time.Now(),
	}
}

// InFlight reports whether the job is queued or actively converting.
func (j *Job) InFlight() bool {
	return j.Status == StatusPending || j.Status == StatusProcessing
}

// MarkPending flags the job as queued for a worker.
func (j *Job) MarkPending(attemptID string) {
	j.Status = StatusPending
	j.AttemptID = attemptID
	j.Progress = 0
	j.Message = "queued for conversion"
	j.StartTime = nil
	j.EndTime = nil
	j.UpdatedAt = time.Now()
}

// MarkProcessing records the start of a conversion attempt. Results from any
// prior attempt are cleared.
func (j *Job) MarkProcessing(attemptID string, start time.Time) {
	j.Status = StatusProcessing
	if attemptID != "" {
		j.AttemptID = attemptID
	}
	j.Progress = 0
	j.Message = "conversion started"
	j.StartTime = &start
	j.EndTime = nil
	j.OutputFile = ""
	j.CompressionRatio = nil
	j.OutputSizeMB = nil
	j.UpdatedAt = time.Now()
}

// MarkCompleted records a successful conversion outcome.
func (j *Job) MarkCompleted(outputFile, message string, end time.Time) {
	j.Status = StatusCompleted
	j.Progress = 100
	j.Message = message
	j.OutputFile = outputFile
	j.EndTime = &end
	j.UpdatedAt = time.Now()
}

// MarkFailed records a failed conversion outcome.
func (j *Job) MarkFailed(message string, end time.Time) {
	j.Status = StatusFailed
	j.Progress = 0
	j.Message = message
	j.EndTime = &end
	j.CompressionRatio = nil
	j.OutputSizeMB = nil
	j.UpdatedAt = time.Now()
}

// Clone returns an independent copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.StartTime != nil {
		start := *j.StartTime
		cp.StartTime = &start
	}
	if j.EndTime != nil {
		end := *j.EndTime
		cp.EndTime = &end
	}
	if j.CompressionRatio != nil {
		ratio := *j.CompressionRatio
		cp.CompressionRatio = &ratio
	}
	if j.OutputSizeMB != nil {
		size := *j.OutputSizeMB
		cp.OutputSizeMB = &size
	}
	return &cp
}

// Duration returns the elapsed time of the last attempt, when known.
func (j *Job) Duration() time.Duration {
	if j.StartTime == nil || j.EndTime == nil {
		return 0
	}
	return j.EndTime.Sub(*j.StartTime)
}
