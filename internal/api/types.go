package api

import (
	"time"

	"fragmill/internal/history"
	"fragmill/internal/jobs"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobPayload describes a conversion job in a transport-friendly format.
type JobPayload struct {
	Filename         string   `json:"filename"`
	AttemptID        string   `json:"attemptId,omitempty"`
	Status           string   `json:"status"`
	Progress         int      `json:"progress"`
	Message          string   `json:"message,omitempty"`
	StartTime        string   `json:"startTime,omitempty"`
	EndTime          string   `json:"endTime,omitempty"`
	OutputFile       string   `json:"outputFile,omitempty"`
	CompressionRatio *float64 `json:"compressionRatio,omitempty"`
	OutputSizeMB     *float64 `json:"outputSizeMb,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
}

// FileInfo describes a source file and its conversion state.
type FileInfo struct {
	Filename     string   `json:"filename"`
	SizeMB       float64  `json:"sizeMb"`
	Modified     string   `json:"modified"`
	Status       string   `json:"status"`
	HasOutput    bool     `json:"hasOutput"`
	OutputFile   string   `json:"outputFile,omitempty"`
	OutputSizeMB *float64 `json:"outputSizeMb,omitempty"`
}

// FragmentInfo describes a produced artifact.
type FragmentInfo struct {
	Filename string  `json:"filename"`
	SizeMB   float64 `json:"sizeMb"`
	Modified string  `json:"modified"`
}

// AttemptPayload describes one audited conversion attempt.
type AttemptPayload struct {
	ID               int64    `json:"id"`
	AttemptID        string   `json:"attemptId,omitempty"`
	Filename         string   `json:"filename"`
	Status           string   `json:"status"`
	Message          string   `json:"message,omitempty"`
	OutputFile       string   `json:"outputFile,omitempty"`
	CompressionRatio *float64 `json:"compressionRatio,omitempty"`
	OutputSizeMB     *float64 `json:"outputSizeMb,omitempty"`
	StartTime        string   `json:"startTime,omitempty"`
	EndTime          string   `json:"endTime,omitempty"`
	DurationSeconds  float64  `json:"durationSeconds,omitempty"`
	RecordedAt       string   `json:"recordedAt"`
}

// HealthResponse answers the daemon liveness probe.
type HealthResponse struct {
	Status   string `json:"status"`
	PID      int    `json:"pid"`
	Watching bool   `json:"watching"`
	InputDir string `json:"inputDir"`
	Version  string `json:"version,omitempty"`
}

// FileListResponse wraps the input directory listing.
type FileListResponse struct {
	Files []FileInfo `json:"files"`
}

// FragmentListResponse wraps the output directory listing.
type FragmentListResponse struct {
	Fragments []FragmentInfo `json:"fragments"`
}

// CheckPayload describes one environment diagnostic.
type CheckPayload struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StatusSummaryResponse aggregates daemon runtime state, job snapshots, and
// environment diagnostics.
type StatusSummaryResponse struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	Watching    bool           `json:"watching"`
	SourceFiles int            `json:"sourceFiles"`
	Fragments   int            `json:"fragments"`
	Jobs        []JobPayload   `json:"jobs"`
	Checks      []CheckPayload `json:"checks,omitempty"`
}

// ConvertRequest is the body for single-file conversion requests.
type ConvertRequest struct {
	Filename   string `json:"filename"`
	Force      bool   `json:"force,omitempty"`
	OutputName string `json:"outputName,omitempty"`
}

// ConvertAllResponse reports a batch conversion.
type ConvertAllResponse struct {
	Queued []string `json:"queued"`
}

// HistoryResponse wraps recent conversion attempts, newest first.
type HistoryResponse struct {
	Attempts []AttemptPayload `json:"attempts"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromJob converts a registry snapshot to its transport form.
func FromJob(job *jobs.Job) JobPayload {
	if job == nil {
		return JobPayload{}
	}
	return JobPayload{
		Filename:         job.Filename,
		AttemptID:        job.AttemptID,
		Status:           string(job.Status),
		Progress:         int(job.Progress),
		Message:          job.Message,
		StartTime:        formatTimePtr(job.StartTime),
		EndTime:          formatTimePtr(job.EndTime),
		OutputFile:       job.OutputFile,
		CompressionRatio: job.CompressionRatio,
		OutputSizeMB:     job.OutputSizeMB,
		UpdatedAt:        formatTime(job.UpdatedAt),
	}
}

// FromJobs converts a batch of snapshots.
func FromJobs(batch []*jobs.Job) []JobPayload {
	out := make([]JobPayload, 0, len(batch))
	for _, job := range batch {
		out = append(out, FromJob(job))
	}
	return out
}

// FromAttempt converts an audit record to its transport form.
func FromAttempt(attempt history.Attempt) AttemptPayload {
	return AttemptPayload{
		ID:               attempt.ID,
		AttemptID:        attempt.AttemptID,
		Filename:         attempt.Filename,
		Status:           attempt.Status,
		Message:          attempt.Message,
		OutputFile:       attempt.OutputFile,
		CompressionRatio: attempt.CompressionRatio,
		OutputSizeMB:     attempt.OutputSizeMB,
		StartTime:        formatTimePtr(attempt.StartedAt),
		EndTime:          formatTimePtr(attempt.FinishedAt),
		DurationSeconds:  attempt.Duration.Seconds(),
		RecordedAt:       formatTime(attempt.RecordedAt),
	}
}

// FromAttempts converts a batch of audit records.
func FromAttempts(attempts []history.Attempt) []AttemptPayload {
	out := make([]AttemptPayload, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, FromAttempt(attempt))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
