package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a processing job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
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

// ParseStatus normalizes a user-supplied status string.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Upload outcomes recorded on the job.
const (
	UploadSucceeded = "uploaded"
	UploadFailed    = "failed"
)

// DaemonStopMessage is set on jobs failed because the daemon shut down
// mid-run.
const DaemonStopMessage = "daemon stopped"

// Job is one corpus-processing request and its progress record.
type Job struct {
	ID           string
	Status       Status
	Progress     int
	Message      string
	ErrorCode    string
	FileID       string
	UploadStatus string
	ParamsJSON   string
	ResultFile   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetFailure marks the job failed with a human-readable message and the
// machine-readable code surfaced over the API.
func (j *Job) SetFailure(message, code string) {
	j.Status = StatusFailed
	j.Message = message
	j.ErrorCode = code
}
