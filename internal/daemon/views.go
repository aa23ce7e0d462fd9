package daemon

import (
	"time"

	"gleaner/internal/jobs"
)

type jobView struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
	FileID       string `json:"file_id,omitempty"`
	UploadStatus string `json:"upload_status,omitempty"`
	ResultURL    string `json:"result_url,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type checkView struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

func newJobView(job *jobs.Job) jobView {
	resultURL := ""
	if job.Status == jobs.StatusCompleted && job.ResultFile != "" {
		resultURL = "/api/v1/jobs/" + job.ID + "/result"
	}
	return jobView{
		JobID:        job.ID,
		Status:       string(job.Status),
		Progress:     job.Progress,
		Message:      job.Message,
		Error:        job.ErrorCode,
		FileID:       job.FileID,
		UploadStatus: job.UploadStatus,
		ResultURL:    resultURL,
		CreatedAt:    job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    job.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
