// Package jobs queues document analyses and tracks their progress.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dvloznov/docrisk/internal/domain"
)

// JobType names the kind of work a job carries.
type JobType string

const JobTypeAnalyzeDocument JobType = "analyze_document"

// JobStatus is the lifecycle state of a job:
// pending -> running -> completed | retrying | failed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// Finished reports whether the status is terminal.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// DefaultMaxRetries applies when a published job sets no retry limit.
const DefaultMaxRetries = 3

// AnalyzeDocumentJob is one asynchronous analysis. The document comes
// either inline as Content or from GCSURI.
type AnalyzeDocumentJob struct {
	JobID      string `json:"job_id"`
	DocumentID string `json:"document_id"`

	// Content is the upstream payload ({"excel_data": ...} or {"text_content": ...}).
	Content json.RawMessage        `json:"-"`
	GCSURI  string                 `json:"gcs_uri,omitempty"`
	Signals domain.ExternalSignals `json:"signals"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the last handler error.
	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`

	// Result is set once the job completes.
	Result *domain.UnifiedResponse `json:"result,omitempty"`
}

// Job is what a JobHandler receives.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *AnalyzeDocumentJob) GetID() string        { return j.JobID }
func (j *AnalyzeDocumentJob) GetType() JobType     { return JobTypeAnalyzeDocument }
func (j *AnalyzeDocumentJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues analysis jobs. Publishing fills in a missing JobID,
// DocumentID and CreatedAt.
type Publisher interface {
	PublishAnalyzeDocument(ctx context.Context, job *AnalyzeDocumentJob) error
	Close() error
}

// Consumer runs a JobHandler over queued jobs until stopped. Stop waits
// for in-flight jobs.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error is retried unless it was
// wrapped with Permanent.
type JobHandler func(ctx context.Context, job Job) error

// JobStore keeps job state for status polling.
type JobStore interface {
	SaveJob(ctx context.Context, job *AnalyzeDocumentJob) error
	GetJob(ctx context.Context, jobID string) (*AnalyzeDocumentJob, error)
	// ListJobs returns matching jobs oldest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*AnalyzeDocumentJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
	// PurgeFinished deletes completed and failed jobs that finished before
	// the cutoff and returns how many were removed.
	PurgeFinished(ctx context.Context, before time.Time) (int, error)
}

// JobFilter narrows ListJobs. Zero fields match everything.
type JobFilter struct {
	DocumentID string
	Status     JobStatus
	Limit      int
	Offset     int
}

// ErrJobNotFound is returned by stores for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
