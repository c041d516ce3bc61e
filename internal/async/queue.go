package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one file waiting to be processed. TraceID becomes the run id of the processing.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// NewJob stamps path with a submission time and a fresh trace id.
func NewJob(path string) Job {
	return Job{}.withDefaults(path)
}

func (j Job) withDefaults(path string) Job {
	if j.Path == "" {
		j.Path = path
	}
	if j.SubmittedAt.IsZero() {
		j.SubmittedAt = time.Now()
	}
	if j.TraceID == "" {
		j.TraceID = uuid.NewString()
	}
	return j
}

// Queue accepts files for background processing.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Pending is the number of accepted jobs no worker has picked up yet.
	Pending() int
	Shutdown(ctx context.Context)
}

var _ Queue = (*ProcessorQueue)(nil)
