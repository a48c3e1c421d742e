package ingest

import (
	"context"

	"github.com/joseph-ayodele/survey-extractor/internal/async"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

// Result is the per-file ingest outcome.
type Result struct {
	SourcePath   string
	JobID        string
	CourseName   string
	HashHex      string
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// JobCreator persists new pending jobs.
type JobCreator interface {
	Create(ctx context.Context, job *entity.ExtractionJob) error
}

// Enqueuer hands a created job to the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, job async.Job) error
}
