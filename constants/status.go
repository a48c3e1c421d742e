package constants

// JobStatus is the canonical status for rows in extraction_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Terminal statuses only leave through an explicit retry.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether a job may move from s to next.
// processing is reachable from pending (start) and from any terminal state (retry).
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch next {
	case JobStatusProcessing:
		return s == JobStatusPending || s.Terminal()
	case JobStatusCompleted, JobStatusFailed:
		return s == JobStatusProcessing
	}
	return false
}
