package constants

// JobStatus is the canonical status for a processing job.
type JobStatus string

// Stable values (these exact strings go over the wire).
const (
	JobStatusPending    JobStatus = "pending"    // created, extraction not started
	JobStatusProcessing JobStatus = "processing" // extraction in progress
	JobStatusCompleted  JobStatus = "completed"  // terminal success, records attached
	JobStatusError      JobStatus = "error"      // terminal failure, message attached
)

// Terminal reports whether no further status transitions may occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}
