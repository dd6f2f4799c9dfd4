package domain

// JobStatus is the lifecycle state of a capture job.
type JobStatus string

const (
	JobStatusOpen       JobStatus = "OPEN"
	JobStatusAccepted   JobStatus = "ACCEPTED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusInReview   JobStatus = "IN_REVIEW"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// transitions is the full status graph. A status mapped to an empty set has no
// outgoing edges.
var transitions = map[JobStatus][]JobStatus{
	JobStatusOpen:       {JobStatusAccepted, JobStatusCancelled},
	JobStatusAccepted:   {JobStatusInProgress, JobStatusCancelled},
	JobStatusInProgress: {JobStatusInReview, JobStatusCancelled},
	JobStatusInReview:   {JobStatusCompleted},
	JobStatusCompleted:  {},
	JobStatusCancelled:  {},
}

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// ValidateTransition reports whether a job may move from current to requested.
// Pure over the finite status space; rejections come back as data. Every status
// write goes through this check.
func ValidateTransition(current, requested JobStatus) (bool, string) {
	next, ok := transitions[current]
	if !ok {
		return false, "unknown status " + string(current)
	}
	if !requested.Valid() {
		return false, "unknown status " + string(requested)
	}
	for _, s := range next {
		if s == requested {
			return true, ""
		}
	}
	if current.Terminal() {
		return false, string(current) + " is a terminal status"
	}
	return false, "cannot move from " + string(current) + " to " + string(requested)
}
