// Package policy decides, per role and per job status, who may act on a job
// and its sub-resources. Decisions are pure given the snapshot passed in; the
// engine never queries storage.
package policy

import (
	"github.com/snapcrew/capture-market/internal/api/domain"
	"github.com/snapcrew/capture-market/internal/api/model"
)

// Action is a job sub-resource operation subject to access control.
type Action string

const (
	ActionReadJob      Action = "read job"
	ActionSubmit       Action = "submit for review"
	ActionApprove      Action = "approve"
	ActionCancel       Action = "cancel"
	ActionCreateUpload Action = "create upload"
	ActionDeleteUpload Action = "delete upload"
	ActionDownload     Action = "download upload"
)

// Snapshot is the job state a decision is made against. Callers fetch it once
// per request; the decision is pure over that snapshot.
type Snapshot struct {
	Job           *model.Job
	Assignment    *model.Assignment // nil while the job is unclaimed
	UploadCount   int
	UploadOwnerID string // uploader of the target upload, delete decisions only
}

// Decision is the outcome of a policy check. Conflict distinguishes "the right
// person at the wrong time" (job state blocks the action, 4.09-style) from a
// plain authorization denial.
type Decision struct {
	Allowed  bool
	Conflict bool
	Reason   string
}

func allow() Decision                { return Decision{Allowed: true} }
func deny(reason string) Decision    { return Decision{Reason: reason} }
func blocked(reason string) Decision { return Decision{Conflict: true, Reason: reason} }

// Decide evaluates the access table for one (identity, snapshot, action)
// tuple. The active role is authoritative; granted roles play no part here. A
// caller who is neither the owner nor the assigned helper is denied every
// action.
func Decide(id domain.Identity, s Snapshot, action Action) Decision {
	owner := id.ActiveRole == domain.RoleRequester && s.Job.RequesterID == id.SubjectID
	assigned := id.ActiveRole == domain.RoleHelper &&
		s.Assignment != nil && s.Assignment.HelperID == id.SubjectID

	if !owner && !assigned {
		return deny("no relationship to this job")
	}

	status := s.Job.Status

	switch action {
	case ActionReadJob:
		return allow()

	case ActionSubmit:
		if !assigned {
			return deny("only the assigned helper may submit")
		}
		if status != domain.JobStatusAccepted && status != domain.JobStatusInProgress {
			return blocked("job cannot be submitted in status " + string(status))
		}
		if s.UploadCount == 0 {
			return blocked("at least one upload is required before submitting")
		}
		return allow()

	case ActionApprove:
		if !owner {
			return deny("only the requester may approve")
		}
		if status != domain.JobStatusInReview {
			return blocked("job is not in review")
		}
		return allow()

	case ActionCancel:
		if !owner {
			return deny("only the requester may cancel")
		}
		if status != domain.JobStatusOpen &&
			status != domain.JobStatusAccepted &&
			status != domain.JobStatusInProgress {
			return blocked("job cannot be cancelled in status " + string(status))
		}
		return allow()

	case ActionCreateUpload:
		if !assigned {
			return deny("only the assigned helper may upload")
		}
		if status != domain.JobStatusAccepted && status != domain.JobStatusInProgress {
			return blocked("uploads are not accepted in status " + string(status))
		}
		return allow()

	case ActionDeleteUpload:
		if assigned {
			if s.UploadOwnerID != id.SubjectID {
				return deny("helpers may only delete their own uploads")
			}
			if status == domain.JobStatusCompleted {
				return blocked("uploads of a completed job cannot be deleted")
			}
			return allow()
		}
		// Owner may clear any upload, but only while reviewing.
		if status != domain.JobStatusInReview {
			return blocked("uploads can only be removed while the job is in review")
		}
		return allow()

	case ActionDownload:
		if owner {
			return allow()
		}
		if status != domain.JobStatusInProgress && status != domain.JobStatusInReview {
			return blocked("downloads are not available in status " + string(status))
		}
		return allow()
	}

	return deny("unknown action")
}
