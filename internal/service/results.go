package service

import (
	"github.com/pesio-ai/be-plan-approvals/internal/client"
	"github.com/pesio-ai/be-plan-approvals/internal/repository"
)

// ConflictInfo describes a detected version conflict: what changed and the
// two tokens involved, so callers can render a diff and offer resubmission.
type ConflictInfo struct {
	Type           repository.ConflictType `json:"type"`
	BaseVersion    client.VersionToken     `json:"baseVersion"`
	CurrentVersion client.VersionToken     `json:"currentVersion,omitempty"`
}

// SubmitResult is the success payload of a submission.
type SubmitResult struct {
	DraftID      string              `json:"draftId"`
	SubmissionID string              `json:"submissionId"`
	BaseVersion  client.VersionToken `json:"baseVersion"`
}

// CompleteTaskOutcome tags the result of a task completion. Conflicts are
// expected business outcomes, not failures, and stay distinguishable from
// real errors all the way to the caller.
type CompleteTaskOutcome string

const (
	// OutcomeTaskCompleted means the approval was recorded and more
	// approval steps remain.
	OutcomeTaskCompleted CompleteTaskOutcome = "task_completed"
	// OutcomeApproved means this was the final approval: the draft's
	// content is published and the draft is approved.
	OutcomeApproved CompleteTaskOutcome = "approved"
	// OutcomeRejected means an approver rejected the draft.
	OutcomeRejected CompleteTaskOutcome = "rejected"
	// OutcomeVersionConflict means the approval was voided because the
	// golden record diverged from the recorded base version.
	OutcomeVersionConflict CompleteTaskOutcome = "version_conflict"
	// OutcomeAlreadyCompleted means the task no longer exists; a retried
	// request must not double-apply an approval, so this is a no-op.
	OutcomeAlreadyCompleted CompleteTaskOutcome = "already_completed"
)

// CompleteTaskResult is the tagged result of completing an approval task.
type CompleteTaskResult struct {
	Outcome          CompleteTaskOutcome `json:"outcome"`
	DraftID          string              `json:"draftId,omitempty"`
	GoldenRecordID   string              `json:"goldenRecordId,omitempty"`
	PublishedVersion client.VersionToken `json:"publishedVersion,omitempty"`
	Conflict         *ConflictInfo       `json:"conflict,omitempty"`
}

// ApprovalStatus is the live state of a draft plus its approval history.
type ApprovalStatus struct {
	DraftID      string                     `json:"draftId"`
	Status       repository.DraftStatus     `json:"status"`
	SubmissionID *string                    `json:"submissionId,omitempty"`
	Conflict     *ConflictInfo              `json:"conflict,omitempty"`
	History      []*repository.HistoryEntry `json:"history"`
}

// ConflictCheck is the result of a read-only pre-flight conflict probe.
type ConflictCheck struct {
	InConflict bool          `json:"inConflict"`
	Conflict   *ConflictInfo `json:"conflict,omitempty"`
}
