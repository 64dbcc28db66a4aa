package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pesio-ai/be-plan-approvals/internal/client"
	"github.com/pesio-ai/be-plan-approvals/internal/errors"
	"github.com/pesio-ai/be-plan-approvals/internal/logger"
	"github.com/pesio-ai/be-plan-approvals/internal/metrics"
	"github.com/pesio-ai/be-plan-approvals/internal/repository"
)

// Workflow variable names shared with the approval process definition.
// baseVersion is recorded as an instance variable at submission time; the
// engine keeps it durable, so the orchestrator needs no store of its own.
const (
	varDraftID        = "draftId"
	varBaseVersion    = "baseVersion"
	varGoldenRecordID = "goldenRecordId"
	varSubmittedBy    = "submittedBy"
	varPlanName       = "planName"
	varApproved       = "approved"
	varComments       = "comments"
	varConflictType   = "conflictType"
)

// DraftStoreInterface is the draft repository surface the orchestrator uses.
type DraftStoreInterface interface {
	GetByID(ctx context.Context, id string) (*repository.Draft, error)
	MarkSubmitted(ctx context.Context, id, submissionID string) error
	MarkApproved(ctx context.Context, id, publishedVersion string) error
	MarkRejected(ctx context.Context, id string, comments *string, conflict *repository.ConflictMetadata) error
	ResetToDraft(ctx context.Context, id string) error
	SetGoldenRecordID(ctx context.Context, id, goldenRecordID string) error
}

// HistoryStoreInterface is the approval history surface.
type HistoryStoreInterface interface {
	Append(ctx context.Context, entry *repository.HistoryEntry) error
	GetByDraftID(ctx context.Context, draftID string) ([]*repository.HistoryEntry, error)
}

// ApprovalOrchestrator coordinates drafts, the workflow engine and the
// golden record store. It holds no durable state of its own: every
// decision is derived by querying the three systems at call time, which is
// what keeps it safe to run as stateless request handlers.
type ApprovalOrchestrator struct {
	drafts   DraftStoreInterface
	history  HistoryStoreInterface
	engine   client.WorkflowEngineInterface
	records  client.GoldenRecordStoreInterface
	notifier *client.NotificationPublisher
	metrics  *metrics.Collector
	log      *logger.Logger
}

// NewApprovalOrchestrator creates a new ApprovalOrchestrator.
func NewApprovalOrchestrator(
	drafts DraftStoreInterface,
	history HistoryStoreInterface,
	engine client.WorkflowEngineInterface,
	records client.GoldenRecordStoreInterface,
	notifier *client.NotificationPublisher,
	collector *metrics.Collector,
	log *logger.Logger,
) *ApprovalOrchestrator {
	return &ApprovalOrchestrator{
		drafts:   drafts,
		history:  history,
		engine:   engine,
		records:  records,
		notifier: notifier,
		metrics:  collector,
		log:      log,
	}
}

// ── Submit ────────────────────────────────────────────────────────────────────

// Submit starts an approval workflow for a draft. The golden record's
// current version is recorded as the baseVersion instance variable; drafts
// creating a new record use the "new" sentinel. Re-submitting an in-flight
// draft fails with ALREADY_SUBMITTED rather than silently restarting.
func (o *ApprovalOrchestrator) Submit(ctx context.Context, draftID, userID string) (*SubmitResult, error) {
	defer o.observe("submit", time.Now())

	draft, err := o.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}

	switch draft.Status {
	case repository.StatusSubmitted:
		return nil, errors.New(errors.ErrCodeAlreadySubmitted,
			fmt.Sprintf("draft %s is already submitted for approval", draftID))
	case repository.StatusApproved:
		return nil, errors.New(errors.ErrCodeConflict,
			"draft has already been approved and published")
	}

	baseVersion := client.BaseVersionNew
	goldenRecordID := "new"
	if draft.GoldenRecordID != nil {
		record, err := o.records.Get(ctx, *draft.GoldenRecordID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, errors.New(errors.ErrCodeConflict,
				fmt.Sprintf("golden record %s no longer exists; refresh the draft before submitting", *draft.GoldenRecordID))
		}
		baseVersion = record.Version
		goldenRecordID = record.ID
	}

	instanceID, err := o.engine.StartInstance(ctx, "", map[string]string{
		varDraftID:        draft.ID,
		varBaseVersion:    baseVersion.String(),
		varGoldenRecordID: goldenRecordID,
		varSubmittedBy:    userID,
		varPlanName:       displayName(draft),
	})
	if err != nil {
		return nil, err
	}

	if err := o.drafts.MarkSubmitted(ctx, draft.ID, instanceID); err != nil {
		return nil, err
	}

	o.appendHistory(ctx, &repository.HistoryEntry{
		DraftID:      draft.ID,
		SubmissionID: &instanceID,
		Action:       "submitted",
		PerformedBy:  userID,
		Metadata: map[string]any{
			"base_version":     baseVersion.String(),
			"golden_record_id": goldenRecordID,
		},
	})
	o.notifier.PublishDraftEvent("draft_submitted", draft.ID, userID, map[string]any{
		"submission_id": instanceID,
	})
	if o.metrics != nil {
		o.metrics.RecordSubmission()
	}

	o.log.Info().
		Str("draft_id", draft.ID).
		Str("submission_id", instanceID).
		Str("base_version", baseVersion.String()).
		Str("submitted_by", userID).
		Msg("Draft submitted for approval")

	return &SubmitResult{
		DraftID:      draft.ID,
		SubmissionID: instanceID,
		BaseVersion:  baseVersion,
	}, nil
}

// ── Complete task ─────────────────────────────────────────────────────────────

// CompleteTask records one approver's decision. On approval it re-verifies
// that the golden record still matches the baseVersion recorded at
// submission time; divergence voids the approval and rejects the draft
// with a distinguishable version_conflict result. When the workflow
// instance has ended this was the final approval and the draft's content
// is pushed to the golden record store.
//
// The window between completing the final task and pushing the golden
// record has no compensating transaction: a crash there surfaces as a
// STORE_UNAVAILABLE error on a draft left in submitted, and needs manual
// reconciliation.
func (o *ApprovalOrchestrator) CompleteTask(ctx context.Context, taskID string, approved bool, comments, userID string) (*CompleteTaskResult, error) {
	defer o.observe("complete_task", time.Now())

	vars, err := o.engine.GetTaskVariables(ctx, taskID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			// Retried request for a task that was already completed.
			return &CompleteTaskResult{Outcome: OutcomeAlreadyCompleted}, nil
		}
		return nil, err
	}

	draftID := vars[varDraftID]
	if draftID == "" {
		return nil, errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("task %s carries no draftId variable", taskID))
	}
	baseVersion := client.NewVersionToken(vars[varBaseVersion])

	draft, err := o.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != repository.StatusSubmitted || draft.SubmissionID == nil {
		return nil, errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("draft %s is not awaiting approval (status: %s)", draftID, draft.Status))
	}

	if !approved {
		return o.rejectDraft(ctx, taskID, draft, comments, userID)
	}

	// The version check must run after the variable read and before the
	// task-completion write; completing first would let a stale approval
	// commit.
	if draft.GoldenRecordID != nil && !baseVersion.Equals(client.BaseVersionNew) {
		record, err := o.records.Get(ctx, *draft.GoldenRecordID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return o.voidOnConflict(ctx, taskID, draft, userID, &ConflictInfo{
				Type:        repository.ConflictDeleted,
				BaseVersion: baseVersion,
			})
		}
		if !record.Version.Equals(baseVersion) {
			return o.voidOnConflict(ctx, taskID, draft, userID, &ConflictInfo{
				Type:           repository.ConflictVersionMismatch,
				BaseVersion:    baseVersion,
				CurrentVersion: record.Version,
			})
		}
	}

	if err := o.engine.CompleteTask(ctx, taskID, map[string]string{
		varApproved: "true",
		varComments: comments,
	}); err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return &CompleteTaskResult{Outcome: OutcomeAlreadyCompleted, DraftID: draft.ID}, nil
		}
		return nil, err
	}

	state, err := o.engine.InstanceState(ctx, *draft.SubmissionID)
	if err != nil || state == client.InstanceUnknown {
		// Probe failure after a successful completion: the approval is
		// recorded; a later call will observe the final state and
		// publish then.
		o.log.Warn().Err(err).
			Str("draft_id", draft.ID).
			Str("submission_id", *draft.SubmissionID).
			Msg("Instance liveness unknown after task completion; deferring publish")
		state = client.InstanceActive
	}

	if state == client.InstanceActive {
		o.appendHistory(ctx, &repository.HistoryEntry{
			DraftID:      draft.ID,
			SubmissionID: draft.SubmissionID,
			Action:       "task_completed",
			PerformedBy:  userID,
			Metadata:     map[string]any{"task_id": taskID},
		})
		o.notifier.PublishDraftEvent("approval_required", draft.ID, userID, map[string]any{
			"task_id": taskID,
		})

		o.log.Info().
			Str("draft_id", draft.ID).
			Str("task_id", taskID).
			Msg("Approval recorded; more approval steps pending")

		return &CompleteTaskResult{Outcome: OutcomeTaskCompleted, DraftID: draft.ID}, nil
	}

	return o.publishDraft(ctx, draft, taskID, userID)
}

// rejectDraft completes the task negatively and moves the draft to rejected.
func (o *ApprovalOrchestrator) rejectDraft(ctx context.Context, taskID string, draft *repository.Draft, comments, userID string) (*CompleteTaskResult, error) {
	if err := o.engine.CompleteTask(ctx, taskID, map[string]string{
		varApproved: "false",
		varComments: comments,
	}); err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return &CompleteTaskResult{Outcome: OutcomeAlreadyCompleted, DraftID: draft.ID}, nil
		}
		return nil, err
	}

	var commentsPtr *string
	if comments != "" {
		commentsPtr = &comments
	}
	if err := o.drafts.MarkRejected(ctx, draft.ID, commentsPtr, nil); err != nil {
		return nil, err
	}

	o.appendHistory(ctx, &repository.HistoryEntry{
		DraftID:      draft.ID,
		SubmissionID: draft.SubmissionID,
		Action:       "rejected",
		PerformedBy:  userID,
		Metadata:     map[string]any{"task_id": taskID, "comments": comments},
	})
	o.notifier.PublishDraftEvent("draft_rejected", draft.ID, userID, map[string]any{
		"comments": comments,
	})
	if o.metrics != nil {
		o.metrics.RecordRejection()
	}

	o.log.Info().
		Str("draft_id", draft.ID).
		Str("task_id", taskID).
		Str("rejected_by", userID).
		Msg("Draft rejected by approver")

	return &CompleteTaskResult{Outcome: OutcomeRejected, DraftID: draft.ID}, nil
}

// voidOnConflict voids the stale approval: the task is completed
// negatively with conflict metadata and the draft is rejected carrying
// both version tokens, so the caller can offer "refresh and resubmit".
func (o *ApprovalOrchestrator) voidOnConflict(ctx context.Context, taskID string, draft *repository.Draft, userID string, conflict *ConflictInfo) (*CompleteTaskResult, error) {
	err := o.engine.CompleteTask(ctx, taskID, map[string]string{
		varApproved:     "false",
		varConflictType: string(conflict.Type),
	})
	if err != nil && !errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	metadata := &repository.ConflictMetadata{
		Type:           conflict.Type,
		BaseVersion:    conflict.BaseVersion.String(),
		CurrentVersion: conflict.CurrentVersion.String(),
		DetectedAt:     time.Now().UTC(),
	}
	if err := o.drafts.MarkRejected(ctx, draft.ID, nil, metadata); err != nil {
		return nil, err
	}

	o.appendHistory(ctx, &repository.HistoryEntry{
		DraftID:      draft.ID,
		SubmissionID: draft.SubmissionID,
		Action:       "conflict_detected",
		PerformedBy:  userID,
		Metadata: map[string]any{
			"conflict_type":   string(conflict.Type),
			"base_version":    conflict.BaseVersion.String(),
			"current_version": conflict.CurrentVersion.String(),
		},
	})
	o.notifier.PublishDraftEvent("conflict_detected", draft.ID, userID, map[string]any{
		"conflict_type": string(conflict.Type),
	})
	if o.metrics != nil {
		o.metrics.RecordConflict(string(conflict.Type))
	}

	o.log.Warn().
		Str("draft_id", draft.ID).
		Str("conflict_type", string(conflict.Type)).
		Str("base_version", conflict.BaseVersion.String()).
		Str("current_version", conflict.CurrentVersion.String()).
		Msg("Stale approval voided by version conflict")

	return &CompleteTaskResult{
		Outcome:  OutcomeVersionConflict,
		DraftID:  draft.ID,
		Conflict: conflict,
	}, nil
}

// publishDraft pushes the draft's content to the golden record store after
// the final approval and marks the draft approved.
func (o *ApprovalOrchestrator) publishDraft(ctx context.Context, draft *repository.Draft, taskID, userID string) (*CompleteTaskResult, error) {
	var record *client.GoldenRecord
	var err error
	if draft.GoldenRecordID == nil {
		record, err = o.records.Create(ctx, draft.Content)
	} else {
		record, err = o.records.Update(ctx, *draft.GoldenRecordID, draft.Content)
	}
	if err != nil {
		// Task already completed but nothing published: surfaced for
		// manual reconciliation, never retried blindly.
		return nil, err
	}

	if draft.GoldenRecordID == nil {
		if err := o.drafts.SetGoldenRecordID(ctx, draft.ID, record.ID); err != nil {
			return nil, err
		}
	}
	if err := o.drafts.MarkApproved(ctx, draft.ID, record.Version.String()); err != nil {
		return nil, err
	}

	o.appendHistory(ctx, &repository.HistoryEntry{
		DraftID:      draft.ID,
		SubmissionID: draft.SubmissionID,
		Action:       "approved",
		PerformedBy:  userID,
		Metadata: map[string]any{
			"task_id":           taskID,
			"golden_record_id":  record.ID,
			"published_version": record.Version.String(),
		},
	})
	o.notifier.PublishDraftEvent("draft_approved", draft.ID, userID, map[string]any{
		"golden_record_id":  record.ID,
		"published_version": record.Version.String(),
	})
	if o.metrics != nil {
		o.metrics.RecordApproval()
	}

	o.log.Info().
		Str("draft_id", draft.ID).
		Str("golden_record_id", record.ID).
		Str("published_version", record.Version.String()).
		Str("approved_by", userID).
		Msg("Draft approved and published to golden record store")

	return &CompleteTaskResult{
		Outcome:          OutcomeApproved,
		DraftID:          draft.ID,
		GoldenRecordID:   record.ID,
		PublishedVersion: record.Version,
	}, nil
}

// ── Resubmission ──────────────────────────────────────────────────────────────

// ResubmitWithUpdatedVersion is the recovery path for a conflict-caused
// rejection. It does not merge: resetting and resubmitting captures the
// golden record's current version as the new baseVersion, which the human
// implicitly accepts by resubmitting.
func (o *ApprovalOrchestrator) ResubmitWithUpdatedVersion(ctx context.Context, draftID, userID string) (*SubmitResult, error) {
	defer o.observe("resubmit", time.Now())

	draft, err := o.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != repository.StatusRejected || draft.ConflictMetadata == nil {
		return nil, errors.New(errors.ErrCodeConflict,
			"draft was not rejected by a version conflict; use a regular submission")
	}

	priorConflict := draft.ConflictMetadata
	if err := o.drafts.ResetToDraft(ctx, draft.ID); err != nil {
		return nil, err
	}

	o.appendHistory(ctx, &repository.HistoryEntry{
		DraftID:     draft.ID,
		Action:      "resubmitted",
		PerformedBy: userID,
		Metadata: map[string]any{
			"prior_conflict_type": string(priorConflict.Type),
			"prior_base_version":  priorConflict.BaseVersion,
			"conflicting_version": priorConflict.CurrentVersion,
		},
	})
	o.notifier.PublishDraftEvent("draft_resubmitted", draft.ID, userID, map[string]any{
		"prior_conflict_type": string(priorConflict.Type),
	})

	return o.Submit(ctx, draft.ID, userID)
}

// ── Queries ───────────────────────────────────────────────────────────────────

// GetPendingTasks returns the approval tasks awaiting the user, each with
// its submission-time variable snapshot. Tasks whose draft is no longer in
// status submitted are filtered out; they are not actionable.
func (o *ApprovalOrchestrator) GetPendingTasks(ctx context.Context, userID string) ([]client.ApprovalTask, error) {
	defer o.observe("pending_tasks", time.Now())

	tasks, err := o.engine.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	actionable := make([]client.ApprovalTask, 0, len(tasks))
	for _, task := range tasks {
		vars, err := o.engine.GetTaskVariables(ctx, task.TaskID)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeNotFound) {
				continue
			}
			return nil, err
		}
		draft, err := o.drafts.GetByID(ctx, vars[varDraftID])
		if err != nil || draft.Status != repository.StatusSubmitted {
			continue
		}
		task.Variables = vars
		actionable = append(actionable, task)
	}
	return actionable, nil
}

// GetApprovalStatus returns a draft's live status plus its approval history.
func (o *ApprovalOrchestrator) GetApprovalStatus(ctx context.Context, draftID string) (*ApprovalStatus, error) {
	draft, err := o.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}

	history, err := o.history.GetByDraftID(ctx, draftID)
	if err != nil {
		return nil, err
	}

	status := &ApprovalStatus{
		DraftID:      draft.ID,
		Status:       draft.Status,
		SubmissionID: draft.SubmissionID,
		History:      history,
	}
	if draft.ConflictMetadata != nil {
		status.Conflict = &ConflictInfo{
			Type:           draft.ConflictMetadata.Type,
			BaseVersion:    client.NewVersionToken(draft.ConflictMetadata.BaseVersion),
			CurrentVersion: client.NewVersionToken(draft.ConflictMetadata.CurrentVersion),
		}
	}
	return status, nil
}

// CheckVersionConflict is a side-effect-free pre-flight probe using the
// same comparison as CompleteTask, so callers can learn about a conflict
// before spending a workflow step on it.
func (o *ApprovalOrchestrator) CheckVersionConflict(ctx context.Context, draftID string) (*ConflictCheck, error) {
	defer o.observe("conflict_check", time.Now())

	draft, err := o.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.GoldenRecordID == nil {
		// A draft creating a new record has nothing to diverge from.
		return &ConflictCheck{InConflict: false}, nil
	}

	record, err := o.records.Get(ctx, *draft.GoldenRecordID)
	if err != nil {
		return nil, err
	}

	baseVersion, haveBase := o.recordedBaseVersion(ctx, draft)

	if record == nil {
		return &ConflictCheck{
			InConflict: true,
			Conflict: &ConflictInfo{
				Type:        repository.ConflictDeleted,
				BaseVersion: baseVersion,
			},
		}, nil
	}
	if haveBase && !record.Version.Equals(baseVersion) {
		return &ConflictCheck{
			InConflict: true,
			Conflict: &ConflictInfo{
				Type:           repository.ConflictVersionMismatch,
				BaseVersion:    baseVersion,
				CurrentVersion: record.Version,
			},
		}, nil
	}
	return &ConflictCheck{InConflict: false}, nil
}

// recordedBaseVersion recovers a draft's baseVersion. While submitted it
// lives in the pending task's variables; after a conflict rejection it is
// kept in the draft's conflict metadata. Unsubmitted drafts have none.
func (o *ApprovalOrchestrator) recordedBaseVersion(ctx context.Context, draft *repository.Draft) (client.VersionToken, bool) {
	if draft.Status == repository.StatusRejected && draft.ConflictMetadata != nil {
		return client.NewVersionToken(draft.ConflictMetadata.BaseVersion), true
	}
	if draft.Status != repository.StatusSubmitted || draft.SubmissionID == nil {
		return client.VersionToken{}, false
	}

	tasks, err := o.engine.ListTasks(ctx, "")
	if err != nil {
		return client.VersionToken{}, false
	}
	for _, task := range tasks {
		if task.ProcessInstanceID != *draft.SubmissionID {
			continue
		}
		vars, err := o.engine.GetTaskVariables(ctx, task.TaskID)
		if err != nil {
			return client.VersionToken{}, false
		}
		if base, ok := vars[varBaseVersion]; ok {
			return client.NewVersionToken(base), true
		}
	}
	return client.VersionToken{}, false
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// appendHistory writes a history entry and logs a warning on failure
// (never returns an error).
func (o *ApprovalOrchestrator) appendHistory(ctx context.Context, entry *repository.HistoryEntry) {
	if err := o.history.Append(ctx, entry); err != nil {
		o.log.Warn().Err(err).
			Str("draft_id", entry.DraftID).
			Str("action", entry.Action).
			Msg("Failed to write approval history entry")
	}
}

func (o *ApprovalOrchestrator) observe(operation string, start time.Time) {
	if o.metrics != nil {
		o.metrics.ObserveOperation(operation, time.Since(start))
	}
}

// displayName derives the human-readable instance variable shown in
// approver task lists.
func displayName(draft *repository.Draft) string {
	if name, ok := draft.Content["name"].(string); ok && name != "" {
		return name
	}
	return draft.ID
}
