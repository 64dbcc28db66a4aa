package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-plan-approvals/internal/database"
	"github.com/pesio-ai/be-plan-approvals/internal/errors"
)

// DraftRepository handles plan draft data operations. The drafts table has
// no optimistic-lock column: concurrency is managed by the orchestrator's
// version check against the golden record, not against the draft itself.
type DraftRepository struct {
	db *database.DB
}

// NewDraftRepository creates a new draft repository.
func NewDraftRepository(db *database.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

const draftColumns = `
	id, golden_record_id, plan_data, status,
	submission_id, conflict_metadata,
	published_version, review_comments,
	created_by, created_at, updated_at
`

// Create inserts a new draft in status draft.
func (r *DraftRepository) Create(ctx context.Context, draft *Draft) error {
	contentJSON, err := json.Marshal(draft.Content)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal draft content")
	}

	query := `
		INSERT INTO plan_drafts
		    (golden_record_id, plan_data, status, created_by)
		VALUES ($1, $2, 'draft'::draft_status, $3)
		RETURNING id, status, created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		draft.GoldenRecordID,
		contentJSON,
		draft.CreatedBy,
	).Scan(&draft.ID, &draft.Status, &draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create draft")
	}
	return nil
}

// GetByID retrieves a draft by its primary key.
func (r *DraftRepository) GetByID(ctx context.Context, id string) (*Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM plan_drafts WHERE id = $1`

	draft, err := r.scanDraft(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("draft", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get draft")
	}
	return draft, nil
}

// UpdateContent replaces the draft's working content. Only valid while the
// draft is editable; the status guard lives in the orchestrator.
func (r *DraftRepository) UpdateContent(ctx context.Context, id string, content map[string]any) error {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal draft content")
	}

	query := `
		UPDATE plan_drafts
		SET plan_data  = $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`
	return r.execReturningID(ctx, id, query, contentJSON)
}

// MarkSubmitted transitions the draft to submitted and records the
// workflow instance reference. Conflict metadata from a prior rejection is
// cleared: an in-flight draft carries no live conflict.
func (r *DraftRepository) MarkSubmitted(ctx context.Context, id, submissionID string) error {
	query := `
		UPDATE plan_drafts
		SET status            = 'submitted'::draft_status,
		    submission_id     = $2,
		    conflict_metadata = NULL,
		    updated_at        = NOW()
		WHERE id = $1
		RETURNING id
	`
	return r.execReturningID(ctx, id, query, submissionID)
}

// MarkApproved transitions the draft to approved, clears the submission
// reference and records the published golden-record version.
func (r *DraftRepository) MarkApproved(ctx context.Context, id, publishedVersion string) error {
	query := `
		UPDATE plan_drafts
		SET status            = 'approved'::draft_status,
		    submission_id     = NULL,
		    conflict_metadata = NULL,
		    published_version = $2,
		    updated_at        = NOW()
		WHERE id = $1
		RETURNING id
	`
	return r.execReturningID(ctx, id, query, publishedVersion)
}

// MarkRejected transitions the draft to rejected, clearing the submission
// reference. conflict is nil for plain approver rejections.
func (r *DraftRepository) MarkRejected(ctx context.Context, id string, comments *string, conflict *ConflictMetadata) error {
	var conflictJSON []byte
	if conflict != nil {
		var err error
		conflictJSON, err = json.Marshal(conflict)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal conflict metadata")
		}
	}

	query := `
		UPDATE plan_drafts
		SET status            = 'rejected'::draft_status,
		    submission_id     = NULL,
		    review_comments   = $2,
		    conflict_metadata = $3,
		    updated_at        = NOW()
		WHERE id = $1
		RETURNING id
	`
	return r.execReturningID(ctx, id, query, comments, conflictJSON)
}

// ResetToDraft returns a rejected draft to draft for resubmission. The
// prior conflict stays in the history log; the live metadata is cleared.
func (r *DraftRepository) ResetToDraft(ctx context.Context, id string) error {
	query := `
		UPDATE plan_drafts
		SET status            = 'draft'::draft_status,
		    submission_id     = NULL,
		    conflict_metadata = NULL,
		    updated_at        = NOW()
		WHERE id = $1
		RETURNING id
	`
	return r.execReturningID(ctx, id, query)
}

// SetGoldenRecordID links a draft to the golden record it created.
func (r *DraftRepository) SetGoldenRecordID(ctx context.Context, id, goldenRecordID string) error {
	query := `
		UPDATE plan_drafts
		SET golden_record_id = $2,
		    updated_at       = NOW()
		WHERE id = $1
		RETURNING id
	`
	return r.execReturningID(ctx, id, query, goldenRecordID)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (r *DraftRepository) execReturningID(ctx context.Context, id, query string, args ...any) error {
	queryArgs := append([]any{id}, args...)
	var returnedID string
	err := r.db.QueryRow(ctx, query, queryArgs...).Scan(&returnedID)
	if err == pgx.ErrNoRows {
		return errors.NotFound("draft", id)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update draft")
	}
	return nil
}

type draftScanner interface {
	Scan(dest ...any) error
}

func (r *DraftRepository) scanDraft(row draftScanner) (*Draft, error) {
	draft := &Draft{}
	var contentJSON, conflictJSON []byte

	err := row.Scan(
		&draft.ID,
		&draft.GoldenRecordID,
		&contentJSON,
		&draft.Status,
		&draft.SubmissionID,
		&conflictJSON,
		&draft.PublishedVersion,
		&draft.ReviewComments,
		&draft.CreatedBy,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(contentJSON) > 0 {
		if err := json.Unmarshal(contentJSON, &draft.Content); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal draft content")
		}
	}
	if len(conflictJSON) > 0 {
		draft.ConflictMetadata = &ConflictMetadata{}
		if err := json.Unmarshal(conflictJSON, draft.ConflictMetadata); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal conflict metadata")
		}
	}
	return draft, nil
}
