package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-plan-approvals/internal/database"
	"github.com/pesio-ai/be-plan-approvals/internal/errors"
)

// HistoryRepository appends and reads immutable approval history entries.
type HistoryRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts one history entry. The table has a delete-prevention
// trigger so this is the only mutation operation exposed.
func (r *HistoryRepository) Append(ctx context.Context, entry *HistoryEntry) error {
	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal history metadata")
		}
	}

	query := `
		INSERT INTO plan_approval_history
		    (draft_id, submission_id, action, performed_by, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, performed_at
	`

	return r.db.QueryRow(ctx, query,
		entry.DraftID,
		entry.SubmissionID,
		entry.Action,
		entry.PerformedBy,
		metadataJSON,
	).Scan(&entry.ID, &entry.PerformedAt)
}

// GetByDraftID returns the full approval history for a draft ordered
// oldest-first.
func (r *HistoryRepository) GetByDraftID(ctx context.Context, draftID string) ([]*HistoryEntry, error) {
	query := `
		SELECT id, draft_id, submission_id, action, performed_by, performed_at, metadata
		FROM plan_approval_history
		WHERE draft_id = $1
		ORDER BY performed_at ASC
	`

	rows, err := r.db.Query(ctx, query, draftID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get approval history")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

func (r *HistoryRepository) scanRows(rows pgx.Rows) ([]*HistoryEntry, error) {
	var entries []*HistoryEntry
	for rows.Next() {
		entry := &HistoryEntry{}
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.DraftID,
			&entry.SubmissionID,
			&entry.Action,
			&entry.PerformedBy,
			&entry.PerformedAt,
			&metadataJSON,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan history entry")
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal history metadata")
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
