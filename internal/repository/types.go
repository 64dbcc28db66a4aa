package repository

import "time"

// ── Domain types for plan drafts and approval history ─────────────────────────

// DraftStatus is the draft lifecycle state.
type DraftStatus string

const (
	// StatusDraft means the draft is editable and not yet submitted.
	StatusDraft DraftStatus = "draft"
	// StatusSubmitted means an approval workflow instance is in flight.
	StatusSubmitted DraftStatus = "submitted"
	// StatusApproved means the draft's content was published to the
	// golden record store. Terminal.
	StatusApproved DraftStatus = "approved"
	// StatusRejected means an approver rejected the draft or a version
	// conflict voided the approval. Re-enterable via resubmission.
	StatusRejected DraftStatus = "rejected"
)

// ConflictType classifies a detected version conflict.
type ConflictType string

const (
	// ConflictVersionMismatch means the golden record changed after the
	// draft was submitted.
	ConflictVersionMismatch ConflictType = "VERSION_MISMATCH"
	// ConflictDeleted means the golden record no longer exists.
	ConflictDeleted ConflictType = "DELETED"
)

// ConflictMetadata records why an approval was voided. Populated only on
// conflict-caused rejections. Version tokens are stored as raw strings for
// audit display; they are never compared here.
type ConflictMetadata struct {
	Type           ConflictType `json:"type"`
	BaseVersion    string       `json:"base_version"`
	CurrentVersion string       `json:"current_version,omitempty"`
	DetectedAt     time.Time    `json:"detected_at"`
}

// Draft is an in-progress plan edit. GoldenRecordID is nil for drafts that
// create a new record; SubmissionID is set only while status is submitted.
type Draft struct {
	ID               string
	GoldenRecordID   *string
	Content          map[string]any
	Status           DraftStatus
	SubmissionID     *string
	ConflictMetadata *ConflictMetadata
	PublishedVersion *string
	ReviewComments   *string
	CreatedBy        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HistoryEntry is one immutable record in the approval history log.
type HistoryEntry struct {
	ID           string
	DraftID      string
	SubmissionID *string
	Action       string // submitted | task_completed | approved | rejected | conflict_detected | resubmitted
	PerformedBy  string
	PerformedAt  time.Time
	Metadata     map[string]any
}
