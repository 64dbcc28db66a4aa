package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-plan-approvals/internal/client"
	"github.com/pesio-ai/be-plan-approvals/internal/errors"
	"github.com/pesio-ai/be-plan-approvals/internal/logger"
	"github.com/pesio-ai/be-plan-approvals/internal/repository"
)

// ── In-memory fakes ───────────────────────────────────────────────────────────

type fakeDraftStore struct {
	drafts map[string]*repository.Draft
}

func newFakeDraftStore(drafts ...*repository.Draft) *fakeDraftStore {
	s := &fakeDraftStore{drafts: map[string]*repository.Draft{}}
	for _, d := range drafts {
		s.drafts[d.ID] = d
	}
	return s
}

func (s *fakeDraftStore) GetByID(_ context.Context, id string) (*repository.Draft, error) {
	d, ok := s.drafts[id]
	if !ok {
		return nil, errors.NotFound("draft", id)
	}
	copy := *d
	return &copy, nil
}

func (s *fakeDraftStore) MarkSubmitted(_ context.Context, id, submissionID string) error {
	d := s.drafts[id]
	d.Status = repository.StatusSubmitted
	d.SubmissionID = &submissionID
	d.ConflictMetadata = nil
	return nil
}

func (s *fakeDraftStore) MarkApproved(_ context.Context, id, publishedVersion string) error {
	d := s.drafts[id]
	d.Status = repository.StatusApproved
	d.SubmissionID = nil
	d.ConflictMetadata = nil
	d.PublishedVersion = &publishedVersion
	return nil
}

func (s *fakeDraftStore) MarkRejected(_ context.Context, id string, comments *string, conflict *repository.ConflictMetadata) error {
	d := s.drafts[id]
	d.Status = repository.StatusRejected
	d.ReviewComments = comments
	d.ConflictMetadata = conflict
	return nil
}

func (s *fakeDraftStore) ResetToDraft(_ context.Context, id string) error {
	d := s.drafts[id]
	d.Status = repository.StatusDraft
	d.SubmissionID = nil
	d.ConflictMetadata = nil
	return nil
}

func (s *fakeDraftStore) SetGoldenRecordID(_ context.Context, id, goldenRecordID string) error {
	s.drafts[id].GoldenRecordID = &goldenRecordID
	return nil
}

type fakeHistoryStore struct {
	entries []*repository.HistoryEntry
}

func (s *fakeHistoryStore) Append(_ context.Context, entry *repository.HistoryEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeHistoryStore) GetByDraftID(_ context.Context, draftID string) ([]*repository.HistoryEntry, error) {
	var out []*repository.HistoryEntry
	for _, e := range s.entries {
		if e.DraftID == draftID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeHistoryStore) actions() []string {
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeEngine struct {
	started      []map[string]string
	completions  []map[string]string
	tasks        map[string]map[string]string
	taskInstance map[string]string
	instances    map[string]client.InstanceState
	pinned       map[string]bool
	nextID       int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		tasks:        map[string]map[string]string{},
		taskInstance: map[string]string{},
		instances:    map[string]client.InstanceState{},
		pinned:       map[string]bool{},
	}
}

func (e *fakeEngine) StartInstance(_ context.Context, _ string, variables map[string]string) (string, error) {
	e.nextID++
	id := fmt.Sprintf("instance-%d", e.nextID)
	e.started = append(e.started, variables)
	e.instances[id] = client.InstanceActive

	taskID := fmt.Sprintf("task-%d", e.nextID)
	e.tasks[taskID] = variables
	e.taskInstance[taskID] = id
	return id, nil
}

func (e *fakeEngine) ListTasks(_ context.Context, _ string) ([]client.ApprovalTask, error) {
	var out []client.ApprovalTask
	for id := range e.tasks {
		out = append(out, client.ApprovalTask{
			TaskID:            id,
			ProcessInstanceID: e.taskInstance[id],
			Name:              "Review plan change",
		})
	}
	return out, nil
}

func (e *fakeEngine) GetTaskVariables(_ context.Context, taskID string) (map[string]string, error) {
	vars, ok := e.tasks[taskID]
	if !ok {
		return nil, errors.NotFound("task", taskID)
	}
	return vars, nil
}

func (e *fakeEngine) CompleteTask(_ context.Context, taskID string, variables map[string]string) error {
	if _, ok := e.tasks[taskID]; !ok {
		return errors.NotFound("task", taskID)
	}
	e.completions = append(e.completions, variables)
	instance := e.taskInstance[taskID]
	delete(e.tasks, taskID)
	delete(e.taskInstance, taskID)

	// Single-step process unless the test pins the instance active.
	if !e.pinned[instance] && e.instances[instance] != client.InstanceUnknown {
		e.instances[instance] = client.InstanceCompleted
	}
	return nil
}

func (e *fakeEngine) InstanceState(_ context.Context, instanceID string) (client.InstanceState, error) {
	state, ok := e.instances[instanceID]
	if !ok {
		return client.InstanceCompleted, nil
	}
	if state == client.InstanceUnknown {
		return client.InstanceUnknown, errors.New(errors.ErrCodeEngineUnavailable, "probe failed")
	}
	return state, nil
}

// pinActive keeps an instance alive across task completions, simulating a
// multi-step approval chain.
func (e *fakeEngine) pinActive(instanceID string) {
	e.pinned[instanceID] = true
	e.instances[instanceID] = client.InstanceActive
}

// markUnknown makes liveness checks for an instance fail, simulating an
// engine that stops answering after the task-completion write.
func (e *fakeEngine) markUnknown(instanceID string) {
	e.instances[instanceID] = client.InstanceUnknown
}

func (e *fakeEngine) soleTaskID(t *testing.T) string {
	t.Helper()
	require.Len(t, e.tasks, 1)
	for id := range e.tasks {
		return id
	}
	return ""
}

type fakeRecordStore struct {
	records map[string]*client.GoldenRecord
	nextID  int
	nextVer int
}

func newFakeRecordStore(records ...*client.GoldenRecord) *fakeRecordStore {
	s := &fakeRecordStore{records: map[string]*client.GoldenRecord{}, nextVer: 1}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeRecordStore) Get(_ context.Context, id string) (*client.GoldenRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	copy := *r
	return &copy, nil
}

func (s *fakeRecordStore) Create(_ context.Context, content map[string]any) (*client.GoldenRecord, error) {
	s.nextID++
	s.nextVer++
	r := &client.GoldenRecord{
		ID:      fmt.Sprintf("record-%d", s.nextID),
		Content: content,
		Version: client.NewVersionToken(fmt.Sprintf("v%d", s.nextVer)),
		Status:  "active",
	}
	s.records[r.ID] = r
	return r, nil
}

func (s *fakeRecordStore) Update(_ context.Context, id string, content map[string]any) (*client.GoldenRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, errors.NotFound("golden record", id)
	}
	s.nextVer++
	r.Content = content
	r.Version = client.NewVersionToken(fmt.Sprintf("v%d", s.nextVer))
	copy := *r
	return &copy, nil
}

// bump simulates an out-of-band edit by another drafter.
func (s *fakeRecordStore) bump(id string) {
	s.nextVer++
	s.records[id].Version = client.NewVersionToken(fmt.Sprintf("v%d", s.nextVer))
}

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	drafts  *fakeDraftStore
	history *fakeHistoryStore
	engine  *fakeEngine
	records *fakeRecordStore
	orch    *ApprovalOrchestrator
}

func newFixture(drafts ...*repository.Draft) *fixture {
	f := &fixture{
		drafts:  newFakeDraftStore(drafts...),
		history: &fakeHistoryStore{},
		engine:  newFakeEngine(),
		records: newFakeRecordStore(),
	}
	f.orch = NewApprovalOrchestrator(f.drafts, f.history, f.engine, f.records, nil, nil, logger.Nop())
	return f
}

func newDraft(id string, status repository.DraftStatus) *repository.Draft {
	return &repository.Draft{
		ID:        id,
		Content:   map[string]any{"name": "Gold Plan 2027", "deductible": 500},
		Status:    status,
		CreatedBy: strPtr("drafter-1"),
		CreatedAt: time.Now().UTC(),
	}
}

func strPtr(s string) *string { return &s }

// ── Submit ────────────────────────────────────────────────────────────────────

func TestSubmitNewRecordDraft(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))

	result, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, "draft-1", result.DraftID)
	assert.Equal(t, "instance-1", result.SubmissionID)
	assert.True(t, result.BaseVersion.Equals(client.BaseVersionNew))

	require.Len(t, f.engine.started, 1)
	assert.Equal(t, "draft-1", f.engine.started[0][varDraftID])
	assert.Equal(t, "new", f.engine.started[0][varBaseVersion])
	assert.Equal(t, "user-1", f.engine.started[0][varSubmittedBy])
	assert.Equal(t, "Gold Plan 2027", f.engine.started[0][varPlanName])

	assert.Equal(t, repository.StatusSubmitted, f.drafts.drafts["draft-1"].Status)
	assert.Equal(t, []string{"submitted"}, f.history.actions())
}

func TestSubmitCapturesCurrentRecordVersion(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	f.drafts.drafts["draft-1"].GoldenRecordID = strPtr("record-9")
	f.records.records["record-9"] = &client.GoldenRecord{
		ID:      "record-9",
		Version: client.NewVersionToken("v7"),
	}

	result, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, "v7", result.BaseVersion.String())
	assert.Equal(t, "v7", f.engine.started[0][varBaseVersion])
	assert.Equal(t, "record-9", f.engine.started[0][varGoldenRecordID])
}

func TestSubmitTwiceFailsWithoutSecondInstance(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))

	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	_, err = f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadySubmitted))
	assert.Len(t, f.engine.started, 1)
}

func TestSubmitUnknownDraft(t *testing.T) {
	f := newFixture()

	_, err := f.orch.Submit(context.Background(), "missing", "user-1")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

// ── Approval and publication ──────────────────────────────────────────────────

func TestFinalApprovalCreatesGoldenRecord(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	result, err := f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), true, "looks good", "approver-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeApproved, result.Outcome)
	require.NotEmpty(t, result.GoldenRecordID)

	record := f.records.records[result.GoldenRecordID]
	require.NotNil(t, record)
	assert.Equal(t, "Gold Plan 2027", record.Content["name"])
	assert.True(t, record.Version.Equals(result.PublishedVersion))

	draft := f.drafts.drafts["draft-1"]
	assert.Equal(t, repository.StatusApproved, draft.Status)
	require.NotNil(t, draft.GoldenRecordID)
	assert.Equal(t, result.GoldenRecordID, *draft.GoldenRecordID)
	assert.Equal(t, []string{"submitted", "approved"}, f.history.actions())
}

func TestFinalApprovalUpdatesExistingRecord(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	f.drafts.drafts["draft-1"].GoldenRecordID = strPtr("record-9")
	f.records.records["record-9"] = &client.GoldenRecord{
		ID:      "record-9",
		Content: map[string]any{"name": "Gold Plan 2026"},
		Version: client.NewVersionToken("v7"),
	}

	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	result, err := f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), true, "", "approver-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeApproved, result.Outcome)
	assert.Equal(t, "record-9", result.GoldenRecordID)
	assert.Equal(t, "Gold Plan 2027", f.records.records["record-9"].Content["name"])
	assert.False(t, result.PublishedVersion.Equals(client.NewVersionToken("v7")))
}

func TestIntermediateApprovalLeavesDraftSubmitted(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	sub, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)
	f.engine.pinActive(sub.SubmissionID)

	result, err := f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), true, "", "approver-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeTaskCompleted, result.Outcome)
	assert.Equal(t, repository.StatusSubmitted, f.drafts.drafts["draft-1"].Status)
	assert.Equal(t, []string{"submitted", "task_completed"}, f.history.actions())
	assert.Empty(t, f.records.records)
}

func TestUnknownLivenessDefersPublish(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	sub, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)
	f.engine.markUnknown(sub.SubmissionID)

	result, err := f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), true, "", "approver-1")
	require.NoError(t, err)

	// The approval is recorded but nothing is published while the
	// instance's fate is unknown; a later call observes the final state.
	assert.Equal(t, OutcomeTaskCompleted, result.Outcome)
	assert.Equal(t, repository.StatusSubmitted, f.drafts.drafts["draft-1"].Status)
	assert.Empty(t, f.records.records)
	assert.Equal(t, []string{"submitted", "task_completed"}, f.history.actions())
}

func TestRejectionMarksDraftRejected(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	result, err := f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), false, "deductible too low", "approver-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejected, result.Outcome)
	draft := f.drafts.drafts["draft-1"]
	assert.Equal(t, repository.StatusRejected, draft.Status)
	require.NotNil(t, draft.ReviewComments)
	assert.Equal(t, "deductible too low", *draft.ReviewComments)
	assert.Nil(t, draft.ConflictMetadata)
	assert.Empty(t, f.records.records)
}

func TestCompleteUnknownTaskIsNoOp(t *testing.T) {
	f := newFixture()

	result, err := f.orch.CompleteTask(context.Background(), "gone", true, "", "approver-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadyCompleted, result.Outcome)
	assert.Empty(t, f.engine.completions)
	assert.Empty(t, f.history.entries)
}

// ── Conflict detection ────────────────────────────────────────────────────────

func TestApprovalVoidedByVersionMismatch(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	f.drafts.drafts["draft-1"].GoldenRecordID = strPtr("record-9")
	f.records.records["record-9"] = &client.GoldenRecord{
		ID:      "record-9",
		Version: client.NewVersionToken("v1"),
	}

	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	// Out-of-band edit between submission and approval.
	f.records.bump("record-9")
	current := f.records.records["record-9"].Version

	result, err := f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), true, "", "approver-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeVersionConflict, result.Outcome)
	require.NotNil(t, result.Conflict)
	assert.Equal(t, repository.ConflictVersionMismatch, result.Conflict.Type)
	assert.Equal(t, "v1", result.Conflict.BaseVersion.String())
	assert.True(t, result.Conflict.CurrentVersion.Equals(current))

	// The approval never reached the golden record.
	assert.True(t, f.records.records["record-9"].Version.Equals(current))

	draft := f.drafts.drafts["draft-1"]
	assert.Equal(t, repository.StatusRejected, draft.Status)
	require.NotNil(t, draft.ConflictMetadata)
	assert.Equal(t, repository.ConflictVersionMismatch, draft.ConflictMetadata.Type)
	assert.Equal(t, "v1", draft.ConflictMetadata.BaseVersion)

	// The workflow step is closed out with the conflict marker.
	require.Len(t, f.engine.completions, 1)
	assert.Equal(t, "false", f.engine.completions[0][varApproved])
	assert.Equal(t, "VERSION_MISMATCH", f.engine.completions[0][varConflictType])
}

func TestApprovalVoidedByDeletedRecord(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	f.drafts.drafts["draft-1"].GoldenRecordID = strPtr("record-9")
	f.records.records["record-9"] = &client.GoldenRecord{
		ID:      "record-9",
		Version: client.NewVersionToken("v1"),
	}

	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	delete(f.records.records, "record-9")

	result, err := f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), true, "", "approver-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeVersionConflict, result.Outcome)
	require.NotNil(t, result.Conflict)
	assert.Equal(t, repository.ConflictDeleted, result.Conflict.Type)
	assert.Equal(t, repository.StatusRejected, f.drafts.drafts["draft-1"].Status)
}

func TestCheckVersionConflict(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	f.drafts.drafts["draft-1"].GoldenRecordID = strPtr("record-9")
	f.records.records["record-9"] = &client.GoldenRecord{
		ID:      "record-9",
		Version: client.NewVersionToken("v1"),
	}

	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	check, err := f.orch.CheckVersionConflict(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.False(t, check.InConflict)

	f.records.bump("record-9")

	check, err = f.orch.CheckVersionConflict(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.True(t, check.InConflict)
	require.NotNil(t, check.Conflict)
	assert.Equal(t, repository.ConflictVersionMismatch, check.Conflict.Type)
	assert.Equal(t, "v1", check.Conflict.BaseVersion.String())
}

func TestCheckVersionConflictNewRecordDraft(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))

	check, err := f.orch.CheckVersionConflict(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.False(t, check.InConflict)
}

// ── Resubmission ──────────────────────────────────────────────────────────────

func TestResubmitCapturesNewBaseVersion(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	f.drafts.drafts["draft-1"].GoldenRecordID = strPtr("record-9")
	f.records.records["record-9"] = &client.GoldenRecord{
		ID:      "record-9",
		Version: client.NewVersionToken("v1"),
	}

	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)
	f.records.bump("record-9")
	current := f.records.records["record-9"].Version

	_, err = f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), true, "", "approver-1")
	require.NoError(t, err)
	require.Equal(t, repository.StatusRejected, f.drafts.drafts["draft-1"].Status)

	result, err := f.orch.ResubmitWithUpdatedVersion(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	assert.True(t, result.BaseVersion.Equals(current))
	assert.Equal(t, repository.StatusSubmitted, f.drafts.drafts["draft-1"].Status)
	assert.Nil(t, f.drafts.drafts["draft-1"].ConflictMetadata)
	assert.Equal(t, []string{"submitted", "conflict_detected", "resubmitted", "submitted"}, f.history.actions())
}

func TestDirectSubmitAfterConflictClearsMetadata(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	f.drafts.drafts["draft-1"].GoldenRecordID = strPtr("record-9")
	f.records.records["record-9"] = &client.GoldenRecord{
		ID:      "record-9",
		Version: client.NewVersionToken("v1"),
	}

	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)
	f.records.bump("record-9")

	_, err = f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), true, "", "approver-1")
	require.NoError(t, err)
	require.NotNil(t, f.drafts.drafts["draft-1"].ConflictMetadata)

	// A plain re-submission of the rejected draft must not carry the old
	// conflict into the new submission.
	_, err = f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, repository.StatusSubmitted, f.drafts.drafts["draft-1"].Status)
	assert.Nil(t, f.drafts.drafts["draft-1"].ConflictMetadata)

	status, err := f.orch.GetApprovalStatus(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.Nil(t, status.Conflict)
}

func TestResubmitRequiresConflictRejection(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	// Plain rejection, no conflict metadata.
	_, err = f.orch.CompleteTask(context.Background(), f.engine.soleTaskID(t), false, "no", "approver-1")
	require.NoError(t, err)

	_, err = f.orch.ResubmitWithUpdatedVersion(context.Background(), "draft-1", "user-1")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConflict))
}

// ── Queries ───────────────────────────────────────────────────────────────────

func TestGetPendingTasksFiltersStaleDrafts(t *testing.T) {
	f := newFixture(
		newDraft("draft-1", repository.StatusDraft),
		newDraft("draft-2", repository.StatusDraft),
	)
	_, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)
	_, err = f.orch.Submit(context.Background(), "draft-2", "user-1")
	require.NoError(t, err)

	// draft-2 resolved out of band.
	f.drafts.drafts["draft-2"].Status = repository.StatusRejected

	tasks, err := f.orch.GetPendingTasks(context.Background(), "approver-1")
	require.NoError(t, err)

	require.Len(t, tasks, 1)
	assert.Equal(t, "draft-1", tasks[0].Variables[varDraftID])
	assert.Equal(t, "new", tasks[0].Variables[varBaseVersion])
}

func TestGetApprovalStatus(t *testing.T) {
	f := newFixture(newDraft("draft-1", repository.StatusDraft))
	sub, err := f.orch.Submit(context.Background(), "draft-1", "user-1")
	require.NoError(t, err)

	status, err := f.orch.GetApprovalStatus(context.Background(), "draft-1")
	require.NoError(t, err)

	assert.Equal(t, repository.StatusSubmitted, status.Status)
	require.NotNil(t, status.SubmissionID)
	assert.Equal(t, sub.SubmissionID, *status.SubmissionID)
	assert.Nil(t, status.Conflict)
	require.Len(t, status.History, 1)
	assert.Equal(t, "submitted", status.History[0].Action)
}
