package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pesio-ai/be-plan-approvals/internal/decision"
	"github.com/pesio-ai/be-plan-approvals/internal/errors"
	"github.com/pesio-ai/be-plan-approvals/internal/logger"
	"github.com/pesio-ai/be-plan-approvals/internal/service"
)

// HTTPHandler exposes the approval orchestrator and the rule compiler
// over a thin JSON surface.
type HTTPHandler struct {
	orchestrator *service.ApprovalOrchestrator
	log          *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(orchestrator *service.ApprovalOrchestrator, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		orchestrator: orchestrator,
		log:          log,
	}
}

// Register mounts all routes on the given mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/drafts/submit", h.SubmitDraft)
	mux.HandleFunc("/api/v1/drafts/status", h.GetApprovalStatus)
	mux.HandleFunc("/api/v1/drafts/conflict", h.CheckVersionConflict)
	mux.HandleFunc("/api/v1/drafts/resubmit", h.ResubmitDraft)
	mux.HandleFunc("/api/v1/tasks", h.ListPendingTasks)
	mux.HandleFunc("/api/v1/tasks/complete", h.CompleteTask)
	mux.HandleFunc("/api/v1/rules/compile", h.CompileRule)
	mux.HandleFunc("/health", h.Health)
}

type submitRequest struct {
	DraftID string `json:"draftId"`
	UserID  string `json:"userId"`
}

// SubmitDraft starts an approval workflow for a draft.
func (h *HTTPHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidInput("body", "invalid request body"))
		return
	}
	if req.DraftID == "" {
		h.writeError(w, errors.InvalidInput("draftId", "draftId is required"))
		return
	}

	result, err := h.orchestrator.Submit(r.Context(), req.DraftID, req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, result)
}

// GetApprovalStatus returns a draft's live status and approval history.
func (h *HTTPHandler) GetApprovalStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	draftID := r.URL.Query().Get("draft_id")
	if draftID == "" {
		h.writeError(w, errors.InvalidInput("draft_id", "draft_id is required"))
		return
	}

	status, err := h.orchestrator.GetApprovalStatus(r.Context(), draftID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

// CheckVersionConflict runs the read-only conflict probe for a draft.
func (h *HTTPHandler) CheckVersionConflict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	draftID := r.URL.Query().Get("draft_id")
	if draftID == "" {
		h.writeError(w, errors.InvalidInput("draft_id", "draft_id is required"))
		return
	}

	check, err := h.orchestrator.CheckVersionConflict(r.Context(), draftID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, check)
}

// ResubmitDraft restarts approval for a draft rejected by a version conflict.
func (h *HTTPHandler) ResubmitDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidInput("body", "invalid request body"))
		return
	}
	if req.DraftID == "" {
		h.writeError(w, errors.InvalidInput("draftId", "draftId is required"))
		return
	}

	result, err := h.orchestrator.ResubmitWithUpdatedVersion(r.Context(), req.DraftID, req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, result)
}

// ListPendingTasks returns the approval tasks awaiting a user.
func (h *HTTPHandler) ListPendingTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, errors.InvalidInput("user_id", "user_id is required"))
		return
	}

	tasks, err := h.orchestrator.GetPendingTasks(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

type completeTaskRequest struct {
	TaskID   string `json:"taskId"`
	Approved bool   `json:"approved"`
	Comments string `json:"comments"`
	UserID   string `json:"userId"`
}

// CompleteTask records one approver's decision on a task.
func (h *HTTPHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidInput("body", "invalid request body"))
		return
	}
	if req.TaskID == "" {
		h.writeError(w, errors.InvalidInput("taskId", "taskId is required"))
		return
	}

	result, err := h.orchestrator.CompleteTask(r.Context(), req.TaskID, req.Approved, req.Comments, req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Conflicts are business outcomes; they travel as 200 payloads with
	// the outcome tag, never as error statuses.
	h.writeJSON(w, http.StatusOK, result)
}

type compileRuleRequest struct {
	Rule decision.RuleDescription `json:"rule"`
	Name string                   `json:"name"`
}

type compileRuleResponse struct {
	Document   *decision.Document        `json:"document"`
	Validation decision.ValidationResult `json:"validation"`
}

// CompileRule compiles a rule description into a decision document and
// returns it together with its validation result.
func (h *HTTPHandler) CompileRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req compileRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidInput("body", "invalid request body"))
		return
	}

	doc, err := decision.Compile(req.Rule, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Fails closed: an invalid document never leaves this endpoint.
	validation := decision.Validate(doc)
	if err := validation.Err(); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, compileRuleResponse{
		Document:   doc,
		Validation: validation,
	})
}

// Health is the liveness probe.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn().Err(err).Msg("Failed to encode response body")
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	code := errors.Code(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("code", string(code)).Msg("Request failed")
	}
	h.writeJSON(w, status, errorResponse{Code: string(code), Message: err.Error()})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRule, errors.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict, errors.ErrCodeAlreadySubmitted:
		return http.StatusConflict
	case errors.ErrCodeEngineUnavailable, errors.ErrCodeStoreUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
