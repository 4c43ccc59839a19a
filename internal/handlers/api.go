// Package handlers exposes the engine over JSON HTTP endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rumor-ml/ledgerecon/internal/engine"
	"github.com/rumor-ml/ledgerecon/internal/logger"
	"github.com/rumor-ml/ledgerecon/internal/middleware"
	"github.com/rumor-ml/ledgerecon/internal/rules"
	"github.com/rumor-ml/ledgerecon/internal/statement"
	"github.com/rumor-ml/ledgerecon/internal/store"
)

// APIHandler handles reconciliation and rule requests.
type APIHandler struct {
	engine *engine.Engine
}

// NewAPIHandler creates an API handler around the engine.
func NewAPIHandler(e *engine.Engine) *APIHandler {
	return &APIHandler{engine: e}
}

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type previewRequest struct {
	RawText string `json:"rawText"`
}

// Preview handles POST /api/statements/preview.
func (h *APIHandler) Preview(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	preview, err := h.engine.Preview(r.Context(), owner, req.RawText)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

type importRequest struct {
	RawText       string `json:"rawText"`
	BillPaymentID string `json:"billPaymentId,omitempty"`
}

// Import handles POST /api/statements/import.
func (h *APIHandler) Import(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.engine.Import(r.Context(), owner, req.RawText, req.BillPaymentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, result)
}

type createRuleRequest struct {
	Pattern  string `json:"pattern"`
	Kind     string `json:"kind,omitempty"` // contains, starts_with, exact, custom
	Category string `json:"categoryId"`
	Priority int    `json:"priority"`
}

// CreateRule handles POST /api/rules.
func (h *APIHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pattern := req.Pattern
	if req.Kind != "" && req.Kind != string(rules.PatternCustom) {
		built, err := rules.BuildPattern(rules.PatternKind(req.Kind), req.Pattern)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pattern = built
	}

	result, err := h.engine.CreateRule(r.Context(), owner, pattern, req.Category, req.Priority)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, result)
}

// ListRules handles GET /api/rules.
func (h *APIHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rulesList, err := h.engine.ListRules(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rulesList)
}

// updateRuleRequest is a partial patch: nil fields keep the rule's
// current value, so a body naming only priority cannot flip isActive.
type updateRuleRequest struct {
	Pattern  *string `json:"pattern"`
	Category *string `json:"categoryId"`
	Priority *int    `json:"priority"`
	IsActive *bool   `json:"isActive"`
}

// UpdateRule handles PATCH /api/rules/{id}.
func (h *APIHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req updateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rule, err := h.engine.GetRule(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Pattern != nil {
		rule.Pattern = *req.Pattern
	}
	if req.Category != nil {
		rule.CategoryID = *req.Category
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	updated, err := h.engine.UpdateRule(r.Context(), rule)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

type reorderRequest struct {
	Rules []store.PriorityUpdate `json:"rules"`
}

// Reorder handles POST /api/rules/reorder.
func (h *APIHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rulesList, err := h.engine.Reorder(r.Context(), owner, req.Rules)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rulesList)
}

type resolveResponse struct {
	CategoryID string `json:"categoryId,omitempty"`
	Matched    bool   `json:"matched"`
}

// ResolveCategory handles GET /api/categories/resolve?description=...
// Non-import transaction-creation paths use it for auto-categorization.
func (h *APIHandler) ResolveCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetOwner(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	description := r.URL.Query().Get("description")
	categoryID, matched, err := h.engine.ResolveCategory(r.Context(), owner, description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resolveResponse{CategoryID: categoryID, Matched: matched})
}

// writeError maps the engine's error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		formatErr     *statement.FormatError
		validationErr *engine.ValidationError
		duplicateErr  *engine.DuplicateImportError
	)
	switch {
	case errors.As(err, &formatErr):
		http.Error(w, formatErr.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &duplicateErr):
		http.Error(w, duplicateErr.Error(), http.StatusConflict)
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to encode response")
	}
}
