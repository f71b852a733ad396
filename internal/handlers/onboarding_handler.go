package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"familytree/internal/models"
	"familytree/internal/service"
)

// OnboardingWorkflow is the surface of the onboarding service the HTTP layer
// depends on.
type OnboardingWorkflow interface {
	CreateRequest(ctx context.Context, email, fullName, familyName, adminPassword string) (*service.CreateRequestResult, error)
	ListPending(ctx context.Context) ([]models.RequestSummary, error)
	GetByID(ctx context.Context, id string) (*models.OnboardingRequest, error)
	Approve(ctx context.Context, requestID, superadminID, adminPassword string) (*service.ApprovalResult, error)
	Reject(ctx context.Context, requestID, superadminID, reason string) (*models.RequestStatus, error)
	GetStatus(ctx context.Context, requestID string) (*models.RequestStatus, error)
}

// OnboardingHandler serves the onboarding JSON API
type OnboardingHandler struct {
	workflow OnboardingWorkflow
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(workflow OnboardingWorkflow) *OnboardingHandler {
	return &OnboardingHandler{workflow: workflow}
}

// RegisterRoutes attaches the onboarding endpoints to the mux. Review
// endpoints require a superadmin token; submission and status polling are
// public.
func (h *OnboardingHandler) RegisterRoutes(mux *http.ServeMux, middleware *Middleware) {
	mux.HandleFunc("POST /api/onboarding/requests", h.CreateRequest)
	mux.HandleFunc("GET /api/onboarding/requests/pending", middleware.RequireSuperAdmin(h.ListPending))
	mux.HandleFunc("GET /api/onboarding/requests/{id}", middleware.RequireSuperAdmin(h.GetRequest))
	mux.HandleFunc("POST /api/onboarding/requests/{id}/approve", middleware.RequireSuperAdmin(h.Approve))
	mux.HandleFunc("POST /api/onboarding/requests/{id}/reject", middleware.RequireSuperAdmin(h.Reject))
	mux.HandleFunc("GET /api/onboarding/requests/{id}/status", h.GetStatus)
}

type createRequestPayload struct {
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	FamilyName string `json:"family_name"`
	Password   string `json:"password"`
}

// CreateRequest handles POST /api/onboarding/requests
func (h *OnboardingHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.workflow.CreateRequest(r.Context(), payload.Email, payload.FullName, payload.FamilyName, payload.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

// ListPending handles GET /api/onboarding/requests/pending
func (h *OnboardingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.workflow.ListPending(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"requests": summaries})
}

// GetRequest handles GET /api/onboarding/requests/{id}. The encrypted family
// secret is never included in the response.
func (h *OnboardingHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.workflow.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, req.Summary())
}

type approvePayload struct {
	Password string `json:"password"`
}

// Approve handles POST /api/onboarding/requests/{id}/approve. The requester's
// password is needed again because the admin account is created with it.
func (h *OnboardingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var payload approvePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.workflow.Approve(r.Context(), r.PathValue("id"), SuperadminFromContext(r.Context()), payload.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

// Reject handles POST /api/onboarding/requests/{id}/reject
func (h *OnboardingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var payload rejectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Reason == "" {
		respondWithError(w, http.StatusBadRequest, "reason is required")
		return
	}

	result, err := h.workflow.Reject(r.Context(), r.PathValue("id"), SuperadminFromContext(r.Context()), payload.Reason)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetStatus handles GET /api/onboarding/requests/{id}/status
func (h *OnboardingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.workflow.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
