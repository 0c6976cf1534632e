package handlers

import (
	"context"
	"net/http"

	"github.com/tripsync/portal/internal/application/services"
	"github.com/tripsync/portal/internal/domain/entities"
)

// DashboardHandler serves the per-role dashboards and their actions
type DashboardHandler struct {
	traveler *services.TravelerService
	agent    *services.AgentService
	admin    *services.AdminService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(traveler *services.TravelerService, agent *services.AgentService, admin *services.AdminService) *DashboardHandler {
	return &DashboardHandler{traveler: traveler, agent: agent, admin: admin}
}

// Traveler handles GET /user/dashboard
func (h *DashboardHandler) Traveler(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	board, err := h.traveler.Dashboard(r.Context(), sess)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, board)
}

// Agent handles GET /agent/dashboard
func (h *DashboardHandler) Agent(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	board, err := h.agent.Dashboard(r.Context(), sess)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, board)
}

// SubmitPackage handles POST /agent/packages
func (h *DashboardHandler) SubmitPackage(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	var draft entities.PackageDraft
	if err := decodeJSON(r, &draft); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	pkg, msg, err := h.agent.Submit(r.Context(), sess, draft)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"package": pkg,
		"message": msg,
	})
}

// UpdatePackage handles PUT /agent/packages/{id}
func (h *DashboardHandler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	var draft entities.PackageDraft
	if err := decodeJSON(r, &draft); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	pkg, msg, err := h.agent.Update(r.Context(), sess, r.PathValue("id"), draft)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"package": pkg,
		"message": msg,
	})
}

// DeletePackage handles DELETE /agent/packages/{id}
func (h *DashboardHandler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	msg, err := h.agent.Delete(r.Context(), sess, r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Admin handles GET /admin/dashboard
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, h.admin.Board(r.Context(), sess))
}

// Approve handles POST /admin/packages/{id}/approve
func (h *DashboardHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.admin.Approve)
}

// Reject handles POST /admin/packages/{id}/reject
func (h *DashboardHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.admin.Reject)
}

func (h *DashboardHandler) review(w http.ResponseWriter, r *http.Request, decide func(context.Context, *services.Session, string) (*services.ReviewResult, error)) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	res, err := decide(r.Context(), sess, r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
