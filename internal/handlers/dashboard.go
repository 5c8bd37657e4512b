package handlers

import (
	"net/http"

	"studytrack/internal/middleware"
	"studytrack/internal/models"
	"studytrack/internal/services"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Summary(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Charts takes view (week|month|year), date (yyyy-mm-dd) and group (study_type|course).
func (h *DashboardHandler) Charts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chart, err := h.dashboard.Charts(r.Context(), middleware.GetIdentity(r.Context()), q.Get("view"), q.Get("date"), q.Get("group"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.profiles.Update(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
