package handlers

import (
	"net/http"

	"studytrack/internal/middleware"
	"studytrack/internal/models"
	"studytrack/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List supports course_id, study_type, start_date and end_date filters.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessions, err := h.sessions.List(r.Context(), middleware.GetIdentity(r.Context()),
		q.Get("course_id"), q.Get("study_type"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	session, err := h.sessions.Get(r.Context(), middleware.GetIdentity(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.sessions.Create(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req models.CompleteSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.sessions.Complete(r.Context(), middleware.GetIdentity(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.sessions.Delete(r.Context(), middleware.GetIdentity(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
