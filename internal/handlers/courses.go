package handlers

import (
	"net/http"

	"studytrack/internal/middleware"
	"studytrack/internal/models"
	"studytrack/internal/services"
)

type CourseHandler struct {
	courses *services.CourseService
}

func NewCourseHandler(courses *services.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	course, err := h.courses.Create(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req models.CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	course, err := h.courses.Update(r.Context(), middleware.GetIdentity(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.courses.Delete(r.Context(), middleware.GetIdentity(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CourseHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	courseID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	notes, err := h.courses.ListNotes(r.Context(), middleware.GetIdentity(r.Context()), courseID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

func (h *CourseHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	courseID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req models.NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.courses.AddNote(r.Context(), middleware.GetIdentity(r.Context()), courseID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *CourseHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := uuidParam(w, r, "noteID")
	if !ok {
		return
	}
	var req models.NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.courses.UpdateNote(r.Context(), middleware.GetIdentity(r.Context()), noteID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *CourseHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := uuidParam(w, r, "noteID")
	if !ok {
		return
	}
	if err := h.courses.DeleteNote(r.Context(), middleware.GetIdentity(r.Context()), noteID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
