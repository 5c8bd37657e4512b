package handlers

import (
	"context"
	"net/http"

	"studytrack/internal/middleware"
	"studytrack/internal/models"
	"studytrack/internal/services"
	"studytrack/internal/timer"
)

type TimerHandler struct {
	timers *services.TimerService
}

func NewTimerHandler(timers *services.TimerService) *TimerHandler {
	return &TimerHandler{timers: timers}
}

func (h *TimerHandler) State(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.timers.State)
}

func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartTimerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(w, r, func(ctx context.Context, identity models.Identity) (timer.View, error) {
		return h.timers.Start(ctx, identity, req)
	})
}

func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.timers.Pause)
}

func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.timers.Resume)
}

func (h *TimerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.timers.Reset)
}

func (h *TimerHandler) Finish(w http.ResponseWriter, r *http.Request) {
	result, err := h.timers.Finish(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *TimerHandler) respond(w http.ResponseWriter, r *http.Request, op func(context.Context, models.Identity) (timer.View, error)) {
	view, err := op(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
