package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studytrack/internal/handlers"
	"studytrack/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Sessions  *handlers.SessionHandler
	Courses   *handlers.CourseHandler
	Timer     *handlers.TimerHandler
	Dashboard *handlers.DashboardHandler
	Profile   *handlers.ProfileHandler
	WebSocket http.HandlerFunc
}

func New(jwtAuth *middleware.JWTAuth, authLimiter *middleware.RateLimiter, h Handlers, frontendURL string) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", h.Auth.Logout)
				r.Get("/me", h.Auth.Me)
			})
		})

		// ──── Study Sessions ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", h.Sessions.List)
			r.Post("/", h.Sessions.Create)
			r.Get("/{id}", h.Sessions.Get)
			r.Patch("/{id}", h.Sessions.Complete)
			r.Delete("/{id}", h.Sessions.Delete)
		})

		// ──── Courses & Notes ────
		r.Route("/courses", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", h.Courses.List)
			r.Post("/", h.Courses.Create)
			r.Patch("/{id}", h.Courses.Update)
			r.Delete("/{id}", h.Courses.Delete)
			r.Get("/{id}/notes", h.Courses.ListNotes)
			r.Post("/{id}/notes", h.Courses.AddNote)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Put("/{noteID}", h.Courses.UpdateNote)
			r.Delete("/{noteID}", h.Courses.DeleteNote)
		})

		// ──── Timer ────
		r.Route("/timer", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", h.Timer.State)
			r.Post("/start", h.Timer.Start)
			r.Post("/pause", h.Timer.Pause)
			r.Post("/resume", h.Timer.Resume)
			r.Post("/finish", h.Timer.Finish)
			r.Post("/reset", h.Timer.Reset)
		})

		// ──── Dashboard ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/summary", h.Dashboard.Summary)
			r.Get("/charts", h.Dashboard.Charts)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", h.Profile.Get)
			r.Patch("/", h.Profile.Update)
		})

		// ──── WebSocket ────
		if h.WebSocket != nil {
			r.Get("/ws", h.WebSocket)
		}
	})

	return r
}

// DefaultAuthLimiter allows 10 auth requests per minute per client.
func DefaultAuthLimiter() *middleware.RateLimiter {
	return middleware.NewRateLimiter(10, time.Minute)
}
