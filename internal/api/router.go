package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/codequest/internal/api/handlers"
	"github.com/felixgeelhaar/codequest/internal/api/middleware"
)

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux          *http.ServeMux
	app          *App
	auth         *handlers.AuthHandler
	courses      *handlers.CourseHandler
	exercises    *handlers.ExerciseHandler
	progress     *handlers.ProgressHandler
	gamification *handlers.GamificationHandler
	notes        *handlers.NoteHandler
	ai           *handlers.AIHandler
	content      *handlers.ContentHandler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(app *App) http.Handler {
	r := &Router{
		mux: http.NewServeMux(),
		app: app,
	}

	// Initialize handlers
	r.auth = handlers.NewAuthHandler(app.Auth, !app.Config.Debug, app.Config.SessionMaxAge)
	r.courses = handlers.NewCourseHandler(app.Courses, app.Lessons)
	r.exercises = handlers.NewExerciseHandler(app.Exercises, app.Lessons, app.Registry)
	r.progress = handlers.NewProgressHandler(app.Progress, app.Exercises, app.Gamification, app.Events)
	r.gamification = handlers.NewGamificationHandler(app.Gamification)
	r.notes = handlers.NewNoteHandler(app.Notes)
	r.ai = handlers.NewAIHandler(app.Generation, app.Lessons)
	r.content = handlers.NewContentHandler(app.Exercises, app.Lessons, app.Registry)

	r.registerRoutes()

	return r.buildMiddlewareChain(r.mux)
}

func (r *Router) registerRoutes() {
	aiLimit := middleware.AIRateLimitMiddleware(middleware.DefaultRateLimitConfig())

	// Health check
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /ready", r.handleReady)

	// Auth (no auth required)
	r.mux.HandleFunc("POST /api/v1/auth/register", r.auth.Register)
	r.mux.HandleFunc("POST /api/v1/auth/login", r.auth.Login)
	r.mux.HandleFunc("POST /api/v1/auth/logout", r.auth.Logout)
	r.mux.HandleFunc("GET /api/v1/auth/me", r.auth.Me)

	// Courses and lessons (public read, auth required for writes)
	r.mux.HandleFunc("GET /api/v1/courses", r.courses.List)
	r.mux.HandleFunc("POST /api/v1/courses", r.requireAuth(r.courses.Create))
	r.mux.HandleFunc("GET /api/v1/courses/{id}", r.courses.Get)
	r.mux.HandleFunc("PUT /api/v1/courses/{id}", r.requireAuth(r.courses.Update))
	r.mux.HandleFunc("DELETE /api/v1/courses/{id}", r.requireAuth(r.courses.Delete))
	r.mux.HandleFunc("POST /api/v1/courses/{id}/lessons", r.requireAuth(r.courses.CreateLesson))
	r.mux.HandleFunc("GET /api/v1/lessons/{id}", r.courses.GetLesson)
	r.mux.HandleFunc("PUT /api/v1/lessons/{id}", r.requireAuth(r.courses.UpdateLesson))
	r.mux.HandleFunc("DELETE /api/v1/lessons/{id}", r.requireAuth(r.courses.DeleteLesson))

	// Exercises
	r.mux.HandleFunc("GET /api/v1/lessons/{id}/exercises", r.exercises.ListByLesson)
	r.mux.HandleFunc("POST /api/v1/lessons/{id}/exercises", r.requireAuth(r.exercises.Create))
	r.mux.HandleFunc("GET /api/v1/exercises/{id}", r.exercises.Get)
	r.mux.HandleFunc("PUT /api/v1/exercises/{id}", r.requireAuth(r.exercises.Update))
	r.mux.HandleFunc("DELETE /api/v1/exercises/{id}", r.requireAuth(r.exercises.Delete))
	r.mux.HandleFunc("GET /api/v1/exercises/pending", r.requireAuth(r.exercises.ListPending))
	r.mux.HandleFunc("POST /api/v1/exercises/{id}/approve", r.requireAuth(r.exercises.Approve))

	// Progress (requires auth)
	r.mux.HandleFunc("POST /api/v1/progress/attempts", r.requireAuth(r.progress.Submit))
	r.mux.HandleFunc("GET /api/v1/progress/attempts", r.requireAuth(r.progress.Recent))
	r.mux.HandleFunc("GET /api/v1/progress/lessons/{id}", r.requireAuth(r.progress.LessonSummary))

	// Gamification (requires auth)
	r.mux.HandleFunc("GET /api/v1/gamification/me", r.requireAuth(r.gamification.Me))
	r.mux.HandleFunc("GET /api/v1/gamification/leaderboard", r.requireAuth(r.gamification.Leaderboard))

	// Notes (requires auth)
	r.mux.HandleFunc("GET /api/v1/notes", r.requireAuth(r.notes.List))
	r.mux.HandleFunc("POST /api/v1/notes", r.requireAuth(r.notes.Create))
	r.mux.HandleFunc("GET /api/v1/notes/{id}", r.requireAuth(r.notes.Get))
	r.mux.HandleFunc("PUT /api/v1/notes/{id}", r.requireAuth(r.notes.Update))
	r.mux.HandleFunc("DELETE /api/v1/notes/{id}", r.requireAuth(r.notes.Delete))
	r.mux.HandleFunc("POST /api/v1/notes/{id}/enhance", r.requireAuth(aiLimit(r.ai.EnhanceNote)))

	// AI generation (requires auth, stricter rate limit)
	r.mux.HandleFunc("POST /api/v1/ai/generate-exercises", r.requireAuth(aiLimit(r.ai.GenerateExercises)))
	r.mux.HandleFunc("POST /api/v1/ai/notes-to-exercises", r.requireAuth(aiLimit(r.ai.NotesToExercises)))
	r.mux.HandleFunc("POST /api/v1/ai/learn", r.requireAuth(aiLimit(r.ai.Learn)))
	r.mux.HandleFunc("POST /api/v1/ai/notes-quiz", r.requireAuth(aiLimit(r.ai.NotesQuiz)))

	// Bulk content import (requires auth)
	r.mux.HandleFunc("POST /api/v1/content/bulk", r.requireAuth(r.content.BulkImport))
}

func (r *Router) buildMiddlewareChain(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last applied = first executed)
	handler = middleware.Recovery(handler)
	handler = middleware.Logger(handler)

	// Skip rate limiting in debug mode for easier development
	if !r.app.Config.Debug {
		handler = middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig())(handler)
	}

	handler = middleware.RequestID(handler)
	handler = middleware.CORS(handler)

	return handler
}

// requireAuth wraps a handler with authentication
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		cookie, err := req.Cookie("session")
		if err != nil {
			Unauthorized(w, req, "authentication required")
			return
		}

		user, _, err := r.app.Auth.ValidateSession(req.Context(), cookie.Value)
		if err != nil {
			slog.Warn("invalid session",
				"error", err,
				"request_id", middleware.GetRequestID(req.Context()),
			)
			Unauthorized(w, req, "invalid or expired session")
			return
		}

		ctx := context.WithValue(req.Context(), handlers.ContextKeyUser, user)
		next(w, req.WithContext(ctx))
	}
}

// Health check handlers
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	r.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	if err := r.app.DB.Ping(req.Context()); err != nil {
		slog.Error("database health check failed",
			"error", err,
			"request_id", middleware.GetRequestID(req.Context()),
		)
		r.jsonResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": map[string]string{
				"database": "unhealthy",
			},
		})
		return
	}

	r.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Helper for JSON responses
func (r *Router) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
