package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/gamification"
)

// Notifier publishes gamification events best effort.
type Notifier interface {
	LevelUp(ctx context.Context, userID uuid.UUID, level int)
	StreakMilestone(ctx context.Context, userID uuid.UUID, streak int)
}

// AttemptStore records attempts and answers progress queries.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt *domain.Attempt) error
	ListAttemptsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Attempt, error)
	SolvedExerciseIDs(ctx context.Context, userID, lessonID uuid.UUID) ([]uuid.UUID, error)
}

// ExerciseReader loads exercises for submissions and lesson summaries.
type ExerciseReader interface {
	ExerciseByID(ctx context.Context, id uuid.UUID) (*domain.Exercise, error)
	ListByLesson(ctx context.Context, lessonID uuid.UUID, publishedOnly bool) ([]*domain.Exercise, error)
}

// ProgressHandler handles attempt submission and progress queries
type ProgressHandler struct {
	progress     AttemptStore
	exercises    ExerciseReader
	gamification *gamification.Service
	notifier     Notifier // may be nil
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(
	progress AttemptStore,
	exercises ExerciseReader,
	gamificationService *gamification.Service,
	notifier Notifier,
) *ProgressHandler {
	return &ProgressHandler{
		progress:     progress,
		exercises:    exercises,
		gamification: gamificationService,
		notifier:     notifier,
	}
}

// streakMilestones are streak lengths worth announcing.
var streakMilestones = map[int]bool{7: true, 30: true, 100: true}

// attemptRequest is the request body for submitting an attempt
type attemptRequest struct {
	ExerciseID string          `json:"exerciseId"`
	Correct    bool            `json:"correct"`
	Answer     json.RawMessage `json:"answer"`
}

// submitResponse combines the attempt outcome with the resulting XP and
// streak state in a single object.
type submitResponse struct {
	AttemptID     string `json:"attemptId"`
	Correct       bool   `json:"correct"`
	XpEarned      int    `json:"xpEarned"`
	TotalXp       int    `json:"totalXp"`
	Level         int    `json:"level"`
	LeveledUp     bool   `json:"leveledUp"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
}

// AttemptResponse represents an attempt in API responses
type AttemptResponse struct {
	ID          string          `json:"id"`
	ExerciseID  string          `json:"exerciseId"`
	LessonID    string          `json:"lessonId"`
	Correct     bool            `json:"correct"`
	Answer      json.RawMessage `json:"answer,omitempty"`
	XpEarned    int             `json:"xpEarned"`
	AttemptedAt string          `json:"attemptedAt"`
}

func toAttemptResponse(a *domain.Attempt) AttemptResponse {
	return AttemptResponse{
		ID:          a.ID.String(),
		ExerciseID:  a.ExerciseID.String(),
		LessonID:    a.LessonID.String(),
		Correct:     a.Correct,
		Answer:      a.Answer,
		XpEarned:    a.XpEarned,
		AttemptedAt: a.AttemptedAt.Format(time.RFC3339),
	}
}

// Submit records one exercise attempt. Every correct answer earns the
// exercise's XP and advances the daily streak; wrong answers record the
// attempt only. Repeat solves earn again; the streak's same-day idempotence
// is the only farming limit.
func (h *ProgressHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exerciseID, err := uuid.Parse(req.ExerciseID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid exercise id")
		return
	}

	ex, err := h.exercises.ExerciseByID(r.Context(), exerciseID)
	if errors.Is(err, domain.ErrExerciseNotFound) {
		jsonError(w, http.StatusNotFound, "exercise not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load exercise")
		return
	}

	xpEarned := 0
	if req.Correct {
		xpEarned = ex.XpReward
		if xpEarned == 0 {
			xpEarned = domain.DefaultXpReward
		}
	}

	attempt := &domain.Attempt{
		ID:          uuid.New(),
		UserID:      user.ID,
		ExerciseID:  exerciseID,
		LessonID:    ex.LessonID,
		Correct:     req.Correct,
		Answer:      req.Answer,
		XpEarned:    xpEarned,
		AttemptedAt: time.Now(),
	}
	if err := h.progress.CreateAttempt(r.Context(), attempt); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to record attempt")
		return
	}

	response := submitResponse{
		AttemptID: attempt.ID.String(),
		Correct:   req.Correct,
		XpEarned:  xpEarned,
	}

	if req.Correct {
		xpResult, err := h.gamification.AwardXp(r.Context(), user.ID, xpEarned)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to award XP")
			return
		}
		response.TotalXp = xpResult.TotalXp
		response.Level = xpResult.Level
		response.LeveledUp = xpResult.LeveledUp
		if xpResult.LeveledUp && h.notifier != nil {
			h.notifier.LevelUp(r.Context(), user.ID, xpResult.Level)
		}

		streakResult, err := h.gamification.UpdateStreak(r.Context(), user.ID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to update streak")
			return
		}
		response.CurrentStreak = streakResult.CurrentStreak
		response.LongestStreak = streakResult.LongestStreak
		if streakMilestones[streakResult.CurrentStreak] && h.notifier != nil {
			h.notifier.StreakMilestone(r.Context(), user.ID, streakResult.CurrentStreak)
		}
	} else {
		// Wrong answers change nothing; report current state
		stats, err := h.gamification.StatsFor(r.Context(), user.ID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		response.TotalXp = stats.TotalXp
		response.Level = stats.Level
		response.CurrentStreak = stats.CurrentStreak
		response.LongestStreak = stats.LongestStreak
	}

	jsonResponse(w, http.StatusCreated, response)
}

// Recent lists the caller's recent attempts
func (h *ProgressHandler) Recent(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	attempts, err := h.progress.ListAttemptsByUser(r.Context(), user.ID, 50)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}

	response := make([]AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		response = append(response, toAttemptResponse(a))
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"attempts": response,
		"total":    len(response),
	})
}

// LessonSummary reports the caller's completion within one lesson
func (h *ProgressHandler) LessonSummary(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	lessonID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	exercises, err := h.exercises.ListByLesson(r.Context(), lessonID, true)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list exercises")
		return
	}

	solved, err := h.progress.SolvedExerciseIDs(r.Context(), user.ID, lessonID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}

	solvedSet := make(map[uuid.UUID]bool, len(solved))
	for _, id := range solved {
		solvedSet[id] = true
	}

	// Only count solves of exercises still in the lesson
	solvedCount := 0
	for _, ex := range exercises {
		if solvedSet[ex.ID] {
			solvedCount++
		}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"lessonId":  lessonID.String(),
		"total":     len(exercises),
		"solved":    solvedCount,
		"completed": len(exercises) > 0 && solvedCount == len(exercises),
	})
}
