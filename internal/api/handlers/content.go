package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/exercise"
	"github.com/felixgeelhaar/codequest/internal/repository"
)

// ContentHandler handles bulk content import
type ContentHandler struct {
	exercises *repository.ExerciseRepository
	lessons   *repository.LessonRepository
	registry  *exercise.Registry
}

// NewContentHandler creates a new content handler
func NewContentHandler(exercises *repository.ExerciseRepository, lessons *repository.LessonRepository, registry *exercise.Registry) *ContentHandler {
	return &ContentHandler{exercises: exercises, lessons: lessons, registry: registry}
}

// bulkRequest is the request body for bulk import
type bulkRequest struct {
	LessonID  string         `json:"lessonId"`
	Exercises []bulkExercise `json:"exercises"`
}

type bulkExercise struct {
	Type       string          `json:"type"`
	Content    json.RawMessage `json:"content"`
	Difficulty int             `json:"difficulty"`
	XpReward   int             `json:"xpReward"`
	SortOrder  int             `json:"sortOrder"`
}

// bulkItemResult reports the outcome for one submitted exercise
type bulkItemResult struct {
	Index      int    `json:"index"`
	Status     string `json:"status"` // created, rejected
	ExerciseID string `json:"exerciseId,omitempty"`
	Error      string `json:"error,omitempty"`
	Details    any    `json:"details,omitempty"`
}

// BulkImport inserts a batch of exercises into a lesson. Every item is
// validated; valid items are inserted even when others fail. The status code
// reflects the outcome: 201 all created, 207 partial, 400 none created.
func (h *ContentHandler) BulkImport(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Exercises) == 0 {
		jsonError(w, http.StatusBadRequest, "exercises is required")
		return
	}

	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}
	if _, err := h.lessons.LessonByID(r.Context(), lessonID); err != nil {
		if errors.Is(err, domain.ErrLessonNotFound) {
			jsonError(w, http.StatusNotFound, "lesson not found")
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to load lesson")
		return
	}

	now := time.Now()
	results := make([]bulkItemResult, 0, len(req.Exercises))
	created := 0

	for i, item := range req.Exercises {
		if _, err := h.registry.Validate(domain.ExerciseType(item.Type), item.Content); err != nil {
			result := bulkItemResult{Index: i, Status: "rejected", Error: err.Error()}
			if details, ok := validationDetails(err); ok {
				result.Error = "invalid exercise content"
				result.Details = details
			}
			results = append(results, result)
			continue
		}

		xp := item.XpReward
		if xp == 0 {
			xp = domain.DefaultXpReward
		}
		difficulty := item.Difficulty
		if difficulty == 0 {
			difficulty = 1
		}

		ex := &domain.Exercise{
			ID:         uuid.New(),
			LessonID:   lessonID,
			Type:       domain.ExerciseType(item.Type),
			Content:    item.Content,
			Difficulty: difficulty,
			XpReward:   xp,
			SortOrder:  item.SortOrder,
			Status:     domain.StatusPublished,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := h.exercises.CreateExercise(r.Context(), ex); err != nil {
			results = append(results, bulkItemResult{Index: i, Status: "rejected", Error: "failed to persist"})
			continue
		}

		results = append(results, bulkItemResult{Index: i, Status: "created", ExerciseID: ex.ID.String()})
		created++
	}

	status := http.StatusCreated
	switch {
	case created == 0:
		status = http.StatusBadRequest
	case created < len(req.Exercises):
		status = http.StatusMultiStatus
	}

	jsonResponse(w, status, map[string]any{
		"created":  created,
		"rejected": len(req.Exercises) - created,
		"results":  results,
	})
}
