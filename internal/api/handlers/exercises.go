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

// ExerciseHandler handles exercise endpoints
type ExerciseHandler struct {
	exercises *repository.ExerciseRepository
	lessons   *repository.LessonRepository
	registry  *exercise.Registry
}

// NewExerciseHandler creates a new exercise handler
func NewExerciseHandler(exercises *repository.ExerciseRepository, lessons *repository.LessonRepository, registry *exercise.Registry) *ExerciseHandler {
	return &ExerciseHandler{exercises: exercises, lessons: lessons, registry: registry}
}

// ExerciseResponse represents an exercise in API responses
type ExerciseResponse struct {
	ID         string          `json:"id"`
	LessonID   string          `json:"lessonId"`
	Type       string          `json:"type"`
	Content    json.RawMessage `json:"content"`
	Difficulty int             `json:"difficulty"`
	XpReward   int             `json:"xpReward"`
	SortOrder  int             `json:"sortOrder"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"createdAt"`
}

func toExerciseResponse(ex *domain.Exercise) ExerciseResponse {
	return ExerciseResponse{
		ID:         ex.ID.String(),
		LessonID:   ex.LessonID.String(),
		Type:       string(ex.Type),
		Content:    ex.Content,
		Difficulty: ex.Difficulty,
		XpReward:   ex.XpReward,
		SortOrder:  ex.SortOrder,
		Status:     string(ex.Status),
		CreatedAt:  ex.CreatedAt.Format(time.RFC3339),
	}
}

// exerciseRequest is the request body for creating and updating exercises
type exerciseRequest struct {
	Type       string          `json:"type"`
	Content    json.RawMessage `json:"content"`
	Difficulty int             `json:"difficulty"`
	XpReward   int             `json:"xpReward"`
	SortOrder  int             `json:"sortOrder"`
	Status     string          `json:"status"`
}

// validationDetails converts a registry validation error into a response
// detail structure.
func validationDetails(err error) (any, bool) {
	var verr *exercise.ValidationError
	if errors.As(err, &verr) {
		fields := make([]map[string]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, map[string]string{"field": f.Field, "reason": f.Reason})
		}
		return map[string]any{"type": string(verr.ExerciseType), "fields": fields}, true
	}
	return nil, false
}

// ListByLesson lists the published exercises of a lesson
func (h *ExerciseHandler) ListByLesson(w http.ResponseWriter, r *http.Request) {
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

	response := make([]ExerciseResponse, 0, len(exercises))
	for _, ex := range exercises {
		response = append(response, toExerciseResponse(ex))
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"exercises": response,
		"total":     len(response),
	})
}

// Get returns one exercise
func (h *ExerciseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid exercise id")
		return
	}

	ex, err := h.exercises.ExerciseByID(r.Context(), id)
	if errors.Is(err, domain.ErrExerciseNotFound) {
		jsonError(w, http.StatusNotFound, "exercise not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load exercise")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"exercise": toExerciseResponse(ex)})
}

// Create adds an exercise to a lesson. Content is validated against the
// type's schema before anything is written.
func (h *ExerciseHandler) Create(w http.ResponseWriter, r *http.Request) {
	lessonID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
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

	if _, err := h.registry.Validate(domain.ExerciseType(req.Type), req.Content); err != nil {
		if details, ok := validationDetails(err); ok {
			jsonResponse(w, http.StatusBadRequest, map[string]any{
				"error":   "invalid exercise content",
				"details": details,
			})
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := domain.ExerciseStatus(req.Status)
	if req.Status == "" {
		status = domain.StatusDraft
	}
	if !status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	xp := req.XpReward
	if xp == 0 {
		xp = domain.DefaultXpReward
	}
	difficulty := req.Difficulty
	if difficulty == 0 {
		difficulty = 1
	}
	if difficulty < 1 || difficulty > 5 {
		jsonError(w, http.StatusBadRequest, "difficulty must be between 1 and 5")
		return
	}

	now := time.Now()
	ex := &domain.Exercise{
		ID:         uuid.New(),
		LessonID:   lessonID,
		Type:       domain.ExerciseType(req.Type),
		Content:    req.Content,
		Difficulty: difficulty,
		XpReward:   xp,
		SortOrder:  req.SortOrder,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.exercises.CreateExercise(r.Context(), ex); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create exercise")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"exercise": toExerciseResponse(ex)})
}

// Update replaces an exercise's fields, revalidating content
func (h *ExerciseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid exercise id")
		return
	}

	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ex, err := h.exercises.ExerciseByID(r.Context(), id)
	if errors.Is(err, domain.ErrExerciseNotFound) {
		jsonError(w, http.StatusNotFound, "exercise not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load exercise")
		return
	}

	if _, err := h.registry.Validate(domain.ExerciseType(req.Type), req.Content); err != nil {
		if details, ok := validationDetails(err); ok {
			jsonResponse(w, http.StatusBadRequest, map[string]any{
				"error":   "invalid exercise content",
				"details": details,
			})
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := domain.ExerciseStatus(req.Status)
	if req.Status == "" {
		status = ex.Status
	}
	if !status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	ex.Type = domain.ExerciseType(req.Type)
	ex.Content = req.Content
	if req.Difficulty != 0 {
		ex.Difficulty = req.Difficulty
	}
	if req.XpReward != 0 {
		ex.XpReward = req.XpReward
	}
	ex.SortOrder = req.SortOrder
	ex.Status = status
	ex.UpdatedAt = time.Now()

	if err := h.exercises.UpdateExercise(r.Context(), ex); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update exercise")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"exercise": toExerciseResponse(ex)})
}

// Delete removes an exercise
func (h *ExerciseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid exercise id")
		return
	}

	err = h.exercises.DeleteExercise(r.Context(), id)
	if errors.Is(err, domain.ErrExerciseNotFound) {
		jsonError(w, http.StatusNotFound, "exercise not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete exercise")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "exercise deleted"})
}

// ListPending lists exercises awaiting review
func (h *ExerciseHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.exercises.ListPending(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list pending exercises")
		return
	}

	response := make([]ExerciseResponse, 0, len(exercises))
	for _, ex := range exercises {
		response = append(response, toExerciseResponse(ex))
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"exercises": response,
		"total":     len(response),
	})
}

// Approve transitions a pending exercise to published
func (h *ExerciseHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid exercise id")
		return
	}

	ex, err := h.exercises.ExerciseByID(r.Context(), id)
	if errors.Is(err, domain.ErrExerciseNotFound) {
		jsonError(w, http.StatusNotFound, "exercise not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load exercise")
		return
	}

	if ex.Status != domain.StatusPendingReview {
		jsonError(w, http.StatusConflict, "exercise is not pending review")
		return
	}

	if err := h.exercises.SetStatus(r.Context(), id, domain.StatusPublished, time.Now()); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to approve exercise")
		return
	}

	ex.Status = domain.StatusPublished
	jsonResponse(w, http.StatusOK, map[string]any{"exercise": toExerciseResponse(ex)})
}
