package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/generation"
	"github.com/felixgeelhaar/codequest/internal/repository"
)

// AIHandler handles the generation endpoints
type AIHandler struct {
	generation *generation.Service
	lessons    *repository.LessonRepository
}

// NewAIHandler creates a new AI handler
func NewAIHandler(generationService *generation.Service, lessons *repository.LessonRepository) *AIHandler {
	return &AIHandler{generation: generationService, lessons: lessons}
}

// generateRequest is the request body for text-based generation
type generateRequest struct {
	Text     string `json:"text"`
	LessonID string `json:"lessonId"`
}

// noteGenerateRequest is the request body for note-based generation
type noteGenerateRequest struct {
	NoteID   string `json:"noteId"`
	LessonID string `json:"lessonId"`
}

// learnRequest is the request body for topic lessons
type learnRequest struct {
	Topic string `json:"topic"`
}

// quizRequest is the request body for multi-note quizzes
type quizRequest struct {
	NoteIDs []string `json:"noteIds"`
}

func idsResponse(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// writeGenerationError maps pipeline errors onto HTTP statuses.
func writeGenerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoteNotFound):
		jsonError(w, http.StatusNotFound, "note not found")
	case errors.Is(err, generation.ErrNoLinkedLesson):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, generation.ErrGenerationFailed):
		jsonError(w, http.StatusBadGateway, "AI generation failed, please try again")
	default:
		jsonError(w, http.StatusInternalServerError, "generation failed")
	}
}

// GenerateExercises generates exercises from freeform text into an existing
// lesson. The results land as pending_review.
func (h *AIHandler) GenerateExercises(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		jsonError(w, http.StatusBadRequest, "text is required")
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

	result, err := h.generation.GenerateFromText(r.Context(), req.Text, lessonID)
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"exerciseIds": idsResponse(result.ExerciseIDs),
		"generated":   len(result.ExerciseIDs),
		"rejected":    result.Rejected,
		"status":      string(domain.StatusPendingReview),
	})
}

// NotesToExercises generates review exercises from one of the caller's notes
func (h *AIHandler) NotesToExercises(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	var req noteGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	noteID, err := uuid.Parse(req.NoteID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid note id")
		return
	}
	lessonID := uuid.Nil
	if req.LessonID != "" {
		lessonID, err = uuid.Parse(req.LessonID)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid lesson id")
			return
		}
	}

	result, err := h.generation.GenerateFromNote(r.Context(), user.ID, noteID, lessonID)
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"exerciseIds": idsResponse(result.ExerciseIDs),
		"generated":   len(result.ExerciseIDs),
		"rejected":    result.Rejected,
	})
}

// Learn creates a topic lesson filled with generated exercises
func (h *AIHandler) Learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Topic == "" {
		jsonError(w, http.StatusBadRequest, "topic is required")
		return
	}

	result, err := h.generation.LearnTopic(r.Context(), req.Topic)
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"lessonId":      result.LessonID.String(),
		"courseId":      result.CourseID.String(),
		"exerciseCount": result.ExerciseCount,
		"rejected":      result.Rejected,
	})
}

// NotesQuiz synthesizes a review quiz from up to five of the caller's notes
func (h *AIHandler) NotesQuiz(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NoteIDs) == 0 {
		jsonError(w, http.StatusBadRequest, "noteIds is required")
		return
	}

	noteIDs := make([]uuid.UUID, 0, len(req.NoteIDs))
	for _, raw := range req.NoteIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid note id")
			return
		}
		noteIDs = append(noteIDs, id)
	}

	result, err := h.generation.QuizFromNotes(r.Context(), user.ID, noteIDs)
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"lessonId":      result.LessonID.String(),
		"courseId":      result.CourseID.String(),
		"exerciseCount": result.ExerciseCount,
		"rejected":      result.Rejected,
	})
}

// EnhanceNote expands one of the caller's notes. The expansion is cached;
// repeat calls return the stored version without a new model call.
func (h *AIHandler) EnhanceNote(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	noteID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	enhanced, err := h.generation.EnhanceNote(r.Context(), user.ID, noteID)
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{
		"enhancedContent": enhanced,
	})
}
