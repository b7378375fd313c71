package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/repository"
)

// CourseHandler handles course and lesson endpoints
type CourseHandler struct {
	courses *repository.CourseRepository
	lessons *repository.LessonRepository
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courses *repository.CourseRepository, lessons *repository.LessonRepository) *CourseHandler {
	return &CourseHandler{courses: courses, lessons: lessons}
}

// CourseResponse represents a course in API responses
type CourseResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	SortOrder   int    `json:"sortOrder"`
	Published   bool   `json:"published"`
	CreatedAt   string `json:"createdAt"`
}

// LessonResponse represents a lesson in API responses
type LessonResponse struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
	XpReward    int    `json:"xpReward"`
	Published   bool   `json:"published"`
	CreatedAt   string `json:"createdAt"`
}

func toCourseResponse(c *domain.Course) CourseResponse {
	return CourseResponse{
		ID:          c.ID.String(),
		Title:       c.Title,
		Description: c.Description,
		Difficulty:  string(c.Difficulty),
		Icon:        c.Icon,
		Color:       c.Color,
		SortOrder:   c.SortOrder,
		Published:   c.Published,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func toLessonResponse(l *domain.Lesson) LessonResponse {
	return LessonResponse{
		ID:          l.ID.String(),
		CourseID:    l.CourseID.String(),
		Title:       l.Title,
		Description: l.Description,
		SortOrder:   l.SortOrder,
		XpReward:    l.XpReward,
		Published:   l.Published,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
}

// courseRequest is the request body for creating and updating courses
type courseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	SortOrder   int    `json:"sortOrder"`
	Published   bool   `json:"published"`
}

// lessonRequest is the request body for creating and updating lessons
type lessonRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
	XpReward    int    `json:"xpReward"`
	Published   bool   `json:"published"`
}

// List returns all published courses
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	publishedOnly := r.URL.Query().Get("all") != "true"
	courses, err := h.courses.ListCourses(r.Context(), publishedOnly)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}

	response := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		response = append(response, toCourseResponse(c))
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"courses": response,
		"total":   len(response),
	})
}

// Get returns one course with its lessons
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	course, err := h.courses.CourseByID(r.Context(), id)
	if errors.Is(err, domain.ErrCourseNotFound) {
		jsonError(w, http.StatusNotFound, "course not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load course")
		return
	}

	lessons, err := h.lessons.ListLessonsByCourse(r.Context(), id, true)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load lessons")
		return
	}

	lessonResponses := make([]LessonResponse, 0, len(lessons))
	for _, l := range lessons {
		lessonResponses = append(lessonResponses, toLessonResponse(l))
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"course":  toCourseResponse(course),
		"lessons": lessonResponses,
	})
}

// Create creates a new course
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !domain.Difficulty(req.Difficulty).Valid() {
		jsonError(w, http.StatusBadRequest, "difficulty must be beginner, intermediate or advanced")
		return
	}

	now := time.Now()
	course := &domain.Course{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  domain.Difficulty(req.Difficulty),
		Icon:        req.Icon,
		Color:       req.Color,
		SortOrder:   req.SortOrder,
		Published:   req.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.courses.CreateCourse(r.Context(), course); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create course")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"course": toCourseResponse(course)})
}

// Update replaces a course's fields
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !domain.Difficulty(req.Difficulty).Valid() {
		jsonError(w, http.StatusBadRequest, "difficulty must be beginner, intermediate or advanced")
		return
	}

	course, err := h.courses.CourseByID(r.Context(), id)
	if errors.Is(err, domain.ErrCourseNotFound) {
		jsonError(w, http.StatusNotFound, "course not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load course")
		return
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Difficulty = domain.Difficulty(req.Difficulty)
	course.Icon = req.Icon
	course.Color = req.Color
	course.SortOrder = req.SortOrder
	course.Published = req.Published
	course.UpdatedAt = time.Now()

	if err := h.courses.UpdateCourse(r.Context(), course); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update course")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"course": toCourseResponse(course)})
}

// Delete removes a course and everything under it
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	err = h.courses.DeleteCourse(r.Context(), id)
	if errors.Is(err, domain.ErrCourseNotFound) {
		jsonError(w, http.StatusNotFound, "course not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete course")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "course deleted"})
}

// CreateLesson adds a lesson to a course
func (h *CourseHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	var req lessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title is required")
		return
	}

	if _, err := h.courses.CourseByID(r.Context(), courseID); err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			jsonError(w, http.StatusNotFound, "course not found")
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to load course")
		return
	}

	now := time.Now()
	lesson := &domain.Lesson{
		ID:          uuid.New(),
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		XpReward:    req.XpReward,
		Published:   req.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.lessons.CreateLesson(r.Context(), lesson); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create lesson")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"lesson": toLessonResponse(lesson)})
}

// GetLesson returns one lesson
func (h *CourseHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	lesson, err := h.lessons.LessonByID(r.Context(), id)
	if errors.Is(err, domain.ErrLessonNotFound) {
		jsonError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load lesson")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"lesson": toLessonResponse(lesson)})
}

// UpdateLesson replaces a lesson's fields
func (h *CourseHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	var req lessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title is required")
		return
	}

	lesson, err := h.lessons.LessonByID(r.Context(), id)
	if errors.Is(err, domain.ErrLessonNotFound) {
		jsonError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load lesson")
		return
	}

	lesson.Title = req.Title
	lesson.Description = req.Description
	lesson.SortOrder = req.SortOrder
	lesson.XpReward = req.XpReward
	lesson.Published = req.Published
	lesson.UpdatedAt = time.Now()

	if err := h.lessons.UpdateLesson(r.Context(), lesson); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update lesson")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"lesson": toLessonResponse(lesson)})
}

// DeleteLesson removes a lesson and its exercises
func (h *CourseHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}

	err = h.lessons.DeleteLesson(r.Context(), id)
	if errors.Is(err, domain.ErrLessonNotFound) {
		jsonError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete lesson")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "lesson deleted"})
}
