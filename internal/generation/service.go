// Package generation turns source material (freeform text, notes, topics)
// into persisted exercises through an LLM collaborator.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/exercise"
	"github.com/felixgeelhaar/codequest/internal/llm"
)

// ErrGenerationFailed wraps any failure between prompt construction and
// persistence: unreachable provider, unparseable reply, or a batch where no
// item survived validation. The caller retries by re-invoking; the pipeline
// itself never loops.
var ErrGenerationFailed = errors.New("AI generation failed")

// ErrNoLinkedLesson indicates a note-driven generation had no target lesson.
var ErrNoLinkedLesson = errors.New("no lessonId provided and note has no linked lesson")

// Recurring container titles, looked up by exact match before creation.
const (
	studentTopicsCourseTitle = "Student Topics"
	myNotesCourseTitle       = "My Notes"
)

// ExerciseStore persists generated exercises.
type ExerciseStore interface {
	CreateExercise(ctx context.Context, ex *domain.Exercise) error
}

// LessonStore manages lesson containers for generated content.
type LessonStore interface {
	LessonByTitle(ctx context.Context, courseID uuid.UUID, title string) (*domain.Lesson, error)
	CreateLesson(ctx context.Context, lesson *domain.Lesson) error
	DeleteLesson(ctx context.Context, id uuid.UUID) error
}

// CourseStore manages course containers for generated content.
type CourseStore interface {
	CourseByTitle(ctx context.Context, title string) (*domain.Course, error)
	CreateCourse(ctx context.Context, course *domain.Course) error
}

// NoteStore reads source notes and records enhancement/backlink side effects.
type NoteStore interface {
	NoteByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	SetNoteLesson(ctx context.Context, noteID, lessonID uuid.UUID) error
	SetEnhancedContent(ctx context.Context, noteID uuid.UUID, content string) error
}

// EventSink receives best-effort notifications about completed generations.
type EventSink interface {
	ExercisesGenerated(ctx context.Context, lessonID uuid.UUID, count int)
}

// Result reports a generation into an existing lesson. Rejected counts items
// the model produced that were dropped (missing fields or schema-invalid);
// drops are observable here but are not errors.
type Result struct {
	ExerciseIDs []uuid.UUID
	Rejected    int
}

// LessonResult reports a generation that produced its own lesson container.
type LessonResult struct {
	LessonID      uuid.UUID
	CourseID      uuid.UUID
	ExerciseCount int
	Rejected      int
}

// Service orchestrates the prompt -> LLM -> parse -> validate -> persist
// pipeline. All failures after prompt construction surface as a single
// ErrGenerationFailed; the best-effort cleanup and backlink steps degrade
// silently (logged only).
type Service struct {
	provider  llm.Provider
	registry  *exercise.Registry
	exercises ExerciseStore
	lessons   LessonStore
	courses   CourseStore
	notes     NoteStore
	events    EventSink // may be nil
	logger    *slog.Logger
}

// NewService creates a generation service. events may be nil to disable
// notifications.
func NewService(
	provider llm.Provider,
	registry *exercise.Registry,
	exercises ExerciseStore,
	lessons LessonStore,
	courses CourseStore,
	notes NoteStore,
	events EventSink,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:  provider,
		registry:  registry,
		exercises: exercises,
		lessons:   lessons,
		courses:   courses,
		notes:     notes,
		events:    events,
		logger:    logger,
	}
}

// GenerateFromText generates exercises from untrusted freeform text into an
// existing lesson. Items are persisted as pending_review so a moderator
// approves them before other users see them.
func (s *Service) GenerateFromText(ctx context.Context, text string, lessonID uuid.UUID) (Result, error) {
	items, err := s.callModel(ctx, buildGeneratePrompt(text))
	if err != nil {
		return Result{}, err
	}

	ids, rejected, err := s.persistItems(ctx, items, lessonID, domain.StatusPendingReview)
	if err != nil {
		return Result{}, err
	}
	if len(ids) == 0 {
		return Result{}, fmt.Errorf("%w: all %d generated items were rejected", ErrGenerationFailed, rejected)
	}

	s.notifyGenerated(ctx, lessonID, len(ids))
	return Result{ExerciseIDs: ids, Rejected: rejected}, nil
}

// GenerateFromNote generates review exercises from one of the caller's notes.
// The target lesson defaults to the note's linked lesson. Content is scoped
// to the requesting user, so items are published directly.
func (s *Service) GenerateFromNote(ctx context.Context, userID, noteID, lessonID uuid.UUID) (Result, error) {
	note, err := s.ownedNote(ctx, userID, noteID)
	if err != nil {
		return Result{}, err
	}

	if lessonID == uuid.Nil {
		lessonID = note.LessonID
	}
	if lessonID == uuid.Nil {
		return Result{}, ErrNoLinkedLesson
	}

	items, err := s.callModel(ctx, buildNotePrompt(note.Content))
	if err != nil {
		return Result{}, err
	}

	ids, rejected, err := s.persistItems(ctx, items, lessonID, domain.StatusPublished)
	if err != nil {
		return Result{}, err
	}
	if len(ids) == 0 {
		return Result{}, fmt.Errorf("%w: all %d generated items were rejected", ErrGenerationFailed, rejected)
	}

	s.notifyGenerated(ctx, lessonID, len(ids))
	return Result{ExerciseIDs: ids, Rejected: rejected}, nil
}

// LearnTopic creates a fresh lesson under the shared "Student Topics" course
// and fills it with published exercises about the topic. If nothing usable
// comes back, the just-created lesson is deleted (best effort) so no empty
// container is left behind.
func (s *Service) LearnTopic(ctx context.Context, topic string) (LessonResult, error) {
	now := time.Now()

	course, err := s.findOrCreateCourse(ctx, studentTopicsCourseTitle, domain.Course{
		Title:       studentTopicsCourseTitle,
		Description: "Auto-generated lessons from student topic requests",
		Difficulty:  domain.DifficultyBeginner,
		Icon:        "🎯",
		Color:       "#8B5CF6",
		Published:   true,
	})
	if err != nil {
		return LessonResult{}, err
	}

	lesson := &domain.Lesson{
		ID:          uuid.New(),
		CourseID:    course.ID,
		Title:       topic,
		Description: fmt.Sprintf("AI-generated exercises about: %s", topic),
		XpReward:    50,
		Published:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.lessons.CreateLesson(ctx, lesson); err != nil {
		return LessonResult{}, fmt.Errorf("create topic lesson: %w", err)
	}

	ids, rejected, err := s.generateInto(ctx, buildTopicPrompt(topic), lesson.ID)
	if err != nil || len(ids) == 0 {
		s.cleanupLesson(ctx, lesson.ID)
		if err == nil {
			err = fmt.Errorf("%w: all %d generated items were rejected", ErrGenerationFailed, rejected)
		}
		return LessonResult{}, err
	}

	s.notifyGenerated(ctx, lesson.ID, len(ids))
	return LessonResult{
		LessonID:      lesson.ID,
		CourseID:      course.ID,
		ExerciseCount: len(ids),
		Rejected:      rejected,
	}, nil
}

// QuizFromNotes synthesizes a review quiz from up to five of the caller's
// notes into the per-user "My Notes [{userId}]" lesson, creating it on first
// use. Each source note is backlinked to the lesson afterwards (best effort)
// so the quiz can be replayed from the note.
func (s *Service) QuizFromNotes(ctx context.Context, userID uuid.UUID, noteIDs []uuid.UUID) (LessonResult, error) {
	if len(noteIDs) == 0 {
		return LessonResult{}, domain.ErrNoteNotFound
	}
	if len(noteIDs) > maxQuizNotes {
		noteIDs = noteIDs[:maxQuizNotes]
	}

	notes := make([]*domain.Note, 0, len(noteIDs))
	for _, id := range noteIDs {
		note, err := s.ownedNote(ctx, userID, id)
		if err != nil {
			return LessonResult{}, err
		}
		notes = append(notes, note)
	}

	course, err := s.findOrCreateCourse(ctx, myNotesCourseTitle, domain.Course{
		Title:       myNotesCourseTitle,
		Description: "Review quizzes generated from personal notes",
		Difficulty:  domain.DifficultyBeginner,
		Icon:        "📝",
		Color:       "#0EA5E9",
		Published:   true,
	})
	if err != nil {
		return LessonResult{}, err
	}

	lessonTitle := fmt.Sprintf("My Notes [%s]", userID)
	lesson, created, err := s.findOrCreateLesson(ctx, course.ID, lessonTitle, "Review quiz generated from your notes")
	if err != nil {
		return LessonResult{}, err
	}

	prompt, _ := buildMultiNotePrompt(notes)
	ids, rejected, err := s.generateInto(ctx, prompt, lesson.ID)
	if err != nil || len(ids) == 0 {
		if created {
			s.cleanupLesson(ctx, lesson.ID)
		}
		if err == nil {
			err = fmt.Errorf("%w: all %d generated items were rejected", ErrGenerationFailed, rejected)
		}
		return LessonResult{}, err
	}

	// Backlink each source note so the quiz is replayable. Not transactional
	// with the exercise inserts.
	for _, note := range notes {
		if err := s.notes.SetNoteLesson(ctx, note.ID, lesson.ID); err != nil {
			s.logger.Warn("note backlink failed",
				"note_id", note.ID,
				"lesson_id", lesson.ID,
				"error", err)
		}
	}

	s.notifyGenerated(ctx, lesson.ID, len(ids))
	return LessonResult{
		LessonID:      lesson.ID,
		CourseID:      course.ID,
		ExerciseCount: len(ids),
		Rejected:      rejected,
	}, nil
}

// EnhanceNote expands a note into a fuller explanation. The result is cached
// on the note row: once enhanced content exists, it is returned without a
// new model call.
func (s *Service) EnhanceNote(ctx context.Context, userID, noteID uuid.UUID) (string, error) {
	note, err := s.ownedNote(ctx, userID, noteID)
	if err != nil {
		return "", err
	}
	if note.EnhancedContent != "" {
		return note.EnhancedContent, nil
	}

	resp, err := s.provider.Generate(ctx, &llm.Request{
		System:      enhanceSystemPrompt,
		Prompt:      buildEnhancePrompt(note.Title, note.Content),
		MaxTokens:   enhanceMaxTokens,
		Temperature: generateTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("%w: empty enhancement", ErrGenerationFailed)
	}

	if err := s.notes.SetEnhancedContent(ctx, note.ID, resp.Content); err != nil {
		return "", fmt.Errorf("cache enhanced content: %w", err)
	}
	return resp.Content, nil
}

// generatedItem is one element of the model's JSON array reply.
type generatedItem struct {
	Type    domain.ExerciseType `json:"type"`
	Content json.RawMessage     `json:"content"`
}

// callModel runs one generation call and parses the reply into items.
func (s *Service) callModel(ctx context.Context, prompt string) ([]generatedItem, error) {
	resp, err := s.provider.Generate(ctx, &llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   generateMaxTokens,
		Temperature: generateTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	raw, err := extractJSONArray(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var items []generatedItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: parse array: %v", ErrGenerationFailed, err)
	}
	return items, nil
}

// generateInto combines callModel and persistItems for the lesson-creating
// flows, which always publish directly.
func (s *Service) generateInto(ctx context.Context, prompt string, lessonID uuid.UUID) ([]uuid.UUID, int, error) {
	items, err := s.callModel(ctx, prompt)
	if err != nil {
		return nil, 0, err
	}
	return s.persistItems(ctx, items, lessonID, domain.StatusPublished)
}

// persistItems validates each generated item and inserts the survivors.
// Items with a missing type or content, an unknown type, or a payload the
// registry rejects are skipped silently and counted; they never fail the
// batch on their own.
func (s *Service) persistItems(ctx context.Context, items []generatedItem, lessonID uuid.UUID, status domain.ExerciseStatus) ([]uuid.UUID, int, error) {
	now := time.Now()
	ids := make([]uuid.UUID, 0, len(items))
	rejected := 0

	for _, item := range items {
		if item.Type == "" || len(item.Content) == 0 {
			rejected++
			continue
		}
		if _, err := s.registry.Validate(item.Type, item.Content); err != nil {
			s.logger.Debug("generated item rejected",
				"type", item.Type,
				"error", err)
			rejected++
			continue
		}

		ex := &domain.Exercise{
			ID:         uuid.New(),
			LessonID:   lessonID,
			Type:       item.Type,
			Content:    item.Content,
			Difficulty: 1,
			XpReward:   domain.DefaultXpReward,
			Status:     status,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.exercises.CreateExercise(ctx, ex); err != nil {
			return nil, 0, fmt.Errorf("persist exercise: %w", err)
		}
		ids = append(ids, ex.ID)
	}
	return ids, rejected, nil
}

// ownedNote loads a note and enforces ownership. A note owned by someone
// else is reported as not found, not forbidden.
func (s *Service) ownedNote(ctx context.Context, userID, noteID uuid.UUID) (*domain.Note, error) {
	note, err := s.notes.NoteByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil || note.UserID != userID {
		return nil, domain.ErrNoteNotFound
	}
	return note, nil
}

func (s *Service) findOrCreateCourse(ctx context.Context, title string, template domain.Course) (*domain.Course, error) {
	course, err := s.courses.CourseByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("look up course %q: %w", title, err)
	}
	if course != nil {
		return course, nil
	}

	now := time.Now()
	template.ID = uuid.New()
	template.CreatedAt = now
	template.UpdatedAt = now
	if err := s.courses.CreateCourse(ctx, &template); err != nil {
		return nil, fmt.Errorf("create course %q: %w", title, err)
	}
	return &template, nil
}

func (s *Service) findOrCreateLesson(ctx context.Context, courseID uuid.UUID, title, description string) (*domain.Lesson, bool, error) {
	lesson, err := s.lessons.LessonByTitle(ctx, courseID, title)
	if err != nil {
		return nil, false, fmt.Errorf("look up lesson %q: %w", title, err)
	}
	if lesson != nil {
		return lesson, false, nil
	}

	now := time.Now()
	lesson = &domain.Lesson{
		ID:          uuid.New(),
		CourseID:    courseID,
		Title:       title,
		Description: description,
		XpReward:    50,
		Published:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.lessons.CreateLesson(ctx, lesson); err != nil {
		return nil, false, fmt.Errorf("create lesson %q: %w", title, err)
	}
	return lesson, true, nil
}

// cleanupLesson removes a container created for a generation that yielded
// nothing. Best effort; a failure here leaves an empty lesson behind, which
// is tolerable.
func (s *Service) cleanupLesson(ctx context.Context, lessonID uuid.UUID) {
	if err := s.lessons.DeleteLesson(ctx, lessonID); err != nil {
		s.logger.Warn("cleanup of empty generated lesson failed",
			"lesson_id", lessonID,
			"error", err)
	}
}

func (s *Service) notifyGenerated(ctx context.Context, lessonID uuid.UUID, count int) {
	if s.events != nil {
		s.events.ExercisesGenerated(ctx, lessonID, count)
	}
}
