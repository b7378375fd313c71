package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/exercise"
	"github.com/felixgeelhaar/codequest/internal/llm"
)

type scriptedProvider struct {
	content string
	err     error
	calls   int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(_ context.Context, _ *llm.Request) (*llm.Response, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: p.content, FinishReason: "stop"}, nil
}

type fakeStore struct {
	exercises map[uuid.UUID]*domain.Exercise
	lessons   map[uuid.UUID]*domain.Lesson
	courses   map[uuid.UUID]*domain.Course
	notes     map[uuid.UUID]*domain.Note

	deletedLessons []uuid.UUID
	backlinks      map[uuid.UUID]uuid.UUID
	enhanced       map[uuid.UUID]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exercises: make(map[uuid.UUID]*domain.Exercise),
		lessons:   make(map[uuid.UUID]*domain.Lesson),
		courses:   make(map[uuid.UUID]*domain.Course),
		notes:     make(map[uuid.UUID]*domain.Note),
		backlinks: make(map[uuid.UUID]uuid.UUID),
		enhanced:  make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) CreateExercise(_ context.Context, ex *domain.Exercise) error {
	f.exercises[ex.ID] = ex
	return nil
}

func (f *fakeStore) LessonByTitle(_ context.Context, courseID uuid.UUID, title string) (*domain.Lesson, error) {
	for _, l := range f.lessons {
		if l.CourseID == courseID && l.Title == title {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateLesson(_ context.Context, lesson *domain.Lesson) error {
	f.lessons[lesson.ID] = lesson
	return nil
}

func (f *fakeStore) DeleteLesson(_ context.Context, id uuid.UUID) error {
	delete(f.lessons, id)
	f.deletedLessons = append(f.deletedLessons, id)
	return nil
}

func (f *fakeStore) CourseByTitle(_ context.Context, title string) (*domain.Course, error) {
	for _, c := range f.courses {
		if c.Title == title {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateCourse(_ context.Context, course *domain.Course) error {
	f.courses[course.ID] = course
	return nil
}

func (f *fakeStore) NoteByID(_ context.Context, id uuid.UUID) (*domain.Note, error) {
	return f.notes[id], nil
}

func (f *fakeStore) SetNoteLesson(_ context.Context, noteID, lessonID uuid.UUID) error {
	f.backlinks[noteID] = lessonID
	return nil
}

func (f *fakeStore) SetEnhancedContent(_ context.Context, noteID uuid.UUID, content string) error {
	f.enhanced[noteID] = content
	if n, ok := f.notes[noteID]; ok {
		n.EnhancedContent = content
	}
	return nil
}

func newTestService(provider llm.Provider, store *fakeStore) *Service {
	return NewService(provider, exercise.NewRegistry(), store, store, store, store, nil, nil)
}

const validBatch = `Here are your exercises:
[
  {"type": "multiple_choice", "content": {"question": "What does TCP stand for?", "options": ["Transmission Control Protocol", "Transfer Connect Ping"], "correctIndex": 0}},
  {"type": "sequencing", "content": {"prompt": "Order the TCP handshake", "items": ["SYN", "SYN-ACK", "ACK"]}}
]
Enjoy!`

func TestGenerateFromText(t *testing.T) {
	lessonID := uuid.New()

	t.Run("persists validated items as pending review", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(&scriptedProvider{content: validBatch}, store)

		res, err := svc.GenerateFromText(context.Background(), "TCP basics", lessonID)
		if err != nil {
			t.Fatalf("GenerateFromText: %v", err)
		}
		if len(res.ExerciseIDs) != 2 {
			t.Fatalf("ExerciseIDs = %d, want 2", len(res.ExerciseIDs))
		}
		if res.Rejected != 0 {
			t.Errorf("Rejected = %d, want 0", res.Rejected)
		}
		for _, id := range res.ExerciseIDs {
			ex := store.exercises[id]
			if ex == nil {
				t.Fatalf("exercise %s not persisted", id)
			}
			if ex.Status != domain.StatusPendingReview {
				t.Errorf("Status = %q, want %q", ex.Status, domain.StatusPendingReview)
			}
			if ex.LessonID != lessonID {
				t.Errorf("LessonID = %s, want %s", ex.LessonID, lessonID)
			}
			if ex.XpReward != domain.DefaultXpReward {
				t.Errorf("XpReward = %d, want %d", ex.XpReward, domain.DefaultXpReward)
			}
		}
	})

	t.Run("skips invalid items and counts them", func(t *testing.T) {
		store := newFakeStore()
		reply := `[
  {"type": "multiple_choice", "content": {"question": "Q", "options": ["only one"], "correctIndex": 0}},
  {"type": "made_up_type", "content": {"x": 1}},
  {"type": "sequencing", "content": {"prompt": "Order", "items": ["a", "b"]}},
  {"type": "spot_the_bug"}
]`
		svc := newTestService(&scriptedProvider{content: reply}, store)

		res, err := svc.GenerateFromText(context.Background(), "text", lessonID)
		if err != nil {
			t.Fatalf("GenerateFromText: %v", err)
		}
		if len(res.ExerciseIDs) != 1 {
			t.Fatalf("ExerciseIDs = %d, want 1", len(res.ExerciseIDs))
		}
		if res.Rejected != 3 {
			t.Errorf("Rejected = %d, want 3", res.Rejected)
		}
	})

	t.Run("fails when the reply has no JSON array", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(&scriptedProvider{content: "Sorry, I cannot help with that."}, store)

		_, err := svc.GenerateFromText(context.Background(), "text", lessonID)
		if !errors.Is(err, ErrGenerationFailed) {
			t.Fatalf("err = %v, want ErrGenerationFailed", err)
		}
		if len(store.exercises) != 0 {
			t.Errorf("persisted %d exercises, want 0", len(store.exercises))
		}
	})

	t.Run("fails when every item is rejected", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(&scriptedProvider{content: `[{"type": "", "content": {}}]`}, store)

		_, err := svc.GenerateFromText(context.Background(), "text", lessonID)
		if !errors.Is(err, ErrGenerationFailed) {
			t.Fatalf("err = %v, want ErrGenerationFailed", err)
		}
	})

	t.Run("wraps provider failure", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(&scriptedProvider{err: errors.New("connection refused")}, store)

		_, err := svc.GenerateFromText(context.Background(), "text", lessonID)
		if !errors.Is(err, ErrGenerationFailed) {
			t.Fatalf("err = %v, want ErrGenerationFailed", err)
		}
	})
}

func TestGenerateFromNote(t *testing.T) {
	userID := uuid.New()
	lessonID := uuid.New()

	t.Run("publishes directly and falls back to the linked lesson", func(t *testing.T) {
		store := newFakeStore()
		note := &domain.Note{ID: uuid.New(), UserID: userID, LessonID: lessonID, Title: "TCP", Content: "three-way handshake"}
		store.notes[note.ID] = note
		svc := newTestService(&scriptedProvider{content: validBatch}, store)

		res, err := svc.GenerateFromNote(context.Background(), userID, note.ID, uuid.Nil)
		if err != nil {
			t.Fatalf("GenerateFromNote: %v", err)
		}
		for _, id := range res.ExerciseIDs {
			ex := store.exercises[id]
			if ex.Status != domain.StatusPublished {
				t.Errorf("Status = %q, want %q", ex.Status, domain.StatusPublished)
			}
			if ex.LessonID != lessonID {
				t.Errorf("LessonID = %s, want linked lesson %s", ex.LessonID, lessonID)
			}
		}
	})

	t.Run("rejects a note owned by another user", func(t *testing.T) {
		store := newFakeStore()
		note := &domain.Note{ID: uuid.New(), UserID: uuid.New(), Content: "secret"}
		store.notes[note.ID] = note
		provider := &scriptedProvider{content: validBatch}
		svc := newTestService(provider, store)

		_, err := svc.GenerateFromNote(context.Background(), userID, note.ID, uuid.Nil)
		if !errors.Is(err, domain.ErrNoteNotFound) {
			t.Fatalf("err = %v, want ErrNoteNotFound", err)
		}
		if provider.calls != 0 {
			t.Errorf("provider called %d times for foreign note", provider.calls)
		}
	})

	t.Run("requires some target lesson", func(t *testing.T) {
		store := newFakeStore()
		note := &domain.Note{ID: uuid.New(), UserID: userID, Content: "unlinked"}
		store.notes[note.ID] = note
		svc := newTestService(&scriptedProvider{content: validBatch}, store)

		_, err := svc.GenerateFromNote(context.Background(), userID, note.ID, uuid.Nil)
		if !errors.Is(err, ErrNoLinkedLesson) {
			t.Fatalf("err = %v, want ErrNoLinkedLesson", err)
		}
	})
}

func TestLearnTopic(t *testing.T) {
	t.Run("creates the shared course once and a lesson per topic", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(&scriptedProvider{content: validBatch}, store)

		first, err := svc.LearnTopic(context.Background(), "Goroutines")
		if err != nil {
			t.Fatalf("LearnTopic: %v", err)
		}
		second, err := svc.LearnTopic(context.Background(), "Channels")
		if err != nil {
			t.Fatalf("LearnTopic: %v", err)
		}

		if len(store.courses) != 1 {
			t.Fatalf("courses = %d, want 1 shared container", len(store.courses))
		}
		if first.CourseID != second.CourseID {
			t.Errorf("course IDs differ: %s vs %s", first.CourseID, second.CourseID)
		}
		if first.LessonID == second.LessonID {
			t.Error("topics share a lesson, want one each")
		}
		if first.ExerciseCount != 2 {
			t.Errorf("ExerciseCount = %d, want 2", first.ExerciseCount)
		}
	})

	t.Run("deletes the fresh lesson when nothing is persisted", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(&scriptedProvider{content: "no array here"}, store)

		_, err := svc.LearnTopic(context.Background(), "Goroutines")
		if !errors.Is(err, ErrGenerationFailed) {
			t.Fatalf("err = %v, want ErrGenerationFailed", err)
		}
		if len(store.deletedLessons) != 1 {
			t.Fatalf("deleted lessons = %d, want 1", len(store.deletedLessons))
		}
		if len(store.lessons) != 0 {
			t.Errorf("lessons left behind = %d, want 0", len(store.lessons))
		}
	})
}

func TestQuizFromNotes(t *testing.T) {
	userID := uuid.New()

	seedNotes := func(store *fakeStore, n int) []uuid.UUID {
		ids := make([]uuid.UUID, 0, n)
		for i := 0; i < n; i++ {
			note := &domain.Note{ID: uuid.New(), UserID: userID, Title: "n", Content: "c"}
			store.notes[note.ID] = note
			ids = append(ids, note.ID)
		}
		return ids
	}

	t.Run("reuses the per-user lesson and backlinks notes", func(t *testing.T) {
		store := newFakeStore()
		ids := seedNotes(store, 2)
		svc := newTestService(&scriptedProvider{content: validBatch}, store)

		first, err := svc.QuizFromNotes(context.Background(), userID, ids)
		if err != nil {
			t.Fatalf("QuizFromNotes: %v", err)
		}
		second, err := svc.QuizFromNotes(context.Background(), userID, ids)
		if err != nil {
			t.Fatalf("QuizFromNotes: %v", err)
		}
		if first.LessonID != second.LessonID {
			t.Errorf("lesson IDs differ across runs: %s vs %s", first.LessonID, second.LessonID)
		}
		for _, id := range ids {
			if store.backlinks[id] != first.LessonID {
				t.Errorf("note %s backlink = %s, want %s", id, store.backlinks[id], first.LessonID)
			}
		}
	})

	t.Run("keeps a reused lesson when generation fails", func(t *testing.T) {
		store := newFakeStore()
		ids := seedNotes(store, 1)
		okProvider := &scriptedProvider{content: validBatch}
		svc := newTestService(okProvider, store)
		res, err := svc.QuizFromNotes(context.Background(), userID, ids)
		if err != nil {
			t.Fatalf("seed run: %v", err)
		}

		svc = newTestService(&scriptedProvider{err: errors.New("timeout")}, store)
		if _, err := svc.QuizFromNotes(context.Background(), userID, ids); err == nil {
			t.Fatal("want error from failed run")
		}
		if _, ok := store.lessons[res.LessonID]; !ok {
			t.Error("pre-existing lesson deleted after failed run")
		}
	})

	t.Run("rejects an empty selection", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(&scriptedProvider{content: validBatch}, store)
		if _, err := svc.QuizFromNotes(context.Background(), userID, nil); err == nil {
			t.Fatal("want error for empty note selection")
		}
	})
}

func TestEnhanceNote(t *testing.T) {
	userID := uuid.New()

	t.Run("caches the enhancement on the note", func(t *testing.T) {
		store := newFakeStore()
		note := &domain.Note{ID: uuid.New(), UserID: userID, Title: "TCP", Content: "handshake"}
		store.notes[note.ID] = note
		provider := &scriptedProvider{content: "## TCP\nA fuller explanation."}
		svc := newTestService(provider, store)

		got, err := svc.EnhanceNote(context.Background(), userID, note.ID)
		if err != nil {
			t.Fatalf("EnhanceNote: %v", err)
		}
		if got != provider.content {
			t.Errorf("enhancement = %q, want provider reply", got)
		}

		again, err := svc.EnhanceNote(context.Background(), userID, note.ID)
		if err != nil {
			t.Fatalf("EnhanceNote cached: %v", err)
		}
		if again != got {
			t.Errorf("cached enhancement = %q, want %q", again, got)
		}
		if provider.calls != 1 {
			t.Errorf("provider calls = %d, want 1 (second read served from cache)", provider.calls)
		}
	})

	t.Run("missing note", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(&scriptedProvider{content: "x"}, store)
		if _, err := svc.EnhanceNote(context.Background(), userID, uuid.New()); !errors.Is(err, domain.ErrNoteNotFound) {
			t.Fatalf("err = %v, want ErrNoteNotFound", err)
		}
	})
}
