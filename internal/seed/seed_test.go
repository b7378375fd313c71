package seed

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/exercise"
)

const samplePack = `
courses:
  - title: Networking Basics
    description: TCP, UDP and friends
    difficulty: beginner
    icon: "🌐"
    color: "#22C55E"
    published: true
    lessons:
      - title: The TCP Handshake
        description: How connections start
        xpReward: 50
        published: true
        exercises:
          - type: multiple_choice
            difficulty: 1
            xpReward: 10
            content:
              question: How many steps has the TCP handshake?
              options: ["Two", "Three", "Four"]
              correctIndex: 1
          - type: sequencing
            content:
              prompt: Order the handshake packets
              items: ["SYN", "SYN-ACK", "ACK"]
`

type memStores struct {
	courses   []*domain.Course
	lessons   []*domain.Lesson
	exercises []*domain.Exercise
}

func (m *memStores) CourseByTitle(_ context.Context, title string) (*domain.Course, error) {
	for _, c := range m.courses {
		if c.Title == title {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memStores) CreateCourse(_ context.Context, course *domain.Course) error {
	m.courses = append(m.courses, course)
	return nil
}

func (m *memStores) CreateLesson(_ context.Context, lesson *domain.Lesson) error {
	m.lessons = append(m.lessons, lesson)
	return nil
}

func (m *memStores) CreateExercise(_ context.Context, ex *domain.Exercise) error {
	m.exercises = append(m.exercises, ex)
	return nil
}

func TestParse(t *testing.T) {
	pack, err := Parse([]byte(samplePack))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pack.Courses) != 1 {
		t.Fatalf("courses = %d, want 1", len(pack.Courses))
	}
	course := pack.Courses[0]
	if course.Difficulty != "beginner" {
		t.Errorf("difficulty = %q", course.Difficulty)
	}
	if len(course.Lessons[0].Exercises) != 2 {
		t.Errorf("exercises = %d, want 2", len(course.Lessons[0].Exercises))
	}
}

func TestValidate(t *testing.T) {
	registry := exercise.NewRegistry()

	t.Run("accepts a well-formed pack", func(t *testing.T) {
		pack, err := Parse([]byte(samplePack))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if err := pack.Validate(registry); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})

	t.Run("rejects invalid exercise content", func(t *testing.T) {
		pack := &Pack{Courses: []CourseSpec{{
			Title:      "Broken",
			Difficulty: "beginner",
			Lessons: []LessonSpec{{
				Title: "Broken lesson",
				Exercises: []ExerciseSpec{{
					Type:    "multiple_choice",
					Content: map[string]any{"question": "Q", "options": []any{"only one"}, "correctIndex": 0},
				}},
			}},
		}}}
		if err := pack.Validate(registry); err == nil {
			t.Fatal("want validation error for single-option question")
		}
	})

	t.Run("rejects unknown difficulty", func(t *testing.T) {
		pack := &Pack{Courses: []CourseSpec{{Title: "X", Difficulty: "impossible"}}}
		if err := pack.Validate(registry); err == nil {
			t.Fatal("want validation error for difficulty")
		}
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	registry := exercise.NewRegistry()

	t.Run("inserts the full pack", func(t *testing.T) {
		pack, err := Parse([]byte(samplePack))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		stores := &memStores{}

		if err := Apply(ctx, pack, registry, stores, nil); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if len(stores.courses) != 1 || len(stores.lessons) != 1 || len(stores.exercises) != 2 {
			t.Fatalf("inserted %d/%d/%d, want 1/1/2",
				len(stores.courses), len(stores.lessons), len(stores.exercises))
		}
		for _, ex := range stores.exercises {
			if ex.Status != domain.StatusPublished {
				t.Errorf("Status = %q, want published", ex.Status)
			}
			if ex.XpReward == 0 {
				t.Error("XpReward not defaulted")
			}
		}
	})

	t.Run("skips existing courses on re-run", func(t *testing.T) {
		pack, err := Parse([]byte(samplePack))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		stores := &memStores{}

		if err := Apply(ctx, pack, registry, stores, nil); err != nil {
			t.Fatalf("first Apply: %v", err)
		}
		if err := Apply(ctx, pack, registry, stores, nil); err != nil {
			t.Fatalf("second Apply: %v", err)
		}
		if len(stores.courses) != 1 {
			t.Errorf("courses = %d after re-run, want 1", len(stores.courses))
		}
	})
}
