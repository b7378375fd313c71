// Package seed loads YAML course packs into the database at startup. Packs
// are idempotent: a course whose title already exists is skipped wholesale.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/exercise"
)

// Pack is the top-level YAML document.
type Pack struct {
	Courses []CourseSpec `yaml:"courses"`
}

// CourseSpec describes one course and its nested lessons.
type CourseSpec struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Difficulty  string       `yaml:"difficulty"`
	Icon        string       `yaml:"icon"`
	Color       string       `yaml:"color"`
	Published   bool         `yaml:"published"`
	Lessons     []LessonSpec `yaml:"lessons"`
}

// LessonSpec describes one lesson and its nested exercises.
type LessonSpec struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	XpReward    int            `yaml:"xpReward"`
	Published   bool           `yaml:"published"`
	Exercises   []ExerciseSpec `yaml:"exercises"`
}

// ExerciseSpec describes one exercise. Content is an arbitrary YAML mapping
// converted to JSON and validated before insert.
type ExerciseSpec struct {
	Type       string         `yaml:"type"`
	Difficulty int            `yaml:"difficulty"`
	XpReward   int            `yaml:"xpReward"`
	Content    map[string]any `yaml:"content"`
}

// Stores is the persistence surface the seeder needs.
type Stores interface {
	CourseByTitle(ctx context.Context, title string) (*domain.Course, error)
	CreateCourse(ctx context.Context, course *domain.Course) error
	CreateLesson(ctx context.Context, lesson *domain.Lesson) error
	CreateExercise(ctx context.Context, ex *domain.Exercise) error
}

// ParseFile reads and parses a YAML course pack.
func ParseFile(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML course pack.
func Parse(data []byte) (*Pack, error) {
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse seed pack: %w", err)
	}
	return &pack, nil
}

// Validate checks every course, lesson and exercise in the pack without
// touching the database. Exercise content is validated against the registry.
func (p *Pack) Validate(registry *exercise.Registry) error {
	for ci, course := range p.Courses {
		if course.Title == "" {
			return fmt.Errorf("course %d: missing title", ci)
		}
		if !domain.Difficulty(course.Difficulty).Valid() {
			return fmt.Errorf("course %q: invalid difficulty %q", course.Title, course.Difficulty)
		}
		for li, lesson := range course.Lessons {
			if lesson.Title == "" {
				return fmt.Errorf("course %q, lesson %d: missing title", course.Title, li)
			}
			for ei, spec := range lesson.Exercises {
				raw, err := contentJSON(spec.Content)
				if err != nil {
					return fmt.Errorf("lesson %q, exercise %d: %w", lesson.Title, ei, err)
				}
				if _, err := registry.Validate(domain.ExerciseType(spec.Type), raw); err != nil {
					return fmt.Errorf("lesson %q, exercise %d: %w", lesson.Title, ei, err)
				}
			}
		}
	}
	return nil
}

// Apply inserts the pack's courses. Courses whose title already exists are
// skipped so re-running at startup is safe.
func Apply(ctx context.Context, pack *Pack, registry *exercise.Registry, stores Stores, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := pack.Validate(registry); err != nil {
		return err
	}

	now := time.Now()
	for order, courseSpec := range pack.Courses {
		existing, err := stores.CourseByTitle(ctx, courseSpec.Title)
		if err != nil {
			return err
		}
		if existing != nil {
			logger.Debug("seed course already present", "title", courseSpec.Title)
			continue
		}

		course := &domain.Course{
			ID:          uuid.New(),
			Title:       courseSpec.Title,
			Description: courseSpec.Description,
			Difficulty:  domain.Difficulty(courseSpec.Difficulty),
			Icon:        courseSpec.Icon,
			Color:       courseSpec.Color,
			SortOrder:   order,
			Published:   courseSpec.Published,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := stores.CreateCourse(ctx, course); err != nil {
			return fmt.Errorf("seed course %q: %w", course.Title, err)
		}

		for lOrder, lessonSpec := range courseSpec.Lessons {
			lesson := &domain.Lesson{
				ID:          uuid.New(),
				CourseID:    course.ID,
				Title:       lessonSpec.Title,
				Description: lessonSpec.Description,
				SortOrder:   lOrder,
				XpReward:    lessonSpec.XpReward,
				Published:   lessonSpec.Published,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := stores.CreateLesson(ctx, lesson); err != nil {
				return fmt.Errorf("seed lesson %q: %w", lesson.Title, err)
			}

			for eOrder, spec := range lessonSpec.Exercises {
				raw, err := contentJSON(spec.Content)
				if err != nil {
					return err
				}
				xp := spec.XpReward
				if xp == 0 {
					xp = domain.DefaultXpReward
				}
				difficulty := spec.Difficulty
				if difficulty == 0 {
					difficulty = 1
				}
				ex := &domain.Exercise{
					ID:         uuid.New(),
					LessonID:   lesson.ID,
					Type:       domain.ExerciseType(spec.Type),
					Content:    raw,
					Difficulty: difficulty,
					XpReward:   xp,
					SortOrder:  eOrder,
					Status:     domain.StatusPublished,
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				if err := stores.CreateExercise(ctx, ex); err != nil {
					return fmt.Errorf("seed exercise in %q: %w", lesson.Title, err)
				}
			}
		}
		logger.Info("seeded course", "title", course.Title, "lessons", len(courseSpec.Lessons))
	}
	return nil
}

func contentJSON(content map[string]any) (json.RawMessage, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("convert content to JSON: %w", err)
	}
	return raw, nil
}
