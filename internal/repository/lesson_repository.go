package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

// LessonRepository persists lessons in PostgreSQL.
type LessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

// CreateLesson inserts a new lesson.
func (r *LessonRepository) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	query := `
		INSERT INTO lessons (id, course_id, title, description, sort_order, xp_reward, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		lesson.ID, lesson.CourseID, lesson.Title, lesson.Description,
		lesson.SortOrder, lesson.XpReward, lesson.Published,
		lesson.CreatedAt, lesson.UpdatedAt,
	)
	return err
}

// LessonByID retrieves a lesson by ID.
func (r *LessonRepository) LessonByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	query := `
		SELECT id, course_id, title, description, sort_order, xp_reward, published, created_at, updated_at
		FROM lessons WHERE id = $1
	`
	lesson := &domain.Lesson{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&lesson.ID, &lesson.CourseID, &lesson.Title, &lesson.Description,
		&lesson.SortOrder, &lesson.XpReward, &lesson.Published,
		&lesson.CreatedAt, &lesson.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// LessonByTitle retrieves a lesson by exact title within a course. Returns
// nil, nil when no lesson matches.
func (r *LessonRepository) LessonByTitle(ctx context.Context, courseID uuid.UUID, title string) (*domain.Lesson, error) {
	query := `
		SELECT id, course_id, title, description, sort_order, xp_reward, published, created_at, updated_at
		FROM lessons WHERE course_id = $1 AND title = $2
	`
	lesson := &domain.Lesson{}
	err := r.pool.QueryRow(ctx, query, courseID, title).Scan(
		&lesson.ID, &lesson.CourseID, &lesson.Title, &lesson.Description,
		&lesson.SortOrder, &lesson.XpReward, &lesson.Published,
		&lesson.CreatedAt, &lesson.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// ListLessonsByCourse returns a course's lessons ordered by sort order.
func (r *LessonRepository) ListLessonsByCourse(ctx context.Context, courseID uuid.UUID, publishedOnly bool) ([]*domain.Lesson, error) {
	query := `
		SELECT id, course_id, title, description, sort_order, xp_reward, published, created_at, updated_at
		FROM lessons
		WHERE course_id = $1 AND ($2 = false OR published = true)
		ORDER BY sort_order, title
	`
	rows, err := r.pool.Query(ctx, query, courseID, publishedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []*domain.Lesson
	for rows.Next() {
		lesson := &domain.Lesson{}
		if err := rows.Scan(
			&lesson.ID, &lesson.CourseID, &lesson.Title, &lesson.Description,
			&lesson.SortOrder, &lesson.XpReward, &lesson.Published,
			&lesson.CreatedAt, &lesson.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

// UpdateLesson saves all mutable fields of a lesson.
func (r *LessonRepository) UpdateLesson(ctx context.Context, lesson *domain.Lesson) error {
	query := `
		UPDATE lessons
		SET title = $2, description = $3, sort_order = $4, xp_reward = $5,
		    published = $6, updated_at = $7
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		lesson.ID, lesson.Title, lesson.Description, lesson.SortOrder,
		lesson.XpReward, lesson.Published, lesson.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLessonNotFound
	}
	return nil
}

// DeleteLesson removes a lesson. Exercises cascade; linked notes keep their
// rows with the link cleared.
func (r *LessonRepository) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLessonNotFound
	}
	return nil
}
