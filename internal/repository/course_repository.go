// Package repository provides PostgreSQL persistence for the learning
// content and progress models using pgx.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

// CourseRepository persists courses in PostgreSQL.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// CreateCourse inserts a new course.
func (r *CourseRepository) CreateCourse(ctx context.Context, course *domain.Course) error {
	query := `
		INSERT INTO courses (id, title, description, difficulty, icon, color, sort_order, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		course.ID, course.Title, course.Description, course.Difficulty,
		course.Icon, course.Color, course.SortOrder, course.Published,
		course.CreatedAt, course.UpdatedAt,
	)
	return err
}

// CourseByID retrieves a course by ID.
func (r *CourseRepository) CourseByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	query := `
		SELECT id, title, description, difficulty, icon, color, sort_order, published, created_at, updated_at
		FROM courses WHERE id = $1
	`
	course := &domain.Course{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&course.ID, &course.Title, &course.Description, &course.Difficulty,
		&course.Icon, &course.Color, &course.SortOrder, &course.Published,
		&course.CreatedAt, &course.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return course, nil
}

// CourseByTitle retrieves a course by exact title. Returns nil, nil when no
// course has that title.
func (r *CourseRepository) CourseByTitle(ctx context.Context, title string) (*domain.Course, error) {
	query := `
		SELECT id, title, description, difficulty, icon, color, sort_order, published, created_at, updated_at
		FROM courses WHERE title = $1
	`
	course := &domain.Course{}
	err := r.pool.QueryRow(ctx, query, title).Scan(
		&course.ID, &course.Title, &course.Description, &course.Difficulty,
		&course.Icon, &course.Color, &course.SortOrder, &course.Published,
		&course.CreatedAt, &course.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return course, nil
}

// ListCourses returns courses ordered by sort order then title. When
// publishedOnly is set, unpublished courses are filtered out.
func (r *CourseRepository) ListCourses(ctx context.Context, publishedOnly bool) ([]*domain.Course, error) {
	query := `
		SELECT id, title, description, difficulty, icon, color, sort_order, published, created_at, updated_at
		FROM courses
		WHERE ($1 = false OR published = true)
		ORDER BY sort_order, title
	`
	rows, err := r.pool.Query(ctx, query, publishedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		course := &domain.Course{}
		if err := rows.Scan(
			&course.ID, &course.Title, &course.Description, &course.Difficulty,
			&course.Icon, &course.Color, &course.SortOrder, &course.Published,
			&course.CreatedAt, &course.UpdatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// UpdateCourse saves all mutable fields of a course.
func (r *CourseRepository) UpdateCourse(ctx context.Context, course *domain.Course) error {
	query := `
		UPDATE courses
		SET title = $2, description = $3, difficulty = $4, icon = $5, color = $6,
		    sort_order = $7, published = $8, updated_at = $9
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		course.ID, course.Title, course.Description, course.Difficulty,
		course.Icon, course.Color, course.SortOrder, course.Published, course.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// DeleteCourse removes a course. Lessons and exercises cascade via foreign keys.
func (r *CourseRepository) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}
