package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

// ExerciseRepository persists exercises in PostgreSQL.
type ExerciseRepository struct {
	pool *pgxpool.Pool
}

// NewExerciseRepository creates a new exercise repository.
func NewExerciseRepository(pool *pgxpool.Pool) *ExerciseRepository {
	return &ExerciseRepository{pool: pool}
}

func scanExercise(row pgx.Row) (*domain.Exercise, error) {
	ex := &domain.Exercise{}
	err := row.Scan(
		&ex.ID, &ex.LessonID, &ex.Type, &ex.Content, &ex.Difficulty,
		&ex.XpReward, &ex.SortOrder, &ex.Status, &ex.CreatedAt, &ex.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ex, nil
}

const exerciseColumns = `id, lesson_id, type, content, difficulty, xp_reward, sort_order, status, created_at, updated_at`

// CreateExercise inserts a new exercise.
func (r *ExerciseRepository) CreateExercise(ctx context.Context, ex *domain.Exercise) error {
	query := `
		INSERT INTO exercises (` + exerciseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		ex.ID, ex.LessonID, ex.Type, ex.Content, ex.Difficulty,
		ex.XpReward, ex.SortOrder, ex.Status, ex.CreatedAt, ex.UpdatedAt,
	)
	return err
}

// ExerciseByID retrieves an exercise by ID.
func (r *ExerciseRepository) ExerciseByID(ctx context.Context, id uuid.UUID) (*domain.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE id = $1`
	ex, err := scanExercise(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrExerciseNotFound
	}
	return ex, err
}

// ListByLesson returns a lesson's exercises ordered by sort order. When
// publishedOnly is set, draft and pending exercises are filtered out.
func (r *ExerciseRepository) ListByLesson(ctx context.Context, lessonID uuid.UUID, publishedOnly bool) ([]*domain.Exercise, error) {
	query := `
		SELECT ` + exerciseColumns + `
		FROM exercises
		WHERE lesson_id = $1 AND ($2 = false OR status = 'published')
		ORDER BY sort_order, created_at
	`
	rows, err := r.pool.Query(ctx, query, lessonID, publishedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []*domain.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

// ListPending returns all exercises awaiting review, oldest first.
func (r *ExerciseRepository) ListPending(ctx context.Context) ([]*domain.Exercise, error) {
	query := `
		SELECT ` + exerciseColumns + `
		FROM exercises
		WHERE status = 'pending_review'
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []*domain.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

// SetStatus transitions an exercise's review status.
func (r *ExerciseRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.ExerciseStatus, now time.Time) error {
	query := `UPDATE exercises SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, status, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExerciseNotFound
	}
	return nil
}

// UpdateExercise saves all mutable fields of an exercise.
func (r *ExerciseRepository) UpdateExercise(ctx context.Context, ex *domain.Exercise) error {
	query := `
		UPDATE exercises
		SET type = $2, content = $3, difficulty = $4, xp_reward = $5,
		    sort_order = $6, status = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		ex.ID, ex.Type, ex.Content, ex.Difficulty, ex.XpReward,
		ex.SortOrder, ex.Status, ex.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExerciseNotFound
	}
	return nil
}

// DeleteExercise removes an exercise. Attempts referencing it cascade.
func (r *ExerciseRepository) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExerciseNotFound
	}
	return nil
}
