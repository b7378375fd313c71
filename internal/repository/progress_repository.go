package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

// ProgressRepository persists exercise attempts. Attempts are append-only;
// there is no update or delete path.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

const attemptColumns = `id, user_id, exercise_id, lesson_id, correct, answer, xp_earned, attempted_at`

func scanAttempt(row pgx.Row) (*domain.Attempt, error) {
	a := &domain.Attempt{}
	err := row.Scan(
		&a.ID, &a.UserID, &a.ExerciseID, &a.LessonID,
		&a.Correct, &a.Answer, &a.XpEarned, &a.AttemptedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAttempt records one exercise submission.
func (r *ProgressRepository) CreateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	query := `
		INSERT INTO attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		attempt.ID, attempt.UserID, attempt.ExerciseID, attempt.LessonID,
		attempt.Correct, attempt.Answer, attempt.XpEarned, attempt.AttemptedAt,
	)
	return err
}

// ListAttemptsByUser returns a user's attempts, most recent first.
func (r *ProgressRepository) ListAttemptsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Attempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM attempts WHERE user_id = $1
		ORDER BY attempted_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*domain.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ListAttemptsByLesson returns a user's attempts within one lesson.
func (r *ProgressRepository) ListAttemptsByLesson(ctx context.Context, userID, lessonID uuid.UUID) ([]*domain.Attempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM attempts WHERE user_id = $1 AND lesson_id = $2
		ORDER BY attempted_at
	`
	rows, err := r.pool.Query(ctx, query, userID, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*domain.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// SolvedExerciseIDs returns the distinct exercises within a lesson the user
// has answered correctly at least once. Used for lesson completion summaries.
func (r *ProgressRepository) SolvedExerciseIDs(ctx context.Context, userID, lessonID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT exercise_id
		FROM attempts
		WHERE user_id = $1 AND lesson_id = $2 AND correct = true
	`
	rows, err := r.pool.Query(ctx, query, userID, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
