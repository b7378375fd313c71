package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

// NoteRepository persists user notes in PostgreSQL. The lesson link and the
// enhanced content columns are nullable; uuid.Nil and "" stand in for NULL
// on the domain side.
type NoteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository creates a new note repository.
func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	note := &domain.Note{}
	var lessonID *uuid.UUID
	var enhanced sql.NullString
	err := row.Scan(
		&note.ID, &note.UserID, &lessonID, &note.Title, &note.Content,
		&enhanced, &note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lessonID != nil {
		note.LessonID = *lessonID
	}
	if enhanced.Valid {
		note.EnhancedContent = enhanced.String
	}
	return note, nil
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

// CreateNote inserts a new note.
func (r *NoteRepository) CreateNote(ctx context.Context, note *domain.Note) error {
	query := `
		INSERT INTO notes (id, user_id, lesson_id, title, content, enhanced_content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		note.ID, note.UserID, nullableUUID(note.LessonID), note.Title,
		note.Content, note.EnhancedContent, note.CreatedAt, note.UpdatedAt,
	)
	return err
}

// NoteByID retrieves a note by ID. Returns nil, nil when no note exists;
// ownership is the caller's concern.
func (r *NoteRepository) NoteByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	query := `
		SELECT id, user_id, lesson_id, title, content, enhanced_content, created_at, updated_at
		FROM notes WHERE id = $1
	`
	note, err := scanNote(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return note, err
}

// ListNotesByUser returns a user's notes, most recently updated first.
func (r *NoteRepository) ListNotesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	query := `
		SELECT id, user_id, lesson_id, title, content, enhanced_content, created_at, updated_at
		FROM notes WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// UpdateNote saves a note's title, content and lesson link. Editing the
// content invalidates the cached enhancement.
func (r *NoteRepository) UpdateNote(ctx context.Context, note *domain.Note) error {
	query := `
		UPDATE notes
		SET title = $2, content = $3, lesson_id = $4, enhanced_content = NULL, updated_at = $5
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		note.ID, note.Title, note.Content, nullableUUID(note.LessonID), note.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// SetEnhancedContent caches the AI expansion of a note.
func (r *NoteRepository) SetEnhancedContent(ctx context.Context, noteID uuid.UUID, content string) error {
	query := `UPDATE notes SET enhanced_content = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, noteID, content, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// SetNoteLesson links a note to a lesson.
func (r *NoteRepository) SetNoteLesson(ctx context.Context, noteID, lessonID uuid.UUID) error {
	query := `UPDATE notes SET lesson_id = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, noteID, lessonID, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// DeleteNote removes a note.
func (r *NoteRepository) DeleteNote(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}
