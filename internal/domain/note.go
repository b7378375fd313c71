package domain

import (
	"time"

	"github.com/google/uuid"
)

// Note is a user-authored learning note. Notes can be linked to a lesson
// (for replaying generated exercises) and carry an optional AI-enhanced
// expansion of their content, cached after the first enhancement.
type Note struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	LessonID        uuid.UUID // uuid.Nil when unlinked
	Title           string
	Content         string // markdown
	EnhancedContent string // cached AI expansion, empty until generated
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
