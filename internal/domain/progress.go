package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Attempt is one submission against an exercise. Attempts are append-only:
// they are never mutated after creation, and drive XP/streak side effects at
// creation time only when Correct is true.
type Attempt struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ExerciseID  uuid.UUID
	LessonID    uuid.UUID
	Correct     bool
	Answer      json.RawMessage // opaque snapshot of the submitted answer
	XpEarned    int
	AttemptedAt time.Time
}
