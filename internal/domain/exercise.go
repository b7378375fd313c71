package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExerciseType discriminates the nine exercise content shapes.
type ExerciseType string

const (
	TypeMultipleChoice   ExerciseType = "multiple_choice"
	TypeCodeCompletion   ExerciseType = "code_completion"
	TypeMatching         ExerciseType = "matching"
	TypeSequencing       ExerciseType = "sequencing"
	TypeFillInBlank      ExerciseType = "fill_in_blank"
	TypeDiagramQuiz      ExerciseType = "diagram_quiz"
	TypeGuessOutput      ExerciseType = "guess_output"
	TypeSpotTheBug       ExerciseType = "spot_the_bug"
	TypeAcronymChallenge ExerciseType = "acronym_challenge"
)

// ExerciseTypes lists every supported exercise type.
var ExerciseTypes = []ExerciseType{
	TypeMultipleChoice,
	TypeCodeCompletion,
	TypeMatching,
	TypeSequencing,
	TypeFillInBlank,
	TypeDiagramQuiz,
	TypeGuessOutput,
	TypeSpotTheBug,
	TypeAcronymChallenge,
}

// Valid reports whether t is one of the supported exercise types.
func (t ExerciseType) Valid() bool {
	for _, known := range ExerciseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ExerciseStatus is the review lifecycle of an exercise.
type ExerciseStatus string

const (
	StatusDraft         ExerciseStatus = "draft"
	StatusPendingReview ExerciseStatus = "pending_review"
	StatusPublished     ExerciseStatus = "published"
)

// Valid reports whether s is a known status.
func (s ExerciseStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingReview, StatusPublished:
		return true
	}
	return false
}

// DefaultXpReward is awarded when an exercise carries no explicit reward or
// cannot be looked up at submission time.
const DefaultXpReward = 10

// Exercise is one gamified question unit belonging to a lesson. Content is a
// JSON payload whose shape is determined by Type and validated by the
// exercise registry before persistence.
type Exercise struct {
	ID         uuid.UUID
	LessonID   uuid.UUID
	Type       ExerciseType
	Content    json.RawMessage
	Difficulty int // 1-5
	XpReward   int
	SortOrder  int
	Status     ExerciseStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
