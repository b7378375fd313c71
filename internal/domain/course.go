package domain

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty represents a course difficulty tier.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is a known difficulty tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Course groups lessons under a single learning track.
type Course struct {
	ID          uuid.UUID
	Title       string
	Description string
	Difficulty  Difficulty
	Icon        string // emoji or icon name for the course card
	Color       string // hex accent color
	SortOrder   int
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Lesson is an ordered unit of a course holding exercises.
type Lesson struct {
	ID          uuid.UUID
	CourseID    uuid.UUID
	Title       string
	Description string
	SortOrder   int
	XpReward    int // bonus XP for completing the whole lesson
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
