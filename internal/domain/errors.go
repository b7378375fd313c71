package domain

import "errors"

// Sentinel errors shared across repositories and services.
var (
	ErrNotFound         = errors.New("not found")
	ErrCourseNotFound   = errors.New("course not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrNoteNotFound     = errors.New("note not found")
	ErrUserNotFound     = errors.New("user not found")
)
