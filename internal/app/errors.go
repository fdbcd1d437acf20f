package app

import "errors"

var (
	// ErrTaskNotFound is returned for unknown task ids.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTask is returned when a task fails validation.
	ErrInvalidTask = errors.New("invalid task")
	// ErrPermissionDenied is returned when notifications cannot be enabled.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrNoAttachment is returned when a task has no attachment or its blob is gone.
	ErrNoAttachment = errors.New("attachment not found")
)
