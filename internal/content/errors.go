package content

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a task's input does not match its type
var ErrInvalidInput = errors.New("invalid task input")

// GenerationError represents a failed content task
type GenerationError struct {
	Task    TaskType
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s generation failed: %s: %v", e.Task, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s generation failed: %s", e.Task, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
