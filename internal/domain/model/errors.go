package model

import "errors"

// Sentinel error kinds shared by the engine and its collaborators.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrLimitExceeded      = errors.New("limit exceeded")
)

// Entity-specific kinds. Each one matches its parent with errors.Is.
var (
	ErrStudentNotFound  = kind(ErrNotFound, "student not found")
	ErrTeacherNotFound  = kind(ErrNotFound, "teacher not found")
	ErrExamNotFound     = kind(ErrNotFound, "exam not found")
	ErrActivityNotFound = kind(ErrNotFound, "activity not found")

	ErrUnknownGameType    = kind(ErrInvariantViolation, "unknown game type")
	ErrNoEligibleCategory = kind(ErrInvariantViolation, "no eligible category")
)

type kindError struct {
	parent error
	msg    string
}

func kind(parent error, msg string) error {
	return &kindError{parent: parent, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.parent }
