package storage

import "errors"

var (
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoteNotFound is returned when the referenced note does not exist for the user.
	ErrNoteNotFound = errors.New("note not found")
	// ErrDuplicateUser is returned when creating a user whose name is already taken.
	ErrDuplicateUser = errors.New("user already exists")
)
