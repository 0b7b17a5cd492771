package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced quest, user, or achievement does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidState is returned when a workout targets a quest instance that is no longer active.
	ErrInvalidState = errors.New("quest instance is not active")
	// ErrValidation covers malformed input: non-positive amounts, empty catalogs, unknown requirement kinds.
	ErrValidation = errors.New("validation failed")
	// ErrConflict signals a lost optimistic-concurrency race; the caller may retry.
	ErrConflict = errors.New("concurrent update detected")
)
