package userrepo

import "errors"

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken indicates a user already exists with the provided email (case-insensitive).
	ErrEmailTaken = errors.New("user email already taken")
)
