package riderepo

import "errors"

var (
	// ErrNotFound indicates the ride does not exist or is not owned by the requested user.
	ErrNotFound = errors.New("ride not found")

	// ErrStatusConflict indicates a conditional status update lost: the stored status
	// no longer matches the expected one.
	ErrStatusConflict = errors.New("ride status changed concurrently")

	// ErrOwnerNotFound indicates the owning user does not exist at write time.
	ErrOwnerNotFound = errors.New("ride owner not found")
)
