package watchlist

import "errors"

var (
	// ErrAlreadySaved is returned by Save when the user already saved the
	// restaurant.
	ErrAlreadySaved = errors.New("restaurant already saved")

	// ErrNotFound is returned when the user has no saved entry for the
	// restaurant id.
	ErrNotFound = errors.New("saved restaurant not found")

	// ErrInvalid wraps annotation and record validation failures.
	ErrInvalid = errors.New("invalid saved restaurant")

	// ErrNoUser is returned when the user id is empty.
	ErrNoUser = errors.New("user id is required")
)
