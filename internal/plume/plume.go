// Package plume holds the shared domain types and service surfaces for the
// feed system.
//
// Every other package speaks in these types; none of them hold entity state
// of their own.
package plume

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource already exists")
	ErrValidation = errors.New("invalid input")

	// Specific outcomes, all matchable against the base sentinels above.
	ErrSelfFollow       = fmt.Errorf("cannot follow yourself: %w", ErrValidation)
	ErrAlreadyFollowing = fmt.Errorf("already following: %w", ErrConflict)
	ErrAlreadyLiked     = fmt.Errorf("already liked: %w", ErrConflict)

	// ErrQueueFull is returned by a bounded fanout queue that cannot accept
	// another job. The default queue is unbounded and never returns it.
	ErrQueueFull = errors.New("fanout queue full")
)
