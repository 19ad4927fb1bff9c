package plume

import "time"

type (
	// Post is a piece of published content. Immutable once created, except
	// for the denormalized counter fields which the cache refreshes as
	// interactions land.
	Post struct {
		ID         string
		UserID     string
		Content    string
		ImageURL   string
		VideoURL   string
		Timestamp  time.Time
		LikeCount  uint64
		ReplyCount uint64
	}

	// Counters is the per-post interaction aggregate. Adjusted by explicit
	// increments, never recomputed by scanning.
	Counters struct {
		Likes   uint64
		Replies uint64
	}

	PostStore interface {
		SetPost(p Post)
		Post(id string) (Post, error)
	}

	// ActionStore records per (user, post) interactions and keeps the
	// counters in lockstep with them.
	ActionStore interface {
		// IncrementLike records the like and bumps the counter as one
		// atomic unit. A repeat for the same pair returns
		// ErrAlreadyLiked without touching the counter.
		IncrementLike(postID, userID string) error
		HasLiked(userID, postID string) bool
		LikeCount(postID string) uint64
		Counters(postID string) Counters
	}
)
