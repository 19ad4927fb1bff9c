package plume

import "time"

// FeedCap is how many entries a single user's feed retains. Appending beyond
// it evicts the oldest entry.
const FeedCap = 1000

type (
	// FeedEntry is a reference to a post plus the moment it landed in a
	// particular user's feed. Feeds order by this timestamp, not by post
	// creation time: a late delivery still lands at the front.
	FeedEntry struct {
		PostID    string
		Timestamp time.Time
	}

	// HydratedPost is a feed entry enriched into its full displayable view.
	HydratedPost struct {
		Post
		Author Author
		Liked  bool
	}

	FeedStore interface {
		// AppendToFeed inserts at the front of userID's feed, evicting
		// the oldest entry past FeedCap. Atomic per user.
		AppendToFeed(userID, postID string, ts time.Time) error
		// FeedEntries returns up to limit entries, newest first. A
		// limit <= 0 means no limit.
		FeedEntries(userID string, limit int) []FeedEntry
	}
)
