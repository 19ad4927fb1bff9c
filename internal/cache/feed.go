package cache

import (
	"sync"

	"github.com/plumefeed/plume/internal/plume"
)

// userFeed is a single user's news feed: a fixed-capacity ring holding the
// newest plume.FeedCap entries, newest first. Pushing onto a full ring
// overwrites the oldest entry in place, so both push and evict are O(1).
type userFeed struct {
	mu   sync.Mutex
	ring [plume.FeedCap]plume.FeedEntry
	head int // index of the newest entry, when size > 0
	size int
}

func (f *userFeed) push(e plume.FeedEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.size == 0 {
		f.ring[f.head] = e
		f.size = 1
		return
	}

	f.head = (f.head - 1 + len(f.ring)) % len(f.ring)
	f.ring[f.head] = e
	if f.size < len(f.ring) {
		f.size++
	}
	// At capacity the slot we just wrote was the oldest entry, so the
	// eviction already happened.
}

// snapshot copies out up to limit entries, newest first. limit <= 0 means
// everything.
func (f *userFeed) snapshot(limit int) []plume.FeedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.size
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]plume.FeedEntry, n)
	for i := 0; i < n; i++ {
		out[i] = f.ring[(f.head+i)%len(f.ring)]
	}

	return out
}

func (f *userFeed) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.size
}
