// Package cache is the single source of truth for the feed system: users,
// posts, the follow graph, per-user news feeds, interaction records, and
// counters all live here, behind per-entity synchronization.
//
// Every store is sharded by key so the request path and the fanout workers
// can hammer unrelated users and posts without contending. Callers only ever
// get values back, never references into the stored state.
package cache

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/plumefeed/plume/internal/plume"
)

// Posts past this many likes get copied into the hot cache.
const hotLikeThreshold = 100

const hotCacheSize = 1024

type Cache struct {
	users     *shardedMap[plume.User]
	posts     *shardedMap[plume.Post]
	followers *shardedMap[map[string]struct{}] // followee -> set of followers
	following *shardedMap[map[string]struct{}] // follower -> set of followees
	feeds     *shardedMap[*userFeed]
	actions   *shardedMap[map[string]bool] // user -> post -> liked
	counters  *shardedMap[*counter]

	// Recently accessed / popular posts, consulted before the primary
	// post store during hydration.
	hot *lru.Cache[string, plume.Post]
}

type counter struct {
	likes   uint64
	replies uint64
}

func New() *Cache {
	hot, _ := lru.New[string, plume.Post](hotCacheSize)

	return &Cache{
		users:     newShardedMap[plume.User](),
		posts:     newShardedMap[plume.Post](),
		followers: newShardedMap[map[string]struct{}](),
		following: newShardedMap[map[string]struct{}](),
		feeds:     newShardedMap[*userFeed](),
		actions:   newShardedMap[map[string]bool](),
		counters:  newShardedMap[*counter](),
		hot:       hot,
	}
}

// CreateUser stores a new user. The id must not already be taken.
func (c *Cache) CreateUser(usr plume.User) error {
	return c.users.update(usr.ID, func(existing plume.User, ok bool) (plume.User, error) {
		if ok {
			return existing, fmt.Errorf("user %s: %w", usr.ID, plume.ErrConflict)
		}
		return usr, nil
	})
}

func (c *Cache) User(id string) (plume.User, error) {
	usr, ok := c.users.get(id)
	if !ok {
		return plume.User{}, fmt.Errorf("user %s: %w", id, plume.ErrNotFound)
	}
	return usr, nil
}

// SetPost stores a post, promoting it to the hot cache if it's popular
// enough.
func (c *Cache) SetPost(p plume.Post) {
	if p.LikeCount > hotLikeThreshold {
		c.hot.Add(p.ID, p)
	}
	c.posts.set(p.ID, p)
}

// Post looks a post up, hot cache first.
func (c *Cache) Post(id string) (plume.Post, error) {
	if p, ok := c.hot.Get(id); ok {
		return p, nil
	}
	p, ok := c.posts.get(id)
	if !ok {
		return plume.Post{}, fmt.Errorf("post %s: %w", id, plume.ErrNotFound)
	}
	return p, nil
}

// Follow records that followerID follows followeeID. Both users must exist,
// self-follows are rejected, and re-following is reported (not silently
// swallowed) so callers can decide how idempotent to be.
func (c *Cache) Follow(followerID, followeeID string) error {
	if followerID == followeeID {
		return plume.ErrSelfFollow
	}
	if _, err := c.User(followerID); err != nil {
		return err
	}
	if _, err := c.User(followeeID); err != nil {
		return err
	}

	// The followers set is the atomicity gate; the reverse index is only
	// written by the winning caller.
	err := c.followers.update(followeeID, func(set map[string]struct{}, ok bool) (map[string]struct{}, error) {
		if !ok {
			set = make(map[string]struct{})
		}
		if _, dup := set[followerID]; dup {
			return set, plume.ErrAlreadyFollowing
		}
		set[followerID] = struct{}{}
		return set, nil
	})
	if err != nil {
		return err
	}

	return c.following.update(followerID, func(set map[string]struct{}, ok bool) (map[string]struct{}, error) {
		if !ok {
			set = make(map[string]struct{})
		}
		set[followeeID] = struct{}{}
		return set, nil
	})
}

// Followers returns a snapshot of userID's followers. Follows landing after
// the snapshot is taken are not reflected in it.
func (c *Cache) Followers(userID string) []string {
	return c.copySet(c.followers, userID)
}

// Following returns a snapshot of who userID follows.
func (c *Cache) Following(userID string) []string {
	return c.copySet(c.following, userID)
}

func (c *Cache) copySet(sm *shardedMap[map[string]struct{}], key string) []string {
	s := sm.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.m[key]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// AppendToFeed inserts at the front of userID's feed, evicting the oldest
// entry beyond the cap. The per-feed lock makes concurrent appends for the
// same user lose nothing.
func (c *Cache) AppendToFeed(userID, postID string, ts time.Time) error {
	if _, err := c.User(userID); err != nil {
		return err
	}

	feed := c.feeds.getOrCreate(userID, func() *userFeed { return &userFeed{} })
	feed.push(plume.FeedEntry{PostID: postID, Timestamp: ts})

	return nil
}

// FeedEntries returns up to limit of userID's feed entries, newest first.
func (c *Cache) FeedEntries(userID string, limit int) []plume.FeedEntry {
	feed, ok := c.feeds.get(userID)
	if !ok {
		return nil
	}
	return feed.snapshot(limit)
}

// FeedLen reports how many entries userID's feed currently holds.
func (c *Cache) FeedLen(userID string) int {
	feed, ok := c.feeds.get(userID)
	if !ok {
		return 0
	}
	return feed.len()
}

// IncrementLike records that userID liked postID and bumps the post's like
// counter. The action record is the idempotency gate: a second like from the
// same user returns ErrAlreadyLiked and the counter moves exactly once.
func (c *Cache) IncrementLike(postID, userID string) error {
	if _, err := c.Post(postID); err != nil {
		return err
	}

	err := c.actions.update(userID, func(liked map[string]bool, ok bool) (map[string]bool, error) {
		if !ok {
			liked = make(map[string]bool)
		}
		if liked[postID] {
			return liked, plume.ErrAlreadyLiked
		}
		liked[postID] = true
		return liked, nil
	})
	if err != nil {
		return err
	}

	ctr := c.counters.getOrCreate(postID, func() *counter { return &counter{} })
	s := c.counters.shardFor(postID)
	s.mu.Lock()
	ctr.likes++
	likes := ctr.likes
	s.mu.Unlock()

	c.refreshPostCounts(postID, likes)

	return nil
}

// Keeps the denormalized counts on the stored post (and any hot copy) in
// step with the counter record.
func (c *Cache) refreshPostCounts(postID string, likes uint64) {
	var refreshed plume.Post
	err := c.posts.update(postID, func(p plume.Post, ok bool) (plume.Post, error) {
		if !ok {
			return p, plume.ErrNotFound
		}
		p.LikeCount = likes
		refreshed = p
		return p, nil
	})
	if err != nil {
		return
	}

	if likes > hotLikeThreshold {
		c.hot.Add(postID, refreshed)
	} else if _, ok := c.hot.Peek(postID); ok {
		c.hot.Add(postID, refreshed)
	}
}

func (c *Cache) HasLiked(userID, postID string) bool {
	liked, ok := c.actions.get(userID)
	if !ok {
		return false
	}
	return liked[postID]
}

func (c *Cache) LikeCount(postID string) uint64 {
	return c.Counters(postID).Likes
}

// Counters returns the current aggregate for a post. Unknown posts report
// zeroes.
func (c *Cache) Counters(postID string) plume.Counters {
	s := c.counters.shardFor(postID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctr, ok := s.m[postID]
	if !ok {
		return plume.Counters{}
	}
	return plume.Counters{Likes: ctr.likes, Replies: ctr.replies}
}
