package newsfeed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumefeed/plume/internal/cache"
	"github.com/plumefeed/plume/internal/plume"
)

func newTestService(t *testing.T) (Service, *cache.Cache) {
	t.Helper()

	c := cache.New()
	s := NewService(Params{Users: c, Posts: c, Feeds: c, Actions: c})

	return s, c
}

func seedUser(t *testing.T, c *cache.Cache, id, name string) {
	t.Helper()
	require.NoError(t, c.CreateUser(plume.User{ID: id, Username: name, ProfilePicture: "https://example.com/" + name + ".jpg"}))
}

func TestFeed_Hydration(t *testing.T) {
	s, c := newTestService(t)
	seedUser(t, c, "u1", "alice")
	seedUser(t, c, "u2", "bob")

	c.SetPost(plume.Post{ID: "p1", UserID: "u1", Content: "hello", Timestamp: time.Now()})
	require.NoError(t, c.AppendToFeed("u2", "p1", time.Now()))

	feed, err := s.Feed(context.Background(), "u2", 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)

	entry := feed[0]
	assert.Equal(t, "p1", entry.ID)
	assert.Equal(t, "hello", entry.Content)
	assert.Equal(t, "alice", entry.Author.Username)
	assert.Equal(t, uint64(0), entry.LikeCount)
	assert.False(t, entry.Liked)
}

func TestFeed_ReflectsLikes(t *testing.T) {
	s, c := newTestService(t)
	seedUser(t, c, "u1", "alice")
	seedUser(t, c, "u2", "bob")

	c.SetPost(plume.Post{ID: "p1", UserID: "u1", Content: "hello"})
	require.NoError(t, c.AppendToFeed("u2", "p1", time.Now()))
	require.NoError(t, c.IncrementLike("p1", "u2"))

	feed, err := s.Feed(context.Background(), "u2", 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)

	assert.Equal(t, uint64(1), feed[0].LikeCount)
	assert.True(t, feed[0].Liked)

	// The author's own view of the same post: count yes, liked no
	require.NoError(t, c.AppendToFeed("u1", "p1", time.Now()))
	authorFeed, err := s.Feed(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, authorFeed, 1)
	assert.Equal(t, uint64(1), authorFeed[0].LikeCount)
	assert.False(t, authorFeed[0].Liked)
}

func TestFeed_NewestFirstAndLimited(t *testing.T) {
	s, c := newTestService(t)
	seedUser(t, c, "u1", "alice")
	seedUser(t, c, "u2", "bob")

	for _, id := range []string{"p1", "p2", "p3"} {
		c.SetPost(plume.Post{ID: id, UserID: "u1", Content: id})
		require.NoError(t, c.AppendToFeed("u2", id, time.Now()))
	}

	feed, err := s.Feed(context.Background(), "u2", 2)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "p3", feed[0].ID)
	assert.Equal(t, "p2", feed[1].ID)
}

func TestFeed_SkipsMissingPost(t *testing.T) {
	s, c := newTestService(t)
	seedUser(t, c, "u1", "alice")
	seedUser(t, c, "u2", "bob")

	c.SetPost(plume.Post{ID: "p1", UserID: "u1", Content: "kept"})
	require.NoError(t, c.AppendToFeed("u2", "p1", time.Now()))
	// A reference to a post that was never stored (evicted out-of-band)
	require.NoError(t, c.AppendToFeed("u2", "gone", time.Now()))

	feed, err := s.Feed(context.Background(), "u2", 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "p1", feed[0].ID)
}

func TestFeed_SkipsMissingAuthor(t *testing.T) {
	s, c := newTestService(t)
	seedUser(t, c, "u2", "bob")

	// Post whose author was never created
	c.SetPost(plume.Post{ID: "p1", UserID: "ghost", Content: "orphan"})
	require.NoError(t, c.AppendToFeed("u2", "p1", time.Now()))

	feed, err := s.Feed(context.Background(), "u2", 10)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestFeed_UnknownUser(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Feed(context.Background(), "ghost", 10)
	require.ErrorIs(t, err, plume.ErrNotFound)
}

func TestFeed_EmptyForFreshUser(t *testing.T) {
	s, c := newTestService(t)
	seedUser(t, c, "u1", "alice")

	feed, err := s.Feed(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestFeed_DefaultLimit(t *testing.T) {
	s, c := newTestService(t)
	seedUser(t, c, "u1", "alice")
	seedUser(t, c, "u2", "bob")

	for i := 0; i < DefaultLimit+5; i++ {
		id := fmt.Sprintf("p%d", i)
		c.SetPost(plume.Post{ID: id, UserID: "u1", Content: "x"})
		require.NoError(t, c.AppendToFeed("u2", id, time.Now()))
	}

	feed, err := s.Feed(context.Background(), "u2", 0)
	require.NoError(t, err)
	assert.Len(t, feed, DefaultLimit)
}
