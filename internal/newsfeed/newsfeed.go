// Package newsfeed assembles a user's feed for reading: it takes the bare
// entry list from the cache and hydrates each entry into a full view.
package newsfeed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"

	"github.com/plumefeed/plume/internal/plume"
)

// DefaultLimit is used when a caller doesn't say how much feed it wants.
const DefaultLimit = 20

type (
	Service struct {
		users   plume.UserStore
		posts   plume.PostStore
		feeds   plume.FeedStore
		actions plume.ActionStore
	}

	Params struct {
		fx.In

		Users   plume.UserStore
		Posts   plume.PostStore
		Feeds   plume.FeedStore
		Actions plume.ActionStore
	}
)

func NewService(p Params) Service {
	return Service{
		users:   p.Users,
		posts:   p.Posts,
		feeds:   p.Feeds,
		actions: p.Actions,
	}
}

// Feed returns up to limit hydrated entries for userID, newest first. An
// entry whose post or author has gone missing since delivery is dropped
// rather than failing the whole read: a partial feed beats no feed.
//
// A user with nothing delivered yet gets an empty slice, not an error. A
// read may lag a very recent post whose fanout job is still queued.
func (s Service) Feed(ctx context.Context, userID string, limit int) ([]plume.HydratedPost, error) {
	if _, err := s.users.User(userID); err != nil {
		return nil, fmt.Errorf("looking up feed owner: %w", err)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	entries := s.feeds.FeedEntries(userID, limit)

	feed := make([]plume.HydratedPost, 0, len(entries))
	for _, entry := range entries {
		hydrated, err := s.hydrate(userID, entry)
		if errors.Is(err, plume.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		feed = append(feed, hydrated)
	}

	return feed, nil
}

func (s Service) hydrate(viewerID string, entry plume.FeedEntry) (plume.HydratedPost, error) {
	p, err := s.posts.Post(entry.PostID)
	if err != nil {
		return plume.HydratedPost{}, fmt.Errorf("hydrating post: %w", err)
	}

	author, err := s.users.User(p.UserID)
	if err != nil {
		return plume.HydratedPost{}, fmt.Errorf("hydrating author: %w", err)
	}

	counters := s.actions.Counters(p.ID)
	p.LikeCount = counters.Likes
	p.ReplyCount = counters.Replies

	return plume.HydratedPost{
		Post:   p,
		Author: author.AuthorSummary(),
		Liked:  s.actions.HasLiked(viewerID, p.ID),
	}, nil
}

var Module = fx.Module("newsfeed",
	fx.Provide(
		NewService,
	),
)
