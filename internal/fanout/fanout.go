// Package fanout turns a freshly created post into a queued delivery job for
// every follower of its author.
package fanout

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/plumefeed/plume/internal/plume"
	"github.com/plumefeed/plume/internal/queue"
)

type (
	Enqueuer interface {
		Enqueue(job queue.Job) error
	}

	Service struct {
		graph plume.SocialGraph
		queue Enqueuer
	}

	Params struct {
		fx.In

		Graph plume.SocialGraph
		Queue Enqueuer
	}
)

func NewService(p Params) Service {
	return Service{
		graph: p.Graph,
		queue: p.Queue,
	}
}

// FanOut resolves the author's follower set and enqueues exactly one job for
// the post. Call it once per post, after the post is visible in the cache so
// an eager worker can already read it. It returns without waiting on any
// worker.
func (s Service) FanOut(ctx context.Context, postID, authorID string) error {
	followers := s.graph.Followers(authorID)
	if len(followers) == 0 {
		slog.DebugContext(ctx, "no followers to fan out to", "post_id", postID, "author_id", authorID)
		return nil
	}

	if err := s.queue.Enqueue(queue.Job{
		PostID:      postID,
		AuthorID:    authorID,
		FollowerIDs: followers,
	}); err != nil {
		return fmt.Errorf("enqueueing fanout for post %s: %w", postID, err)
	}

	slog.DebugContext(ctx, "fanout enqueued", "post_id", postID, "followers", len(followers))

	return nil
}

var Module = fx.Module("fanout",
	fx.Provide(
		NewService,
	),
)
