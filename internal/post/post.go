// Package post validates and stores new posts, then hands them to fanout.
package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goaway "github.com/TwiN/go-away"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/fx"

	"github.com/plumefeed/plume/internal/plume"
)

const maxContentLength = 4096

var stripPolicy = bluemonday.StrictPolicy()

type (
	// Fanout is whatever propagates a stored post to follower feeds.
	Fanout interface {
		FanOut(ctx context.Context, postID, authorID string) error
	}

	Service struct {
		users  plume.UserStore
		posts  plume.PostStore
		fanout Fanout
	}

	Params struct {
		fx.In

		Users  plume.UserStore
		Posts  plume.PostStore
		Fanout Fanout
	}

	// CreatePostArgs carries the optional attachments.
	CreatePostArgs struct {
		ImageURL string
		VideoURL string
	}
)

func NewService(p Params) Service {
	return Service{
		users:  p.Users,
		posts:  p.Posts,
		fanout: p.Fanout,
	}
}

// CreatePost validates the content, stores the post, and triggers fanout.
// It returns as soon as the post itself is stored; fanout failures are
// logged, never surfaced, since delivery is best-effort and asynchronous.
func (s Service) CreatePost(ctx context.Context, authorID, content string, args CreatePostArgs) (plume.Post, error) {
	if _, err := s.users.User(authorID); err != nil {
		return plume.Post{}, fmt.Errorf("looking up author: %w", err)
	}

	content, err := cleanContent(content)
	if err != nil {
		return plume.Post{}, err
	}

	p := plume.Post{
		ID:        "post_" + uuid.NewString(),
		UserID:    authorID,
		Content:   content,
		ImageURL:  args.ImageURL,
		VideoURL:  args.VideoURL,
		Timestamp: time.Now(),
	}
	s.posts.SetPost(p)

	slog.InfoContext(ctx, "post created", "post_id", p.ID, "author_id", authorID)

	if err := s.fanout.FanOut(ctx, p.ID, authorID); err != nil {
		slog.ErrorContext(ctx, "fanout failed", "post_id", p.ID, "error", err)
	}

	return p, nil
}

// Post fetches a single post.
func (s Service) Post(ctx context.Context, id string) (plume.Post, error) {
	return s.posts.Post(id)
}

// Strips any markup, trims, and enforces the length and profanity rules.
func cleanContent(content string) (string, error) {
	content = strings.TrimSpace(stripPolicy.Sanitize(content))

	if content == "" {
		return "", fmt.Errorf("content is required: %w", plume.ErrValidation)
	}
	if len(content) > maxContentLength {
		return "", fmt.Errorf("content exceeds %d bytes: %w", maxContentLength, plume.ErrValidation)
	}
	if goaway.IsProfane(content) {
		return "", fmt.Errorf("content contains profanity: %w", plume.ErrValidation)
	}

	return content, nil
}

var Module = fx.Module("post",
	fx.Provide(
		NewService,
	),
)
