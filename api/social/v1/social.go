// Package v1 holds the wire types for the social surface: posting, feeds,
// follows, and likes.
package v1

import (
	"time"

	"github.com/plumefeed/plume/api"
)

type CreatePostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// Validate checks that the body (minus logic checks) is valid.
//
// Returns an api.Error if the request is invalid.
func (r CreatePostRequest) Validate() error {
	errs := []api.ErrorDetail{}
	if r.Content == "" {
		errs = append(errs, api.ErrorDetail{
			Field: "content",
			Error: "content is required",
		})
	}
	if len(errs) > 0 {
		return api.Error{
			Reason:  "invalid_request",
			Message: "request was invalid",
			Details: errs,
		}
	}

	return nil
}

type CreatePostResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id"`
}

type FollowUserRequest struct {
	TargetUserID string `json:"target_user_id"`
}

func (r FollowUserRequest) Validate() error {
	if r.TargetUserID == "" {
		return api.Error{
			Reason:  "invalid_request",
			Message: "request was invalid",
			Details: []api.ErrorDetail{{
				Field: "target_user_id",
				Error: "target_user_id is required",
			}},
		}
	}

	return nil
}

type LikePostRequest struct {
	PostID string `json:"post_id"`
}

func (r LikePostRequest) Validate() error {
	if r.PostID == "" {
		return api.Error{
			Reason:  "invalid_request",
			Message: "request was invalid",
			Details: []api.ErrorDetail{{
				Field: "post_id",
				Error: "post_id is required",
			}},
		}
	}

	return nil
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type Author struct {
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

type HydratedPost struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"image_url,omitempty"`
	VideoURL   string    `json:"video_url,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	LikeCount  uint64    `json:"like_count"`
	ReplyCount uint64    `json:"reply_count"`
	Author     Author    `json:"author"`
	Liked      bool      `json:"liked"`
}

type GetFeedResponse struct {
	Feed []HydratedPost `json:"feed"`
}

type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"image_url,omitempty"`
	VideoURL   string    `json:"video_url,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	LikeCount  uint64    `json:"like_count"`
	ReplyCount uint64    `json:"reply_count"`
}
