package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	socialv1 "github.com/plumefeed/plume/api/social/v1"
	plerrs "github.com/plumefeed/plume/internal/errors"
	"github.com/plumefeed/plume/internal/plume"
	"github.com/plumefeed/plume/internal/post"
	"github.com/plumefeed/plume/internal/serverutil"
)

func (s Server) postFeed(w http.ResponseWriter, r *http.Request) error {
	body, err := serverutil.DecodeValid[socialv1.CreatePostRequest](r.Body)
	if err != nil {
		return plerrs.E(err, http.StatusBadRequest)
	}

	p, err := s.posts.CreatePost(r.Context(), callerID(r), body.Content, post.CreatePostArgs{
		ImageURL: body.ImageURL,
		VideoURL: body.VideoURL,
	})
	if err != nil {
		return plerrs.FromDomain(err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, socialv1.CreatePostResponse{
		Success: true,
		PostID:  p.ID,
	})
}

func (s Server) getFeed(w http.ResponseWriter, r *http.Request) error {
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return plerrs.E("limit must be an integer", http.StatusBadRequest)
		}
		limit = parsed
	}

	feed, err := s.feeds.Feed(r.Context(), callerID(r), limit)
	if err != nil {
		return plerrs.FromDomain(err)
	}

	resp := socialv1.GetFeedResponse{Feed: make([]socialv1.HydratedPost, 0, len(feed))}
	for _, hp := range feed {
		resp.Feed = append(resp.Feed, apiHydratedPost(hp))
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

func (s Server) postFollow(w http.ResponseWriter, r *http.Request) error {
	body, err := serverutil.DecodeValid[socialv1.FollowUserRequest](r.Body)
	if err != nil {
		return plerrs.E(err, http.StatusBadRequest)
	}

	err = s.graph.Follow(callerID(r), body.TargetUserID)
	// A repeat follow is an idempotent success as far as callers care.
	if err != nil && !errors.Is(err, plume.ErrConflict) {
		return plerrs.FromDomain(err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, socialv1.SuccessResponse{Success: true})
}

func (s Server) postLike(w http.ResponseWriter, r *http.Request) error {
	body, err := serverutil.DecodeValid[socialv1.LikePostRequest](r.Body)
	if err != nil {
		return plerrs.E(err, http.StatusBadRequest)
	}

	err = s.actions.IncrementLike(body.PostID, callerID(r))
	// Re-liking counts as success; the counter already reflects the like.
	if err != nil && !errors.Is(err, plume.ErrConflict) {
		return plerrs.FromDomain(err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, socialv1.SuccessResponse{Success: true})
}

func (s Server) getPost(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["postID"]

	p, err := s.posts.Post(r.Context(), id)
	if err != nil {
		return plerrs.FromDomain(err)
	}

	counters := s.actions.Counters(p.ID)
	p.LikeCount = counters.Likes
	p.ReplyCount = counters.Replies

	return serverutil.WriteJSON(w, http.StatusOK, apiPost(p))
}

func apiPost(p plume.Post) socialv1.Post {
	return socialv1.Post{
		ID:         p.ID,
		UserID:     p.UserID,
		Content:    p.Content,
		ImageURL:   p.ImageURL,
		VideoURL:   p.VideoURL,
		Timestamp:  p.Timestamp,
		LikeCount:  p.LikeCount,
		ReplyCount: p.ReplyCount,
	}
}

func apiHydratedPost(hp plume.HydratedPost) socialv1.HydratedPost {
	return socialv1.HydratedPost{
		ID:         hp.ID,
		UserID:     hp.UserID,
		Content:    hp.Content,
		ImageURL:   hp.ImageURL,
		VideoURL:   hp.VideoURL,
		Timestamp:  hp.Timestamp,
		LikeCount:  hp.LikeCount,
		ReplyCount: hp.ReplyCount,
		Author: socialv1.Author{
			Username:       hp.Author.Username,
			ProfilePicture: hp.Author.ProfilePicture,
		},
		Liked: hp.Liked,
	}
}
