// Package api provides the HTTP surface over the feed core.
//
// It's deliberately thin glue: identity extraction, decoding, and mapping
// domain outcomes onto statuses. All state lives behind the services.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/fx"

	"github.com/plumefeed/plume/internal/newsfeed"
	"github.com/plumefeed/plume/internal/plume"
	"github.com/plumefeed/plume/internal/post"
	"github.com/plumefeed/plume/internal/serverutil"
)

type (
	// Server handles the social API: posting, reading feeds, following,
	// and liking.
	Server struct {
		*http.Server

		posts   post.Service
		feeds   newsfeed.Service
		graph   plume.SocialGraph
		actions plume.ActionStore
	}

	Config struct {
		Port       int
		CorsOrigin string
	}

	Params struct {
		fx.In

		Config  Config
		Posts   post.Service
		Feeds   newsfeed.Service
		Graph   plume.SocialGraph
		Actions plume.ActionStore
	}
)

func NewServer(lc fx.Lifecycle, p Params) Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter()}

	srvr := Server{
		posts:   p.Posts,
		feeds:   p.Feeds,
		graph:   p.Graph,
		actions: p.Actions,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", p.Config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{p.Config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type", "authorization"}),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything

	authed := serverutil.ErrRouter{Router: r.NewRoute().Subrouter()}
	authed.Use(requireIdentityMiddleware)

	authed.HandleFuncE("/v1/me/feed", srvr.postFeed).Methods(http.MethodPost)
	authed.HandleFuncE("/v1/me/feed", srvr.getFeed).Methods(http.MethodGet)
	authed.HandleFuncE("/v1/users/follow", srvr.postFollow).Methods(http.MethodPost)
	authed.HandleFuncE("/v1/posts/like", srvr.postLike).Methods(http.MethodPost)
	authed.HandleFuncE("/v1/posts/{postID}", srvr.getPost).Methods(http.MethodGet)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srvr.ListenAndServe()

			slog.Debug("started api server", "port", p.Config.Port)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srvr.Shutdown(ctx)
		},
	})

	return srvr
}

var Module = fx.Module("api",
	fx.Provide(
		NewServer,
	),
)
