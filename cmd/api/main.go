// The feed server: an in-memory social-feed write path with fanout-on-write.
//
// Posts land in the cache layer, a worker pool copies them into follower
// feeds, and reads hydrate the result. Everything is process-local and
// transient; stopping the process drops the state.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/sethvargo/go-envconfig"
	"go.uber.org/fx"

	"github.com/plumefeed/plume/internal/api"
	"github.com/plumefeed/plume/internal/cache"
	"github.com/plumefeed/plume/internal/fanout"
	"github.com/plumefeed/plume/internal/logger"
	"github.com/plumefeed/plume/internal/newsfeed"
	"github.com/plumefeed/plume/internal/plume"
	"github.com/plumefeed/plume/internal/post"
	"github.com/plumefeed/plume/internal/queue"
)

type config struct {
	Port          int    `env:"PORT, default=3030"`
	Workers       int    `env:"WORKERS, default=5"`
	QueueCapacity int    `env:"QUEUE_CAPACITY, default=0"`
	CorsOrigin    string `env:"CORS_ORIGIN, default=*"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`

	// Seeds a few users and follow edges so the API is usable out of the
	// box during development.
	DevSeed bool `env:"DEV_SEED, default=false"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	// Determine which logger format to use
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if cfg.LoggerFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	l := slog.New(logger.NewContextHandler(handler))
	slog.SetDefault(l)

	// The cache layer is built up front so it can be seeded and supplied
	// to every service and the worker pool as the one shared store.
	c := cache.New()
	if cfg.DevSeed {
		if err := seed(c); err != nil {
			log.Fatalf("error seeding dev data: %s", err)
		}
	}

	fx.New(
		fx.Supply(
			api.Config{
				Port:       cfg.Port,
				CorsOrigin: cfg.CorsOrigin,
			},
			queue.Config{
				Workers:  cfg.Workers,
				Capacity: cfg.QueueCapacity,
			},
			fx.Annotate(c,
				fx.As(new(plume.UserStore)),
				fx.As(new(plume.PostStore)),
				fx.As(new(plume.SocialGraph)),
				fx.As(new(plume.FeedStore)),
				fx.As(new(plume.ActionStore)),
				fx.As(new(queue.FeedAppender)),
			),
		),
		fx.Provide(
			func(q *queue.Queue) fanout.Enqueuer { return q },
			func(s fanout.Service) post.Fanout { return s },
		),
		queue.Module,
		fanout.Module,
		post.Module,
		newsfeed.Module,
		api.Module,
		fx.Invoke(func(api.Server) {}), // Start the api server
	).Run()
}

// A small dev graph: alice with two followers, bob with one.
func seed(c *cache.Cache) error {
	users := []plume.User{
		{ID: "1", Username: "alice", ProfilePicture: "https://example.com/alice.jpg"},
		{ID: "2", Username: "bob", ProfilePicture: "https://example.com/bob.jpg"},
		{ID: "3", Username: "charlie", ProfilePicture: "https://example.com/charlie.jpg"},
	}
	for _, usr := range users {
		if err := c.CreateUser(usr); err != nil {
			return err
		}
	}

	follows := [][2]string{
		{"2", "1"}, // Bob follows Alice
		{"3", "1"}, // Charlie follows Alice
		{"3", "2"}, // Charlie follows Bob
	}
	for _, f := range follows {
		if err := c.Follow(f[0], f[1]); err != nil {
			return err
		}
	}

	slog.Info("seeded dev data", "users", len(users), "follows", len(follows))

	return nil
}
