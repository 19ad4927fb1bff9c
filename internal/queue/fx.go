package queue

import (
	"go.uber.org/fx"
)

type ModuleParams struct {
	fx.In

	Config Config
	Store  FeedAppender
}

// NewWithLifecycle hangs the queue's drain-and-stop off the app lifecycle.
func NewWithLifecycle(lc fx.Lifecycle, p ModuleParams) *Queue {
	q := New(p.Config, p.Store)

	lc.Append(fx.Hook{
		OnStop: q.Shutdown,
	})

	return q
}

var Module = fx.Module("queue",
	fx.Provide(
		NewWithLifecycle,
	),
)
