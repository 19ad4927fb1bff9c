// Package queue decouples post creation from fanout: an ordered job queue, a
// dispatcher that round-robins jobs across a fixed worker pool, and the
// workers that write into followers' feeds.
//
// Delivery is best-effort and at-most-once: jobs still queued or in flight
// when the process stops are gone. That's the contract, not a bug.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/plumefeed/plume/internal/plume"
)

// Job is one fanout unit: a single post plus the follower set snapshotted at
// enqueue time. Follows and unfollows after enqueue don't touch a job already
// in flight.
type Job struct {
	PostID      string
	AuthorID    string
	FollowerIDs []string
}

// FeedAppender is the slice of the cache layer the workers write through.
type FeedAppender interface {
	AppendToFeed(userID, postID string, ts time.Time) error
}

type Config struct {
	// Workers is the pool size. Defaults to 5.
	Workers int
	// Capacity bounds the queue; 0 means unbounded. A bounded queue can
	// reject an enqueue with plume.ErrQueueFull.
	Capacity int
}

// Queue owns the whole pipeline: the inbound channel, the dispatcher
// goroutine, and the worker goroutines.
type Queue struct {
	in       chan Job
	dispatch chan Job
	workers  []chan Job
	bounded  bool

	pending atomic.Int64

	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

func New(cfg Config, store FeedAppender) *Queue {
	n := cfg.Workers
	if n <= 0 {
		n = 5
	}

	q := &Queue{
		workers: make([]chan Job, n),
		bounded: cfg.Capacity > 0,
	}

	if q.bounded {
		// The buffered channel itself is the bound.
		q.in = make(chan Job, cfg.Capacity)
		q.dispatch = q.in
	} else {
		q.in = make(chan Job)
		q.dispatch = make(chan Job)
		q.wg.Add(1)
		go q.pump()
	}

	for i := range q.workers {
		q.workers[i] = make(chan Job, 1)
		q.wg.Add(1)
		go q.work(i, store)
	}

	q.wg.Add(1)
	go q.dispatcher()

	return q
}

// Enqueue submits a job. It never blocks on worker progress: the unbounded
// queue always accepts, the bounded one fails fast with plume.ErrQueueFull.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.New("queue closed")
	}

	if q.bounded {
		select {
		case q.in <- job:
		default:
			return fmt.Errorf("enqueue post %s: %w", job.PostID, plume.ErrQueueFull)
		}
		q.pending.Add(1)
		return nil
	}

	q.pending.Add(1)
	q.in <- job
	return nil
}

// Pending reports jobs enqueued but not yet fully processed.
func (q *Queue) Pending() int64 {
	return q.pending.Load()
}

// pump gives the queue its unbounded shape: it absorbs everything from the
// inbound channel into a slice and feeds the dispatcher as it keeps up, so a
// producer never waits on a slow worker.
func (q *Queue) pump() {
	defer q.wg.Done()
	defer close(q.dispatch)

	var buf []Job
	for {
		var (
			out  chan Job
			next Job
		)
		if len(buf) > 0 {
			out = q.dispatch
			next = buf[0]
		}

		select {
		case job, ok := <-q.in:
			if !ok {
				for _, j := range buf {
					q.dispatch <- j
				}
				return
			}
			buf = append(buf, job)
		case out <- next:
			buf = buf[1:]
		}
	}
}

// dispatcher assigns job k to worker k mod N, in arrival order. Round-robin
// by slot, not by load: distribution stays even and deterministic.
func (q *Queue) dispatcher() {
	defer q.wg.Done()
	defer func() {
		for _, w := range q.workers {
			close(w)
		}
	}()

	var k int
	for job := range q.dispatch {
		q.workers[workerFor(k, len(q.workers))] <- job
		k++
	}
}

func workerFor(k, n int) int {
	return k % n
}

// work drains one worker's inbound channel. Followers within a job are
// processed sequentially; a failure for one follower is logged and skipped,
// never fatal to the job or the worker.
func (q *Queue) work(id int, store FeedAppender) {
	defer q.wg.Done()

	for job := range q.workers[id] {
		slog.Debug("processing fanout", "worker", id, "post_id", job.PostID)

		ts := time.Now()
		for _, followerID := range job.FollowerIDs {
			if err := store.AppendToFeed(followerID, job.PostID, ts); err != nil {
				slog.Warn("skipping follower during fanout",
					"worker", id,
					"post_id", job.PostID,
					"follower_id", followerID,
					"error", err,
				)
			}
		}

		q.pending.Add(-1)
	}
}

// Shutdown waits (bounded by ctx) for in-flight jobs to finish, then stops
// the dispatcher and workers. Jobs that didn't make it are dropped, per the
// at-most-once contract.
func (q *Queue) Shutdown(ctx context.Context) error {
	drainErr := retry.Do(ctx, retry.NewConstant(20*time.Millisecond), func(ctx context.Context) error {
		if n := q.pending.Load(); n != 0 {
			return retry.RetryableError(fmt.Errorf("%d jobs still pending", n))
		}
		return nil
	})

	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.in)
	}
	q.mu.Unlock()

	q.wg.Wait()

	if drainErr != nil {
		return fmt.Errorf("draining fanout queue: %w", drainErr)
	}
	return nil
}
