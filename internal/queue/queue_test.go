package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/plumefeed/plume/internal/plume"
)

// recordingStore is a FeedAppender that remembers every append, in order.
type recordingStore struct {
	mu      sync.Mutex
	appends []appendCall
	failFor map[string]error
}

type appendCall struct {
	userID string
	postID string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{failFor: map[string]error{}}
}

func (s *recordingStore) AppendToFeed(userID, postID string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failFor[userID]; ok {
		return err
	}
	s.appends = append(s.appends, appendCall{userID: userID, postID: postID})
	return nil
}

func (s *recordingStore) calls() []appendCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]appendCall(nil), s.appends...)
}

func shutdown(t *testing.T, q *Queue) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))
}

func TestWorkerFor(t *testing.T) {
	// Job k goes to worker k mod N
	assert.Equal(t, 0, workerFor(0, 3))
	assert.Equal(t, 1, workerFor(1, 3))
	assert.Equal(t, 2, workerFor(2, 3))
	assert.Equal(t, 0, workerFor(3, 3))
	assert.Equal(t, 1, workerFor(4, 3))
}

func TestEnqueue_DeliversToEveryFollower(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newRecordingStore()
	q := New(Config{Workers: 3}, store)

	require.NoError(t, q.Enqueue(Job{
		PostID:      "p1",
		AuthorID:    "u1",
		FollowerIDs: []string{"u2", "u3", "u4"},
	}))

	shutdown(t, q)

	calls := store.calls()
	require.Len(t, calls, 3)
	delivered := map[string]int{}
	for _, call := range calls {
		assert.Equal(t, "p1", call.postID)
		delivered[call.userID]++
	}
	// Exactly once per follower; order among same-job followers is not
	// part of the contract.
	assert.Equal(t, map[string]int{"u2": 1, "u3": 1, "u4": 1}, delivered)
}

func TestSingleWorker_ProcessesJobsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newRecordingStore()
	q := New(Config{Workers: 1}, store)

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(Job{
			PostID:      fmt.Sprintf("p%d", i),
			AuthorID:    "u1",
			FollowerIDs: []string{"u2"},
		}))
	}

	shutdown(t, q)

	calls := store.calls()
	require.Len(t, calls, 10)
	for i, call := range calls {
		assert.Equal(t, fmt.Sprintf("p%d", i), call.postID)
	}
}

func TestWorker_SkipsFailingFollower(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newRecordingStore()
	store.failFor["u3"] = fmt.Errorf("user u3: %w", plume.ErrNotFound)
	q := New(Config{Workers: 2}, store)

	require.NoError(t, q.Enqueue(Job{
		PostID:      "p1",
		AuthorID:    "u1",
		FollowerIDs: []string{"u2", "u3", "u4"},
	}))

	shutdown(t, q)

	// u3 failed, the remaining followers in the job still got the post
	delivered := map[string]bool{}
	for _, call := range store.calls() {
		delivered[call.userID] = true
	}
	assert.True(t, delivered["u2"])
	assert.True(t, delivered["u4"])
	assert.False(t, delivered["u3"])
}

func TestUnbounded_AbsorbsBurstWithoutBlocking(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newRecordingStore()
	q := New(Config{Workers: 2}, store)

	// Far more jobs than any channel buffering; Enqueue must accept all
	// of them promptly.
	const jobs = 2000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < jobs; i++ {
			_ = q.Enqueue(Job{PostID: fmt.Sprintf("p%d", i), AuthorID: "u1", FollowerIDs: []string{"u2"}})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("enqueue burst blocked")
	}

	shutdown(t, q)
	assert.Len(t, store.calls(), jobs)
	assert.Equal(t, int64(0), q.Pending())
}

func TestBounded_RejectsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	// A store that blocks until released, wedging the workers
	release := make(chan struct{})
	blocked := blockingStore{release: release}
	q := New(Config{Workers: 1, Capacity: 1}, blocked)

	// First job occupies the worker, the rest fill the buffer until one
	// gets the queue-full outcome.
	var full bool
	for i := 0; i < 10; i++ {
		if err := q.Enqueue(Job{PostID: fmt.Sprintf("p%d", i), FollowerIDs: []string{"u2"}}); err != nil {
			require.ErrorIs(t, err, plume.ErrQueueFull)
			full = true
			break
		}
	}
	assert.True(t, full, "expected a queue-full outcome")

	close(release)
	shutdown(t, q)
}

type blockingStore struct {
	release chan struct{}
}

func (s blockingStore) AppendToFeed(userID, postID string, ts time.Time) error {
	<-s.release
	return nil
}

func TestConcurrentJobs_DisjointFollowersAllComplete(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newRecordingStore()
	q := New(Config{Workers: 4}, store)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = q.Enqueue(Job{
				PostID:      fmt.Sprintf("p%d", i),
				AuthorID:    "author",
				FollowerIDs: []string{fmt.Sprintf("follower%d", i)},
			})
		}(i)
	}
	wg.Wait()

	shutdown(t, q)

	calls := store.calls()
	assert.Len(t, calls, 100)
}

func TestEnqueue_AfterShutdownFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := New(Config{Workers: 1}, newRecordingStore())
	shutdown(t, q)

	require.Error(t, q.Enqueue(Job{PostID: "p1"}))
}
