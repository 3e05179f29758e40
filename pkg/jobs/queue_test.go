package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainsOnStop(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	q := New("test", func(_ context.Context, job Job[int]) error {
		mu.Lock()
		seen = append(seen, job.Payload)
		mu.Unlock()
		return nil
	}, Config{Workers: 1, BufferSize: 8})
	q.Start(context.Background())

	for i := 1; i <= 5; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
}

func TestQueueRejectsWhenClosed(t *testing.T) {
	q := New("test", func(context.Context, Job[string]) error { return nil }, Config{})
	assert.ErrorIs(t, q.Enqueue("never started"), ErrClosed)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue("after stop"), ErrClosed)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	done := make(chan int, 1)
	q := New("test", func(_ context.Context, job Job[string]) error {
		if job.Attempt < 2 {
			return errors.New("disk busy")
		}
		done <- job.Attempt
		return nil
	}, Config{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue("/uploads/avatars/a.png"))
	select {
	case attempt := <-done:
		assert.Equal(t, 2, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}

func TestQueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := New("test", func(context.Context, Job[int]) error {
		<-block
		return nil
	}, Config{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(1))
	// the worker may or may not have picked up the first job yet
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.Enqueue(i + 2)
	}
	assert.Error(t, err)

	close(block)
	q.Stop()
}
