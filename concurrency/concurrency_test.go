package concurrency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSemaphore_BoundsConcurrency(t *testing.T) {
	sem := NewSemaphore(2)
	var current int32
	var maxSeen int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sem.Do(context.Background(), func(ctx context.Context) error {
				n := atomic.AddInt32(&current, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(maxSeen), 2)
}

func TestSemaphore_AcquireRespectsCancellation(t *testing.T) {
	sem := NewSemaphore(1)
	assert.NoError(t, sem.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := sem.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), RetryPolicy{Delays: []time.Duration{time.Millisecond, time.Millisecond}, MaxTrys: 3}, AlwaysRetryable, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_GivesUpOnNonRetryable(t *testing.T) {
	attempts := 0
	sentinel := errors.New("fatal")
	err := WithRetry(context.Background(), DefaultRetryPolicy(), func(err error) bool { return err != sentinel }, func(ctx context.Context) error {
		attempts++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_ExhaustsMaxTrys(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), RetryPolicy{Delays: []time.Duration{time.Millisecond}, MaxTrys: 2}, AlwaysRetryable, func(ctx context.Context) error {
		attempts++
		return errors.New("always fails")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, attempts)
}
