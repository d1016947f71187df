package actions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureResolve(t *testing.T) {
	f := NewFuture[string]()
	go f.Resolve("done")

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestFutureReject(t *testing.T) {
	f := NewFuture[int]()
	boom := errors.New("boom")
	assert.True(t, f.Reject(boom))

	v, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, v)
}

func TestFutureFirstCompletionWins(t *testing.T) {
	f := NewFuture[int]()
	assert.True(t, f.Resolve(1))
	assert.False(t, f.Resolve(2))
	assert.False(t, f.Reject(errors.New("late")))

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFutureConcurrentCompletion(t *testing.T) {
	f := NewFuture[int]()
	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if f.Resolve(i) {
				winners.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())

	select {
	case <-f.Done():
	default:
		t.Fatal("Done not closed after completion")
	}
}

func TestFutureComplete(t *testing.T) {
	f := NewFuture[string]()
	f.Complete("ignored", errors.New("failed"))
	_, err := f.Wait(context.Background())
	assert.EqualError(t, err, "failed")

	g := NewFuture[string]()
	g.Complete("ok", nil)
	v, err := g.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestFutureWaitContext(t *testing.T) {
	f := NewFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// A late completion is still accepted.
	assert.True(t, f.Resolve(7))
}
