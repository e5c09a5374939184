package concurrent

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool(t *testing.T) {
	var sum atomic.Int64
	pool := NewWorkerPool(4, 2, func(n int) {
		sum.Add(int64(n))
	})
	pool.Start()

	for i := 1; i <= 100; i++ {
		require.NoError(t, pool.Submit(context.Background(), i))
	}
	pool.Close()

	assert.Equal(t, int64(5050), sum.Load())
}

func TestWorkerPoolSubmitCancelled(t *testing.T) {
	block := make(chan struct{})
	pool := NewWorkerPool(1, 0, func(int) { <-block })
	pool.Start()

	require.NoError(t, pool.Submit(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pool.Submit(ctx, 2), context.Canceled)

	close(block)
	pool.Close()
}
