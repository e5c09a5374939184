package concurrent

import (
	"context"
	"sync"
)

// WorkerPool runs jobFunc on a fixed number of goroutines. Submit after Close panics.
type WorkerPool[T any] struct {
	workers   int
	jobs      chan T
	waitGroup sync.WaitGroup
	jobFunc   func(T)
}

func NewWorkerPool[T any](workers, buffer int, jobFunc func(T)) *WorkerPool[T] {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool[T]{
		workers: workers,
		jobs:    make(chan T, buffer),
		jobFunc: jobFunc,
	}
}

func (wp *WorkerPool[T]) Start() {
	wp.waitGroup.Add(wp.workers)
	for i := 0; i < wp.workers; i++ {
		go func() {
			defer wp.waitGroup.Done()
			for job := range wp.jobs {
				wp.jobFunc(job)
			}
		}()
	}
}

// Submit queues job, blocking while the buffer is full.
func (wp *WorkerPool[T]) Submit(ctx context.Context, job T) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.jobs <- job:
		return nil
	}
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (wp *WorkerPool[T]) Close() {
	close(wp.jobs)
	wp.waitGroup.Wait()
}
