package core

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool runs submitted jobs on a fixed set of goroutines. The planner
// uses it to spread each relaxation pass over the rows of the distance matrix.
type WorkerPool struct {
	numWorkers int
	jobQueue   chan func()
	wg         sync.WaitGroup
	quit       chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewWorkerPool creates a pool with the given number of workers; zero or a
// negative count means one worker per CPU
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &WorkerPool{
		numWorkers: numWorkers,
		jobQueue:   make(chan func(), numWorkers*2),
		quit:       make(chan struct{}),
	}
}

// Start launches the worker goroutines. Calling it again is a no-op.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		for i := 0; i < wp.numWorkers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for {
		select {
		case job := <-wp.jobQueue:
			job()
			wp.wg.Done()
		case <-wp.quit:
			return
		}
	}
}

// Submit queues a job. It blocks while the queue is full.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.jobQueue <- job
}

// Wait blocks until every submitted job has finished
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Stop shuts the workers down. Jobs still queued are abandoned.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.quit)
	})
}

// NumWorkers returns the number of worker goroutines
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// ParallelForWithContext calls fn for every index in [start, end) and waits
// for all of them. Chunks check the
// context between iterations; the returned error is ctx.Err() if the context
// ended before or during the loop.
func (wp *WorkerPool) ParallelForWithContext(ctx context.Context, start, end int, fn func(int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if start >= end {
		return nil
	}

	totalWork := end - start
	chunkSize := max(1, totalWork/wp.numWorkers)

	for i := start; i < end; i += chunkSize {
		chunkStart := i
		chunkEnd := min(i+chunkSize, end)
		wp.Submit(func() {
			for j := chunkStart; j < chunkEnd; j++ {
				if ctx.Err() != nil {
					return
				}
				fn(j)
			}
		})
	}
	wp.Wait()
	return ctx.Err()
}
