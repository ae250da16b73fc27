package invoice

import (
	"context"
	"sync"
)

type jobResult[R any] struct {
	value R
	err   error
}

// workerPool is a fixed-size goroutine pool with a bounded input queue and a
// results channel sized for every job of the batch.
type workerPool[T, R any] struct {
	queue   chan T
	results chan jobResult[R]
	process func(ctx context.Context, t T) (R, error)
	wg      sync.WaitGroup
}

// newWorkerPool creates and starts a pool with n goroutines, queue capacity
// queueCap and room for jobs results.
func newWorkerPool[T, R any](ctx context.Context, n, queueCap, jobs int, fn func(context.Context, T) (R, error)) *workerPool[T, R] {
	if n < 1 {
		n = 1
	}
	p := &workerPool[T, R]{
		queue:   make(chan T, queueCap),
		results: make(chan jobResult[R], jobs),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			v, err := p.process(ctx, t)
			p.results <- jobResult[R]{value: v, err: err}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues a job, blocking until there is room or ctx is done.
func (p *workerPool[T, R]) Submit(ctx context.Context, t T) bool {
	select {
	case p.queue <- t:
		return true
	case <-ctx.Done():
		return false
	}
}

// Drain closes the queue, waits for all workers to finish and closes results.
func (p *workerPool[T, R]) Drain() {
	close(p.queue)
	p.wg.Wait()
	close(p.results)
}

// Results returns the channel of finished jobs; it is closed by Drain.
func (p *workerPool[T, R]) Results() <-chan jobResult[R] {
	return p.results
}
