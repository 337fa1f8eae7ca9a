package transfer

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/semaphore"
)

// job is one part ready to run.
type job struct {
	part    *partState
	run     func(ctx context.Context, p *partState) error
	release func()
}

// runJobs pulls jobs from next and runs them with at most c.concurrency in
// flight. next returns io.EOF when no parts remain. The first failure stops
// every other part and is returned; unstarted parts are never pulled.
func (c *Command) runJobs(ctx context.Context, next func() (*job, error)) error {
	sem := semaphore.NewWeighted(int64(c.concurrency))
	partsCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			stop(err)
		})
	}

	for {
		if err := sem.Acquire(partsCtx, 1); err != nil {
			break
		}
		// Acquire may succeed on a done context when a slot is free
		if partsCtx.Err() != nil {
			sem.Release(1)
			break
		}

		j, err := next()
		if err == io.EOF {
			sem.Release(1)
			break
		}
		if err != nil {
			sem.Release(1)
			fail(err)
			break
		}

		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			defer sem.Release(1)
			if j.release != nil {
				defer j.release()
			}
			if err := j.run(partsCtx, j.part); err != nil {
				fail(err)
			}
		}(j)
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
