// Package parallel runs independent jobs on a bounded set of goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Pool feeds jobs to a fixed number of workers. With a single worker jobs
// run inline in the caller's goroutine.
type Pool struct {
	wg    sync.WaitGroup
	work  chan func()
	close func()
}

func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{close: func() {}}
	if numWorkers > 1 {
		pool.work = make(chan func(), numWorkers)
		for range numWorkers {
			pool.wg.Go(func() {
				for f := range pool.work {
					f()
				}
			})
		}
		pool.close = sync.OnceFunc(func() { close(pool.work) })
	}

	return pool
}

// Do schedules f. It blocks while every worker is busy and the queue is
// full. Do must not be called after Wait.
func (p *Pool) Do(f func()) {
	if p.work == nil {
		f()
		return
	}
	p.work <- f
}

// Wait stops accepting jobs and blocks until every scheduled job returned.
func (p *Pool) Wait() {
	p.close()
	p.wg.Wait()
}

// Each runs f for every index in [0, n) on a pool of numWorkers and returns
// the first error reported, by index order.
func Each(numWorkers, n int, f func(i int) error) error {
	errs := make([]error, n)
	pool := Start(min(numWorkers, n))
	for i := range n {
		pool.Do(func() {
			errs[i] = f(i)
		})
	}
	pool.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
