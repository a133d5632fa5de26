// Package kernel provides the execution backends that run per-cell operator
// passes: a serial CPU loop, a persistent CPU worker pool, and an optional
// OpenCL pressure relaxer.
package kernel

import (
	"fmt"
	"runtime"
	"sync"
)

// DefaultThreshold is the minimum cell count dispatched to workers.
// Below this, a pass runs inline on the caller's goroutine.
const DefaultThreshold = 4096

// Executor runs fn over [0,n) split into contiguous chunks. Run returns only
// after every chunk has completed. Chunks never overlap.
type Executor interface {
	Name() string
	Run(n int, fn func(lo, hi int))
	Close()
}

// NewExecutor builds an executor by name ("serial" or "pool").
func NewExecutor(name string, workers, threshold int) (Executor, error) {
	switch name {
	case "", "pool", "parallel":
		return NewPool(workers, threshold), nil
	case "serial":
		return Serial{}, nil
	default:
		return nil, fmt.Errorf("unknown executor %q", name)
	}
}

// Serial runs every pass inline.
type Serial struct{}

func (Serial) Name() string { return "serial" }

func (Serial) Run(n int, fn func(lo, hi int)) {
	if n > 0 {
		fn(0, n)
	}
}

func (Serial) Close() {}

// chunk is a range of cells for one worker.
type chunk struct {
	lo, hi int
	fn     func(lo, hi int)
}

// Pool is a persistent set of worker goroutines fed over a channel. Workers
// start lazily on the first large pass and stop on Close.
type Pool struct {
	numWorkers int
	threshold  int

	mu       sync.Mutex
	workChan chan chunk    // sends work to workers
	doneChan chan struct{} // workers signal completion
	stopChan chan struct{} // signals workers to exit
	wg       sync.WaitGroup
	running  bool
}

// NewPool creates a pool. workers <= 0 uses GOMAXPROCS; threshold <= 0 uses
// DefaultThreshold.
func NewPool(workers, threshold int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Pool{numWorkers: workers, threshold: threshold}
}

func (p *Pool) Name() string { return fmt.Sprintf("pool(%d)", p.numWorkers) }

// Workers returns the worker count.
func (p *Pool) Workers() int { return p.numWorkers }

func (p *Pool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan chunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case c, ok := <-p.workChan:
			if !ok {
				return
			}
			c.fn(c.lo, c.hi)
			p.doneChan <- struct{}{}
		}
	}
}

// Run dispatches fn across the workers, or runs it inline for small n.
func (p *Pool) Run(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if n < p.threshold || p.numWorkers == 1 {
		fn(0, n)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.start()

	size := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		p.workChan <- chunk{lo: lo, hi: hi, fn: fn}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// Close stops the workers and waits for them to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}
