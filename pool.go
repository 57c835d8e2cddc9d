package readsnap

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("extractor pool is closed")

// ExtractorPool hands out Extractors for parallel batch work. Each one owns
// its browser. Extractors are created lazily on first acquire.
type ExtractorPool struct {
	size       int
	opts       []Option
	extractors []*Extractor
	sem        chan *Extractor
	mu         sync.Mutex
	created    int
	closed     bool
}

// NewExtractorPool creates a pool with capacity for n Extractors built
// with opts.
func NewExtractorPool(n int, opts ...Option) *ExtractorPool {
	if n < 1 {
		n = 1
	}
	return &ExtractorPool{
		size:       n,
		opts:       opts,
		extractors: make([]*Extractor, 0, n),
		sem:        make(chan *Extractor, n),
	}
}

// Acquire gets an Extractor from the pool, creating one if needed.
// Blocks if all are in use.
func (p *ExtractorPool) Acquire() (*Extractor, error) {
	select {
	case e, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return e, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Build outside the lock.
		e, err := NewExtractor(p.opts...)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.extractors = append(p.extractors, e)
		p.mu.Unlock()
		return e, nil
	}
	p.mu.Unlock()

	e, ok := <-p.sem
	if !ok {
		return nil, ErrPoolClosed
	}
	return e, nil
}

// Release returns an Extractor to the pool.
// The channel holds every created Extractor, so the send never blocks and
// can happen under the lock that guards close.
func (p *ExtractorPool) Release(e *Extractor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- e
}

// Close shuts down every browser the pool launched.
// Returns an aggregated error if several fail to close.
func (p *ExtractorPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	extractors := p.extractors
	p.mu.Unlock()

	var errs []error
	for _, e := range extractors {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ExtractorPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
