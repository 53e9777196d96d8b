package mdexport

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("exporter pool closed")

// ExporterPool manages Exporter instances for parallel exports.
// Each exporter owns its own browser. Exporters are created lazily on
// first acquire to avoid startup delay.
type ExporterPool struct {
	size      int
	opts      []Option
	newFn     func(...Option) (*Exporter, error)
	exporters []*Exporter
	sem       chan *Exporter
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewExporterPool creates a pool with capacity for n exporters, each built
// with opts.
func NewExporterPool(n int, opts ...Option) *ExporterPool {
	if n < 1 {
		n = 1
	}

	return &ExporterPool{
		size:      n,
		opts:      opts,
		newFn:     NewExporter,
		exporters: make([]*Exporter, 0, n),
		sem:       make(chan *Exporter, n),
	}
}

// Acquire gets an exporter from the pool, creating one if needed.
// Blocks until one is released or ctx is done.
func (p *ExporterPool) Acquire(ctx context.Context) (*Exporter, error) {
	// Try to get an existing exporter (non-blocking)
	select {
	case exp, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return exp, nil
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

		// Create outside the lock
		exp, err := p.newFn(p.opts...)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.exporters = append(p.exporters, exp)
		p.mu.Unlock()

		return exp, nil
	}
	p.mu.Unlock()

	// All exporters created, wait for one to be released
	select {
	case exp, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return exp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an exporter to the pool.
// The lock is held while sending; the channel never blocks because it has
// room for every exporter the pool can create.
func (p *ExporterPool) Release(exp *Exporter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- exp
}

// Close releases all browser resources.
// Returns an aggregated error if multiple exporters fail to close.
func (p *ExporterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	exporters := p.exporters
	p.mu.Unlock()

	var errs []error
	for _, exp := range exporters {
		if err := exp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ExporterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return min(workers, MaxPoolSize)
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
