package password

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Op names reported to an Observer.
const (
	OpHash   = "hash"
	OpVerify = "verify"
)

// Observer receives the duration and outcome of every computation a Pool runs.
type Observer func(op string, took time.Duration, err error)

// Pool runs Argon2id computations on dedicated goroutines, at most Concurrency at a time.
//
// Callers block only on their own result: a request waiting for a hash never holds up
// unrelated requests, and a burst of registrations cannot allocate more than
// Concurrency * MemoryKiB of Argon2 memory at once.
type Pool struct {
	cfg     Config
	sem     *semaphore.Weighted
	observe Observer
}

// PoolOption configures optional Pool behavior.
type PoolOption func(*Pool)

// WithObserver installs a callback for hash/verify timings (metrics).
func WithObserver(o Observer) PoolOption {
	return func(p *Pool) {
		if o != nil {
			p.observe = o
		}
	}
}

// NewPool builds a Pool for cfg. Concurrency <= 0 means 1.
func NewPool(cfg Config, opts ...PoolOption) *Pool {
	n := cfg.Concurrency
	if n <= 0 {
		n = 1
	}
	p := &Pool{
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(n)),
		observe: func(string, time.Duration, error) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Config returns the hashing configuration used by the pool.
func (p *Pool) Config() Config { return p.cfg }

type hashResult struct {
	hash string
	ok   bool
	err  error
}

// Hash computes an encoded hash for plain on a worker slot.
// It returns ctx.Err() if the context ends before a slot frees up or the result arrives.
func (p *Pool) Hash(ctx context.Context, plain string) (string, error) {
	res, err := p.run(ctx, OpHash, func() hashResult {
		h, err := p.cfg.Hash(plain)
		return hashResult{hash: h, err: err}
	})
	if err != nil {
		return "", err
	}
	return res.hash, res.err
}

// Verify checks plain against encodedHash on a worker slot.
func (p *Pool) Verify(ctx context.Context, encodedHash, plain string) (bool, error) {
	res, err := p.run(ctx, OpVerify, func() hashResult {
		ok, err := p.cfg.Verify(encodedHash, plain)
		return hashResult{ok: ok, err: err}
	})
	if err != nil {
		return false, err
	}
	return res.ok, res.err
}

func (p *Pool) run(ctx context.Context, op string, fn func() hashResult) (hashResult, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return hashResult{}, err
	}

	done := make(chan hashResult, 1)
	go func() {
		// The slot is held until the computation finishes, even if the caller gave up.
		defer p.sem.Release(1)

		start := time.Now()
		res := fn()
		p.observe(op, time.Since(start), res.err)
		done <- res
	}()

	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	}
}
