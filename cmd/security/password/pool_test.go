package password

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPool_HashAndVerify(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	p := NewPool(testConfig(), WithObserver(func(op string, _ time.Duration, _ error) {
		mu.Lock()
		seen[op]++
		mu.Unlock()
	}))

	ctx := context.Background()
	h, err := p.Hash(ctx, "pw123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := p.Verify(ctx, h, "pw123")
	if err != nil || !ok {
		t.Fatalf("Verify ok=%v err=%v", ok, err)
	}
	ok, err = p.Verify(ctx, h, "nope")
	if err != nil || ok {
		t.Fatalf("Verify wrong ok=%v err=%v", ok, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if seen[OpHash] != 1 || seen[OpVerify] != 2 {
		t.Fatalf("observer counts: %v", seen)
	}
}

func TestPool_InvalidHashSurfaces(t *testing.T) {
	p := NewPool(testConfig())

	ok, err := p.Verify(context.Background(), "garbage", "pw")
	if !errors.Is(err, ErrInvalidHash) || ok {
		t.Fatalf("expected ErrInvalidHash, got ok=%v err=%v", ok, err)
	}
}

func TestPool_ConcurrentHashes(t *testing.T) {
	cfg := testConfig()
	cfg.Concurrency = 2
	p := NewPool(cfg)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := p.Hash(context.Background(), "pw")
			if err != nil {
				errs <- err
				return
			}
			if ok, err := p.Verify(context.Background(), h, "pw"); err != nil || !ok {
				errs <- errors.New("verify failed")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent hash: %v", err)
	}
}

func TestPool_ContextCanceledWhileWaiting(t *testing.T) {
	cfg := testConfig()
	cfg.Concurrency = 1
	p := NewPool(cfg)

	// Hold the only slot.
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Hash(ctx, "pw")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
