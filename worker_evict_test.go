package nodecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestEvictorEvictWritesBackAndRemoves(t *testing.T) {
	store := newTestStore(t)
	var written int
	var writtenKey string
	evictor := NewEvictor[string, int](store, func(ctx context.Context, key string, value int) error {
		written = value
		writtenKey = key
		return nil
	})

	sh := store.ShardFor("k")
	e := NewEntry[string, int]("k", 0, CachedWrite, false)
	e.SetValue(123)
	sh.Lock()
	sh.Put("k", e)
	sh.Unlock()

	if err := evictor.Evict(context.Background(), "k"); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if written != 123 || writtenKey != "k" {
		t.Fatalf("writeback got (%q, %d), want (\"k\", 123)", writtenKey, written)
	}

	sh.Lock()
	_, ok := sh.Get("k")
	sh.Unlock()
	if ok {
		t.Fatal("expected the entry to be removed from its shard after eviction")
	}
}

func TestEvictorEvictReadOnlyNoWriteback(t *testing.T) {
	store := newTestStore(t)
	var calls atomic.Int64
	evictor := NewEvictor[string, int](store, func(ctx context.Context, key string, value int) error {
		calls.Add(1)
		return nil
	})

	sh := store.ShardFor("k")
	e := NewEntry[string, int]("k", 0, CachedRead, false)
	sh.Lock()
	sh.Put("k", e)
	sh.Unlock()

	if err := evictor.Evict(context.Background(), "k"); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("writeback should not run for a read-only entry, got %d calls", calls.Load())
	}
}

func TestEvictorEvictWritebackFailurePropagates(t *testing.T) {
	store := newTestStore(t)
	evictor := NewEvictor[string, int](store, func(ctx context.Context, key string, value int) error {
		return errors.New("disk full")
	})

	sh := store.ShardFor("k")
	e := NewEntry[string, int]("k", 0, CachedWrite, false)
	sh.Lock()
	sh.Put("k", e)
	sh.Unlock()

	err := evictor.Evict(context.Background(), "k")
	if err == nil {
		t.Fatal("expected an error when writeback fails")
	}
	if GetErrorCode(err) != ErrCodeWritebackFailed {
		t.Fatalf("GetErrorCode = %q, want %q", GetErrorCode(err), ErrCodeWritebackFailed)
	}

	sh.Lock()
	state := e.GetState()
	sh.Unlock()
	if state != EvictingWrite {
		t.Fatalf("state = %s, want entry left in EVICTING_WRITE after a failed writeback", state)
	}
}

func TestEvictorEvictImmediate(t *testing.T) {
	store := newTestStore(t)
	evictor := NewEvictor[string, int](store, nil)

	sh := store.ShardFor("k")
	e := NewEntry[string, int]("k", 0, CachedRead, false)
	sh.Lock()
	sh.Put("k", e)
	sh.Unlock()

	if err := evictor.EvictImmediate("k"); err != nil {
		t.Fatalf("EvictImmediate: %v", err)
	}
	sh.Lock()
	_, ok := sh.Get("k")
	sh.Unlock()
	if ok {
		t.Fatal("expected the entry to be removed after EvictImmediate")
	}
}

func TestEvictorEvictUntrackedKeyFails(t *testing.T) {
	store := newTestStore(t)
	evictor := NewEvictor[string, int](store, nil)
	if err := evictor.Evict(context.Background(), "never-tracked"); err == nil {
		t.Fatal("expected an error evicting an untracked key")
	}
}

func TestEvictorDowngradeWritesBackAndDemotes(t *testing.T) {
	store := newTestStore(t)
	var written int
	evictor := NewEvictor[string, int](store, func(ctx context.Context, key string, value int) error {
		written = value
		return nil
	})

	sh := store.ShardFor("k")
	e := NewEntry[string, int]("k", 0, CachedWrite, false)
	e.SetValue(55)
	sh.Lock()
	sh.Put("k", e)
	sh.Unlock()

	if err := evictor.Downgrade(context.Background(), "k"); err != nil {
		t.Fatalf("Downgrade: %v", err)
	}
	if written != 55 {
		t.Fatalf("writeback value = %d, want 55", written)
	}

	sh.Lock()
	state := e.GetState()
	sh.Unlock()
	if state != CachedRead {
		t.Fatalf("state = %s, want CACHED_READ after downgrade", state)
	}
}

// fifoPolicy is a minimal EvictionPolicy implementing first-in-first-out
// candidate selection, enough to drive Evictor from the caller side without
// pulling in a real admission-control library.
type fifoPolicy[K comparable] struct {
	mu    sync.Mutex
	order []K
	seen  map[K]bool
}

func newFIFOPolicy[K comparable]() *fifoPolicy[K] {
	return &fifoPolicy[K]{seen: make(map[K]bool)}
}

func (p *fifoPolicy[K]) OnAccess(key K) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.seen[key] {
		p.seen[key] = true
		p.order = append(p.order, key)
	}
}

func (p *fifoPolicy[K]) OnRemove(key K) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.seen, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *fifoPolicy[K]) Candidate() (K, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var zero K
	if len(p.order) == 0 {
		return zero, false
	}
	return p.order[0], true
}

var _ EvictionPolicy[string] = (*fifoPolicy[string])(nil)

// TestEvictionPolicyDrivesEvictor exercises EvictionPolicy end to end: a
// caller-side scheduler records accesses, asks the policy for a candidate,
// and drives the actual transition through Evictor once one is available —
// the eviction-policy decision stays entirely outside Evictor itself.
func TestEvictionPolicyDrivesEvictor(t *testing.T) {
	store := newTestStore(t)
	evictor := NewEvictor[string, int](store, nil)
	policy := newFIFOPolicy[string]()

	for _, k := range []string{"a", "b", "c"} {
		sh := store.ShardFor(k)
		sh.Lock()
		sh.Put(k, NewEntry[string, int](k, 0, CachedRead, false))
		sh.Unlock()
		policy.OnAccess(k)
	}

	candidate, ok := policy.Candidate()
	if !ok || candidate != "a" {
		t.Fatalf("Candidate() = (%q, %v), want (\"a\", true)", candidate, ok)
	}

	if err := evictor.EvictImmediate(candidate); err != nil {
		t.Fatalf("EvictImmediate: %v", err)
	}
	policy.OnRemove(candidate)

	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after evicting the FIFO candidate", store.Len())
	}
	next, ok := policy.Candidate()
	if !ok || next != "b" {
		t.Fatalf("Candidate() = (%q, %v), want (\"b\", true)", next, ok)
	}
}

func TestEvictorDowngradeImmediate(t *testing.T) {
	store := newTestStore(t)
	evictor := NewEvictor[string, int](store, nil)

	sh := store.ShardFor("k")
	e := NewEntry[string, int]("k", 0, CachedWrite, false)
	sh.Lock()
	sh.Put("k", e)
	sh.Unlock()

	if err := evictor.DowngradeImmediate("k"); err != nil {
		t.Fatalf("DowngradeImmediate: %v", err)
	}
	sh.Lock()
	state := e.GetState()
	sh.Unlock()
	if state != CachedRead {
		t.Fatalf("state = %s, want CACHED_READ", state)
	}
}
