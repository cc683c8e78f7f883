package nodecache

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestCond() *sync.Cond {
	var mu sync.Mutex
	return sync.NewCond(&mu)
}

func futureDeadline() int64 {
	return nowMillis() + 5000
}

// TestFetchUpgradeModifyFlushEvict walks an entry through fetch for read,
// upgrade to write, a modification, a commit flush, and finally eviction —
// the full happy-path lifecycle an object entry goes through.
func TestFetchUpgradeModifyFlushEvict(t *testing.T) {
	cond := newTestCond()
	e := NewEntry[string, int]("k", 1, FetchingRead, false)

	cond.L.Lock()
	if err := e.SetCachedRead(cond); err != nil {
		t.Fatalf("SetCachedRead: %v", err)
	}
	if e.GetState() != CachedRead {
		t.Fatalf("state = %s, want CACHED_READ", e.GetState())
	}

	if err := e.SetFetchingUpgrade(cond); err != nil {
		t.Fatalf("SetFetchingUpgrade: %v", err)
	}
	if err := e.SetUpgraded(cond); err != nil {
		t.Fatalf("SetUpgraded: %v", err)
	}
	if e.GetState() != CachedWrite {
		t.Fatalf("state = %s, want CACHED_WRITE", e.GetState())
	}

	e.SetValue(42)
	if err := e.SetCachedDirty(cond); err != nil {
		t.Fatalf("SetCachedDirty: %v", err)
	}
	if !e.GetModified() {
		t.Fatal("expected entry to be modified after SetCachedDirty")
	}

	if err := e.SetNotModified(cond); err != nil {
		t.Fatalf("SetNotModified: %v", err)
	}
	if e.GetModified() {
		t.Fatal("expected entry to no longer be modified after flush")
	}
	if e.GetValue() != 42 {
		t.Fatalf("value = %d, want 42", e.GetValue())
	}

	if err := e.SetEvicting(cond); err != nil {
		t.Fatalf("SetEvicting: %v", err)
	}
	if e.GetState() != EvictingWrite {
		t.Fatalf("state = %s, want EVICTING_WRITE", e.GetState())
	}
	if err := e.SetEvicted(cond); err != nil {
		t.Fatalf("SetEvicted: %v", err)
	}
	if !e.GetDecached() {
		t.Fatal("expected entry to be decached")
	}
	cond.L.Unlock()
}

// TestFetchEvictImmediate covers fetching a key for read and evicting it
// immediately, with no intervening transaction ever observing it writable.
func TestFetchEvictImmediate(t *testing.T) {
	cond := newTestCond()
	e := NewEntry[string, int]("k", 1, FetchingRead, false)

	cond.L.Lock()
	defer cond.L.Unlock()
	if err := e.SetCachedRead(cond); err != nil {
		t.Fatalf("SetCachedRead: %v", err)
	}
	if err := e.SetEvictedImmediate(cond); err != nil {
		t.Fatalf("SetEvictedImmediate: %v", err)
	}
	if !e.GetDecached() {
		t.Fatal("expected entry to be decached")
	}
}

// TestAwaitReadableTimeout checks that a reader blocked on a read that never
// arrives gets a timeout error rather than blocking forever.
func TestAwaitReadableTimeout(t *testing.T) {
	cond := newTestCond()
	e := NewEntry[string, int]("k", 1, FetchingRead, false)

	cond.L.Lock()
	defer cond.L.Unlock()
	start := time.Now()
	readable, err := e.AwaitReadable(context.Background(), cond, nowMillis()+100)
	elapsed := time.Since(start)

	if readable {
		t.Fatal("expected readable=false on timeout")
	}
	if !IsTimeout(err) {
		t.Fatalf("expected a timeout error, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Fatalf("returned too early: %v", elapsed)
	}
}

// TestDowngradeThenEvict exercises CachedWrite -> EvictingDowngrade ->
// CachedRead -> EvictingRead -> Decached.
func TestDowngradeThenEvict(t *testing.T) {
	cond := newTestCond()
	e := NewEntry[string, int]("k", 1, FetchingWrite, false)

	cond.L.Lock()
	defer cond.L.Unlock()
	if err := e.SetCachedWrite(cond); err != nil {
		t.Fatalf("SetCachedWrite: %v", err)
	}
	if err := e.SetEvictingDowngrade(cond); err != nil {
		t.Fatalf("SetEvictingDowngrade: %v", err)
	}
	if err := e.SetEvictedDowngrade(cond); err != nil {
		t.Fatalf("SetEvictedDowngrade: %v", err)
	}
	if e.GetState() != CachedRead {
		t.Fatalf("state = %s, want CACHED_READ after downgrade", e.GetState())
	}
	if err := e.SetEvicting(cond); err != nil {
		t.Fatalf("SetEvicting: %v", err)
	}
	if e.GetState() != EvictingRead {
		t.Fatalf("state = %s, want EVICTING_READ", e.GetState())
	}
	if err := e.SetEvicted(cond); err != nil {
		t.Fatalf("SetEvicted: %v", err)
	}
	if !e.GetDecached() {
		t.Fatal("expected entry to be decached")
	}
}

// TestAbandonFetchingSentinelKey covers abandoning a failed fetch of the
// sentinel last-binding key: permitted only when isSentinel was set at
// construction.
func TestAbandonFetchingSentinelKey(t *testing.T) {
	cond := newTestCond()
	sentinel := NewEntry[string, int]("last-binding", 1, FetchingRead, true)

	cond.L.Lock()
	if err := sentinel.SetEvictedAbandonFetching(cond); err != nil {
		t.Fatalf("SetEvictedAbandonFetching on sentinel key: %v", err)
	}
	if !sentinel.GetDecached() {
		t.Fatal("expected sentinel entry to be decached after abandonment")
	}
	cond.L.Unlock()
}

// TestAbandonFetchingNonSentinelKeyFails covers the failure case: a non-
// sentinel key may not be abandoned mid-fetch, and is left in its Fetching*
// state for the caller to retry or evict through the normal path.
func TestAbandonFetchingNonSentinelKeyFails(t *testing.T) {
	cond := newTestCond()
	e := NewEntry[string, int]("ordinary-key", 1, FetchingRead, false)

	cond.L.Lock()
	defer cond.L.Unlock()
	err := e.SetEvictedAbandonFetching(cond)
	if err == nil {
		t.Fatal("expected an error abandoning a non-sentinel key")
	}
	if GetErrorCode(err) != ErrCodeNotSentinel {
		t.Errorf("GetErrorCode = %q, want %q", GetErrorCode(err), ErrCodeNotSentinel)
	}
	if e.GetState() != FetchingRead {
		t.Fatalf("state = %s, want unchanged FETCHING_READ after rejected abandonment", e.GetState())
	}
}

// TestContextIDMonotonicity confirms NoteAccess only advances, never
// regresses, the entry's recorded context ID.
func TestContextIDMonotonicity(t *testing.T) {
	e := NewEntry[string, int]("k", 5, CachedRead, false)
	if e.GetContextID() != 5 {
		t.Fatalf("initial contextID = %d, want 5", e.GetContextID())
	}

	e.NoteAccess(10)
	if e.GetContextID() != 10 {
		t.Fatalf("contextID = %d, want 10 after advancing access", e.GetContextID())
	}

	e.NoteAccess(3)
	if e.GetContextID() != 10 {
		t.Fatalf("contextID = %d, want unchanged 10 after a lower access", e.GetContextID())
	}

	e.NoteAccess(10)
	if e.GetContextID() != 10 {
		t.Fatalf("contextID = %d, want unchanged 10 after an equal access", e.GetContextID())
	}
}

// TestInvalidTransitionLeavesStateUnchanged asserts the invariant that a
// rejected transition never mutates state.
func TestInvalidTransitionLeavesStateUnchanged(t *testing.T) {
	cond := newTestCond()
	e := NewEntry[string, int]("k", 1, CachedRead, false)

	cond.L.Lock()
	defer cond.L.Unlock()
	err := e.SetCachedDirty(cond)
	if err == nil {
		t.Fatal("expected SetCachedDirty from CACHED_READ to fail")
	}
	if !IsInvalidState(err) {
		t.Errorf("expected an invalid-state error, got %v", err)
	}
	if e.GetState() != CachedRead {
		t.Fatalf("state = %s, want unchanged CACHED_READ", e.GetState())
	}
}

// TestStateAlwaysOneOfTenVariants is a property check: every State constant
// maps to a distinct name and a distinct bitmask value.
func TestStateAlwaysOneOfTenVariants(t *testing.T) {
	all := []State{
		FetchingRead, CachedRead, FetchingUpgrade, FetchingWrite, CachedWrite,
		CachedDirty, EvictingDowngrade, EvictingRead, EvictingWrite, Decached,
	}
	if len(all) != 10 {
		t.Fatalf("expected exactly ten states, got %d", len(all))
	}
	seenNames := make(map[string]bool, len(all))
	seenValues := make(map[int]bool, len(all))
	for _, s := range all {
		if seenNames[s.String()] {
			t.Errorf("duplicate state name %q", s.String())
		}
		seenNames[s.String()] = true
		seenValues[s.value()] = true
	}
	if len(seenValues) != 10 {
		t.Errorf("expected ten distinct bitmask values, got %d", len(seenValues))
	}
}

// TestNotifyAllWakesWaiters confirms a transition's Broadcast wakes a
// goroutine blocked in AwaitReadable, rather than leaving it to timeout.
func TestNotifyAllWakesWaiters(t *testing.T) {
	cond := newTestCond()
	e := NewEntry[string, int]("k", 1, FetchingRead, false)

	done := make(chan error, 1)
	go func() {
		cond.L.Lock()
		defer cond.L.Unlock()
		_, err := e.AwaitReadable(context.Background(), cond, futureDeadline())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cond.L.Lock()
	if err := e.SetCachedRead(cond); err != nil {
		cond.L.Unlock()
		t.Fatalf("SetCachedRead: %v", err)
	}
	cond.L.Unlock()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("AwaitReadable returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitReadable did not wake up after the transition broadcast")
	}
}
