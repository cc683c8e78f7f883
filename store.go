// store.go: a sharded, hash-indexed container of entries
//
// Store is the cache container external collaborator the spec keeps out of
// scope for the state machine itself (spec.md §1): it owns the shard
// mutexes the Entry methods require, and the hash-indexed map each shard
// uses to look entries up by key. A node-local data store keeps two
// entirely independent Store instances side by side — one for object
// entries, one for name-binding entries — each with its own shard family,
// matching spec.md §5's "two mutex families ... passed per-call".
//
// Grounded on krisalay-in-memory-cache/shard/shard.go and
// shard/selector.go for the sharding shape (one mutex per shard, FNV hash
// to pick a shard), and on cache.go's Config-driven constructor convention.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nodecache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Shard owns one slice of a Store's keyspace: its own mutex/condition-
// variable pair and its own entry map. Every Entry method touching state
// must be called while the shard that owns the entry's key is locked.
type Shard[K comparable, V any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries map[K]*Entry[K, V]
}

func newShard[K comparable, V any]() *Shard[K, V] {
	sh := &Shard[K, V]{entries: make(map[K]*Entry[K, V])}
	sh.cond = sync.NewCond(&sh.mu)
	return sh
}

// Lock acquires the shard's mutex. Every Entry call against a key in this
// shard, and every Store method that looks entries up by key, must happen
// while the shard is locked.
func (sh *Shard[K, V]) Lock() { sh.mu.Lock() }

// Unlock releases the shard's mutex.
func (sh *Shard[K, V]) Unlock() { sh.mu.Unlock() }

// Cond returns the condition variable bound to this shard's mutex, for use
// as the cond argument to Entry transition and Await* methods.
func (sh *Shard[K, V]) Cond() *sync.Cond { return sh.cond }

// Get returns the entry for key, if one is present. The shard must already
// be locked.
func (sh *Shard[K, V]) Get(key K) (*Entry[K, V], bool) {
	e, ok := sh.entries[key]
	return e, ok
}

// Put inserts or replaces the entry for key. The shard must already be
// locked.
func (sh *Shard[K, V]) Put(key K, e *Entry[K, V]) {
	sh.entries[key] = e
}

// Remove deletes the entry for key, if any is present, typically once it
// has reached Decached. The shard must already be locked.
func (sh *Shard[K, V]) Remove(key K) {
	delete(sh.entries, key)
}

// Len returns the number of entries currently tracked by the shard. The
// shard must already be locked.
func (sh *Shard[K, V]) Len() int { return len(sh.entries) }

// Store is a sharded, hash-indexed container of Entry values, keyed by K.
// It is the cache container collaborator described in spec.md §6: it
// supplies the shard mutexes and the key-to-entry maps, but it does not
// itself perform entry state transitions or choose entries to evict.
type Store[K comparable, V any] struct {
	shards           []*Shard[K, V]
	hash             func(K) uint64
	cfg              Config
	waitTimeoutNanos atomic.Int64
}

// NewStore creates a Store with the given configuration and key-hashing
// function, used to pick which shard a key belongs to.
func NewStore[K comparable, V any](cfg Config, hash func(K) uint64) *Store[K, V] {
	_ = cfg.Validate()
	s := &Store[K, V]{
		shards: make([]*Shard[K, V], cfg.ShardCount),
		hash:   hash,
		cfg:    cfg,
	}
	s.waitTimeoutNanos.Store(int64(cfg.WaitTimeout))
	for i := range s.shards {
		s.shards[i] = newShard[K, V]()
	}
	return s
}

// SetWaitTimeout atomically updates the wait timeout Deadline uses, without
// disturbing any other configuration field. Safe to call concurrently with
// Deadline from any goroutine; used by HotConfig to apply a reloaded value.
func (s *Store[K, V]) SetWaitTimeout(d time.Duration) {
	s.waitTimeoutNanos.Store(int64(d))
}

// WaitTimeoutNow returns the wait timeout Deadline currently uses.
func (s *Store[K, V]) WaitTimeoutNow() time.Duration {
	return time.Duration(s.waitTimeoutNanos.Load())
}

// ShardFor returns the shard that owns key. The returned shard is not
// locked; the caller must Lock it before touching any entry in it.
func (s *Store[K, V]) ShardFor(key K) *Shard[K, V] {
	idx := s.hash(key) % uint64(len(s.shards))
	return s.shards[idx]
}

// ShardCount returns the number of shards this Store was built with.
func (s *Store[K, V]) ShardCount() int { return len(s.shards) }

// Config returns the Store's (validated) configuration.
func (s *Store[K, V]) Config() Config { return s.cfg }

// Deadline computes an absolute deadline, in epoch milliseconds, stop
// milliseconds out from now (or the configured WaitTimeout, when stop is
// the zero value), using the Store's TimeProvider.
func (s *Store[K, V]) Deadline(stop time.Duration) int64 {
	if stop <= 0 {
		stop = s.WaitTimeoutNow()
	}
	return s.cfg.TimeProvider.NowMillis() + stop.Milliseconds()
}

// Len returns the total number of entries across all shards. Racy with
// respect to concurrent mutation; intended for diagnostics, not control
// flow.
func (s *Store[K, V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.Lock()
		total += sh.Len()
		sh.Unlock()
	}
	return total
}
