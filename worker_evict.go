// worker_evict.go: the eviction and downgrade worker collaborators
//
// Evictor drives entries out of CachedRead/CachedWrite, either all the way
// to Decached or down to CachedRead, performing any writeback outside the
// shard lock. Which key to evict is an eviction-policy decision the spec
// keeps out of scope (spec.md §1); Evictor only knows how, grounded on
// krisalay-in-memory-cache/eviction/eviction.go's Policy interface shape
// (OnGet/OnPut/Remove/Evict choose the key, the cache just calls in).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nodecache

import (
	"context"
	"fmt"

	"github.com/agilira/go-errors"
)

// ErrCodeWritebackFailed identifies a writeback failure during eviction or
// downgrade.
const ErrCodeWritebackFailed errors.ErrorCode = "NODECACHE_WRITEBACK_FAILED"

// WritebackFunc writes key's current value back to the backing store.
type WritebackFunc[K comparable, V any] func(ctx context.Context, key K, value V) error

// EvictionPolicy decides which key a Store should evict next. Selecting a
// candidate is outside the state machine's concern; Evictor only drives the
// transitions once a candidate is chosen.
type EvictionPolicy[K comparable] interface {
	// OnAccess records that key was read or written.
	OnAccess(key K)

	// OnRemove records that key left the cache, however that happened.
	OnRemove(key K)

	// Candidate returns a key that should be considered for eviction, and
	// true if one is available.
	Candidate() (K, bool)
}

// Evictor performs the eviction-worker and downgrade-worker roles
// described in spec.md §6.
type Evictor[K comparable, V any] struct {
	store     *Store[K, V]
	writeback WritebackFunc[K, V]
	logger    Logger
	metrics   MetricsCollector
}

// NewEvictor creates an Evictor backed by store, using writeback to flush a
// value to the backing store before it leaves the cache. writeback may be
// nil if the backing store is always written through synchronously
// elsewhere (e.g. at SetNotModified time).
func NewEvictor[K comparable, V any](store *Store[K, V], writeback WritebackFunc[K, V]) *Evictor[K, V] {
	cfg := store.Config()
	return &Evictor[K, V]{
		store:     store,
		writeback: writeback,
		logger:    cfg.Logger,
		metrics:   cfg.MetricsCollector,
	}
}

// Evict begins eviction of key (CachedRead/CachedWrite -> EvictingRead/
// EvictingWrite), performs any writeback outside the shard lock, and
// transitions the entry to Decached, removing it from its shard.
func (ev *Evictor[K, V]) Evict(ctx context.Context, key K) error {
	sh := ev.store.ShardFor(key)
	sh.Lock()
	e, ok := sh.Get(key)
	if !ok {
		sh.Unlock()
		return errors.NewWithField(ErrCodeInvalidState, "no entry tracked for key", "key", fmt.Sprintf("%v", key))
	}
	wasWrite := e.GetWritable()
	if err := e.SetEvicting(sh.Cond()); err != nil {
		sh.Unlock()
		ev.metrics.RecordInvalidState("SetEvicting")
		return err
	}
	ev.metrics.RecordTransition("SetEvicting")
	value := e.GetValue()
	sh.Unlock()

	if wasWrite && ev.writeback != nil {
		if err := ev.writeback(ctx, key, value); err != nil {
			ev.logger.Error("writeback failed during eviction", "key", key, "error", err)
			return errors.Wrap(err, ErrCodeWritebackFailed, "writeback failed during eviction").WithContext("key", key)
		}
	}

	sh.Lock()
	defer sh.Unlock()
	if err := e.SetEvicted(sh.Cond()); err != nil {
		ev.metrics.RecordInvalidState("SetEvicted")
		return err
	}
	sh.Remove(key)
	ev.metrics.RecordTransition("SetEvicted")
	return nil
}

// EvictImmediate evicts key directly from CachedRead/CachedWrite to
// Decached, for use when the caller already knows the entry is not in use
// by any transaction (so no writeback handoff is required).
func (ev *Evictor[K, V]) EvictImmediate(key K) error {
	sh := ev.store.ShardFor(key)
	sh.Lock()
	defer sh.Unlock()
	e, ok := sh.Get(key)
	if !ok {
		return errors.NewWithField(ErrCodeInvalidState, "no entry tracked for key", "key", fmt.Sprintf("%v", key))
	}
	if err := e.SetEvictedImmediate(sh.Cond()); err != nil {
		ev.metrics.RecordInvalidState("SetEvictedImmediate")
		return err
	}
	sh.Remove(key)
	ev.metrics.RecordTransition("SetEvictedImmediate")
	return nil
}

// Downgrade demotes key from CachedWrite to CachedRead
// (CachedWrite -> EvictingDowngrade -> CachedRead), performing any
// writeback outside the shard lock. The entry remains in the store.
func (ev *Evictor[K, V]) Downgrade(ctx context.Context, key K) error {
	sh := ev.store.ShardFor(key)
	sh.Lock()
	e, ok := sh.Get(key)
	if !ok {
		sh.Unlock()
		return errors.NewWithField(ErrCodeInvalidState, "no entry tracked for key", "key", fmt.Sprintf("%v", key))
	}
	if err := e.SetEvictingDowngrade(sh.Cond()); err != nil {
		sh.Unlock()
		ev.metrics.RecordInvalidState("SetEvictingDowngrade")
		return err
	}
	ev.metrics.RecordTransition("SetEvictingDowngrade")
	value := e.GetValue()
	sh.Unlock()

	if ev.writeback != nil {
		if err := ev.writeback(ctx, key, value); err != nil {
			ev.logger.Error("writeback failed during downgrade", "key", key, "error", err)
			return errors.Wrap(err, ErrCodeWritebackFailed, "writeback failed during downgrade").WithContext("key", key)
		}
	}

	sh.Lock()
	defer sh.Unlock()
	if err := e.SetEvictedDowngrade(sh.Cond()); err != nil {
		ev.metrics.RecordInvalidState("SetEvictedDowngrade")
		return err
	}
	ev.metrics.RecordTransition("SetEvictedDowngrade")
	return nil
}

// DowngradeImmediate demotes key from CachedWrite directly to CachedRead,
// for use when the caller already knows the entry is not in use.
func (ev *Evictor[K, V]) DowngradeImmediate(key K) error {
	sh := ev.store.ShardFor(key)
	sh.Lock()
	defer sh.Unlock()
	e, ok := sh.Get(key)
	if !ok {
		return errors.NewWithField(ErrCodeInvalidState, "no entry tracked for key", "key", fmt.Sprintf("%v", key))
	}
	if err := e.SetEvictedDowngradeImmediate(sh.Cond()); err != nil {
		ev.metrics.RecordInvalidState("SetEvictedDowngradeImmediate")
		return err
	}
	ev.metrics.RecordTransition("SetEvictedDowngradeImmediate")
	return nil
}
