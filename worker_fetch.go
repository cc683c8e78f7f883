// worker_fetch.go: the fetch worker collaborator
//
// Fetcher drives an entry from a Fetching* state to a Cached* state by
// calling out to the backing store without holding the shard lock, then
// reacquiring it just long enough to record the outcome. Grounded on
// loading.go's GetOrLoad/GetOrLoadWithContext shape: execute the caller's
// function outside any lock, recover a panic into a structured error, and
// record the result under lock.
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

// ErrCodeFetchFailed identifies a fetch-worker failure reaching the backing
// store, as opposed to an invalid-state or wait error raised by the entry
// itself.
const ErrCodeFetchFailed errors.ErrorCode = "NODECACHE_FETCH_FAILED"

// FetchFunc retrieves the current value for key from the backing store.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Fetcher performs the fetch-worker role described in spec.md §6: it starts
// from a Fetching* entry, performs the network fetch, and drives
// SetCachedRead/SetCachedWrite/SetUpgraded on success, or
// SetEvictedAbandonFetching when fetching the sentinel last-binding key
// turns up no useful information.
type Fetcher[K comparable, V any] struct {
	store      *Store[K, V]
	fetch      FetchFunc[K, V]
	isSentinel func(K) bool
	logger     Logger
	metrics    MetricsCollector
}

// NewFetcher creates a Fetcher backed by store, using fetch to reach the
// backing store and isSentinel to recognize the sentinel last-binding key
// (may be nil if store never holds binding entries).
func NewFetcher[K comparable, V any](store *Store[K, V], fetch FetchFunc[K, V], isSentinel func(K) bool) *Fetcher[K, V] {
	if isSentinel == nil {
		isSentinel = func(K) bool { return false }
	}
	cfg := store.Config()
	return &Fetcher[K, V]{
		store:      store,
		fetch:      fetch,
		isSentinel: isSentinel,
		logger:     cfg.Logger,
		metrics:    cfg.MetricsCollector,
	}
}

// safeFetch calls f.fetch, converting a panic into a structured, wrapped
// error rather than letting it escape past the caller's lock.
func (f *Fetcher[K, V]) safeFetch(ctx context.Context, key K) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewWithContext(ErrCodeFetchFailed, "fetch function panicked",
				map[string]interface{}{"key": key, "panic": r})
		}
	}()
	return f.fetch(ctx, key)
}

// FetchForRead begins tracking key (constructing its entry in
// FetchingRead if one doesn't already exist), performs the fetch, and
// transitions the entry to CachedRead on success.
func (f *Fetcher[K, V]) FetchForRead(ctx context.Context, key K) (*Entry[K, V], error) {
	sh := f.store.ShardFor(key)
	sh.Lock()
	e, ok := sh.Get(key)
	if !ok {
		e = NewEntry[K, V](key, 0, FetchingRead, f.isSentinel(key))
		sh.Put(key, e)
	}
	sh.Unlock()

	val, err := f.safeFetch(ctx, key)

	sh.Lock()
	defer sh.Unlock()
	if err != nil {
		f.abandonOnFailure(sh, e, key)
		f.logger.Warn("fetch for read failed", "key", key, "error", err)
		return nil, errors.Wrap(err, ErrCodeFetchFailed, "fetch for read failed").WithContext("key", key)
	}
	e.SetValue(val)
	if tErr := e.SetCachedRead(sh.Cond()); tErr != nil {
		f.metrics.RecordInvalidState("SetCachedRead")
		return nil, tErr
	}
	f.metrics.RecordTransition("SetCachedRead")
	return e, nil
}

// FetchForWrite begins tracking key (constructing its entry in
// FetchingWrite if one doesn't already exist), performs the fetch, and
// transitions the entry to CachedWrite on success.
func (f *Fetcher[K, V]) FetchForWrite(ctx context.Context, key K) (*Entry[K, V], error) {
	sh := f.store.ShardFor(key)
	sh.Lock()
	e, ok := sh.Get(key)
	if !ok {
		e = NewEntry[K, V](key, 0, FetchingWrite, f.isSentinel(key))
		sh.Put(key, e)
	}
	sh.Unlock()

	val, err := f.safeFetch(ctx, key)

	sh.Lock()
	defer sh.Unlock()
	if err != nil {
		f.abandonOnFailure(sh, e, key)
		f.logger.Warn("fetch for write failed", "key", key, "error", err)
		return nil, errors.Wrap(err, ErrCodeFetchFailed, "fetch for write failed").WithContext("key", key)
	}
	e.SetValue(val)
	if tErr := e.SetCachedWrite(sh.Cond()); tErr != nil {
		f.metrics.RecordInvalidState("SetCachedWrite")
		return nil, tErr
	}
	f.metrics.RecordTransition("SetCachedWrite")
	return e, nil
}

// CompleteUpgrade performs the fetch required to complete an upgrade from
// read to write access on an entry already in FetchingUpgrade (entered via
// Entry.SetFetchingUpgrade), and transitions it to CachedWrite on success.
func (f *Fetcher[K, V]) CompleteUpgrade(ctx context.Context, key K) (*Entry[K, V], error) {
	sh := f.store.ShardFor(key)
	val, err := f.safeFetch(ctx, key)

	sh.Lock()
	defer sh.Unlock()
	e, ok := sh.Get(key)
	if !ok {
		return nil, errors.NewWithField(ErrCodeInvalidState, "no entry tracked for key mid-upgrade", "key", fmt.Sprintf("%v", key))
	}
	if err != nil {
		f.logger.Warn("upgrade fetch failed", "key", key, "error", err)
		return nil, errors.Wrap(err, ErrCodeFetchFailed, "upgrade fetch failed").WithContext("key", key)
	}
	e.SetValue(val)
	if tErr := e.SetUpgraded(sh.Cond()); tErr != nil {
		f.metrics.RecordInvalidState("SetUpgraded")
		return nil, tErr
	}
	f.metrics.RecordTransition("SetUpgraded")
	return e, nil
}

// abandonOnFailure abandons a failed fetch of the sentinel last-binding
// key, removing the entry from its shard; for any other key the entry is
// left in its Fetching* state for the caller to retry or evict.
func (f *Fetcher[K, V]) abandonOnFailure(sh *Shard[K, V], e *Entry[K, V], key K) {
	if !f.isSentinel(key) {
		return
	}
	if aErr := e.SetEvictedAbandonFetching(sh.Cond()); aErr == nil {
		sh.Remove(key)
		f.metrics.RecordTransition("SetEvictedAbandonFetching")
	}
}
