// entry.go: the per-key cache entry state machine
//
// Entry is the core of this module: it tracks whether a cached key's value
// is present and usable, whether a fetch/upgrade/downgrade/eviction is in
// progress for it, and the highest transaction context ID that has touched
// it. Every method below except Key requires the caller to already hold the
// lock of the *sync.Cond passed in; Entry itself holds no lock and keeps no
// reference to one between calls.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nodecache

import (
	"context"
	"fmt"
	"sync"
)

// Entry is the cached image of one key's value together with its lifecycle
// state. K is the key type (an object identifier or a name-binding key); V
// is the value type.
type Entry[K comparable, V any] struct {
	// key identifies this entry. Immutable after construction; may be read
	// without holding any lock.
	key K

	// value is meaningful only while state's value has the READABLE bit
	// set. Requires the associated lock.
	value V

	// state is one of the ten defined State variants. Requires the
	// associated lock.
	state State

	// contextID is the highest transaction context ID that has accessed
	// this entry; monotone non-decreasing. Requires the associated lock.
	contextID int64

	// isSentinel records, at construction time, whether key is the
	// sentinel "last binding" key designated by the cache container. Fixed
	// for the entry's lifetime since key never changes.
	isSentinel bool
}

// NewEntry constructs an entry in the given initial state. initialState must
// be one of FetchingRead, FetchingWrite, CachedRead, or CachedWrite; the
// constructor does not validate which (the caller, i.e. the cache
// container, picks). isSentinel marks this entry's key as the sentinel
// "last binding" key, enabling SetEvictedAbandonFetching.
func NewEntry[K comparable, V any](key K, contextID int64, initialState State, isSentinel bool) *Entry[K, V] {
	return &Entry[K, V]{
		key:        key,
		state:      initialState,
		contextID:  contextID,
		isSentinel: isSentinel,
	}
}

// Key returns the entry's key. Safe to call without holding any lock.
func (e *Entry[K, V]) Key() K {
	return e.key
}

// identity returns a short string identifying this entry for error messages
// and logging, mirroring the original's `entry:<state>` debugging detail.
func (e *Entry[K, V]) identity() string {
	return fmt.Sprintf("key=%v state=%s", e.key, e.state)
}

// -- predicates --------------------------------------------------------

// GetReading reports whether a fetch for read access is in progress.
func (e *Entry[K, V]) GetReading() bool { return e.state.hasBits(reading) }

// GetReadable reports whether the value may currently be read.
func (e *Entry[K, V]) GetReadable() bool { return e.state.hasBits(readable) }

// GetUpgrading reports whether a transition to writable is in progress.
func (e *Entry[K, V]) GetUpgrading() bool { return e.state.hasBits(upgrading) }

// GetWritable reports whether the value may currently be written.
func (e *Entry[K, V]) GetWritable() bool { return e.state.hasBits(writable) }

// GetModified reports whether the local value diverges from the backing
// store.
func (e *Entry[K, V]) GetModified() bool { return e.state.hasBits(modified) }

// GetDowngrading reports whether a transition away from writable is in
// progress.
func (e *Entry[K, V]) GetDowngrading() bool { return e.state.hasBits(downgrading) }

// GetDecaching reports whether eviction is in progress.
func (e *Entry[K, V]) GetDecaching() bool { return e.state.hasBits(decaching) }

// GetDecached reports whether the entry is in state Decached specifically
// (an identity comparison, not a bitmask test: EvictingRead also carries the
// decaching bit but is not yet Decached).
func (e *Entry[K, V]) GetDecached() bool { return e.state == Decached }

// GetState returns the entry's current state.
func (e *Entry[K, V]) GetState() State { return e.state }

// GetValue returns the entry's current value. Only meaningful when
// GetReadable is true.
func (e *Entry[K, V]) GetValue() V { return e.value }

// SetValue updates the entry's value.
func (e *Entry[K, V]) SetValue(v V) { e.value = v }

// GetContextID returns the highest context ID that has accessed this entry.
func (e *Entry[K, V]) GetContextID() int64 { return e.contextID }

// NoteAccess records that a transaction with the given context ID has
// touched this entry, advancing contextID if c is larger.
func (e *Entry[K, V]) NoteAccess(c int64) {
	if c > e.contextID {
		e.contextID = c
	}
}

// -- transitions --------------------------------------------------------
//
// Every transition asserts a precondition over the current state, sets the
// new state, and broadcasts on cond so every thread blocked in an Await*
// call re-checks its predicate. On precondition mismatch the state is left
// unchanged and an ErrCodeInvalidState error is returned.

func (e *Entry[K, V]) verifyState(expected ...State) error {
	for _, s := range expected {
		if e.state == s {
			return nil
		}
	}
	return NewErrInvalidState(e.identity(), expected, e.state)
}

func (e *Entry[K, V]) transition(cond *sync.Cond, to State, expected ...State) error {
	if err := e.verifyState(expected...); err != nil {
		return err
	}
	e.state = to
	cond.Broadcast()
	return nil
}

// SetCachedRead transitions FetchingRead -> CachedRead after a successful
// fetch for read.
func (e *Entry[K, V]) SetCachedRead(cond *sync.Cond) error {
	return e.transition(cond, CachedRead, FetchingRead)
}

// SetCachedWrite transitions FetchingWrite -> CachedWrite after a
// successful fetch for write.
func (e *Entry[K, V]) SetCachedWrite(cond *sync.Cond) error {
	return e.transition(cond, CachedWrite, FetchingWrite)
}

// SetUpgraded transitions FetchingUpgrade -> CachedWrite after a successful
// upgrade fetch.
func (e *Entry[K, V]) SetUpgraded(cond *sync.Cond) error {
	return e.transition(cond, CachedWrite, FetchingUpgrade)
}

// SetFetchingUpgrade transitions CachedRead -> FetchingUpgrade, starting an
// asynchronous upgrade to write access.
func (e *Entry[K, V]) SetFetchingUpgrade(cond *sync.Cond) error {
	return e.transition(cond, FetchingUpgrade, CachedRead)
}

// SetUpgradedImmediate transitions CachedRead -> CachedWrite synchronously,
// used when a neighboring binding was removed and this entry is promoted
// without a round trip to the backing store.
func (e *Entry[K, V]) SetUpgradedImmediate(cond *sync.Cond) error {
	return e.transition(cond, CachedWrite, CachedRead)
}

// SetCachedDirty transitions CachedWrite -> CachedDirty when the value is
// modified. Calling this twice without an intervening SetNotModified fails
// the precondition on the second call; this is intentional (see the
// original's open question: the caller must track its own dirty state, the
// entry only records it).
func (e *Entry[K, V]) SetCachedDirty(cond *sync.Cond) error {
	return e.transition(cond, CachedDirty, CachedWrite)
}

// SetNotModified transitions CachedDirty -> CachedWrite at transaction
// commit or abort, after the modification has been flushed.
func (e *Entry[K, V]) SetNotModified(cond *sync.Cond) error {
	return e.transition(cond, CachedWrite, CachedDirty)
}

// SetEvictingDowngrade transitions CachedWrite -> EvictingDowngrade,
// starting an asynchronous downgrade to read-only access.
func (e *Entry[K, V]) SetEvictingDowngrade(cond *sync.Cond) error {
	return e.transition(cond, EvictingDowngrade, CachedWrite)
}

// SetEvictedDowngrade transitions EvictingDowngrade -> CachedRead once the
// downgrade writeback completes.
func (e *Entry[K, V]) SetEvictedDowngrade(cond *sync.Cond) error {
	return e.transition(cond, CachedRead, EvictingDowngrade)
}

// SetEvictedDowngradeImmediate transitions CachedWrite -> CachedRead
// synchronously, used when the entry is known not to be in use.
func (e *Entry[K, V]) SetEvictedDowngradeImmediate(cond *sync.Cond) error {
	return e.transition(cond, CachedRead, CachedWrite)
}

// SetEvicting transitions CachedRead -> EvictingRead or CachedWrite ->
// EvictingWrite, starting eviction; the destination is chosen by the
// current state, not supplied by the caller.
func (e *Entry[K, V]) SetEvicting(cond *sync.Cond) error {
	switch e.state {
	case CachedRead:
		return e.transition(cond, EvictingRead, CachedRead)
	case CachedWrite:
		return e.transition(cond, EvictingWrite, CachedWrite)
	default:
		return NewErrInvalidState(e.identity(), []State{CachedRead, CachedWrite}, e.state)
	}
}

// SetEvicted transitions EvictingRead or EvictingWrite -> Decached once the
// eviction writeback (if any) completes.
func (e *Entry[K, V]) SetEvicted(cond *sync.Cond) error {
	return e.transition(cond, Decached, EvictingRead, EvictingWrite)
}

// SetEvictedImmediate transitions CachedRead or CachedWrite -> Decached
// synchronously, used when the entry is known not to be in use.
func (e *Entry[K, V]) SetEvictedImmediate(cond *sync.Cond) error {
	return e.transition(cond, Decached, CachedRead, CachedWrite)
}

// SetEvictedAbandonFetching transitions FetchingRead or FetchingWrite ->
// Decached, abandoning an in-progress fetch that turned out to carry no
// useful information. Only permitted when the entry's key is the sentinel
// "last binding" key.
func (e *Entry[K, V]) SetEvictedAbandonFetching(cond *sync.Cond) error {
	if !e.isSentinel {
		return NewErrNotSentinel(e.identity())
	}
	return e.transition(cond, Decached, FetchingRead, FetchingWrite)
}

// -- wait operations ------------------------------------------------------

// AwaitReadable blocks until the entry becomes readable, becomes decached,
// or stopMillis (an absolute deadline, epoch milliseconds) passes. Returns
// true if the entry is readable, false if it has become decached. ctx may
// be nil; if non-nil, its cancellation is surfaced as an ErrCodeInterrupted
// error.
func (e *Entry[K, V]) AwaitReadable(ctx context.Context, cond *sync.Cond, stopMillis int64) (bool, error) {
	switch {
	case e.GetReadable():
		return true, nil
	case e.GetReading():
		if err := e.awaitNot(ctx, cond, reading, stopMillis); err != nil {
			return false, err
		}
		return e.GetReadable(), nil
	case e.GetDecaching():
		if err := e.await(ctx, cond, notCached, stopMillis); err != nil {
			return false, err
		}
		return false, nil
	default: // state == Decached
		return false, nil
	}
}

// AwaitWritable blocks until the entry becomes writable, becomes readable
// and stable, or becomes decached. Retries in a bounded loop: more than
// maxAwaitWritableRetries iterations indicates pathological alternation
// between upgrading and downgrading upstream and returns
// ErrCodeTooManyRetries rather than looping forever.
func (e *Entry[K, V]) AwaitWritable(ctx context.Context, cond *sync.Cond, stopMillis int64) (AwaitWritableResult, error) {
	for i := 0; ; i++ {
		if i >= maxAwaitWritableRetries {
			return AwaitDecachedResult, NewErrTooManyRetries(e.identity(), i)
		}
		switch {
		case e.GetWritable():
			return AwaitWritableOnly, nil
		case e.GetUpgrading():
			if err := e.awaitNot(ctx, cond, upgrading, stopMillis); err != nil {
				return AwaitDecachedResult, err
			}
		case e.GetDowngrading():
			if err := e.awaitNot(ctx, cond, downgrading, stopMillis); err != nil {
				return AwaitDecachedResult, err
			}
		case e.state == CachedRead:
			return AwaitReadableResult, nil
		case e.GetReading():
			if err := e.awaitNot(ctx, cond, reading, stopMillis); err != nil {
				return AwaitDecachedResult, err
			}
		case e.GetDecaching():
			if err := e.AwaitDecached(ctx, cond, stopMillis); err != nil {
				return AwaitDecachedResult, err
			}
			return AwaitDecachedResult, nil
		default: // state == Decached
			return AwaitDecachedResult, nil
		}
	}
}

// AwaitDecached blocks until the entry is Decached. If it is already
// Decached, returns immediately. Otherwise the current state must be
// EvictingRead or EvictingWrite.
func (e *Entry[K, V]) AwaitDecached(ctx context.Context, cond *sync.Cond, stopMillis int64) error {
	if e.GetDecached() {
		return nil
	}
	if err := e.verifyState(EvictingRead, EvictingWrite); err != nil {
		return err
	}
	return e.await(ctx, cond, notCached, stopMillis)
}

// AwaitNotUpgrading blocks until the entry finishes being made writable.
// The current state must be FetchingUpgrade or FetchingWrite.
func (e *Entry[K, V]) AwaitNotUpgrading(ctx context.Context, cond *sync.Cond, stopMillis int64) error {
	if err := e.verifyState(FetchingUpgrade, FetchingWrite); err != nil {
		return err
	}
	return e.awaitNot(ctx, cond, upgrading, stopMillis)
}
