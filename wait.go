// wait.go: timed blocking primitives over the entry's condition variable
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nodecache

import (
	"context"
	"sync"
	"time"
)

// maxAwaitWritableRetries bounds the retry loop in Entry.AwaitWritable. The
// original Java source asserts this as "Too many retries"; exceeding it
// means upstream coordination is alternating pathologically between
// upgrading and downgrading, not a recoverable condition.
const maxAwaitWritableRetries = 1000

// wakeAt arranges for cond to be broadcast once, no sooner than d from now.
// sync.Cond has no built-in deadline, so a timer takes the monitor's lock and
// broadcasts to force every waiter to re-check its predicate, mirroring the
// spurious-wakeup tolerance the spec already requires of every await loop.
// Grounded on the Broadcast-on-update shape of
// other_examples' flow-control CycleSignal, adapted with a timer instead of
// a value update as the wake trigger.
func wakeAt(cond *sync.Cond, d time.Duration) *time.Timer {
	return time.AfterFunc(d, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
}

// watchCancel arranges for cond to be broadcast once if ctx is done before
// stop fires. Returns a function that must be called to stop watching once
// the wait loop exits, whether or not ctx ever fired.
func watchCancel(ctx context.Context, cond *sync.Cond) (stop func()) {
	if ctx == nil || ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cond.L.Lock()
			cond.Broadcast()
			cond.L.Unlock()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// await blocks until all bits in mask are set in the entry's state value,
// the absolute deadline stopMillis (epoch milliseconds) passes, or ctx is
// done. cond.L must already be held by the caller, and must be the lock
// associated with this entry.
func (e *Entry[K, V]) await(ctx context.Context, cond *sync.Cond, mask int, stopMillis int64) error {
	return e.waitLoop(ctx, cond, stopMillis, func() bool { return e.state.hasBits(mask) })
}

// awaitNot blocks until all bits in mask are clear in the entry's state
// value, the absolute deadline stopMillis passes, or ctx is done.
func (e *Entry[K, V]) awaitNot(ctx context.Context, cond *sync.Cond, mask int, stopMillis int64) error {
	return e.waitLoop(ctx, cond, stopMillis, func() bool { return e.state.value()&mask == 0 })
}

func (e *Entry[K, V]) waitLoop(ctx context.Context, cond *sync.Cond, stopMillis int64, ready func() bool) error {
	if ready() {
		return nil
	}
	start := nowMillis()
	now := start
	if now >= stopMillis {
		return NewErrTimeout(e.identity(), 0)
	}

	stopWatching := watchCancel(ctx, cond)
	defer stopWatching()

	for now < stopMillis {
		timer := wakeAt(cond, time.Duration(stopMillis-now)*time.Millisecond)
		cond.Wait()
		timer.Stop()
		if ctx != nil && ctx.Err() != nil {
			return NewErrInterrupted(e.identity())
		}
		if ready() {
			return nil
		}
		now = nowMillis()
	}
	return NewErrTimeout(e.identity(), now-start)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
