// tx.go: the transaction executor's surface against an entry
//
// TxExecutor is the thin shape a transaction access coordinator actually
// calls, per spec.md §6: AwaitReadable before a read, AwaitWritable before
// a write (fetching for write or completing an upgrade if needed),
// SetCachedDirty after a modification, SetNotModified after the
// transaction's commit/abort flush, and NoteAccess on every touch.
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

// ErrCodeEntryDecached identifies a read or write attempt that found the
// entry had become Decached while the transaction was waiting.
const ErrCodeEntryDecached errors.ErrorCode = "NODECACHE_ENTRY_DECACHED"

// TxExecutor is the access path a transaction uses to read and write
// entries in a Store, fetching on demand through a Fetcher when an entry
// isn't already present or needs upgrading.
type TxExecutor[K comparable, V any] struct {
	store   *Store[K, V]
	fetcher *Fetcher[K, V]
	metrics MetricsCollector
}

// NewTxExecutor creates a TxExecutor over store, fetching missing or
// not-yet-writable entries through fetcher.
func NewTxExecutor[K comparable, V any](store *Store[K, V], fetcher *Fetcher[K, V]) *TxExecutor[K, V] {
	return &TxExecutor[K, V]{store: store, fetcher: fetcher, metrics: store.Config().MetricsCollector}
}

// Read returns key's current value, fetching it first if it isn't already
// cached. contextID is recorded against the entry via NoteAccess.
func (tx *TxExecutor[K, V]) Read(ctx context.Context, key K, contextID int64) (V, error) {
	var zero V
	sh := tx.store.ShardFor(key)
	sh.Lock()
	e, ok := sh.Get(key)
	sh.Unlock()

	if !ok {
		var err error
		e, err = tx.fetcher.FetchForRead(ctx, key)
		if err != nil {
			return zero, err
		}
	}

	sh.Lock()
	defer sh.Unlock()
	waitStart := tx.store.Config().TimeProvider.NowMillis()
	stop := tx.store.Deadline(0)
	readable, err := e.AwaitReadable(ctx, sh.Cond(), stop)
	tx.recordWait("AwaitReadable", waitStart, err)
	if err != nil {
		return zero, err
	}
	if !readable {
		return zero, errors.NewWithField(ErrCodeEntryDecached, "entry decached while awaiting readable", "key", fmt.Sprintf("%v", key))
	}
	e.NoteAccess(contextID)
	return e.GetValue(), nil
}

// Write applies mutate to key's current value and marks the entry dirty,
// fetching or upgrading the entry first if it isn't already writable.
// contextID is recorded against the entry via NoteAccess.
func (tx *TxExecutor[K, V]) Write(ctx context.Context, key K, contextID int64, mutate func(V) V) error {
	sh := tx.store.ShardFor(key)
	sh.Lock()
	e, ok := sh.Get(key)
	sh.Unlock()

	if !ok {
		var err error
		e, err = tx.fetcher.FetchForWrite(ctx, key)
		if err != nil {
			return err
		}
	}

	sh.Lock()
	waitStart := tx.store.Config().TimeProvider.NowMillis()
	stop := tx.store.Deadline(0)
	result, err := e.AwaitWritable(ctx, sh.Cond(), stop)
	tx.recordWait("AwaitWritable", waitStart, err)
	if err != nil {
		sh.Unlock()
		return err
	}

	switch result {
	case AwaitDecachedResult:
		sh.Unlock()
		return errors.NewWithField(ErrCodeEntryDecached, "entry decached while awaiting writable", "key", fmt.Sprintf("%v", key))
	case AwaitReadableResult:
		if err := e.SetFetchingUpgrade(sh.Cond()); err != nil {
			sh.Unlock()
			return err
		}
		sh.Unlock()
		if _, err := tx.fetcher.CompleteUpgrade(ctx, key); err != nil {
			return err
		}
		sh.Lock()
	}
	defer sh.Unlock()

	e.NoteAccess(contextID)
	e.SetValue(mutate(e.GetValue()))
	if !e.GetModified() {
		if err := e.SetCachedDirty(sh.Cond()); err != nil {
			return err
		}
	}
	return nil
}

// Commit flushes key's modified flag after the transaction's writeback has
// completed (CachedDirty -> CachedWrite). A no-op if the entry isn't
// currently modified or isn't tracked.
func (tx *TxExecutor[K, V]) Commit(key K) error {
	sh := tx.store.ShardFor(key)
	sh.Lock()
	defer sh.Unlock()
	e, ok := sh.Get(key)
	if !ok || !e.GetModified() {
		return nil
	}
	return e.SetNotModified(sh.Cond())
}

// Abort is an alias for Commit: the state machine does not distinguish
// commit from abort, only "modifications have been flushed" from "not".
func (tx *TxExecutor[K, V]) Abort(key K) error {
	return tx.Commit(key)
}

// recordWait reports an Await* call's outcome to the configured
// MetricsCollector, classifying err into "ready", "timeout", or
// "interrupted".
func (tx *TxExecutor[K, V]) recordWait(op string, waitStart int64, err error) {
	waited := tx.store.Config().TimeProvider.NowMillis() - waitStart
	outcome := "ready"
	switch {
	case IsTimeout(err):
		outcome = "timeout"
	case IsInterrupted(err):
		outcome = "interrupted"
	}
	tx.metrics.RecordWait(op, waited, outcome)
}
