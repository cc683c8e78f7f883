// Package nodecache implements the per-entry state machine and wait
// protocol behind a node-local cache in a distributed transactional data
// store: every object or name binding a node has touched is tracked by an
// Entry that moves through a fixed set of states as transactions fetch,
// read, write, and evict it, and other goroutines can block on an Entry
// reaching a state they need.
//
// # Overview
//
// nodecache is not a cache. It is the concurrency primitive a cache is built
// from: the rules for when an entry may be read, when it may be written,
// when it is safe to evict, and what a transaction does while it waits its
// turn. The container (Store), the code that reaches out to the backing
// store (Fetcher), and the code that writes an entry back and removes it
// (Evictor) are thin collaborators layered on top; none of them encode the
// state machine itself.
//
// # States
//
// Every Entry is in exactly one of ten states:
//
//	FetchingRead       being fetched for read access
//	FetchingWrite      being fetched directly for write access
//	CachedRead         cached, available for read only
//	FetchingUpgrade    was CachedRead, being upgraded to write
//	CachedWrite        cached, available for read and write
//	CachedDirty        cached, writable, modified since last flush
//	EvictingDowngrade  being written back before downgrade to CachedRead
//	EvictingRead       being evicted after being readable
//	EvictingWrite      being evicted after being writable
//	Decached           gone; no longer tracked by any Store
//
// Each state carries a bitmask
// of the properties transactions actually care about — readable, writable,
// modified, decaching, decached — so a predicate like GetReadable doesn't
// need a state-by-state switch.
//
// # Transitions
//
// Fourteen transitions are permitted; anything else returns an
// invalid-state error that names the entry, the states it would have
// accepted, and the state it was actually found in. Transitions and waits
// both require the Store shard's *sync.Cond to already be locked by the
// caller — Entry has no lock of its own, matching the container's existing
// mutex-per-shard design (see store.go).
//
// # Waiting
//
// AwaitReadable, AwaitWritable, AwaitDecached, and AwaitNotUpgrading block
// the calling goroutine on the shard's condition variable until the entry
// reaches the requested condition, the context is canceled, or an absolute
// deadline (in epoch milliseconds) passes, whichever comes first. Because
// sync.Cond has no built-in deadline, the wait loop arms a timer that forces
// a spurious wakeup at the deadline (see wait.go's wakeAt) and re-checks
// both the predicate and the clock on every wakeup — context cancellation
// is delivered the same way, via a goroutine that broadcasts when ctx.Done
// fires.
//
//	stop := store.Deadline(5 * time.Second)
//	readable, err := entry.AwaitReadable(ctx, shard.Cond(), stop)
//	if err != nil {
//	    return err // NODECACHE_TIMEOUT or NODECACHE_INTERRUPTED
//	}
//
// # Collaborators
//
// Store is a sharded, hash-indexed map of Entry values, one shard per
// mutex/condition-variable pair (see store.go, hash.go). Fetcher drives an
// entry from a Fetching* state to Cached* by calling out to the backing
// store without holding the shard lock (worker_fetch.go). Evictor performs
// writeback and the Evicting*/Decached or EvictingDowngrade/CachedRead
// transitions (worker_evict.go). TxExecutor is the thin surface a
// transaction access coordinator actually calls against an entry — Read,
// Write, Commit, Abort (tx.go). None of the state-machine invariants live
// in these collaborators; they exist to give Entry something to be called
// from.
//
// # Configuration
//
// Config controls shard count, the default wait timeout, and the
// ambient Logger/TimeProvider/MetricsCollector dependencies; DefaultConfig
// returns the zero-configuration defaults and Validate fills in anything
// left unset (see config.go). HotConfig (hot-reload.go) watches a
// configuration file via github.com/agilira/argus and hot-swaps the active
// wait timeout on a running Store without a restart.
//
// # Errors
//
// Errors are structured values from github.com/agilira/go-errors, carrying
// an error code, the entry's identity, and (for timeouts) how long the
// caller waited:
//
//	NODECACHE_INVALID_STATE    transition attempted from an unexpected state
//	NODECACHE_NOT_SENTINEL     SetEvictedAbandonFetching on a non-sentinel key
//	NODECACHE_TIMEOUT          an Await* call's deadline passed (retryable)
//	NODECACHE_INTERRUPTED      an Await* call's context was canceled (retryable)
//	NODECACHE_TOO_MANY_RETRIES AwaitWritable's oscillation watchdog tripped
//	NODECACHE_FETCH_FAILED     Fetcher's backing-store call failed or panicked
//	NODECACHE_WRITEBACK_FAILED Evictor's backing-store writeback call failed
//	NODECACHE_ENTRY_DECACHED   TxExecutor found the entry gone mid-wait
//
// IsInvalidState, IsTimeout, IsInterrupted, and IsRetryable classify any
// error this package returns; GetErrorCode extracts the raw code.
//
// # Metrics
//
// MetricsCollector is a small interface (RecordTransition, RecordInvalidState,
// RecordWait) collaborators call into; NoOpMetricsCollector is the default.
// github.com/agilira/nodecache/otel implements it on top of OpenTelemetry,
// as a separate module so the core package carries no OTEL dependency.
package nodecache
