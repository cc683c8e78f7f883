// state.go: the entry state enumeration and its bitmask predicates
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nodecache

// Bit flags composing a State's value. Each flag is an orthogonal dimension
// of an entry's status; a State is the OR of the flags that apply to it.
const (
	// reading is set while a fetch for read access is in progress.
	reading = 0x01

	// readable is set while the entry's value may be read.
	readable = 0x02

	// upgrading is set while a transition to writable is in progress.
	upgrading = 0x04

	// writable is set while the entry's value may be written.
	writable = 0x08

	// modified is set while the local value diverges from the backing store.
	modified = 0x10

	// downgrading is set while a transition away from writable is in progress.
	downgrading = 0x20

	// decaching is set while eviction is in progress.
	decaching = 0x40

	// notCached is set once the entry is gone from the cache.
	notCached = 0x80
)

// State is one of the ten states an Entry can occupy. Every State carries an
// 8-bit value composed from the bit flags above; predicates test whether a
// mask's bits are all set in that value.
//
// Permitted transitions, fetch-then-upgrade and fetch-for-write:
//
//	FETCHING_READ -----------> CACHED_READ ---> FETCHING_UPGRADE ---> CACHED_WRITE
//	FETCHING_WRITE ----------------------------------------------------> CACHED_WRITE
//	CACHED_WRITE <-----------> CACHED_DIRTY                     (modify / flush)
//
// downgrade-then-evict, and evict-write:
//
//	CACHED_WRITE -> EVICTING_DOWNGRADE -> CACHED_READ -> EVICTING_READ -> DECACHED
//	CACHED_WRITE -----------------------------------> EVICTING_WRITE -> DECACHED
//
// immediate variants, and abandoning a fetch of the sentinel key:
//
//	CACHED_READ ---> CACHED_WRITE                        (SetUpgradedImmediate)
//	CACHED_WRITE --> CACHED_READ                (SetEvictedDowngradeImmediate)
//	CACHED_READ / CACHED_WRITE ---> DECACHED             (SetEvictedImmediate)
//	FETCHING_READ / FETCHING_WRITE ---> DECACHED   (SetEvictedAbandonFetching)
//
// Any transition not drawn above is forbidden and returns an
// ErrCodeInvalidState error.
type State int

const (
	// FetchingRead: the entry is being fetched for read access.
	FetchingRead State = iota

	// CachedRead: the entry is available for read.
	CachedRead

	// FetchingUpgrade: the entry is readable and is being upgraded to write.
	FetchingUpgrade

	// FetchingWrite: the entry value is being fetched directly for write.
	FetchingWrite

	// CachedWrite: the entry is available for read and write.
	CachedWrite

	// CachedDirty: the entry is writable and has been modified.
	CachedDirty

	// EvictingDowngrade: the entry is readable and is being downgraded from write.
	EvictingDowngrade

	// EvictingRead: the entry is being evicted after being readable.
	EvictingRead

	// EvictingWrite: the entry is being evicted after being writable.
	EvictingWrite

	// Decached: the entry has been removed from the cache. Terminal.
	Decached
)

// stateValues maps each State to its bitmask value. Kept as a lookup table
// rather than storing the mask on the variant itself, so State remains a
// small comparable value usable as a map key or in switch statements.
var stateValues = [...]int{
	FetchingRead:      reading,
	CachedRead:        readable,
	FetchingUpgrade:   readable | upgrading,
	FetchingWrite:     reading | upgrading,
	CachedWrite:       readable | writable,
	CachedDirty:       readable | writable | modified,
	EvictingDowngrade: readable | downgrading,
	EvictingRead:      decaching,
	EvictingWrite:     downgrading | decaching,
	Decached:          notCached,
}

var stateNames = [...]string{
	FetchingRead:      "FETCHING_READ",
	CachedRead:        "CACHED_READ",
	FetchingUpgrade:   "FETCHING_UPGRADE",
	FetchingWrite:     "FETCHING_WRITE",
	CachedWrite:       "CACHED_WRITE",
	CachedDirty:       "CACHED_DIRTY",
	EvictingDowngrade: "EVICTING_DOWNGRADE",
	EvictingRead:      "EVICTING_READ",
	EvictingWrite:     "EVICTING_WRITE",
	Decached:          "DECACHED",
}

// value returns the bitmask value for the state.
func (s State) value() int {
	return stateValues[s]
}

// String returns the canonical name of the state, used in error messages.
func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// hasBits reports whether all bits in mask are set in the state's value.
func (s State) hasBits(mask int) bool {
	return s.value()&mask == mask
}

// AwaitWritableResult is the outcome of Entry.AwaitWritable.
type AwaitWritableResult int

const (
	// AwaitDecachedResult: the entry has been decached.
	AwaitDecachedResult AwaitWritableResult = iota

	// AwaitReadableResult: the entry is readable but not writable.
	AwaitReadableResult

	// AwaitWritableOnly: the entry is writable.
	AwaitWritableOnly
)

func (r AwaitWritableResult) String() string {
	switch r {
	case AwaitDecachedResult:
		return "DECACHED"
	case AwaitReadableResult:
		return "READABLE"
	case AwaitWritableOnly:
		return "WRITABLE"
	default:
		return "UNKNOWN"
	}
}
