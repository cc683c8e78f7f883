// hash.go: default key-hashing functions for Store shard selection
//
// Grounded on krisalay-in-memory-cache/shard/selector.go's use of FNV-1a to
// turn a cache key into a shard index.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nodecache

import (
	"encoding/binary"
	"hash/fnv"
)

// HashString hashes a string key with FNV-1a, suitable as the hash
// function passed to NewStore for a Store[string, V].
func HashString(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

// HashInt64 hashes an int64 key (e.g. an object identifier) with FNV-1a,
// suitable as the hash function passed to NewStore for a Store[int64, V].
func HashInt64(key int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
