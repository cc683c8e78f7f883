// module.go: library version and Store sizing/timeout defaults
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nodecache

import "time"

const (
	// Version of the nodecache library.
	Version = "v0.1.0-dev"

	// DefaultShardCount is the default number of shards a Store splits its
	// keyspace across.
	DefaultShardCount = 32

	// DefaultWaitTimeout is the default relative timeout Store.Deadline
	// applies when a caller doesn't specify one.
	DefaultWaitTimeout = 10 * time.Second
)
