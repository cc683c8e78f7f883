// config.go: configuration for a Store
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nodecache

import (
	"time"
)

// Config holds configuration parameters for a Store.
type Config struct {
	// ShardCount is the number of independent lock/map shards the Store
	// splits its keyspace across. Must be > 0. Default: DefaultShardCount.
	// Fixed for the lifetime of a Store; changing it requires building a
	// new Store.
	ShardCount int

	// WaitTimeout is the default relative deadline applied to Await* calls
	// made through Store.Deadline when the caller doesn't compute its own
	// absolute deadline. Default: DefaultWaitTimeout.
	WaitTimeout time.Duration

	// Logger receives the Fetcher's fetch-failure warnings and the
	// Evictor's writeback-failure errors; state transitions and wait
	// outcomes are not logged. If nil, NoOpLogger is used. Default:
	// NoOpLogger.
	Logger Logger

	// TimeProvider provides current time for deadline computation.
	// If nil, a default implementation backed by go-timecache is used.
	TimeProvider TimeProvider

	// MetricsCollector is used for collecting state machine metrics
	// (transitions, invalid-state attempts, wait outcomes). If nil,
	// NoOpMetricsCollector is used (zero overhead). Default:
	// NoOpMetricsCollector.
	MetricsCollector MetricsCollector
}

// Validate checks configuration parameters and applies sensible defaults.
// Returns nil; there are no fatal configuration errors, only normalization,
// matching the validate-and-fill convention used across this codebase.
//
// Default values applied:
//   - ShardCount: DefaultShardCount if <= 0
//   - WaitTimeout: DefaultWaitTimeout if <= 0
//   - Logger: NoOpLogger{} if nil
//   - TimeProvider: systemTimeProvider{} if nil
//   - MetricsCollector: NoOpMetricsCollector{} if nil
func (c *Config) Validate() error {
	if c.ShardCount <= 0 {
		c.ShardCount = DefaultShardCount
	}

	if c.WaitTimeout <= 0 {
		c.WaitTimeout = DefaultWaitTimeout
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ShardCount:       DefaultShardCount,
		WaitTimeout:      DefaultWaitTimeout,
		Logger:           NoOpLogger{},
		TimeProvider:     systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}
