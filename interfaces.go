// interfaces.go: ambient collaborator interfaces
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nodecache

import (
	timecache "github.com/agilira/go-timecache"
)

// Logger defines a minimal logging interface with zero overhead. The Entry
// state machine itself never logs (it has no fields for ambient concerns);
// Fetcher and Evictor log through a Logger supplied via Config.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as the default to avoid
// nil checks.
type NoOpLogger struct{}

// Debug does nothing (no-op implementation).
func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}

// Info does nothing (no-op implementation).
func (NoOpLogger) Info(msg string, keyvals ...interface{}) {}

// Warn does nothing (no-op implementation).
func (NoOpLogger) Warn(msg string, keyvals ...interface{}) {}

// Error does nothing (no-op implementation).
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider provides current time for deadline computation. Allows
// injecting a fake clock in tests, and a cached clock in production. Used by
// Store.Deadline to turn a relative timeout into the absolute stopMillis
// deadline the Entry wait operations take, and by TxExecutor to measure how
// long a wait took for metrics; Entry itself always
// compares against wall-clock time directly, matching the original's direct
// use of System.currentTimeMillis() inside the monitor.
type TimeProvider interface {
	// NowMillis returns the current time in milliseconds since the Unix
	// epoch.
	NowMillis() int64
}

// systemTimeProvider is the default TimeProvider, backed by go-timecache's
// cached clock for lower overhead than a fresh time.Now() on every call.
type systemTimeProvider struct{}

func (systemTimeProvider) NowMillis() int64 {
	return timecache.CachedTimeNano() / int64(1e6)
}

// MetricsCollector collects operation metrics for the entry state machine
// and its collaborators. All methods must be safe for concurrent use and
// fast enough to call on every transition.
type MetricsCollector interface {
	// RecordTransition records a successful state transition, named by the
	// setter that performed it (e.g. "SetCachedRead").
	RecordTransition(op string)

	// RecordInvalidState records a transition attempted from a state that
	// did not match its precondition.
	RecordInvalidState(op string)

	// RecordWait records a completed Await* call: waitedMillis is how long
	// the call actually blocked, and outcome is "ready", "timeout", or
	// "interrupted".
	RecordWait(op string, waitedMillis int64, outcome string)
}

// NoOpMetricsCollector is a MetricsCollector that does nothing. Used as the
// default to avoid nil checks and keep metrics collection opt-in.
type NoOpMetricsCollector struct{}

// RecordTransition does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordTransition(op string) {}

// RecordInvalidState does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordInvalidState(op string) {}

// RecordWait does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordWait(op string, waitedMillis int64, outcome string) {}
