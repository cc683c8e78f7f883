// errors.go: structured error handling for the entry state machine
//
// This file provides the two error kinds the core surfaces, using the
// go-errors library for rich context, categorization, and standardized
// error codes, following the same conventions the rest of this codebase
// uses for every other error path.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nodecache

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for entry state machine operations.
const (
	// Precondition errors
	ErrCodeInvalidState errors.ErrorCode = "NODECACHE_INVALID_STATE"
	ErrCodeNotSentinel  errors.ErrorCode = "NODECACHE_NOT_SENTINEL"

	// Wait errors
	ErrCodeTimeout     errors.ErrorCode = "NODECACHE_TIMEOUT"
	ErrCodeInterrupted errors.ErrorCode = "NODECACHE_INTERRUPTED"

	// Watchdog errors
	ErrCodeTooManyRetries errors.ErrorCode = "NODECACHE_TOO_MANY_RETRIES"
)

// NewErrInvalidState creates an error for a transition attempted from a
// state that doesn't match its precondition. The message follows the
// original "expected X, found Y" convention.
func NewErrInvalidState(entry string, expected []State, found State) error {
	expectedStr := expected[0].String()
	for _, e := range expected[1:] {
		expectedStr += " or " + e.String()
	}
	msg := fmt.Sprintf("invalid state, expected %s, found %s, entry:%s", expectedStr, found, entry)
	return errors.NewWithContext(ErrCodeInvalidState, msg, map[string]interface{}{
		"expected": expectedStr,
		"found":    found.String(),
		"entry":    entry,
	})
}

// NewErrNotSentinel creates an error for setEvictedAbandonFetching being
// called on an entry whose key is not the sentinel last-binding key.
func NewErrNotSentinel(entry string) error {
	return errors.NewWithField(ErrCodeNotSentinel,
		"setEvictedAbandonFetching requires the sentinel last-binding key", "entry", entry)
}

// NewErrTimeout creates a transaction-timeout error carrying elapsed time
// and the entry's identity. Timeouts are retryable: the caller may abandon
// the current transaction attempt and retry.
func NewErrTimeout(entry string, elapsedMillis int64) error {
	return errors.NewWithContext(ErrCodeTimeout, "timeout waiting for entry", map[string]interface{}{
		"entry":          entry,
		"elapsed_millis": elapsedMillis,
	}).AsRetryable()
}

// NewErrInterrupted creates a transaction-interrupted error carrying the
// entry's identity.
func NewErrInterrupted(entry string) error {
	return errors.NewWithField(ErrCodeInterrupted, "interrupted while waiting for entry", "entry", entry).
		AsRetryable()
}

// NewErrTooManyRetries creates a fatal error for the AwaitWritable watchdog:
// more than 1000 iterations indicates pathological alternation between
// upgrading and downgrading upstream, not a recoverable condition.
func NewErrTooManyRetries(entry string, iterations int) error {
	return errors.NewWithContext(ErrCodeTooManyRetries, "too many retries awaiting writable", map[string]interface{}{
		"entry":      entry,
		"iterations": iterations,
	}).WithSeverity("critical")
}

// IsInvalidState reports whether err is an invalid-state error.
func IsInvalidState(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidState)
}

// IsTimeout reports whether err is a wait timeout error.
func IsTimeout(err error) bool {
	return errors.HasCode(err, ErrCodeTimeout)
}

// IsInterrupted reports whether err is a wait interruption error.
func IsInterrupted(err error) bool {
	return errors.HasCode(err, ErrCodeInterrupted)
}

// IsRetryable reports whether the error can be retried by the caller.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from an error, if any.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}
