// Package otel provides OpenTelemetry integration for nodecache's entry
// state machine and wait protocol.
//
// This package implements the nodecache.MetricsCollector interface using
// OpenTelemetry, enabling enterprise-grade observability with automatic
// percentile calculation (p50, p95, p99) for wait latencies and
// multi-backend support (Prometheus, Jaeger, DataDog, Grafana).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	"github.com/agilira/nodecache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements nodecache.MetricsCollector using
// OpenTelemetry. It records every state transition, invalid-state attempt,
// and Await* outcome, labeled by the operation name the caller passed in
// (e.g. "SetCachedRead", "AwaitWritable").
//
// Thread-safety: safe for concurrent use by multiple goroutines; the
// underlying OTEL instruments are themselves thread-safe.
type OTelMetricsCollector struct {
	transitions   metric.Int64Counter   // entry state transitions, by op
	invalidStates metric.Int64Counter   // rejected transitions, by op
	waitLatency   metric.Int64Histogram // Await* wait duration, ms, by op+outcome
	waits         metric.Int64Counter   // Await* calls, by op+outcome
}

// Options configures OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/nodecache"
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing metrics
// from multiple Store instances.
func WithMeterName(name string) Option {
	return func(o *Options) { o.MeterName = name }
}

// NewOTelMetricsCollector creates a metrics collector backed by provider.
// provider must not be nil.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/nodecache"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &OTelMetricsCollector{}

	var err error
	c.transitions, err = meter.Int64Counter(
		"nodecache_transitions_total",
		metric.WithDescription("Total number of successful entry state transitions"),
	)
	if err != nil {
		return nil, err
	}

	c.invalidStates, err = meter.Int64Counter(
		"nodecache_invalid_state_total",
		metric.WithDescription("Total number of rejected (invalid-state) transition attempts"),
	)
	if err != nil {
		return nil, err
	}

	c.waitLatency, err = meter.Int64Histogram(
		"nodecache_wait_latency_ms",
		metric.WithDescription("Latency of Await* calls in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	c.waits, err = meter.Int64Counter(
		"nodecache_waits_total",
		metric.WithDescription("Total number of Await* calls, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// RecordTransition records a successful state transition for op (e.g.
// "SetCachedRead", "SetEvicted").
func (c *OTelMetricsCollector) RecordTransition(op string) {
	c.transitions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("op", op)))
}

// RecordInvalidState records a rejected transition attempt for op.
func (c *OTelMetricsCollector) RecordInvalidState(op string) {
	c.invalidStates.Add(context.Background(), 1, metric.WithAttributes(attribute.String("op", op)))
}

// RecordWait records the outcome of an Await* call for op: waitedMillis is
// how long the caller actually blocked, and outcome is one of "ready",
// "timeout", or "interrupted".
func (c *OTelMetricsCollector) RecordWait(op string, waitedMillis int64, outcome string) {
	attrs := metric.WithAttributes(attribute.String("op", op), attribute.String("outcome", outcome))
	c.waitLatency.Record(context.Background(), waitedMillis, attrs)
	c.waits.Add(context.Background(), 1, attrs)
}

var _ nodecache.MetricsCollector = (*OTelMetricsCollector)(nil)
