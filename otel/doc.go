// Package otel provides OpenTelemetry integration for nodecache metrics.
//
// # Overview
//
// This package implements the nodecache.MetricsCollector interface using
// OpenTelemetry, enabling enterprise-grade observability with automatic
// percentile calculation for Await* wait latencies and multi-backend
// support (Prometheus, Jaeger, DataDog, Grafana).
//
// The package is a separate module so the nodecache core carries no OTEL
// dependency; applications that don't need metrics collection don't pay for
// it.
//
// # Quick Start
//
//	import (
//	    "github.com/agilira/nodecache"
//	    ncotel "github.com/agilira/nodecache/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := ncotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := nodecache.DefaultConfig()
//	cfg.MetricsCollector = collector
//	store := nodecache.NewStore[string, Document](cfg, nodecache.HashString)
//
// # Metrics Exposed
//
//	nodecache_transitions_total     counter, by op        successful state transitions
//	nodecache_invalid_state_total   counter, by op        rejected transition attempts
//	nodecache_waits_total           counter, by op+outcome Await* call outcomes
//	nodecache_wait_latency_ms       histogram, by op+outcome  Await* call duration
//
// outcome is one of "ready", "timeout", or "interrupted". Histograms
// automatically compute percentiles (p50, p95, p99) via the OTEL SDK.
//
// # Prometheus Queries
//
// P99 wait latency, AwaitWritable only:
//
//	histogram_quantile(0.99, rate(nodecache_wait_latency_ms_bucket{op="AwaitWritable"}[5m]))
//
// Timeout rate:
//
//	rate(nodecache_waits_total{outcome="timeout"}[5m]) / rate(nodecache_waits_total[5m])
//
// Invalid-state rate (a signal of upstream logic bugs, not expected load):
//
//	rate(nodecache_invalid_state_total[5m])
//
// # Custom Meter Name
//
// Useful when wiring multiple Store instances into one process:
//
//	collector, err := ncotel.NewOTelMetricsCollector(
//	    provider,
//	    ncotel.WithMeterName("objectstore"),
//	)
//
// # Thread Safety
//
// All methods are safe for concurrent use; the underlying OTEL instruments
// are themselves thread-safe.
package otel
