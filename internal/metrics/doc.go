/*
Package metrics provides Prometheus-based metrics collection for atomicfs's
write and streaming-write engines.

# Overview

The metrics package wires operation counts, durations, sizes, sync
outcomes, and publish-fallback counts into a Prometheus registry, exported
over HTTP for scraping alongside a debug JSON/plaintext summary for
troubleshooting without a Prometheus server running.

Architecture

	┌─────────────┐
	│  Collector  │  ← Main metrics aggregator
	└──────┬──────┘
	       │
	   ┌───┴────────────────────────────┐
	   │                                │
	┌──▼───────────┐         ┌─────────▼──────┐
	│  Prometheus  │         │  HTTP Endpoints │
	│   Registry   │         │  /metrics       │
	│              │         │  /health        │
	│ - Counters   │         │  /debug/metrics │
	│ - Histograms │         └─────────────────┘
	└──────────────┘

# Core Components

Collector: The main metrics collector that aggregates and exports metrics.
It maintains both Prometheus metrics (for monitoring systems) and internal
operation tracking (for debugging).

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   true,
		Port:      8080,
		Path:      "/metrics",
		Namespace: "atomicfs",
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := collector.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer collector.Stop(ctx)

# Recording Operations

The collector tracks atomic_write and stream_write operations with timing,
size, and success/failure status:

	startTime := time.Now()
	err := engine.WriteFile(ctx, path, data, opts)
	duration := time.Since(startTime)

	collector.RecordOperation("atomic_write", duration, int64(len(data)), err == nil)

# Sync and Publish Metrics

Durability syncs and publish fallbacks are tracked separately from the
operation as a whole, since a single write can sync twice (file, then
directory) and a publish can fall back mid-operation:

	collector.RecordSync("file", "full", syncDuration)
	collector.RecordSync("directory", "full", dirSyncDuration)
	collector.RecordPublishFallback("renameat2_enosys")

# Error Tracking

	if err != nil {
		collector.RecordError("atomic_write", err)
		return err
	}

# Prometheus Metrics

The collector exports standard Prometheus metrics:

Counters:
  - atomicfs_operations_total{operation,status}: Total write operations by type and status
  - atomicfs_publish_fallback_total{reason}: Publishes that fell back to link+unlink
  - atomicfs_orphan_temp_reaped_total: Abandoned temp files removed by the health checker
  - atomicfs_errors_total{operation,type}: Errors by operation and classification

Histograms:
  - atomicfs_operation_duration_seconds{operation}: Operation latency distribution
  - atomicfs_operation_size_bytes{operation}: Operation size distribution
  - atomicfs_sync_duration_seconds{kind,durability}: File/directory sync latency

# HTTP Endpoints

	/metrics          - Prometheus-formatted metrics (for scraping)
	/health           - Health check endpoint
	/debug/metrics    - Human-readable JSON metrics summary
	/debug/operations - Tabular operations summary

# Configuration

	config := &metrics.Config{
		Enabled:        true,
		Port:           8080,
		Path:           "/metrics",
		Namespace:      "atomicfs",
		Subsystem:      "",
		UpdateInterval: 30 * time.Second,
		Labels: map[string]string{
			"env": "production",
		},
	}

# Thread Safety

All Collector methods are thread-safe and can be called concurrently from
multiple goroutines.

# See Also

- internal/health: periodic health-check framework, including OrphanReaperCheck
- pkg/fserrors: structured error taxonomy
*/
package metrics
