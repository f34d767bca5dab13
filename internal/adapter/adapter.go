package adapter

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/atomicfs/atomicfs/internal/atomicwrite"
	"github.com/atomicfs/atomicfs/internal/config"
	"github.com/atomicfs/atomicfs/internal/metrics"
	"github.com/atomicfs/atomicfs/internal/phase"
	"github.com/atomicfs/atomicfs/internal/platform"
	"github.com/atomicfs/atomicfs/internal/streamwrite"
	"github.com/atomicfs/atomicfs/pkg/fspath"
	"github.com/atomicfs/atomicfs/pkg/health"
)

// commitComponent is the health-tracker component name the commit
// engines report against.
const commitComponent = "commit"

// Engine is the top-level facade wiring the atomic-write and
// streaming-write engines to health tracking and metrics collection. It
// owns no storage of its own: every write still lands on the local
// filesystem the caller names, through internal/platform.
type Engine struct {
	config *config.Configuration

	metrics *metrics.Collector
	health  *health.Tracker

	started bool
}

// New creates a new Engine from the given configuration. A nil
// configuration is replaced with config.NewDefault().
func New(ctx context.Context, cfg *config.Configuration) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Engine{config: cfg}, nil
}

// Start initializes metrics collection and health tracking. Start does
// not touch the filesystem: there is no connection to establish and no
// mount point to bring up.
func (e *Engine) Start(ctx context.Context) error {
	if e.started {
		return fmt.Errorf("engine already started")
	}

	log.Printf("starting atomicfs engine")
	log.Printf("default durability: %s", e.config.Durability.Default)

	var err error
	e.metrics, err = metrics.NewCollector(&metrics.Config{
		Enabled: e.config.Monitoring.Metrics.Enabled,
		Port:    e.config.Global.MetricsPort,
		Labels:  e.config.Monitoring.Metrics.CustomLabels,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics collector: %w", err)
	}
	if err := e.metrics.Start(ctx); err != nil {
		return fmt.Errorf("failed to start metrics collector: %w", err)
	}

	e.health = health.NewTracker(health.DefaultConfig())
	e.health.RegisterComponent(commitComponent)

	e.started = true
	log.Printf("atomicfs engine started")
	return nil
}

// Stop flushes metrics collection. Idempotent writes already committed
// through WriteFile/OpenStream are unaffected by Stop: each one reached
// a crash-safe final state on its own before returning.
func (e *Engine) Stop(ctx context.Context) error {
	if !e.started {
		return fmt.Errorf("engine not started")
	}

	log.Printf("stopping atomicfs engine")

	var lastErr error
	if e.metrics != nil {
		if err := e.metrics.Stop(ctx); err != nil {
			log.Printf("error stopping metrics collector: %v", err)
			lastErr = err
		}
	}

	e.started = false
	log.Printf("atomicfs engine stopped")
	return lastErr
}

// resolveDurability maps the configuration's default durability string
// to the platform.Durability enum, falling back to full durability
// (fail-safe) for an unrecognized value — Validate should have already
// rejected it by the time Start is reached.
func (e *Engine) resolveDurability() platform.Durability {
	switch e.config.Durability.Default {
	case "none":
		return platform.DurabilityNone
	case "data_only":
		return platform.DurabilityDataOnly
	default:
		return platform.DurabilityFull
	}
}

// DefaultOptions returns atomic-write options seeded from the engine's
// configured default durability mode, ready for the caller to adjust
// Strategy/Preserve/CreateIntermediates.
func (e *Engine) DefaultOptions() atomicwrite.Options {
	return atomicwrite.Options{Durability: e.resolveDurability()}
}

// WriteFile performs one crash-safe atomic write of data to dest,
// recording its duration, size, and outcome.
func (e *Engine) WriteFile(ctx context.Context, dest fspath.Path, data []byte, opts atomicwrite.Options) (atomicwrite.Result, error) {
	start := time.Now()
	result, err := atomicwrite.Write(data, dest, opts)
	duration := time.Since(start)

	if e.metrics != nil {
		e.metrics.RecordOperation("atomic_write", duration, int64(len(data)), err == nil)
		if err != nil {
			e.metrics.RecordError("atomic_write", err)
		}
		if result.UsedFallbackPublish {
			e.metrics.RecordPublishFallback("noclobber_unsupported")
		}
	}

	e.recordHealth(err, result.UsedFallbackPublish)
	return result, err
}

// WriteFileWithTracker is WriteFile with caller-visible phase transition
// observation, for diagnostics or tests that assert on the commit
// pipeline's progress.
func (e *Engine) WriteFileWithTracker(ctx context.Context, dest fspath.Path, data []byte, opts atomicwrite.Options, tr *phase.Tracker) (atomicwrite.Result, error) {
	start := time.Now()
	result, err := atomicwrite.WriteWithTracker(data, dest, opts, tr)
	duration := time.Since(start)

	if e.metrics != nil {
		e.metrics.RecordOperation("atomic_write", duration, int64(len(data)), err == nil)
		if err != nil {
			e.metrics.RecordError("atomic_write", err)
		}
		if result.UsedFallbackPublish {
			e.metrics.RecordPublishFallback("noclobber_unsupported")
		}
	}

	e.recordHealth(err, result.UsedFallbackPublish)
	return result, err
}

// OpenStream begins a crash-safe streaming write to dest. The caller
// drives Write/Commit/Cleanup directly on the returned Context; use
// CommitStream to record its outcome against this engine's metrics and
// health tracker.
func (e *Engine) OpenStream(dest fspath.Path, opts streamwrite.Options) (*streamwrite.Context, error) {
	return streamwrite.Open(dest, opts)
}

// CommitStream commits a streaming context and records the outcome.
// expectedSize is used only for the operation-size metric; the engine
// never learns it from the stream itself since the chunk count is the
// caller's to track.
func (e *Engine) CommitStream(c *streamwrite.Context, expectedSize int64) error {
	start := time.Now()
	err := c.Commit()
	duration := time.Since(start)

	if e.metrics != nil {
		e.metrics.RecordOperation("stream_write", duration, expectedSize, err == nil)
		if err != nil {
			e.metrics.RecordError("stream_write", err)
		}
	}

	e.recordHealth(err, false)
	return err
}

// WriteChunks is the one-shot streaming API: open, write every chunk,
// commit, with automatic cleanup on error, recorded against this
// engine's metrics and health tracker.
func (e *Engine) WriteChunks(dest fspath.Path, opts streamwrite.Options, chunks [][]byte) error {
	var total int64
	for _, chunk := range chunks {
		total += int64(len(chunk))
	}

	start := time.Now()
	err := streamwrite.WriteChunks(dest, opts, chunks)
	duration := time.Since(start)

	if e.metrics != nil {
		e.metrics.RecordOperation("stream_write", duration, total, err == nil)
		if err != nil {
			e.metrics.RecordError("stream_write", err)
		}
	}

	e.recordHealth(err, false)
	return err
}

func (e *Engine) recordHealth(err error, usedFallback bool) {
	if e.health == nil {
		return
	}
	switch {
	case err != nil:
		e.health.RecordError(commitComponent, err)
	case usedFallback:
		e.health.RecordError(commitComponent, fmt.Errorf("publish used link+unlink fallback, not a true atomic rename"))
	default:
		e.health.RecordSuccess(commitComponent)
	}
}

// Health returns the engine's component health tracker, or nil before
// Start.
func (e *Engine) Health() *health.Tracker { return e.health }

// Metrics returns the engine's metrics collector, or nil before Start.
func (e *Engine) Metrics() *metrics.Collector { return e.metrics }
