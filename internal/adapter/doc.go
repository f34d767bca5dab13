/*
Package adapter provides Engine, the top-level facade that wires the
atomic-write and streaming-write commit engines to health tracking and
metrics collection.

# Architecture role

Engine sits above internal/atomicwrite and internal/streamwrite, which
do the actual crash-safe work, and above internal/metrics and
pkg/health, which observe it:

	┌─────────────────────────────────────────────┐
	│                 Caller code                  │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│                 Engine (this package)        │
	│  • timing + outcome recording                │
	│  • health-state transitions                  │
	│  • default durability resolution             │
	└─────────────────────────────────────────────┘
	        │                    │
	┌───────┴────────┐  ┌────────┴────────┐
	│ atomicwrite /   │  │ metrics /       │
	│ streamwrite     │  │ health          │
	└─────────────────┘  └─────────────────┘

Engine owns no connection, no cache, and no mount point: every write
still lands on the local filesystem path the caller names. Start and
Stop only bring metrics collection and health tracking up and down.

# Usage

	engine, err := adapter.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := engine.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer engine.Stop(ctx)

	dest, _ := fspath.New("/var/data/report.json")
	_, err = engine.WriteFile(ctx, dest, payload, engine.DefaultOptions())

# Health semantics

A write that completes via the noClobber link+unlink fallback (instead
of a true atomic rename) or that returns an error is recorded as a
failure against the "commit" component. Per pkg/health's state
machine, consecutive failures degrade the component at the tracker's
ErrorThreshold and mark it unavailable at its UnavailableThreshold.
*/
package adapter
