/*
Package config provides configuration loading for the atomicfs
command-line tool and its optional metrics/health server.

The write and streaming-write engines (internal/atomicwrite,
internal/streamwrite) are never configured from this package: their
Options are plain struct literals constructed by the caller, per the
engines' own doc comments. Configuration exists only for the things
that wrap the engines — logging verbosity, service ports, the default
durability mode a CLI invocation uses when the user didn't pass one
explicitly, and write-buffer pool sizing.

# Sources and precedence

	Environment variables (ATOMICFS_*)  ← highest priority
	Configuration file (YAML)
	Compiled-in defaults                ← lowest priority

Loading configuration:

	cfg := config.NewDefault()
	if err := cfg.LoadFromFile("/etc/atomicfs/config.yaml"); err != nil {
		log.Fatal(err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

Configuration file format:

	global:
	  log_level: INFO
	  log_file: "/var/log/atomicfs.log"
	  metrics_port: 8080
	  health_port: 8081
	  profile_port: 6060

	write_buffer:
	  pool_max_buffer_size: "16MB"
	  flush_interval: 30s

	durability:
	  default: full

	monitoring:
	  metrics:
	    enabled: true
	  health_checks:
	    enabled: true
	    orphan_temp_ttl: 1h

# Validation

Validate checks that the metrics and health ports differ, that
log_level is one of DEBUG/INFO/WARN/ERROR, and that durability.default
is one of full/data_only/none — the same three values
internal/platform.Durability recognizes.
*/
package config
