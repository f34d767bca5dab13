package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/atomicfs/atomicfs/internal/config"
	"github.com/atomicfs/atomicfs/internal/platform"
	"github.com/atomicfs/atomicfs/internal/streamwrite"
	"github.com/atomicfs/atomicfs/pkg/fspath"
)

func createTestConfig(metricsPort, healthPort int) *config.Configuration {
	cfg := config.NewDefault()
	cfg.Global.MetricsPort = metricsPort
	cfg.Global.HealthPort = healthPort
	cfg.Monitoring.Metrics.Enabled = false
	return cfg
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("valid configuration", func(t *testing.T) {
		cfg := createTestConfig(19190, 19191)
		engine, err := New(ctx, cfg)
		if err != nil {
			t.Fatalf("New() error = %v, want nil", err)
		}
		if engine == nil {
			t.Fatal("New() returned nil engine")
		}
		if engine.started {
			t.Error("engine.started = true, want false")
		}
	})

	t.Run("nil configuration uses defaults", func(t *testing.T) {
		engine, err := New(ctx, nil)
		if err != nil {
			t.Fatalf("New(nil) error = %v, want nil", err)
		}
		if engine.config == nil {
			t.Fatal("engine.config is nil")
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		cfg := createTestConfig(19192, 19192) // same port, invalid
		_, err := New(ctx, cfg)
		if err == nil {
			t.Error("New() with invalid config should return error")
		}
		if !contains(err.Error(), "invalid configuration") {
			t.Errorf("error should contain 'invalid configuration', got %v", err)
		}
	})
}

func TestEngineDoubleStart(t *testing.T) {
	t.Parallel()

	cfg := createTestConfig(19193, 19194)
	engine := &Engine{config: cfg, started: true}

	ctx := context.Background()
	err := engine.Start(ctx)
	if err == nil {
		t.Error("Start() on already started engine should return error")
	}
	if !contains(err.Error(), "already started") {
		t.Errorf("error should contain 'already started', got %v", err)
	}
}

func TestEngineStopNotStarted(t *testing.T) {
	t.Parallel()

	cfg := createTestConfig(19195, 19196)
	engine := &Engine{config: cfg, started: false}

	ctx := context.Background()
	err := engine.Stop(ctx)
	if err == nil {
		t.Error("Stop() on non-started engine should return error")
	}
	if !contains(err.Error(), "not started") {
		t.Errorf("error should contain 'not started', got %v", err)
	}
}

func TestEngineLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := createTestConfig(19197, 19198)

	engine, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if engine.Health() == nil {
		t.Error("Health() should be non-nil after Start")
	}
	if engine.Metrics() == nil {
		t.Error("Metrics() should be non-nil after Start")
	}
	if err := engine.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestResolveDurability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setting string
		want    platform.Durability
	}{
		{"full", platform.DurabilityFull},
		{"data_only", platform.DurabilityDataOnly},
		{"none", platform.DurabilityNone},
		{"garbage", platform.DurabilityFull},
	}

	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			cfg := createTestConfig(19199, 19200)
			cfg.Durability.Default = tt.setting
			engine := &Engine{config: cfg}
			if got := engine.resolveDurability(); got != tt.want {
				t.Errorf("resolveDurability() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineWriteFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	cfg := createTestConfig(19201, 19202)

	engine, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer engine.Stop(ctx)

	dest, err := fspath.New(filepath.Join(dir, "report.txt"))
	if err != nil {
		t.Fatalf("fspath.New() error = %v", err)
	}

	result, err := engine.WriteFile(ctx, dest, []byte("hello"), engine.DefaultOptions())
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if result.UsedFallbackPublish {
		t.Error("expected a direct rename, not a fallback publish, on a fresh destination")
	}

	got, err := os.ReadFile(dest.String())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("file content = %q, want %q", got, "hello")
	}

	ch, err := engine.Health().GetComponentHealth(commitComponent)
	if err != nil {
		t.Fatalf("GetComponentHealth() error = %v", err)
	}
	if ch.ConsecutiveErrors != 0 {
		t.Errorf("ConsecutiveErrors = %d, want 0 after a successful write", ch.ConsecutiveErrors)
	}
}

func TestEngineWriteChunks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	cfg := createTestConfig(19203, 19204)

	engine, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer engine.Stop(ctx)

	dest, err := fspath.New(filepath.Join(dir, "stream.bin"))
	if err != nil {
		t.Fatalf("fspath.New() error = %v", err)
	}

	opts := streamwrite.Options{Durability: engine.resolveDurability()}
	chunks := [][]byte{[]byte("abc"), []byte("def")}
	if err := engine.WriteChunks(dest, opts, chunks); err != nil {
		t.Fatalf("WriteChunks() error = %v", err)
	}

	got, err := os.ReadFile(dest.String())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "abcdef" {
		t.Errorf("file content = %q, want %q", got, "abcdef")
	}
}

// contains checks if a string contains a substring.
func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return len(substr) == 0
}
