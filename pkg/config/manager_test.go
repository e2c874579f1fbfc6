package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadToleratesMissingConfigFileAndAppliesDefaults(t *testing.T) {
	mgr := NewManager("test-environment-that-does-not-exist", t.TempDir())
	cfg, err := mgr.Load()
	require.NoError(t, err)

	assert.Equal(t, 8.0, cfg.WindowManager.GapsOuter)
	assert.Equal(t, 8.0, cfg.WindowManager.GapsInner)
	assert.Equal(t, 200, cfg.WindowManager.ReconcileDebounceMs)
	assert.Equal(t, 3, cfg.Performance.Concurrency.WorkerPoolSize)
	assert.Equal(t, 9091, cfg.Metrics.Port)
}

func TestLoadRejectsNonPositiveDebounce(t *testing.T) {
	mgr := NewManager("dev", t.TempDir())
	mgr.Set("window_manager.reconcile_debounce_ms", 0)
	_, err := mgr.Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeGaps(t *testing.T) {
	mgr := NewManager("dev", t.TempDir())
	mgr.Set("window_manager.gaps_outer", -1.0)
	_, err := mgr.Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	mgr := NewManager("dev", t.TempDir())
	mgr.Set("server.port", 0)
	_, err := mgr.Load()
	assert.Error(t, err)
}

func TestIsDevelopmentReflectsEnvironment(t *testing.T) {
	assert.True(t, NewManager("development", "").IsDevelopment())
	assert.False(t, NewManager("production", "").IsDevelopment())
}

func TestGetServerAndMetricsAddress(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 7890},
		Metrics: MetricsConfig{Host: "0.0.0.0", Port: 9091},
	}
	assert.Equal(t, "127.0.0.1:7890", cfg.GetServerAddress())
	assert.Equal(t, "0.0.0.0:9091", cfg.GetMetricsAddress())
}
