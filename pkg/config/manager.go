package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager handles configuration loading and management.
type Manager struct {
	viper       *viper.Viper
	environment string
	configPath  string
}

// Config represents the complete daemon configuration.
type Config struct {
	Environment   string              `mapstructure:"environment"`
	Version       string              `mapstructure:"version"`
	Server        ServerConfig        `mapstructure:"server"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Tracing       TracingConfig       `mapstructure:"tracing"`
	WindowManager WindowManagerConfig `mapstructure:"window_manager"`
	Performance   PerformanceConfig   `mapstructure:"performance"`
}

// ServerConfig contains HTTP server settings. cmd/yukid reads only
// ShutdownTimeout from it; the debug/metrics server listens on the Metrics
// address.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnablePprof     bool          `mapstructure:"enable_pprof"`
	PprofPort       int           `mapstructure:"pprof_port"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Format       string `mapstructure:"format"`
	Output       string `mapstructure:"output"`
	EnableCaller bool   `mapstructure:"enable_caller"`
	Development  bool   `mapstructure:"development"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	Enabled        bool       `mapstructure:"enabled"`
	ServiceName    string     `mapstructure:"service_name"`
	ServiceVersion string     `mapstructure:"service_version"`
	Environment    string     `mapstructure:"environment"`
	OTLP           OTLPConfig `mapstructure:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// WindowManagerConfig contains the tuning knobs exposed to operators: gap
// sizing, reconciliation timing, and per-app float overrides.
type WindowManagerConfig struct {
	GapsOuter                float64            `mapstructure:"gaps_outer"`
	GapsInner                float64            `mapstructure:"gaps_inner"`
	RestorePositions         bool               `mapstructure:"restore_positions"`
	AutoTileNewWindows       bool               `mapstructure:"auto_tile_new_windows"`
	ReconcileDebounceMs      int                `mapstructure:"reconcile_debounce_ms"`
	GeometryRetryMs          int                `mapstructure:"geometry_retry_ms"`
	PerfFastPathWindowThresh int                `mapstructure:"perf_fast_path_window_thresh"`
	AppOverrides             []AppOverrideEntry `mapstructure:"app_overrides"`
	PersistenceDir           string             `mapstructure:"persistence_dir"`
	FakePlatform             bool               `mapstructure:"fake_platform"`
}

// AppOverrideEntry forces a bundle ID's float classification. It is
// consulted only after the classifier's generic rules have all declined to
// float the window.
type AppOverrideEntry struct {
	BundleID string `mapstructure:"bundle_id"`
	Float    bool   `mapstructure:"float"`
}

// PerformanceConfig contains concurrency tuning.
type PerformanceConfig struct {
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
}

// ConcurrencyConfig contains worker pool sizing.
type ConcurrencyConfig struct {
	WorkerPoolSize int `mapstructure:"worker_pool_size"`
}

// NewManager creates a new configuration manager.
func NewManager(environment, configPath string) *Manager {
	v := viper.New()

	return &Manager{
		viper:       v,
		environment: environment,
		configPath:  configPath,
	}
}

// Load loads the configuration from files and environment variables.
func (m *Manager) Load() (*Config, error) {
	if m.configPath == "" {
		m.configPath = "configs"
	}

	configFile := fmt.Sprintf("environments/%s.yaml", m.environment)

	m.viper.SetConfigName(strings.TrimSuffix(configFile, filepath.Ext(configFile)))
	m.viper.SetConfigType("yaml")
	m.viper.AddConfigPath(m.configPath)
	m.viper.AddConfigPath(".")
	m.viper.AddConfigPath("./configs")
	m.viper.AddConfigPath("/etc/yuki")
	m.viper.AddConfigPath("$HOME/.config/yuki")

	m.setDefaults()

	m.viper.AutomaticEnv()
	m.viper.SetEnvPrefix("YUKI")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := m.validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func (m *Manager) setDefaults() {
	m.viper.SetDefault("environment", "production")
	m.viper.SetDefault("server.host", "127.0.0.1")
	m.viper.SetDefault("server.port", 7890)
	m.viper.SetDefault("server.read_timeout", 5*time.Second)
	m.viper.SetDefault("server.write_timeout", 5*time.Second)
	m.viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	m.viper.SetDefault("metrics.enabled", true)
	m.viper.SetDefault("metrics.host", "127.0.0.1")
	m.viper.SetDefault("metrics.port", 9091)
	m.viper.SetDefault("metrics.path", "/metrics")
	m.viper.SetDefault("logging.level", "info")
	m.viper.SetDefault("logging.format", "text")
	m.viper.SetDefault("logging.output", "stderr")
	m.viper.SetDefault("tracing.enabled", false)
	m.viper.SetDefault("tracing.service_name", "yukid")
	m.viper.SetDefault("window_manager.gaps_outer", 8.0)
	m.viper.SetDefault("window_manager.gaps_inner", 8.0)
	m.viper.SetDefault("window_manager.restore_positions", true)
	m.viper.SetDefault("window_manager.auto_tile_new_windows", true)
	m.viper.SetDefault("window_manager.reconcile_debounce_ms", 200)
	m.viper.SetDefault("window_manager.geometry_retry_ms", 50)
	m.viper.SetDefault("window_manager.perf_fast_path_window_thresh", 8)
	m.viper.SetDefault("window_manager.persistence_dir", "")
	m.viper.SetDefault("window_manager.fake_platform", false)
	m.viper.SetDefault("performance.concurrency.worker_pool_size", 3)
}

// validate validates the configuration.
func (m *Manager) validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.WindowManager.GapsOuter < 0 || config.WindowManager.GapsInner < 0 {
		return fmt.Errorf("gaps must be non-negative")
	}

	if config.WindowManager.ReconcileDebounceMs <= 0 {
		return fmt.Errorf("reconcile_debounce_ms must be positive")
	}

	if config.Performance.Concurrency.WorkerPoolSize <= 0 {
		return fmt.Errorf("worker_pool_size must be positive")
	}

	return nil
}

// GetString returns a string configuration value.
func (m *Manager) GetString(key string) string {
	return m.viper.GetString(key)
}

// GetInt returns an integer configuration value.
func (m *Manager) GetInt(key string) int {
	return m.viper.GetInt(key)
}

// GetBool returns a boolean configuration value.
func (m *Manager) GetBool(key string) bool {
	return m.viper.GetBool(key)
}

// GetDuration returns a duration configuration value.
func (m *Manager) GetDuration(key string) time.Duration {
	return m.viper.GetDuration(key)
}

// Set sets a configuration value ahead of Load, overriding defaults and
// file values for that key.
func (m *Manager) Set(key string, value interface{}) {
	m.viper.Set(key, value)
}

// IsSet checks if a configuration key is set.
func (m *Manager) IsSet(key string) bool {
	return m.viper.IsSet(key)
}

// WatchConfig watches for configuration file changes and re-invokes
// callback. cmd/yukid uses it to re-apply the gap sizes without a restart;
// other settings take effect only on the next start.
func (m *Manager) WatchConfig(callback func()) {
	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})
}

// GetEnvironment returns the current environment.
func (m *Manager) GetEnvironment() string {
	return m.environment
}

// IsDevelopment returns true if running in development environment.
func (m *Manager) IsDevelopment() bool {
	return m.environment == "development"
}

// GetServerAddress returns server.host:server.port. cmd/yukid binds its
// debug/metrics HTTP server to GetMetricsAddress, not to this address.
func (config *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
}

// GetMetricsAddress returns the metrics server address.
func (config *Config) GetMetricsAddress() string {
	return fmt.Sprintf("%s:%d", config.Metrics.Host, config.Metrics.Port)
}
