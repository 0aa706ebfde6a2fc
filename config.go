package boon

import (
	"strings"

	"github.com/spf13/viper"
)

// Backend selects which Runtime implementation backs an Engine.
type Backend string

const (
	// BackendArena is the default arena-based tick scheduler (this
	// package's Engine).
	BackendArena Backend = "arena"
	// BackendDifferential is the alternative incremental dataflow engine
	// in package differential.
	BackendDifferential Backend = "differential"
)

// Config holds the engine's tunable knobs. Constructed directly, via
// Option functions, or loaded from file/env with LoadConfig.
type Config struct {
	// Backend names arena vs differential execution. NewEngine does not
	// read it and always builds the arena Engine; the CLI's buildEngine
	// returns an error for BackendDifferential.
	Backend Backend
	// StabilizationPassCap bounds the stabilization loop per tick
	// (typical cap 20).
	StabilizationPassCap int
	// PulsePropagationPassCap bounds the second, pulse-triggered
	// stabilization loop that runs after pulses fire each tick.
	PulsePropagationPassCap int
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
	// MetricsAddr, if non-empty, serves Prometheus metrics on this address.
	MetricsAddr string
	// OTLPEndpoint, if non-empty, exports traces via otlptracegrpc instead
	// of the default no-op exporter.
	OTLPEndpoint string
	// LogFile, if non-empty, additionally rotates logs through lumberjack
	// at this path, alongside the default stderr output.
	LogFile string
}

// DefaultConfig returns the engine's out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		Backend:                 BackendArena,
		StabilizationPassCap:    20,
		PulsePropagationPassCap: 20,
		LogLevel:                "info",
	}
}

// Option mutates a Config during NewEngine.
type Option func(*Config)

// WithConfig replaces the entire Config wholesale, for a host (the CLI)
// that has already assembled one via LoadConfig plus flag overrides.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithBackend selects the execution backend.
func WithBackend(b Backend) Option {
	return func(c *Config) { c.Backend = b }
}

// WithPassCap overrides both stabilization pass caps.
func WithPassCap(n int) Option {
	return func(c *Config) {
		c.StabilizationPassCap = n
		c.PulsePropagationPassCap = n
	}
}

// WithLogLevel overrides the logger's level.
func WithLogLevel(level string) Option {
	return func(c *Config) { c.LogLevel = level }
}

// WithMetricsAddr enables a Prometheus /metrics endpoint.
func WithMetricsAddr(addr string) Option {
	return func(c *Config) { c.MetricsAddr = addr }
}

// WithOTLPEndpoint routes traces to an OTLP collector instead of discarding
// them.
func WithOTLPEndpoint(endpoint string) Option {
	return func(c *Config) { c.OTLPEndpoint = endpoint }
}

// WithLogFile additionally rotates logs through lumberjack at path.
func WithLogFile(path string) Option {
	return func(c *Config) { c.LogFile = path }
}

// LoadConfig merges a YAML/JSON config file, environment variables
// (BOON_* prefix), and defaults using viper, matching the CLI's
// --config flag. An empty path loads only environment and defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("BOON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", string(cfg.Backend))
	v.SetDefault("stabilization_pass_cap", cfg.StabilizationPassCap)
	v.SetDefault("pulse_propagation_pass_cap", cfg.PulsePropagationPassCap)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
	v.SetDefault("otlp_endpoint", cfg.OTLPEndpoint)
	v.SetDefault("log_file", cfg.LogFile)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, wrapErr(ErrConfigParse, err.Error())
		}
	}

	cfg.Backend = Backend(v.GetString("backend"))
	cfg.StabilizationPassCap = v.GetInt("stabilization_pass_cap")
	cfg.PulsePropagationPassCap = v.GetInt("pulse_propagation_pass_cap")
	cfg.LogLevel = v.GetString("log_level")
	cfg.MetricsAddr = v.GetString("metrics_addr")
	cfg.OTLPEndpoint = v.GetString("otlp_endpoint")
	cfg.LogFile = v.GetString("log_file")
	return cfg, nil
}
