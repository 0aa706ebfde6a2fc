package main

import (
	"fmt"

	"github.com/boonlang/boon"
)

// buildEngine loads config (file + BOON_* env + defaults) and layers the
// persistent flags declared on the root command over it, then constructs
// an Engine. The differential backend is a valid Config.Backend value for
// an embedding host, but this CLI's JSON front end (program.go) only ever
// produces an arena boon.CompiledProgram, so --backend differential parses
// as a flag but buildEngine returns an error for it.
func buildEngine() (*boon.Engine, error) {
	cfg, err := boon.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if backend != "" {
		cfg.Backend = boon.Backend(backend)
	}
	if passCap > 0 {
		cfg.StabilizationPassCap = passCap
		cfg.PulsePropagationPassCap = passCap
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if otlpEndpoint != "" {
		cfg.OTLPEndpoint = otlpEndpoint
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if cfg.Backend == boon.BackendDifferential {
		return nil, fmt.Errorf("backend %q has no CLI front end yet; use the arena backend or embed package differential directly", cfg.Backend)
	}
	return boon.NewEngine(boon.WithConfig(cfg)), nil
}
