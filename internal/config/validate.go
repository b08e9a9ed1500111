package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validate checks configuration invariants and returns actionable errors.
// It also parses the raw duration fields into their typed counterparts.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error

	switch cfg.Server.Transport {
	case TransportStdio, TransportHTTP, TransportSSE:
	default:
		errs = append(errs, fmt.Errorf("server.transport: must be stdio, http, or sse, got %q", cfg.Server.Transport))
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: must be 1-65535, got %d", cfg.Server.Port))
	}
	if cfg.Server.MaxConnections < 1 {
		errs = append(errs, fmt.Errorf("server.max_connections: must be >= 1, got %d", cfg.Server.MaxConnections))
	}

	errs = append(errs, parseDuration(&cfg.Server.IdleTimeout, "server.idle_timeout", cfg.Server.IdleTimeoutRaw)...)
	errs = append(errs, parseDuration(&cfg.Server.HeartbeatInterval, "server.heartbeat_interval", cfg.Server.HeartbeatIntervalRaw)...)
	errs = append(errs, parseDuration(&cfg.Server.CallTimeout, "server.call_timeout", cfg.Server.CallTimeoutRaw)...)

	if cfg.Stability.APIKey == "" {
		errs = append(errs, errors.New("stability.api_key: missing, set STABILITY_API_KEY"))
	}
	if _, err := url.ParseRequestURI(cfg.Stability.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("stability.base_url: invalid URL %q: %w", cfg.Stability.BaseURL, err))
	}

	errs = append(errs, validateEngine(cfg.Engine)...)

	return errors.Join(errs...)
}

// validateEngine checks the legacy v1 generation defaults against the API
// limits: dimensions are multiples of 64, steps 10-50, cfg_scale 0-35.
func validateEngine(e EngineDefaults) []error {
	var errs []error

	if e.Width%64 != 0 || e.Width < 320 || e.Width > 1536 {
		errs = append(errs, fmt.Errorf("engine.width: must be a multiple of 64 in 320-1536, got %d", e.Width))
	}
	if e.Height%64 != 0 || e.Height < 320 || e.Height > 1536 {
		errs = append(errs, fmt.Errorf("engine.height: must be a multiple of 64 in 320-1536, got %d", e.Height))
	}
	if e.Steps < 10 || e.Steps > 50 {
		errs = append(errs, fmt.Errorf("engine.steps: must be 10-50, got %d", e.Steps))
	}
	if e.CfgScale < 0 || e.CfgScale > 35 {
		errs = append(errs, fmt.Errorf("engine.cfg_scale: must be 0-35, got %g", e.CfgScale))
	}

	return errs
}

func parseDuration(dst *time.Duration, field, raw string) []error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)}
	}
	if d <= 0 {
		return []error{fmt.Errorf("%s: must be > 0, got %q", field, raw)}
	}
	*dst = d
	return nil
}
