package config

import (
	"fmt"
	"time"
)

// Transport names accepted by the server config.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"
)

// Config is the top-level stability-mcp configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Stability StabilityConfig `toml:"stability"`
	Engine    EngineDefaults  `toml:"engine"`

	// Env is the deployment environment (development or production).
	// Controls log format; read from STABILITY_MCP_ENV.
	Env string `toml:"env"`
}

// ServerConfig describes how the tool set is hosted.
type ServerConfig struct {
	Transport      string `toml:"transport"` // stdio | http | sse
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	SSEPath        string `toml:"sse_path"`
	MessagePath    string `toml:"message_path"`
	MaxConnections int    `toml:"max_connections"`

	// Raw duration strings for TOML unmarshaling; parsed during Validate.
	IdleTimeoutRaw       string `toml:"idle_timeout"`
	HeartbeatIntervalRaw string `toml:"heartbeat_interval"`
	CallTimeoutRaw       string `toml:"call_timeout"`

	IdleTimeout       time.Duration `toml:"-"`
	HeartbeatInterval time.Duration `toml:"-"`
	CallTimeout       time.Duration `toml:"-"`
}

// StabilityConfig holds upstream API credentials and endpoint base.
type StabilityConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	APIKeyAlt string `toml:"api_key_alt"`
}

// EngineDefaults are the legacy v1 generation defaults, one engine family.
type EngineDefaults struct {
	Engine   string  `toml:"engine"`
	Width    int     `toml:"width"`
	Height   int     `toml:"height"`
	Steps    int     `toml:"steps"`
	CfgScale float64 `toml:"cfg_scale"`
	Sampler  string  `toml:"sampler"`
}

// Keys returns the configured API keys in fallback order.
func (c *Config) Keys() []string {
	keys := []string{c.Stability.APIKey}
	if c.Stability.APIKeyAlt != "" {
		keys = append(keys, c.Stability.APIKeyAlt)
	}
	return keys
}

// ListenAddr returns the host:port the http and sse transports bind to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Development reports whether the server runs in development mode.
func (c *Config) Development() bool {
	return c.Env == "development"
}
