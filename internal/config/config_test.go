package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every variable applyEnv reads so file values and defaults
// are observable regardless of the test host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"STABILITY_API_KEY", "STABILITY_API_KEY_ALT", "STABILITY_API_BASE",
		"STABILITY_MCP_TRANSPORT", "HOST", "PORT", "STABILITY_MCP_ENV",
		"STABILITY_ENGINE", "STABILITY_WIDTH", "STABILITY_HEIGHT",
		"STABILITY_STEPS", "STABILITY_CFG_SCALE", "STABILITY_SAMPLER",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Transport != TransportStdio {
		t.Errorf("transport = %q, want stdio", cfg.Server.Transport)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.SSEPath != "/sse" {
		t.Errorf("sse_path = %q, want /sse", cfg.Server.SSEPath)
	}
	if cfg.Server.MaxConnections != 100 {
		t.Errorf("max_connections = %d, want 100", cfg.Server.MaxConnections)
	}
	if cfg.Stability.BaseURL != "https://api.stability.ai" {
		t.Errorf("base_url = %q", cfg.Stability.BaseURL)
	}
	if cfg.Engine.Engine != "stable-diffusion-xl-1024-v1-0" {
		t.Errorf("engine = %q", cfg.Engine.Engine)
	}
}

func TestLoadFromExpandsEnvValuesAfterParsing(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_SECRET", "sk-test-123")

	path := filepath.Join(t.TempDir(), "config.toml")
	const raw = `
[stability]
api_key = "${MY_SECRET}"
`
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Stability.APIKey != "sk-test-123" {
		t.Fatalf("api_key = %q, want sk-test-123", cfg.Stability.APIKey)
	}
}

func TestLoadFromLeavesUnresolvedVarsAsIs(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	const raw = `
[stability]
api_key = "${NO_SUCH_VAR_SET}"
`
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Stability.APIKey != "${NO_SUCH_VAR_SET}" {
		t.Fatalf("api_key = %q, want placeholder preserved", cfg.Stability.APIKey)
	}
}

func TestEnvOverridesFileValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("STABILITY_API_KEY", "sk-from-env")
	t.Setenv("STABILITY_MCP_TRANSPORT", "sse")
	t.Setenv("PORT", "9090")
	t.Setenv("STABILITY_WIDTH", "512")

	path := filepath.Join(t.TempDir(), "config.toml")
	const raw = `
[server]
transport = "stdio"
port = 8080

[stability]
api_key = "sk-from-file"
`
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Stability.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q, want env value", cfg.Stability.APIKey)
	}
	if cfg.Server.Transport != TransportSSE {
		t.Errorf("transport = %q, want sse", cfg.Server.Transport)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Engine.Width != 512 {
		t.Errorf("width = %d, want 512", cfg.Engine.Width)
	}
}

func TestKeysFallbackOrder(t *testing.T) {
	cfg := &Config{Stability: StabilityConfig{APIKey: "A"}}
	if got := cfg.Keys(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("Keys() = %v, want [A]", got)
	}

	cfg.Stability.APIKeyAlt = "B"
	got := cfg.Keys()
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("Keys() = %v, want [A B]", got)
	}
}

func TestValidateParsesDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv("STABILITY_API_KEY", "sk-test")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Server.IdleTimeout != 30*time.Second {
		t.Errorf("idle timeout = %v, want 30s", cfg.Server.IdleTimeout)
	}
	if cfg.Server.HeartbeatInterval != 15*time.Second {
		t.Errorf("heartbeat interval = %v, want 15s", cfg.Server.HeartbeatInterval)
	}
	if cfg.Server.CallTimeout != 30*time.Second {
		t.Errorf("call timeout = %v, want 30s", cfg.Server.CallTimeout)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.Stability.APIKey = "" }},
		{"bad transport", func(c *Config) { c.Server.Transport = "websocket" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"zero max connections", func(c *Config) { c.Server.MaxConnections = -1 }},
		{"bad duration", func(c *Config) { c.Server.CallTimeoutRaw = "soon" }},
		{"width not multiple of 64", func(c *Config) { c.Engine.Width = 1000 }},
		{"steps out of range", func(c *Config) { c.Engine.Steps = 200 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("STABILITY_API_KEY", "sk-test")

			cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}
