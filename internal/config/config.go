package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/lydakis/stability-mcp/internal/paths"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the config file at the default XDG path, applies environment
// overrides, and fills defaults. A missing config file is not an error:
// the server is fully configurable from the environment alone.
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads and parses a config file at the given path.
func LoadFrom(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		expandConfigEnvVars(&cfg)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// ExampleConfigPath returns the default config file path (for help messages).
func ExampleConfigPath() string {
	return paths.ConfigFile()
}

// applyEnv overlays environment variables onto the config. Environment
// always wins over file values so a bare `STABILITY_API_KEY=... stability-mcp`
// works with no config file at all.
func applyEnv(cfg *Config) {
	setString(&cfg.Stability.APIKey, "STABILITY_API_KEY")
	setString(&cfg.Stability.APIKeyAlt, "STABILITY_API_KEY_ALT")
	setString(&cfg.Stability.BaseURL, "STABILITY_API_BASE")

	setString(&cfg.Server.Transport, "STABILITY_MCP_TRANSPORT")
	setString(&cfg.Server.Host, "HOST")
	setInt(&cfg.Server.Port, "PORT")

	setString(&cfg.Env, "STABILITY_MCP_ENV")

	setString(&cfg.Engine.Engine, "STABILITY_ENGINE")
	setInt(&cfg.Engine.Width, "STABILITY_WIDTH")
	setInt(&cfg.Engine.Height, "STABILITY_HEIGHT")
	setInt(&cfg.Engine.Steps, "STABILITY_STEPS")
	setFloat(&cfg.Engine.CfgScale, "STABILITY_CFG_SCALE")
	setString(&cfg.Engine.Sampler, "STABILITY_SAMPLER")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportStdio
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.SSEPath == "" {
		cfg.Server.SSEPath = "/sse"
	}
	if cfg.Server.MessagePath == "" {
		cfg.Server.MessagePath = "/message"
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 100
	}
	if cfg.Server.IdleTimeoutRaw == "" {
		cfg.Server.IdleTimeoutRaw = "30s"
	}
	if cfg.Server.HeartbeatIntervalRaw == "" {
		cfg.Server.HeartbeatIntervalRaw = "15s"
	}
	if cfg.Server.CallTimeoutRaw == "" {
		cfg.Server.CallTimeoutRaw = "30s"
	}

	if cfg.Stability.BaseURL == "" {
		cfg.Stability.BaseURL = "https://api.stability.ai"
	}

	if cfg.Env == "" {
		cfg.Env = "production"
	}

	if cfg.Engine.Engine == "" {
		cfg.Engine.Engine = "stable-diffusion-xl-1024-v1-0"
	}
	if cfg.Engine.Width == 0 {
		cfg.Engine.Width = 1024
	}
	if cfg.Engine.Height == 0 {
		cfg.Engine.Height = 1024
	}
	if cfg.Engine.Steps == 0 {
		cfg.Engine.Steps = 30
	}
	if cfg.Engine.CfgScale == 0 {
		cfg.Engine.CfgScale = 7
	}
	if cfg.Engine.Sampler == "" {
		cfg.Engine.Sampler = "K_DPMPP_2M"
	}
}

func setString(dst *string, envVar string) {
	if v, ok := os.LookupEnv(envVar); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, envVar string) {
	if v, ok := os.LookupEnv(envVar); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, envVar string) {
	if v, ok := os.LookupEnv(envVar); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func expandConfigEnvVars(cfg *Config) {
	cfg.Stability.APIKey = expandEnvVars(cfg.Stability.APIKey)
	cfg.Stability.APIKeyAlt = expandEnvVars(cfg.Stability.APIKeyAlt)
	cfg.Stability.BaseURL = expandEnvVars(cfg.Stability.BaseURL)
	cfg.Server.Host = expandEnvVars(cfg.Server.Host)
	cfg.Engine.Engine = expandEnvVars(cfg.Engine.Engine)
	cfg.Engine.Sampler = expandEnvVars(cfg.Engine.Sampler)
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}
