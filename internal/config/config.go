package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port         string   `toml:"port"`
	AllowOrigins []string `toml:"allow_origins"`
}

type LLMConfig struct {
	Provider    string `toml:"provider"`
	Model       string `toml:"model"`
	VisionModel string `toml:"vision_model"`
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

type RedisConfig struct {
	URL string `toml:"url"`
}

type QuotaConfig struct {
	FreeDailyLimit int    `toml:"free_daily_limit"`
	UpgradeURL     string `toml:"upgrade_url"`
}

type PipelineConfig struct {
	PromptVariant   string `toml:"prompt_variant"`
	MaxOutputTokens int    `toml:"max_output_tokens"`
	MaxSources      int    `toml:"max_sources"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	LLM      LLMConfig      `toml:"llm"`
	Auth     AuthConfig     `toml:"auth"`
	Redis    RedisConfig    `toml:"redis"`
	Quota    QuotaConfig    `toml:"quota"`
	Pipeline PipelineConfig `toml:"pipeline"`
}

// Default returns the baseline configuration. Anything not overridden by the
// TOML file or environment keeps these values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379/0",
		},
		Quota: QuotaConfig{
			FreeDailyLimit: 10,
		},
		Pipeline: PipelineConfig{
			PromptVariant:   "standard",
			MaxOutputTokens: 1024,
			MaxSources:      5,
		},
	}
}

// Load reads the TOML config at path on top of the defaults. A missing file
// is not an error; env overrides applied later cover that case.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides individual fields from the environment. Secrets
// (api key, jwt secret) normally arrive this way rather than via the file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_VISION_MODEL"); v != "" {
		c.LLM.VisionModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
}
