package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 10, cfg.Quota.FreeDailyLimit)
	assert.Equal(t, "standard", cfg.Pipeline.PromptVariant)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "9090"
allow_origins = ["chrome-extension://abcdef"]

[llm]
provider = "openai"
model = "gpt-4o-mini"

[quota]
free_daily_limit = 3
upgrade_url = "https://example.com/upgrade"

[pipeline]
prompt_variant = "strict"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"chrome-extension://abcdef"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.Quota.FreeDailyLimit)
	assert.Equal(t, "strict", cfg.Pipeline.PromptVariant)
	// Untouched sections keep defaults.
	assert.Equal(t, 1024, cfg.Pipeline.MaxOutputTokens)
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("PORT", "7777")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "super-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "7777", cfg.Server.Port)
}
