package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ollamahub/internal/hub"
	"ollamahub/internal/models"
)

var envKeys = []string{
	"OLLAMAHUB_CONFIG", "OLLAMAHUB_BASE_URL", "OLLAMAHUB_API_KEY", "OLLAMAHUB_MODEL",
	"OLLAMAHUB_STREAM", "OLLAMAHUB_MODE", "OLLAMAHUB_SYSTEM_PROMPT", "OLLAMAHUB_TEMPERATURE",
	"OLLAMAHUB_TOP_P", "OLLAMAHUB_TOP_K", "OLLAMAHUB_HISTORY_BACKEND", "OLLAMAHUB_HISTORY_DSN",
	"OLLAMAHUB_LOG_FILE", "OLLAMAHUB_DEBUG", "OLLAMAHUB_MARKDOWN",
}

// clearEnv blanks every OLLAMAHUB_* variable for the test. Empty values
// are treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile("", false, "")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.BaseURL)
	assert.Equal(t, "deepseek-r1:14b", cfg.Model)
	assert.True(t, cfg.Stream)
	assert.Equal(t, models.ModeChat, cfg.SessionMode())
	assert.Equal(t, hub.DefaultSampling(), cfg.Sampling)
	assert.Equal(t, "memory", cfg.History.Backend)
	assert.False(t, cfg.UI.Markdown)
	assert.NotEmpty(t, cfg.Log.File)
}

func TestLoadFile_MissingOptionalFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"), false, "")
	require.NoError(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.toml"), true, "")
	require.Error(t, err)
}

func TestLoadFile_TOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
base_url = "https://hub.example.com/"
model = "llama3"
stream = false
mode = "generate"
system_prompt = "be brief"

[sampling]
temperature = 0.2
top_p = 0.5
top_k = 10

[history]
backend = "sqlite"

[ui]
markdown = true
`)

	cfg, err := LoadFile(path, true, "")
	require.NoError(t, err)

	assert.Equal(t, "https://hub.example.com", cfg.BaseURL)
	assert.Equal(t, "llama3", cfg.Model)
	assert.False(t, cfg.Stream)
	assert.Equal(t, models.ModeGenerate, cfg.SessionMode())
	assert.Equal(t, "be brief", cfg.SystemPrompt)
	assert.Equal(t, hub.Sampling{Temperature: 0.2, TopP: 0.5, TopK: 10}, cfg.Sampling)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, ":memory:", cfg.History.DSN)
	assert.True(t, cfg.UI.Markdown)
}

func TestLoadFile_UnknownKey(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", "modle = \"typo\"\n")

	_, err := LoadFile(path, true, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modle")
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", "model = \"from-file\"\n")
	t.Setenv("OLLAMAHUB_MODEL", "from-env")
	t.Setenv("OLLAMAHUB_STREAM", "false")
	t.Setenv("OLLAMAHUB_TOP_K", "5")
	t.Setenv("OLLAMAHUB_API_KEY", "secret")

	cfg, err := LoadFile(path, true, "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Model)
	assert.False(t, cfg.Stream)
	assert.Equal(t, 5, cfg.Sampling.TopK)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestLoadFile_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is already set.
	os.Unsetenv("OLLAMAHUB_MODE")
	os.Unsetenv("OLLAMAHUB_MODEL")
	envFile := writeFile(t, ".env", "OLLAMAHUB_MODE=generate\nOLLAMAHUB_MODEL=mistral\n")

	cfg, err := LoadFile("", false, envFile)
	require.NoError(t, err)
	assert.Equal(t, models.ModeGenerate, cfg.SessionMode())
	assert.Equal(t, "mistral", cfg.Model)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://host" }, "base_url"},
		{"no host", func(c *Config) { c.BaseURL = "http://" }, "base_url"},
		{"bad mode", func(c *Config) { c.Mode = "agent" }, "mode"},
		{"temperature high", func(c *Config) { c.Sampling.Temperature = 1.5 }, "sampling.temperature"},
		{"top_p negative", func(c *Config) { c.Sampling.TopP = -0.1 }, "sampling.top_p"},
		{"temperature NaN", func(c *Config) { c.Sampling.Temperature = math.NaN() }, "sampling.temperature"},
		{"top_p NaN", func(c *Config) { c.Sampling.TopP = math.NaN() }, "sampling.top_p"},
		{"top_k negative", func(c *Config) { c.Sampling.TopK = -1 }, "sampling.top_k"},
		{"bad backend", func(c *Config) { c.History.Backend = "redis" }, "history.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var errs ValidateErrors
			require.ErrorAs(t, err, &errs)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestLoadFile_InvalidAbortsLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMAHUB_TEMPERATURE", "3")

	_, err := LoadFile("", false, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadFile_RejectsNaNSampling(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMAHUB_TEMPERATURE", "NaN")

	_, err := LoadFile("", false, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampling.temperature")
}
