// Package config loads ollamahub settings from defaults, a TOML file, a .env
// file and OLLAMAHUB_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"ollamahub/internal/history"
	"ollamahub/internal/hub"
	"ollamahub/internal/models"
)

const (
	DefaultModel = "deepseek-r1:14b"
	appName      = "ollamahub"
)

type Config struct {
	BaseURL      string       `toml:"base_url"`
	APIKey       string       `toml:"api_key"`
	Model        string       `toml:"model"`
	Stream       bool         `toml:"stream"`
	Mode         string       `toml:"mode"`
	SystemPrompt string       `toml:"system_prompt"`
	Sampling     hub.Sampling `toml:"sampling"`

	History HistoryConfig `toml:"history"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

type HistoryConfig struct {
	Backend string `toml:"backend"` // memory | sqlite
	DSN     string `toml:"dsn"`
}

type LogConfig struct {
	File  string `toml:"file"`
	Debug bool   `toml:"debug"`
}

type UIConfig struct {
	// Markdown renders assistant text blocks with glamour. Off by default:
	// it interprets markdown in untrusted model output.
	Markdown bool `toml:"markdown"`
}

func Default() *Config {
	return &Config{
		BaseURL:  hub.DefaultBaseURL,
		Model:    DefaultModel,
		Stream:   true,
		Mode:     models.ModeChat.String(),
		Sampling: hub.DefaultSampling(),
		History: HistoryConfig{
			Backend: "memory",
		},
	}
}

// ConfigDir returns the ollamahub directory under the user config dir
// ($XDG_CONFIG_HOME on Linux).
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// ConfigPath returns the default TOML config path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file named by OLLAMAHUB_CONFIG, or the default
// path if that is unset, plus .env in the working directory.
func Load() (*Config, error) {
	if path := os.Getenv("OLLAMAHUB_CONFIG"); path != "" {
		return LoadFile(path, true, ".env")
	}
	path, err := ConfigPath()
	if err != nil {
		path = ""
	}
	return LoadFile(path, false, ".env")
}

// LoadFile loads path (skipped when empty, or when missing and not
// required) and envFile, applies environment overrides and validates.
func LoadFile(path string, required bool, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadTOML(cfg, path, required); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadTOML(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnvOverrides applies OLLAMAHUB_* variables. Empty values are ignored.
func (c *Config) ApplyEnvOverrides() {
	c.BaseURL = getEnvOrDefault("OLLAMAHUB_BASE_URL", c.BaseURL)
	c.APIKey = getEnvOrDefault("OLLAMAHUB_API_KEY", c.APIKey)
	c.Model = getEnvOrDefault("OLLAMAHUB_MODEL", c.Model)
	c.Stream = getEnvAsBoolOrDefault("OLLAMAHUB_STREAM", c.Stream)
	c.Mode = getEnvOrDefault("OLLAMAHUB_MODE", c.Mode)
	c.SystemPrompt = getEnvOrDefault("OLLAMAHUB_SYSTEM_PROMPT", c.SystemPrompt)

	c.Sampling.Temperature = getEnvAsFloatOrDefault("OLLAMAHUB_TEMPERATURE", c.Sampling.Temperature)
	c.Sampling.TopP = getEnvAsFloatOrDefault("OLLAMAHUB_TOP_P", c.Sampling.TopP)
	c.Sampling.TopK = getEnvAsIntOrDefault("OLLAMAHUB_TOP_K", c.Sampling.TopK)

	c.History.Backend = getEnvOrDefault("OLLAMAHUB_HISTORY_BACKEND", c.History.Backend)
	c.History.DSN = getEnvOrDefault("OLLAMAHUB_HISTORY_DSN", c.History.DSN)

	c.Log.File = getEnvOrDefault("OLLAMAHUB_LOG_FILE", c.Log.File)
	c.Log.Debug = getEnvAsBoolOrDefault("OLLAMAHUB_DEBUG", c.Log.Debug)
	c.UI.Markdown = getEnvAsBoolOrDefault("OLLAMAHUB_MARKDOWN", c.UI.Markdown)
}

// SetDefaults fills values left empty by the file and environment.
func (c *Config) SetDefaults() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = hub.DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Mode == "" {
		c.Mode = models.ModeChat.String()
	}
	if c.History.Backend == "" {
		c.History.Backend = "memory"
	}
	if c.History.Backend == "sqlite" && c.History.DSN == "" {
		c.History.DSN = history.DefaultDSN
	}
	if c.Log.File == "" {
		c.Log.File = appName + ".log"
		if dir, err := ConfigDir(); err == nil {
			c.Log.File = filepath.Join(dir, c.Log.File)
		}
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the values the service would reject.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{Field: "base_url", Message: fmt.Sprintf("invalid URL: %v", err)})
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, ValidationError{Field: "base_url", Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)})
	case u.Host == "":
		errs = append(errs, ValidationError{Field: "base_url", Message: "missing host"})
	}

	if _, err := models.ParseMode(c.Mode); err != nil {
		errs = append(errs, ValidationError{Field: "mode", Message: err.Error()})
	}

	if math.IsNaN(c.Sampling.Temperature) || c.Sampling.Temperature < 0 || c.Sampling.Temperature > 1 {
		errs = append(errs, ValidationError{Field: "sampling.temperature", Message: "must be between 0 and 1"})
	}
	if math.IsNaN(c.Sampling.TopP) || c.Sampling.TopP < 0 || c.Sampling.TopP > 1 {
		errs = append(errs, ValidationError{Field: "sampling.top_p", Message: "must be between 0 and 1"})
	}
	if c.Sampling.TopK < 0 {
		errs = append(errs, ValidationError{Field: "sampling.top_k", Message: "cannot be negative"})
	}

	switch c.History.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, ValidationError{Field: "history.backend", Message: fmt.Sprintf("invalid backend '%s', must be one of: memory, sqlite", c.History.Backend)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SessionMode returns the configured start mode. Call after Validate.
func (c *Config) SessionMode() models.Mode {
	mode, err := models.ParseMode(c.Mode)
	if err != nil {
		return models.ModeChat
	}
	return mode
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
