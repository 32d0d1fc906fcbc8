// Package config loads codebridge settings from a YAML file, optional .env
// files and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
	EnvModel   = "CODEBRIDGE_MODEL"
)

// Config is the runtime configuration of the CLI.
type Config struct {
	Model          string        `yaml:"model"`
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	SystemPrompt   string        `yaml:"system_prompt"`
	MaxIterations  int           `yaml:"max_iterations"`
	ToolTimeout    time.Duration `yaml:"tool_timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	Strict         bool          `yaml:"strict"`
	Retry          RetryConfig   `yaml:"retry"`
	Log            LogConfig     `yaml:"log"`
}

// RetryConfig bounds HTTP retries against the completion API.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	WaitMin    time.Duration `yaml:"wait_min"`
	WaitMax    time.Duration `yaml:"wait_max"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Model:          "gpt-4o-mini",
		BaseURL:        "https://api.openai.com/v1",
		SystemPrompt:   "Don't make assumptions about what values to plug into functions. Ask for clarification if a user request is ambiguous.",
		MaxIterations:  8,
		ToolTimeout:    5 * time.Second,
		MaxConcurrency: 10,
		Retry: RetryConfig{
			MaxRetries: 3,
			WaitMin:    500 * time.Millisecond,
			WaitMax:    10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load starts from Default, overlays the YAML file at path (skipped when path
// is empty), then values from envFiles and finally the process environment.
// Missing env files are ignored; a missing config file is an error.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config parse: %w", err)
		}
	}
	env := make(map[string]string)
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config env file %s: %w", f, err)
		}
		for k, v := range vals {
			env[k] = v
		}
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return env[key]
	}
	if v := lookup(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := lookup(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := lookup(EnvModel); v != "" {
		cfg.Model = v
	}
	return cfg, nil
}

// Validate reports settings that cannot work. The API key is not checked here
// because offline commands do not need it.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url must not be empty"))
	}
	if c.MaxIterations < 0 {
		errs = append(errs, errors.New("max_iterations must be >= 0"))
	}
	if c.ToolTimeout < 0 {
		errs = append(errs, errors.New("tool_timeout must be >= 0"))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("retry.max_retries must be >= 0"))
	}
	if c.Retry.WaitMax < c.Retry.WaitMin {
		errs = append(errs, errors.New("retry.wait_max must be >= retry.wait_min"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return l, nil
}

// NewLogger builds the slog logger described by c.Log.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
