// Package config loads runtime settings from defaults, a .env file, an
// optional config file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/minhyannv/toolchat-go/pkg/tools"
)

// Tool catalog modes.
const (
	ToolModeStatic  = "static"
	ToolModeDynamic = "dynamic"
)

// Defaults for a local LM Studio server.
const (
	DefaultBaseURL = "http://127.0.0.1:1234/v1"
	DefaultAPIKey  = "lm-studio"
	DefaultModel   = "qwen2.5-7b-instruct-1m"
)

// Config holds all runtime configuration for the chat client.
type Config struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`

	ToolMode            string   `mapstructure:"tools"`
	ToolsDirs           []string `mapstructure:"tools_dirs"`
	Duplicates          string   `mapstructure:"duplicates"`
	ShellTimeoutSeconds int      `mapstructure:"shell_timeout_seconds"`
	WikiEndpoint        string   `mapstructure:"wiki_endpoint"`

	DirectReply bool   `mapstructure:"direct_reply"`
	Verbose     bool   `mapstructure:"verbose"`
	LogLevel    string `mapstructure:"log_level"`
	NoColor     bool   `mapstructure:"no_color"`
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		BaseURL:             DefaultBaseURL,
		APIKey:              DefaultAPIKey,
		Model:               DefaultModel,
		ToolMode:            ToolModeStatic,
		Duplicates:          tools.RejectDuplicates.String(),
		ShellTimeoutSeconds: 60,
		LogLevel:            "warn",
	}
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	defaults := DefaultConfig()
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.ToolMode = strings.ToLower(strings.TrimSpace(cfg.ToolMode))
	dirs := make([]string, 0, len(cfg.ToolsDirs))
	for _, dir := range cfg.ToolsDirs {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	cfg.ToolsDirs = dirs
	cfg.Duplicates = strings.ToLower(strings.TrimSpace(cfg.Duplicates))
	cfg.WikiEndpoint = strings.TrimSpace(cfg.WikiEndpoint)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = defaults.APIKey
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.ToolMode == "" {
		cfg.ToolMode = defaults.ToolMode
	}
	if cfg.Duplicates == "" {
		cfg.Duplicates = defaults.Duplicates
	}
	if cfg.ShellTimeoutSeconds <= 0 {
		cfg.ShellTimeoutSeconds = defaults.ShellTimeoutSeconds
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg
}

// Validate reports settings that cannot be used.
func Validate(cfg Config) error {
	var errs []error
	switch cfg.ToolMode {
	case ToolModeStatic, ToolModeDynamic:
	default:
		errs = append(errs, fmt.Errorf("unknown tool mode %q (want %s or %s)", cfg.ToolMode, ToolModeStatic, ToolModeDynamic))
	}
	if _, err := tools.ParseDuplicatePolicy(cfg.Duplicates); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// envBindings maps config keys to the environment variables that set them,
// highest precedence first.
var envBindings = map[string][]string{
	"base_url":              {"TOOLCHAT_BASE_URL", "OPENAI_BASE_URL"},
	"api_key":               {"TOOLCHAT_API_KEY", "OPENAI_API_KEY"},
	"model":                 {"TOOLCHAT_MODEL", "OPENAI_MODEL"},
	"tools":                 {"TOOLCHAT_TOOLS"},
	"tools_dirs":            {"TOOLCHAT_TOOLS_DIRS"},
	"duplicates":            {"TOOLCHAT_DUPLICATES"},
	"shell_timeout_seconds": {"TOOLCHAT_SHELL_TIMEOUT_SECONDS"},
	"wiki_endpoint":         {"TOOLCHAT_WIKI_ENDPOINT"},
	"direct_reply":          {"TOOLCHAT_DIRECT_REPLY"},
	"verbose":               {"TOOLCHAT_VERBOSE"},
	"log_level":             {"TOOLCHAT_LOG_LEVEL"},
	"no_color":              {"TOOLCHAT_NO_COLOR"},
}

// noColorEnv disables color when set to any non-empty value.
const noColorEnv = "NO_COLOR"

// Load reads .env (if present), then the config file at path (optional),
// then the environment. Values not set anywhere keep their defaults.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("api_key", defaults.APIKey)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("tools", defaults.ToolMode)
	v.SetDefault("tools_dirs", []string{})
	v.SetDefault("duplicates", defaults.Duplicates)
	v.SetDefault("shell_timeout_seconds", defaults.ShellTimeoutSeconds)
	v.SetDefault("wiki_endpoint", defaults.WikiEndpoint)
	v.SetDefault("direct_reply", defaults.DirectReply)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("no_color", defaults.NoColor)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if os.Getenv(noColorEnv) != "" {
		cfg.NoColor = true
	}
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
