package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
// This centralizes default values and descriptions in one place.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < .env < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// Configure Viper search paths. If SetConfigFile was provided upstream,
	// it takes precedence; these paths are harmless fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "docman"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "docman"))
		}
		v.AddConfigPath(".")
	}

	// Apply centralized defaults (lowest precedence)
	applyDefaults(v)

	// Read config file if present (overrides defaults). A file that exists
	// but does not parse is an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// A .env in the working directory fills DOCMAN_* variables that are not
	// already set in the environment.
	if err := loadDotEnv(".env"); err != nil {
		return err
	}

	// Environment variables: DOCMAN_* (highest among these sources)
	v.SetEnvPrefix("docman")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Normalize a few dependent values post-merge
	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		v.Set("data_dir", defaultDataDir())
	}
	v.Set("data_dir", expandHome(v.GetString("data_dir")))
	v.Set("api.base_url", strings.TrimRight(strings.TrimSpace(v.GetString("api.base_url")), "/"))
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// defaultDataDir resolves default data dir: $XDG_DATA_HOME/docman or ~/.local/share/docman
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "docman")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "docman")
}

func expandHome(dir string) string {
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "docman", "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		// Core paths and identity
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state (session file, sqlite db)"},
		{Key: "user_id", Default: "", Comment: "user_id sent with uploads when --user-id is not given"},
		{Key: "output", Default: "plain", Comment: "Default output mode: plain|pretty|json|ndjson|yaml|tui"},

		{Key: "api.base_url", Default: "https://apis.allsoft.co/api/documentManagement", Comment: "Document service base URL"},
		{Key: "api.timeout", Default: "20s", Comment: "Per-request timeout"},

		{Key: "auth.token_store", Default: "auto", Comment: "Where the session token is kept: auto|keyring|file|sqlite|memory"},
		{Key: "auth.keyring_service", Default: "docman", Comment: "Service name used in the system keyring"},

		{Key: "search.page_size", Default: 10, Comment: "Results per page"},
		{Key: "dashboard.recent", Default: 5, Comment: "Documents shown by `docman recent`"},
		{Key: "tags.suggest_limit", Default: 20, Comment: "Maximum tag suggestions shown"},

		{Key: "log.level", Default: "warn", Comment: "Log level: debug|info|warn|error"},
		{Key: "metrics.enabled", Default: false, Comment: "Collect client request metrics (logged at debug level on exit)"},
		{Key: "server.addr", Default: "127.0.0.1:8089", Comment: "Listen address for `docman stub-server`"},
		{Key: "server.otp", Default: "1234", Comment: "OTP accepted by the stub server"},
	}
}

var validStores = map[string]bool{"auto": true, "keyring": true, "file": true, "sqlite": true, "memory": true}
var validOutputs = map[string]bool{"plain": true, "pretty": true, "json": true, "ndjson": true, "yaml": true, "tui": true}
var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// CheckConfigValidity reports every problem found in v at once.
func CheckConfigValidity(v *viper.Viper) error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		add("data_dir is required")
	}
	if u, err := url.Parse(v.GetString("api.base_url")); err != nil || u.Scheme == "" || u.Host == "" {
		add("api.base_url must be an absolute URL")
	}
	if d, err := time.ParseDuration(v.GetString("api.timeout")); err != nil || d <= 0 {
		add("api.timeout must be a positive duration")
	}
	if s := v.GetString("auth.token_store"); !validStores[strings.ToLower(s)] {
		add("auth.token_store %q is not one of auto|keyring|file|sqlite|memory", s)
	}
	if v.GetInt("search.page_size") <= 0 {
		add("search.page_size must be greater than 0")
	}
	if v.GetInt("dashboard.recent") <= 0 {
		add("dashboard.recent must be greater than 0")
	}
	if o := v.GetString("output"); o != "" && !validOutputs[o] {
		add("output %q is not a known mode", o)
	}
	if l := v.GetString("log.level"); l != "" && !validLevels[strings.ToLower(l)] {
		add("log.level %q is not one of debug|info|warn|error", l)
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config:\n  - %s", strings.Join(problems, "\n  - "))
}
