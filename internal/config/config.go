// Package config loads repeticio configuration.
//
// Values are resolved in order, each layer overriding the previous one:
//   - built-in defaults (Default)
//   - the YAML config file (--config, REPETICIO_CONFIG, or
//     $XDG_CONFIG_HOME/repeticio/config.yaml when it exists)
//   - a .env file in the working directory, if present
//   - REPETICIO_* environment variables
//   - command-line flags, applied by the caller after Load
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 15 * time.Second

// Config is the full repeticio configuration.
type Config struct {
	// Backend describes the exercise service the client talks to.
	Backend BackendConfig `yaml:"backend"`

	// User identifies the learner to the backend.
	User UserConfig `yaml:"user"`

	// Auth configures bearer tokens. Both the client and the practice
	// backend read the same secret.
	Auth AuthConfig `yaml:"auth"`

	// Store configures the local event log.
	Store StoreConfig `yaml:"store"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// Server configures the practice backend started by `repeticio serve`.
	Server ServerConfig `yaml:"server"`
}

// BackendConfig holds the two endpoint locations and the request deadline.
type BackendConfig struct {
	// BaseURL is joined with the endpoint paths. Empty when the endpoints
	// are absolute URLs.
	BaseURL        string `yaml:"base_url"`
	FetchEndpoint  string `yaml:"fetch_endpoint"`
	SubmitEndpoint string `yaml:"submit_endpoint"`

	// RateEndpoint is optional; empty disables exercise ratings.
	RateEndpoint string `yaml:"rate_endpoint"`

	Timeout time.Duration `yaml:"timeout"`
}

// UserConfig holds the user identity.
type UserConfig struct {
	Identity string `yaml:"identity"`
}

// AuthConfig holds the HS256 token secret. An empty secret disables bearer
// tokens.
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

// StoreConfig holds the SQLite database path. Empty selects the default
// data directory.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logger settings. File is only used by the TUI.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ServerConfig holds practice backend settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	GinMode        string        `yaml:"gin_mode"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	AllowedUsers   []string      `yaml:"allowed_users"`
	RateLimit      int           `yaml:"rate_limit"`
	RateInterval   time.Duration `yaml:"rate_interval"`

	// Level is the learner level used when authoring exercises (A1, A2 or B1).
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080",
			FetchEndpoint:  "/get_new_exercise",
			SubmitEndpoint: "/submit_answer",
			RateEndpoint:   "/apply_thumbs_up_or_down",
			Timeout:        DefaultTimeout,
		},
		User: UserConfig{Identity: "anonymous"},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			GinMode:      "release",
			RateLimit:    60,
			RateInterval: time.Minute,
			Level:        "A1",
		},
	}
}

// Load builds the configuration. An explicit path must exist; the default
// path is optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("REPETICIO_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	_ = godotenv.Load() // .env is optional

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Backend.BaseURL, "REPETICIO_BASE_URL")
	setString(&c.Backend.FetchEndpoint, "REPETICIO_FETCH_ENDPOINT")
	setString(&c.Backend.SubmitEndpoint, "REPETICIO_SUBMIT_ENDPOINT")
	setString(&c.Backend.RateEndpoint, "REPETICIO_RATE_ENDPOINT")
	setString(&c.User.Identity, "REPETICIO_USER")
	setString(&c.Auth.TokenSecret, "REPETICIO_TOKEN_SECRET")
	setString(&c.Store.Path, "REPETICIO_DB")
	setString(&c.Log.Level, "REPETICIO_LOG_LEVEL")
	setString(&c.Log.Format, "REPETICIO_LOG_FORMAT")
	setString(&c.Log.File, "REPETICIO_LOG_FILE")
	setString(&c.Server.Addr, "REPETICIO_SERVER_ADDR")
	setString(&c.Server.GinMode, "GIN_MODE")
	setString(&c.Server.Level, "REPETICIO_LEVEL")
	setList(&c.Server.AllowedOrigins, "REPETICIO_ALLOWED_ORIGINS")
	setList(&c.Server.AllowedUsers, "REPETICIO_ALLOWED_USERS")

	if err := setDuration(&c.Backend.Timeout, "REPETICIO_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Auth.TokenTTL, "REPETICIO_TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.Server.RateInterval, "REPETICIO_RATE_INTERVAL"); err != nil {
		return err
	}
	if v := os.Getenv("REPETICIO_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REPETICIO_RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = n
	}
	return nil
}

// Validate checks the client-side settings.
func (c *Config) Validate() error {
	var errs []error

	if c.Backend.BaseURL != "" {
		if err := checkAbsURL(c.Backend.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("backend.base_url: %w", err))
		}
	} else {
		if err := checkAbsURL(c.Backend.FetchEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("backend.fetch_endpoint: %w", err))
		}
		if err := checkAbsURL(c.Backend.SubmitEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("backend.submit_endpoint: %w", err))
		}
		if c.Backend.RateEndpoint != "" {
			if err := checkAbsURL(c.Backend.RateEndpoint); err != nil {
				errs = append(errs, fmt.Errorf("backend.rate_endpoint: %w", err))
			}
		}
	}
	if c.Backend.FetchEndpoint == "" {
		errs = append(errs, errors.New("backend.fetch_endpoint is required"))
	}
	if c.Backend.SubmitEndpoint == "" {
		errs = append(errs, errors.New("backend.submit_endpoint is required"))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("backend.timeout must be positive, got %s", c.Backend.Timeout))
	}
	if strings.TrimSpace(c.User.Identity) == "" {
		errs = append(errs, errors.New("user.identity is required"))
	}
	if c.Store.Path != "" && strings.HasSuffix(c.Store.Path, string(filepath.Separator)) {
		errs = append(errs, fmt.Errorf("store.path %q is a directory", c.Store.Path))
	}
	return errors.Join(errs...)
}

// ValidateServer checks the practice backend settings.
func (c *Config) ValidateServer() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must be positive, got %d", c.Server.RateLimit))
	}
	if c.Server.RateInterval <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_interval must be positive, got %s", c.Server.RateInterval))
	}
	return errors.Join(errs...)
}

// DefaultPath returns $XDG_CONFIG_HOME/repeticio/config.yaml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "repeticio", "config.yaml"), nil
}

func checkAbsURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// setList splits a comma-separated value into a trimmed slice.
func setList(dst *[]string, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
