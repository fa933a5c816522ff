package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultShutdownTimeout = 10 * time.Second
	DefaultScalerPath      = "models/scaler.yaml"
	DefaultClassifierPath  = "models/maintenance_model.yaml"
	DefaultAPIKeyHeader    = "x-api-key"
	DefaultLogLevel        = "info"
	DefaultAlertLevel      = "Red"
	DefaultAlertCooldown   = 15 * time.Minute
	DefaultHistoryTTL      = 15 * time.Minute
	DefaultHistoryMax      = 10000
)

// DefaultAllowedOrigins are the local front-end dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// Config is the full configuration tree parsed from YAML.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Model    ModelConfig    `yaml:"model"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and /metrics listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates API clients.
	Auth AuthConfig `yaml:"auth"`

	// CORS lists the browser origins allowed to call the API.
	CORS CORSConfig `yaml:"cors"`

	// ShutdownTimeout bounds how long in-flight requests get on SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// History keeps served predictions for lookup by request ID.
	History HistoryConfig `yaml:"history"`
}

// HistoryConfig bounds the in-memory prediction history.
// A zero TTL disables it.
type HistoryConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// AuthConfig controls client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAPIKeyHeader
}

// CORSConfig holds cross-origin settings for browser clients.
type CORSConfig struct {
	// AllowedOrigins is matched exactly against the Origin header.
	// A single "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ModelConfig locates the trained artifacts.
type ModelConfig struct {
	ScalerPath     string `yaml:"scaler_path"`
	ClassifierPath string `yaml:"classifier_path"`

	// HotReload reloads both artifacts whenever the config file is written.
	HotReload bool `yaml:"hot_reload"`
}

// PipelineConfig toggles optional pipeline stages.
type PipelineConfig struct {
	// Recommendations includes the maintenance recommendation list in responses.
	Recommendations bool `yaml:"recommendations"`
}

// AlertsConfig controls notifications for high-risk predictions.
type AlertsConfig struct {
	// MinLevel is the lowest risk level that raises an alert:
	// Yellow | Red | off (default Red).
	MinLevel string `yaml:"min_level"`

	// Cooldown suppresses repeat alerts for the same level (default 15m).
	Cooldown time.Duration `yaml:"cooldown"`

	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// Enabled reports whether alerts are raised at all.
func (a AlertsConfig) Enabled() bool {
	return a.MinLevel != "" && a.MinLevel != "off"
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | pagerduty | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel returns the slog level for Level. Unknown values map to info;
// validate rejects them before this is called.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the config file at path.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	base := filepath.Dir(path)
	cfg.Model.ScalerPath = resolve(base, cfg.Model.ScalerPath)
	cfg.Model.ClassifierPath = resolve(base, cfg.Model.ClassifierPath)

	return cfg, nil
}

// Default returns the configuration used when no file is given.
// Artifact paths are relative to the working directory.
func Default() *Config {
	return defaults()
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			ShutdownTimeout: DefaultShutdownTimeout,
			History: HistoryConfig{
				TTL:        DefaultHistoryTTL,
				MaxEntries: DefaultHistoryMax,
			},
			CORS: CORSConfig{
				AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
			},
		},
		Model: ModelConfig{
			ScalerPath:     DefaultScalerPath,
			ClassifierPath: DefaultClassifierPath,
		},
		Pipeline: PipelineConfig{
			Recommendations: true,
		},
		Alerts: AlertsConfig{
			MinLevel: DefaultAlertLevel,
			Cooldown: DefaultAlertCooldown,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required when mode is apikey")
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	if cfg.Server.History.TTL < 0 {
		return fmt.Errorf("server.history.ttl must not be negative")
	}
	if cfg.Server.History.MaxEntries < 0 {
		return fmt.Errorf("server.history.max_entries must not be negative")
	}
	if cfg.Model.ScalerPath == "" {
		return fmt.Errorf("model.scaler_path is required")
	}
	if cfg.Model.ClassifierPath == "" {
		return fmt.Errorf("model.classifier_path is required")
	}
	switch cfg.Alerts.MinLevel {
	case "Yellow", "Red", "off":
	default:
		return fmt.Errorf("alerts.min_level %q unknown: want Yellow|Red|off", cfg.Alerts.MinLevel)
	}
	if cfg.Alerts.Cooldown < 0 {
		return fmt.Errorf("alerts.cooldown must not be negative")
	}
	for i, wh := range cfg.Alerts.Webhooks {
		switch wh.Type {
		case "teams", "slack", "pagerduty", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d].type %q unknown: want teams|slack|pagerduty|http", i, wh.Type)
		}
		if wh.URLEnv == "" {
			return fmt.Errorf("alerts.webhooks[%d].url_env is required", i)
		}
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}

// resolve makes p relative to base unless it is already absolute.
func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
