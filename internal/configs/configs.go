/*
Package configs is responsible for loading and parsing the client's configuration settings.

Values come from operating system environment variables. An optional YAML file named by
CHAT_CONFIG fills in whatever the environment leaves unset; command-line flags are applied
on top by the caller.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultServerURL is the chat backend the client connects to when nothing else is configured.
const DefaultServerURL = "wss://chat-backend-90pn.onrender.com"

// Notification backends accepted by CHAT_NOTIFY.
const (
	NotifyDesktop = "desktop"
	NotifyBell    = "bell"
	NotifyOff     = "off"
)

// Color modes accepted by CHAT_COLOR.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// AppConfig contains all configuration parameters required for the client to run.
type AppConfig struct {
	// General Settings
	Environment string
	LogFile     string

	// Connection Settings
	ServerURL string
	Name      string

	// Outbound flood guard
	SendRate  float64
	SendBurst int

	// Notification Settings
	Notify    string
	IdleAfter time.Duration

	// Terminal Settings
	Width int
	Color string
}

// IsDevelopment reports whether the client runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the client configuration from environment variables,
// falling back to the YAML file named by CHAT_CONFIG and then to built-in defaults.
func LoadConfig() (*AppConfig, error) {
	fileValues, err := loadFile(os.Getenv("CHAT_CONFIG"))
	if err != nil {
		return nil, err
	}

	get := func(key, def string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		if v := strings.TrimSpace(fileValues[fileKey(key)]); v != "" {
			return v
		}
		return def
	}

	cfg := &AppConfig{
		Environment: get("ENVIRONMENT", "development"),
		LogFile:     get("CHAT_LOG_FILE", ""),
		ServerURL:   get("CHAT_SERVER_URL", DefaultServerURL),
		Name:        get("CHAT_NAME", ""),
		Notify:      strings.ToLower(get("CHAT_NOTIFY", NotifyDesktop)),
		Color:       strings.ToLower(get("CHAT_COLOR", ColorAuto)),
	}

	// SendRate
	cfg.SendRate, err = strconv.ParseFloat(get("CHAT_SEND_RATE", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_SEND_RATE environment variable: %w", err)
	}

	// SendBurst
	cfg.SendBurst, err = strconv.Atoi(get("CHAT_SEND_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_SEND_BURST environment variable: %w", err)
	}

	// IdleAfter
	cfg.IdleAfter, err = time.ParseDuration(get("CHAT_IDLE_AFTER", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_IDLE_AFTER environment variable: %w", err)
	}

	// Width
	cfg.Width, err = strconv.Atoi(get("CHAT_WIDTH", "80"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_WIDTH environment variable: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the cross-field constraints of the configuration. It is called by
// LoadConfig and again by the CLI after flag overrides.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server URL %q must use the ws or wss scheme", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server URL %q has no host", c.ServerURL)
	}

	switch c.Notify {
	case NotifyDesktop, NotifyBell, NotifyOff:
	default:
		return fmt.Errorf("CHAT_NOTIFY must be one of %s, %s, %s (got %q)", NotifyDesktop, NotifyBell, NotifyOff, c.Notify)
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("CHAT_COLOR must be one of %s, %s, %s (got %q)", ColorAuto, ColorAlways, ColorNever, c.Color)
	}

	if c.SendRate < 0 {
		return fmt.Errorf("send rate %v must not be negative", c.SendRate)
	}
	if c.SendBurst < 1 {
		return fmt.Errorf("send burst %d must be at least 1", c.SendBurst)
	}
	if c.IdleAfter < 0 {
		return fmt.Errorf("idle window %s must not be negative", c.IdleAfter)
	}
	if c.Width < 20 || c.Width > 500 {
		return fmt.Errorf("terminal width %d is outside the supported range (%d-%d)", c.Width, 20, 500)
	}

	return nil
}

// loadFile reads a flat YAML mapping of configuration keys. An empty path yields no values.
func loadFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return values, nil
}

// fileKey maps an environment variable name to its YAML key, e.g. CHAT_SERVER_URL -> server_url.
func fileKey(envKey string) string {
	return strings.ToLower(strings.TrimPrefix(envKey, "CHAT_"))
}
