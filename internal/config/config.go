// Package config holds the runtime configuration surface. Values come from
// an optional YAML file overridden by environment variables, mirroring how
// the rest of the stack is configured (.env files loaded at startup).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the scan pipeline.
const (
	DefaultScanCooldownMs          = 2000
	DefaultMaxRetries              = 3
	DefaultRetryDelayMs            = 1000
	DefaultNetworkTimeoutMs        = 5000
	DefaultFrameProcessingInterval = 250
)

// ErrEndpointUnset indicates a required external endpoint is missing or still
// a placeholder. Surfaced before any network call is attempted.
var ErrEndpointUnset = errors.New("endpoint not configured")

// Config is the full configuration surface.
type Config struct {
	// WebhookURL is the event sink every accepted scan is delivered to.
	WebhookURL string `yaml:"webhook_url"`
	// VisionAPIURL is the image-analysis relay used for cover scans.
	VisionAPIURL string `yaml:"vision_api_url"`
	// BooksAPIURL overrides the Google Books endpoint. Empty means the
	// public API.
	BooksAPIURL string `yaml:"books_api_url"`

	ScanCooldownMs          int  `yaml:"scan_cooldown_ms"`
	MaxRetries              int  `yaml:"max_retries"`
	RetryDelayMs            int  `yaml:"retry_delay_ms"`
	NetworkTimeoutMs        int  `yaml:"network_timeout_ms"`
	FrameProcessingInterval int  `yaml:"frame_processing_interval"`
	EnableGeolocation       bool `yaml:"enable_geolocation"`
	EnableHapticFeedback    bool `yaml:"enable_haptic_feedback"`
	DebugMode               bool `yaml:"debug_mode"`

	// JournalPath enables the append-only scan journal when set.
	JournalPath string `yaml:"journal_path"`
}

// Default returns a Config with all defaults applied and no endpoints set.
func Default() *Config {
	return &Config{
		ScanCooldownMs:          DefaultScanCooldownMs,
		MaxRetries:              DefaultMaxRetries,
		RetryDelayMs:            DefaultRetryDelayMs,
		NetworkTimeoutMs:        DefaultNetworkTimeoutMs,
		FrameProcessingInterval: DefaultFrameProcessingInterval,
		EnableHapticFeedback:    true,
	}
}

// Load builds the configuration from an optional YAML file at path, then
// applies environment overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.WebhookURL, "WEBHOOK_URL")
	setString(&c.VisionAPIURL, "VISION_API_URL")
	setString(&c.BooksAPIURL, "BOOKS_API_URL")
	setString(&c.JournalPath, "JOURNAL_PATH")

	setInt(&c.ScanCooldownMs, "SCAN_COOLDOWN_MS")
	setInt(&c.MaxRetries, "MAX_RETRIES")
	setInt(&c.RetryDelayMs, "RETRY_DELAY_MS")
	setInt(&c.NetworkTimeoutMs, "NETWORK_TIMEOUT_MS")
	setInt(&c.FrameProcessingInterval, "FRAME_PROCESSING_INTERVAL")

	setBool(&c.EnableGeolocation, "ENABLE_GEOLOCATION")
	setBool(&c.EnableHapticFeedback, "ENABLE_HAPTIC_FEEDBACK")
	setBool(&c.DebugMode, "DEBUG_MODE")
}

// Validate fails fast on a missing or placeholder sink endpoint so a scan is
// never accepted that could not possibly be delivered. The vision endpoint is
// checked lazily by cover-scan callers since plain barcode scanning works
// without it.
func (c *Config) Validate() error {
	if err := checkEndpoint(c.WebhookURL); err != nil {
		return fmt.Errorf("webhook_url: %w", err)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	return nil
}

// ValidateVision checks the cover-scan relay endpoint.
func (c *Config) ValidateVision() error {
	if err := checkEndpoint(c.VisionAPIURL); err != nil {
		return fmt.Errorf("vision_api_url: %w", err)
	}
	return nil
}

func checkEndpoint(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrEndpointUnset
	}
	if strings.Contains(raw, "your-") || strings.Contains(raw, "REPLACE") {
		return fmt.Errorf("%w: %q looks like a placeholder", ErrEndpointUnset, raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q is not an http(s) URL", ErrEndpointUnset, raw)
	}
	return nil
}

// ScanCooldown returns the debounce window as a duration.
func (c *Config) ScanCooldown() time.Duration {
	return time.Duration(c.ScanCooldownMs) * time.Millisecond
}

// RetryDelay returns the base backoff as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// NetworkTimeout returns the per-request timeout as a duration.
func (c *Config) NetworkTimeout() time.Duration {
	return time.Duration(c.NetworkTimeoutMs) * time.Millisecond
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}

func setBool(dst *bool, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return
	}
	*dst = b
}
