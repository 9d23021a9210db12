// Package config loads server configuration from a YAML file, a .env file
// and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"Fingerpost/internal/core/accounts"
	"Fingerpost/internal/core/mediatype"
	"Fingerpost/internal/core/nodeinfo"
	"Fingerpost/internal/core/webfinger"
	"Fingerpost/internal/fetch"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the YAML file when no path is passed to LoadFromEnv.
const EnvConfigPath = "FINGERPOST_CONFIG"

// Config holds all configuration for the server
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	Fetch     FetchConfig     `yaml:"fetch"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	NodeInfo  NodeInfoConfig  `yaml:"nodeinfo"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr                   string `yaml:"addr"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	// TrustProxy honours X-Forwarded-* headers from a reverse proxy.
	TrustProxy bool `yaml:"trust_proxy"`
}

// SiteConfig describes the public identity of this server
type SiteConfig struct {
	Host          string   `yaml:"host"`
	Origin        string   `yaml:"origin"`
	Domains       []string `yaml:"domains"`
	ImageRoot     string   `yaml:"image_root"`
	MissingAvatar string   `yaml:"missing_avatar"`
	// Prober is "sniff" (in-process) or "file" (file(1)).
	Prober string `yaml:"prober"`
	// ServeImages serves ImageRoot/i/* so avatar links resolve without a
	// separate static file server.
	ServeImages bool `yaml:"serve_images"`
	// ServeProfiles serves the /@{username} HTML pages.
	ServeProfiles bool `yaml:"serve_profiles"`
}

// DatabaseConfig holds the account store connection
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// FetchConfig holds outbound HTTP client settings
type FetchConfig struct {
	UserAgent       string `yaml:"user_agent"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	Retries         int    `yaml:"retries"`
	MaxRedirects    int    `yaml:"max_redirects"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
	FollowRedirects bool   `yaml:"follow_redirects"`
}

// RateLimitConfig bounds WebFinger requests per client. Zero requests
// disables the limiter.
type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// NodeInfoConfig holds the static parts of the NodeInfo document
type NodeInfoConfig struct {
	Metadata          map[string]any `yaml:"metadata"`
	SoftwareName      string         `yaml:"software_name"`
	SoftwareVersion   string         `yaml:"software_version"`
	Repository        string         `yaml:"repository"`
	Homepage          string         `yaml:"homepage"`
	Enabled           bool           `yaml:"enabled"`
	OpenRegistrations bool           `yaml:"open_registrations"`
}

// LogConfig selects the log handler
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
	// Color is "auto", "always" or "never" and applies to text only.
	Color string `yaml:"color"`
}

// Default returns the configuration used for every unset field
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   ":8080",
			ReadTimeoutSeconds:     10,
			WriteTimeoutSeconds:    15,
			ShutdownTimeoutSeconds: 10,
		},
		Site: SiteConfig{
			ImageRoot:     "public",
			MissingAvatar: webfinger.DefaultMissingAvatar,
			Prober:        string(mediatype.KindSniff),
			ServeImages:   true,
			ServeProfiles: true,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			AutoMigrate:  true,
		},
		Fetch: FetchConfig{
			UserAgent:       fetch.DefaultUserAgent,
			TimeoutSeconds:  int(fetch.DefaultTimeout / time.Second),
			Retries:         fetch.DefaultRetries,
			MaxRedirects:    fetch.DefaultMaxRedirects,
			MaxBodyBytes:    fetch.DefaultMaxBodyBytes,
			FollowRedirects: true,
		},
		RateLimit: RateLimitConfig{
			Requests:      100,
			WindowSeconds: 60,
		},
		NodeInfo: NodeInfoConfig{
			Enabled:         true,
			SoftwareName:    "fingerpost",
			SoftwareVersion: "dev",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Color:  "auto",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file in the working directory is read first if present. When path
// is empty, FINGERPOST_CONFIG names the YAML file.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	errs := new(multierror.Error)

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
			return
		}
		*dst = n
	}
	setBool := func(key string, dst *bool) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %q is not a boolean", key, v))
			return
		}
		*dst = b
	}

	setString("FINGERPOST_ADDR", &c.Server.Addr)
	setBool("FINGERPOST_TRUST_PROXY", &c.Server.TrustProxy)
	setString("FINGERPOST_HOST", &c.Site.Host)
	setString("FINGERPOST_ORIGIN", &c.Site.Origin)
	setString("FINGERPOST_IMAGE_ROOT", &c.Site.ImageRoot)
	setString("FINGERPOST_PROBER", &c.Site.Prober)
	setBool("FINGERPOST_SERVE_IMAGES", &c.Site.ServeImages)
	setBool("FINGERPOST_SERVE_PROFILES", &c.Site.ServeProfiles)
	if v := os.Getenv("FINGERPOST_DOMAINS"); v != "" {
		c.Site.Domains = splitList(v)
	}
	setString("DATABASE_URL", &c.Database.URL)
	setBool("FINGERPOST_AUTO_MIGRATE", &c.Database.AutoMigrate)
	setInt("FINGERPOST_FETCH_TIMEOUT_SECONDS", &c.Fetch.TimeoutSeconds)
	setInt("FINGERPOST_FETCH_RETRIES", &c.Fetch.Retries)
	setInt("FINGERPOST_RATE_LIMIT_REQUESTS", &c.RateLimit.Requests)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)

	return errs.ErrorOrNil()
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	errs := new(multierror.Error)
	add := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		add("server.addr is required")
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		add("server.shutdown_timeout_seconds must not be negative")
	}

	if c.Site.Origin != "" {
		u, err := url.Parse(c.Site.Origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("site.origin %q must be an absolute http or https URL", c.Site.Origin)
		}
	}
	if strings.TrimSpace(c.Site.Host) == "" {
		add("site.host is required")
	} else if strings.ContainsAny(c.Site.Host, "?#@ ") {
		add("site.host %q must be a host name with optional port", c.Site.Host)
	}
	if c.Site.MissingAvatar != "" && !accounts.IsAvatarPath(c.Site.MissingAvatar) {
		add("site.missing_avatar %q must be a path below %s", c.Site.MissingAvatar, accounts.AvatarPrefix)
	}
	if _, err := mediatype.New(mediatype.Kind(c.Site.Prober)); err != nil {
		add("site.prober: %v", err)
	}

	if c.Fetch.TimeoutSeconds <= 0 {
		add("fetch.timeout_seconds must be positive")
	}
	if c.Fetch.Retries < -1 {
		add("fetch.retries must be -1 (disabled) or more")
	}
	if c.Fetch.MaxRedirects < 0 {
		add("fetch.max_redirects must not be negative")
	}
	if c.Fetch.MaxBodyBytes < 0 {
		add("fetch.max_body_bytes must not be negative")
	}

	if c.RateLimit.Requests < 0 {
		add("rate_limit.requests must not be negative")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.WindowSeconds <= 0 {
		add("rate_limit.window_seconds must be positive when rate limiting is enabled")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add("log.format %q must be text or json", c.Log.Format)
	}

	return errs.ErrorOrNil()
}

// FetchOptions converts the fetch section into client options
func (c *Config) FetchOptions() fetch.Options {
	return fetch.Options{
		UserAgent:       c.Fetch.UserAgent,
		Timeout:         time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		Retries:         c.Fetch.Retries,
		MaxRedirects:    c.Fetch.MaxRedirects,
		MaxBodyBytes:    c.Fetch.MaxBodyBytes,
		FollowRedirects: c.Fetch.FollowRedirects,
	}
}

// SiteConfig converts the site section for the resolver
func (c *Config) SiteConfig() webfinger.SiteConfig {
	return webfinger.SiteConfig{
		Host:          c.Site.Host,
		Origin:        c.Site.Origin,
		ImageRoot:     c.Site.ImageRoot,
		MissingAvatar: c.Site.MissingAvatar,
		Domains:       c.Site.Domains,
	}
}

// NodeInfoConfig converts the nodeinfo section
func (c *Config) NodeInfoConfig() nodeinfo.Config {
	return nodeinfo.Config{
		Metadata:          c.NodeInfo.Metadata,
		SoftwareName:      c.NodeInfo.SoftwareName,
		SoftwareVersion:   c.NodeInfo.SoftwareVersion,
		Repository:        c.NodeInfo.Repository,
		Homepage:          c.NodeInfo.Homepage,
		OpenRegistrations: c.NodeInfo.OpenRegistrations,
	}
}

// RateLimitWindow returns the rate limit window as a duration
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown budget
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
