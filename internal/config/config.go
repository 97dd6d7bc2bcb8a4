package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codeenigma/linotp2/internal/linotp"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	LinOTP struct {
		// Server is the base URL of the validation server (required).
		Server string `yaml:"server"`
		Realm  string `yaml:"realm"`

		// UIDAttribute is the caller attribute holding the LinOTP
		// username candidates.
		UIDAttribute string `yaml:"uid_attribute"`

		SSLVerifyHost bool   `yaml:"ssl_verify_host"`
		SSLVerifyPeer bool   `yaml:"ssl_verify_peer"`
		Timeout       string `yaml:"timeout"`

		// AttributeMap renames the fixed internal attribute names to
		// caller-facing names. Empty means the stock defaults.
		AttributeMap map[string]string `yaml:"attribute_map"`
	} `yaml:"linotp"`

	Challenge struct {
		// EntryURL is the external OTP entry form; challenge issuance
		// redirects there with a StateId parameter.
		EntryURL    string `yaml:"entry_url"`
		StateTTL    string `yaml:"state_ttl"`
		MaxAttempts int    `yaml:"max_attempts"`
	} `yaml:"challenge"`

	Session struct {
		TTL          string `yaml:"ttl"`
		CookieSecure bool   `yaml:"cookie_secure"`
	} `yaml:"session"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	State struct {
		Driver   string `yaml:"driver"` // cache | postgres
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
	} `yaml:"state"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
		Verify struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"verify"`
	} `yaml:"rate"`
}

// Load reads the YAML file, applies defaults and environment overrides.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.LinOTP.UIDAttribute == "" {
		c.LinOTP.UIDAttribute = "uid"
	}
	if c.LinOTP.Timeout == "" {
		c.LinOTP.Timeout = "5s"
	}
	if c.Challenge.StateTTL == "" {
		c.Challenge.StateTTL = "10m"
	}
	if c.Challenge.MaxAttempts == 0 {
		c.Challenge.MaxAttempts = 5
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "8h"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.State.Driver == "" {
		c.State.Driver = "cache"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Verify.Limit == 0 {
		c.Rate.Verify.Limit = 10
	}
	if c.Rate.Verify.Window == "" {
		c.Rate.Verify.Window = "1m"
	}

	c.applyEnvOverrides()
	return &c, nil
}

func getEnvStr(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

func getEnvInt(key string) (int, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func getEnvBool(key string) (bool, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LINOTP_SERVER"); ok {
		c.LinOTP.Server = v
	}
	if v, ok := getEnvStr("LINOTP_REALM"); ok {
		c.LinOTP.Realm = v
	}
	if v, ok := getEnvStr("LINOTP_UID_ATTRIBUTE"); ok {
		c.LinOTP.UIDAttribute = v
	}
	if v, ok := getEnvBool("LINOTP_SSL_VERIFY_HOST"); ok {
		c.LinOTP.SSLVerifyHost = v
	}
	if v, ok := getEnvBool("LINOTP_SSL_VERIFY_PEER"); ok {
		c.LinOTP.SSLVerifyPeer = v
	}
	if v, ok := getEnvStr("OTP_ENTRY_URL"); ok {
		c.Challenge.EntryURL = v
	}
	if v, ok := getEnvInt("OTP_MAX_ATTEMPTS"); ok {
		c.Challenge.MaxAttempts = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvStr("STATE_DRIVER"); ok {
		c.State.Driver = v
	}
	if v, ok := getEnvStr("STATE_PG_DSN"); ok {
		c.State.Postgres.DSN = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
}

// Validate checks the settings a running gateway cannot do without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LinOTP.Server) == "" {
		return fmt.Errorf("config: linotp.server is required")
	}
	if strings.TrimSpace(c.Challenge.EntryURL) == "" {
		return fmt.Errorf("config: challenge.entry_url is required")
	}
	if c.State.Driver == "postgres" && strings.TrimSpace(c.State.Postgres.DSN) == "" {
		return fmt.Errorf("config: state.postgres.dsn is required with the postgres state driver")
	}
	if _, err := time.ParseDuration(c.Challenge.StateTTL); err != nil {
		return fmt.Errorf("config: invalid challenge.state_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Session.TTL); err != nil {
		return fmt.Errorf("config: invalid session.ttl: %w", err)
	}
	return nil
}

// ValidationConfig builds the linotp client config snapshot.
func (c *Config) ValidationConfig() linotp.Config {
	return linotp.Config{
		ServerURL:     c.LinOTP.Server,
		Realm:         c.LinOTP.Realm,
		SSLVerifyHost: c.LinOTP.SSLVerifyHost,
		SSLVerifyPeer: c.LinOTP.SSLVerifyPeer,
		Timeout:       c.dur(c.LinOTP.Timeout, linotp.DefaultTimeout),
	}
}

// AttributeMap returns the configured rename map, or the stock defaults.
func (c *Config) AttributeMap() map[string]string {
	if len(c.LinOTP.AttributeMap) > 0 {
		return c.LinOTP.AttributeMap
	}
	return linotp.DefaultAttributeMap
}

// StateTTL returns the pending-challenge lifetime.
func (c *Config) StateTTL() time.Duration {
	return c.dur(c.Challenge.StateTTL, 10*time.Minute)
}

// SessionTTL returns the browser session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return c.dur(c.Session.TTL, 8*time.Hour)
}

// LoginRateWindow returns the login limiter window.
func (c *Config) LoginRateWindow() time.Duration {
	return c.dur(c.Rate.Login.Window, time.Minute)
}

// VerifyRateWindow returns the verify limiter window.
func (c *Config) VerifyRateWindow() time.Duration {
	return c.dur(c.Rate.Verify.Window, time.Minute)
}

func (c *Config) dur(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
