package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port            int           `yaml:"port"`
	SecureCookies   bool          `yaml:"secure_cookies"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AllowedOrigins may call the API from another origin with cookies.
	AllowedOrigins []string `yaml:"allowed_origins"`
	// ReceiptFont is a TTF used for receipts; empty uses Helvetica.
	ReceiptFont string `yaml:"receipt_font"`
}

type APIConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	AccessCookie      string        `yaml:"access_cookie"`
	RefreshCookie     string        `yaml:"refresh_cookie"`
	VerificationEmail string        `yaml:"verification_email_cookie"`
	AccessTTL         time.Duration `yaml:"access_ttl"`
	RefreshTTL        time.Duration `yaml:"refresh_ttl"`
	VerificationTTL   time.Duration `yaml:"verification_ttl"`
}

type PollingConfig struct {
	PurchaseInterval  time.Duration `yaml:"purchase_interval"`
	RepaymentInterval time.Duration `yaml:"repayment_interval"`
	MaxAttempts       int           `yaml:"max_attempts"`
}

type SandboxConfig struct {
	// SimulateRepaymentAfter > 0 reports repayments as settled after that
	// many ticks without asking the backend.
	SimulateRepaymentAfter int `yaml:"simulate_repayment_after"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	StatusTTL time.Duration `yaml:"status_ttl"`
}

type RateLimitConfig struct {
	LoginCapacity int           `yaml:"login_capacity"`
	LoginWindow   time.Duration `yaml:"login_window"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Polling   PollingConfig   `yaml:"polling"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Log       LogConfig       `yaml:"log"`
}

// Load reads the yaml file at path. A missing file is not an error: the
// defaults and environment overrides still produce a usable config.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.API.URL == "" {
		c.API.URL = "http://localhost:8000/api/v1"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Session.AccessCookie == "" {
		c.Session.AccessCookie = "Authentication"
	}
	if c.Session.RefreshCookie == "" {
		c.Session.RefreshCookie = "RefreshToken"
	}
	if c.Session.VerificationEmail == "" {
		c.Session.VerificationEmail = "verification_email"
	}
	if c.Session.AccessTTL == 0 {
		c.Session.AccessTTL = time.Hour
	}
	if c.Session.RefreshTTL == 0 {
		c.Session.RefreshTTL = 24 * time.Hour
	}
	if c.Session.VerificationTTL == 0 {
		c.Session.VerificationTTL = 24 * time.Hour
	}
	if c.Polling.PurchaseInterval == 0 {
		c.Polling.PurchaseInterval = 20 * time.Second
	}
	if c.Polling.RepaymentInterval == 0 {
		c.Polling.RepaymentInterval = 2 * time.Second
	}
	if c.Redis.StatusTTL == 0 {
		c.Redis.StatusTTL = 24 * time.Hour
	}
	if c.RateLimit.LoginCapacity == 0 {
		c.RateLimit.LoginCapacity = 10
	}
	if c.RateLimit.LoginWindow == 0 {
		c.RateLimit.LoginWindow = time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Polling.MaxAttempts < 0 {
		return fmt.Errorf("polling.max_attempts must not be negative")
	}
	if c.Sandbox.SimulateRepaymentAfter < 0 {
		return fmt.Errorf("sandbox.simulate_repayment_after must not be negative")
	}
	return nil
}
