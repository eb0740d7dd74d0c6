package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SourceStub = "stub"
	SourceHTTP = "http"
)

// Config drives serve mode only. The interactive console takes no configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Temperature TemperatureConfig `yaml:"temperature"`
	Redis       RedisConfig       `yaml:"redis"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RateLimitConfig struct {
	Capacity    int           `yaml:"capacity"`
	RefillEvery time.Duration `yaml:"refill_every"`
}

type TemperatureConfig struct {
	Source   string        `yaml:"source"`
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// RedisConfig is optional; an empty Address selects the in-memory cache.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Capacity:    5,
			RefillEvery: time.Minute,
		},
		Temperature: TemperatureConfig{
			Source:   SourceStub,
			Timeout:  5 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path on top of Default. A .env file next to the
// working directory is loaded first if present, and ${VAR} references in the
// YAML are expanded before parsing. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		expanded := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.RateLimit.Capacity <= 0 {
		return errors.New("rate_limit.capacity must be positive")
	}
	if c.RateLimit.RefillEvery <= 0 {
		return errors.New("rate_limit.refill_every must be positive")
	}
	switch c.Temperature.Source {
	case SourceStub:
	case SourceHTTP:
		if c.Temperature.URL == "" {
			return errors.New("temperature.url is required for the http source")
		}
	default:
		return fmt.Errorf("unknown temperature.source %q", c.Temperature.Source)
	}
	if c.Temperature.CacheTTL < 0 {
		return errors.New("temperature.cache_ttl cannot be negative")
	}
	return nil
}
