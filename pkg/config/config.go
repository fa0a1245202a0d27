// Package config provides YAML configuration loading with environment
// variable overrides for the byemail service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	// Accept lists the recipient domain suffixes admitted for capture.
	Accept   []string    `yaml:"accept"`
	LogLevel string      `yaml:"log_level"`
	SMTP     SMTPConfig  `yaml:"smtp"`
	HTTP     HTTPConfig  `yaml:"http"`
	Redis    RedisConfig `yaml:"redis"`
	DKIM     DKIMConfig  `yaml:"dkim"`
}

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Domain          string `yaml:"domain"`
	MaxMessageBytes int    `yaml:"max_message_bytes"`
	MaxRecipients   int    `yaml:"max_recipients"`
	ReadTimeoutSec  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSec int    `yaml:"write_timeout_seconds"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	WebRoot string `yaml:"web_root"`
}

// RedisConfig holds the persistence backend configuration.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// DKIMConfig holds DKIM key material locations and DNS parameters.
type DKIMConfig struct {
	Selector   string `yaml:"selector"`
	Domain     string `yaml:"domain"`
	PrivateKey string `yaml:"private_key"`
	PublicKey  string `yaml:"public_key"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Accept:   nil,
		LogLevel: "info",
		SMTP: SMTPConfig{
			Host:            "0.0.0.0",
			Port:            8025,
			Domain:          "localhost",
			MaxMessageBytes: 10 * 1024 * 1024,
			MaxRecipients:   50,
			ReadTimeoutSec:  10,
			WriteTimeoutSec: 10,
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			DB:        0,
			KeyPrefix: "byemail",
		},
		DKIM: DKIMConfig{
			Selector:   "byemail",
			PrivateKey: "dkim.private.key",
			PublicKey:  "dkim.public.key",
		},
	}
}

// Load reads the YAML file at path as the base layer over the
// defaults, then applies environment variable overrides. An empty path
// skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvVars()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnvVars overrides configuration values from the environment.
// Environment variables always take precedence over the file.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("BYEMAIL_ACCEPT"); v != "" {
		c.Accept = splitList(v)
	}
	if v := os.Getenv("BYEMAIL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("BYEMAIL_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("BYEMAIL_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("BYEMAIL_SMTP_DOMAIN"); v != "" {
		c.SMTP.Domain = v
	}
	if v := os.Getenv("BYEMAIL_HTTP_HOST"); v != "" {
		c.HTTP.Host = v
	}
	if v := os.Getenv("BYEMAIL_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = port
		}
	}
	if v := os.Getenv("BYEMAIL_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("BYEMAIL_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("BYEMAIL_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
}

func (c *Config) validate() error {
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp port must be between 1 and 65535")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
