// Package config loads and stores qbase settings in the XDG config dir.
// Only non-secret settings are kept here; secrets go to the OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"seedfast/qbase/internal/xdg"
)

// FileName is the config file name inside the config dir.
const FileName = "config.yaml"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds non-sensitive settings.
type Config struct {
	Host            string        `yaml:"host"`
	Application     string        `yaml:"application,omitempty"`
	TicketTTL       time.Duration `yaml:"ticket_ttl"`
	ReauthThreshold time.Duration `yaml:"reauth_threshold"`
	Timeout         time.Duration `yaml:"timeout"`
	LogLevel        string        `yaml:"log_level"`
	Cache           CacheConfig   `yaml:"cache"`
}

// CacheConfig selects and tunes the schema cache.
type CacheConfig struct {
	Backend   string        `yaml:"backend"`
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redis_addr,omitempty"`
	RedisDB   int           `yaml:"redis_db,omitempty"`
	Prefix    string        `yaml:"prefix,omitempty"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Host:            "www.quickbase.com",
		TicketTTL:       24 * time.Hour,
		ReauthThreshold: 400 * time.Second,
		Timeout:         30 * time.Second,
		LogLevel:        "info",
		Cache: CacheConfig{
			Backend: CacheNone,
			TTL:     10 * time.Minute,
		},
	}
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the config at p, or at Path() when p is empty. A missing file
// yields Default(). Fields absent from the file keep their defaults.
func Load(p string) (Config, error) {
	c := Default()
	if p == "" {
		var err error
		if p, err = Path(); err != nil {
			return c, err
		}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", p, err)
	}
	return c, c.Validate()
}

// Save writes c to p, or to Path() when p is empty, with 0600 permissions.
func Save(c Config, p string) error {
	if p == "" {
		var err error
		if p, err = Path(); err != nil {
			return err
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// Validate rejects values the client would refuse later anyway.
func (c Config) Validate() error {
	if c.TicketTTL <= 0 {
		return errors.New("ticket_ttl must be positive")
	}
	if c.ReauthThreshold < 0 || c.ReauthThreshold >= c.TicketTTL {
		return errors.New("reauth_threshold must be non-negative and shorter than ticket_ttl")
	}
	switch c.Cache.Backend {
	case "", CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Environment variables that override file settings.
const (
	EnvHost      = "QBASE_HOST"
	EnvApp       = "QBASE_APP"
	EnvTicketTTL = "QBASE_TICKET_TTL"
	EnvLogLevel  = "QBASE_LOG_LEVEL"
	EnvCache     = "QBASE_CACHE"
	EnvRedisAddr = "QBASE_REDIS_ADDR"
)

// ApplyEnv overrides c with any set environment variables. lookup is
// os.LookupEnv outside tests. QBASE_TICKET_TTL accepts a Go duration or a
// number of seconds.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.Host = v
	}
	if v, ok := lookup(EnvApp); ok && v != "" {
		c.Application = v
	}
	if v, ok := lookup(EnvTicketTTL); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTicketTTL, err)
		}
		c.TicketTTL = d
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvCache); ok && v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Cache.RedisAddr = v
	}
	return c.Validate()
}

func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}
