// Package config loads server configuration with koanf.
//
// Sources, later overriding earlier: built-in defaults, an optional YAML file
// named by DRIP_CONFIG_FILE, then DRIP_-prefixed environment variables. The
// first underscore after the prefix separates section from key, so
// DRIP_POSTGRES_MAX_OPEN_CONNS sets postgres.max_open_conns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	dripstrings "drip/pkg/platform/strings"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "DRIP_"
	// EnvConfigFile names the optional YAML file.
	EnvConfigFile = "DRIP_CONFIG_FILE"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

// Attestation modes.
const (
	AttestationJWT   = "jwt"
	AttestationRedis = "redis"
)

type Config struct {
	Server      Server      `koanf:"server"`
	Log         Log         `koanf:"log"`
	Storage     Storage     `koanf:"storage"`
	Postgres    Postgres    `koanf:"postgres"`
	Bolt        Bolt        `koanf:"bolt"`
	Redis       Redis       `koanf:"redis"`
	Kafka       Kafka       `koanf:"kafka"`
	Faucet      Faucet      `koanf:"faucet"`
	Attestation Attestation `koanf:"attestation"`
	Auth        Auth        `koanf:"auth"`
	Throttle    Throttle    `koanf:"throttle"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// TrustProxyHeaders is for deployments behind a proxy that rewrites
	// X-Forwarded-For.
	TrustProxyHeaders bool `koanf:"trust_proxy_headers"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File, when set, receives logs through a rotating writer.
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type Storage struct {
	Driver string `koanf:"driver"`
}

type Postgres struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	Migrate         bool          `koanf:"migrate"`
}

type Bolt struct {
	Path string `koanf:"path"`
}

// Redis configures the shared client. An empty URL disables Redis.
type Redis struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// Kafka configures the audit stream. Empty brokers keep audit log-only.
type Kafka struct {
	Brokers       string        `koanf:"brokers"`
	Topic         string        `koanf:"topic"`
	ClientID      string        `koanf:"client_id"`
	RelayInterval time.Duration `koanf:"relay_interval"`
	RelayBatch    int           `koanf:"relay_batch"`
	// CreateTopic makes startup create Topic when the cluster lacks it.
	CreateTopic       bool  `koanf:"create_topic"`
	Partitions        int32 `koanf:"partitions"`
	ReplicationFactor int16 `koanf:"replication_factor"`
}

// BrokerList splits the comma-separated broker setting.
func (k Kafka) BrokerList() []string {
	return dripstrings.SplitList(k.Brokers)
}

type Faucet struct {
	ProgramID     string `koanf:"program_id"`
	TokenMint     string `koanf:"token_mint"`
	Decimals      uint8  `koanf:"decimals"`
	RatePerSecond uint64 `koanf:"rate_per_second"`
	// Bootstrap runs Initialize at startup when no config record exists.
	Bootstrap bool `koanf:"bootstrap"`
}

type Attestation struct {
	Mode        string        `koanf:"mode"`
	Network     string        `koanf:"network"`
	RedisPrefix string        `koanf:"redis_prefix"`
	Leeway      time.Duration `koanf:"leeway"`
}

type Auth struct {
	MaxSkew   time.Duration `koanf:"max_skew"`
	ReplayTTL time.Duration `koanf:"replay_ttl"`
}

// Throttle is the per-IP sliding window on signed routes.
type Throttle struct {
	Enabled bool          `koanf:"enabled"`
	Limit   int           `koanf:"limit"`
	Window  time.Duration `koanf:"window"`
}

func defaults() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"addr":             ":8080",
			"read_timeout":     "10s",
			"write_timeout":    "10s",
			"idle_timeout":     "60s",
			"shutdown_timeout": "15s",
		},
		"log": map[string]any{
			"level":        "info",
			"format":       "json",
			"max_size_mb":  100,
			"max_backups":  5,
			"max_age_days": 28,
		},
		"storage": map[string]any{
			"driver": DriverMemory,
		},
		"postgres": map[string]any{
			"max_open_conns":    25,
			"max_idle_conns":    5,
			"conn_max_lifetime": "30m",
			"migrate":           true,
		},
		"bolt": map[string]any{
			"path": "drip.db",
		},
		"redis": map[string]any{
			"pool_size":      10,
			"min_idle_conns": 2,
			"dial_timeout":   "5s",
			"read_timeout":   "3s",
			"write_timeout":  "3s",
		},
		"kafka": map[string]any{
			"topic":              "drip.audit",
			"client_id":          "drip",
			"relay_interval":     "1s",
			"relay_batch":        100,
			"partitions":         3,
			"replication_factor": 1,
		},
		"faucet": map[string]any{
			"program_id":      "BYJtTQxe8F1Zi41bzWRStVPf57knpst3JqvZ7P5EMjex",
			"decimals":        6,
			"rate_per_second": 20833,
			"bootstrap":       true,
		},
		"attestation": map[string]any{
			"mode":         AttestationJWT,
			"network":      "uniqobk8oGh4XBLMqM68K8M2zNu3CdYX7q5go7whQiv",
			"redis_prefix": "drip:gateway:",
			"leeway":       "30s",
		},
		"auth": map[string]any{
			"max_skew":   "5m",
			"replay_ttl": "10m",
		},
		"throttle": map[string]any{
			"enabled": true,
			"limit":   30,
			"window":  "1m",
		},
	}
}

// mapProvider feeds a nested map to koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: map provider has no byte form")
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}

// Load reads configuration from defaults, the file named by DRIP_CONFIG_FILE
// and the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvConfigFile))
}

// LoadFile is Load with an explicit YAML path; empty skips the file.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps DRIP_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config_file" {
		return ""
	}
	return strings.Replace(s, "_", ".", 1)
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres storage driver")
		}
	case DriverBolt:
		if c.Bolt.Path == "" {
			return errors.New("bolt.path is required for the bolt storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Attestation.Mode {
	case AttestationJWT:
	case AttestationRedis:
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for redis attestation")
		}
	default:
		return fmt.Errorf("unknown attestation mode %q", c.Attestation.Mode)
	}

	if c.Throttle.Enabled && (c.Throttle.Limit <= 0 || c.Throttle.Window <= 0) {
		return errors.New("throttle.limit and throttle.window must be positive")
	}
	if c.Faucet.ProgramID == "" {
		return errors.New("faucet.program_id is required")
	}
	if c.Attestation.Network == "" {
		return errors.New("attestation.network is required")
	}
	return nil
}
