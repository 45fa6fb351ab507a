// Package config loads dispatcher process settings from TOML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

// Environment overrides, applied after the TOML file.
const (
	EnvLogLevel      = "DISPATCH_LOG_LEVEL"
	EnvLogFormat     = "DISPATCH_LOG_FORMAT"
	EnvRelayKind     = "DISPATCH_RELAY_KIND"
	EnvRelaySubject  = "DISPATCH_RELAY_SUBJECT"
	EnvNATSURL       = "DISPATCH_NATS_URL"
	EnvKafkaBrokers  = "DISPATCH_KAFKA_BROKERS"
	EnvRabbitMQURL   = "DISPATCH_RABBITMQ_URL"
	EnvRelayTimeout  = "DISPATCH_RELAY_CONN_TIMEOUT"
	EnvNATSReconnect = "DISPATCH_NATS_MAX_RECONNECTS"
)

// Relay kinds.
const (
	RelayNone     = "none"
	RelayMemory   = "memory"
	RelayNATS     = "nats"
	RelayKafka    = "kafka"
	RelayRabbitMQ = "rabbitmq"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Log   LogConfig   `toml:"log"`
	Relay RelayConfig `toml:"relay"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type RelayConfig struct {
	Kind     string         `toml:"kind"`
	Subject  string         `toml:"subject"`
	NATS     NATSConfig     `toml:"nats"`
	Kafka    KafkaConfig    `toml:"kafka"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
}

type NATSConfig struct {
	URL           string        `toml:"url"`
	Name          string        `toml:"name"`
	ConnTimeout   time.Duration `toml:"conn_timeout"`
	MaxReconnects int           `toml:"max_reconnects"`
}

type KafkaConfig struct {
	Brokers    []string `toml:"brokers"`
	ClientID   string   `toml:"client_id"`
	Idempotent bool     `toml:"idempotent"`
}

type RabbitMQConfig struct {
	URL         string        `toml:"url"`
	ConnTimeout time.Duration `toml:"conn_timeout"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Log:   LogConfig{Level: "info", Format: FormatConsole},
		Relay: RelayConfig{Kind: RelayNone, NATS: NATSConfig{Name: "scg-dispatch"}},
	}
}

// Load reads the TOML file at path (skipped when path is empty), fills defaults, applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	fillDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Parse decodes TOML text the same way Load decodes a file.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}

	fillDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from the given files (".env" when none are given)
// into the process environment. Missing files are ignored; variables already set win.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file load failed (%s): %w", p, err)
		}
	}

	return nil
}

// Validate checks that the relay kind is known and that it has what it needs to connect.
func Validate(cfg Config) error {
	switch strings.ToLower(cfg.Log.Format) {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("%w: log format %q", berr.ErrInvalidConfig, cfg.Log.Format)
	}

	switch cfg.Relay.Kind {
	case RelayNone, RelayMemory:
	case RelayNATS:
		if cfg.Relay.NATS.URL == "" {
			return fmt.Errorf("%w: relay.nats.url required", berr.ErrInvalidConfig)
		}
	case RelayKafka:
		if len(cfg.Relay.Kafka.Brokers) == 0 {
			return fmt.Errorf("%w: relay.kafka.brokers required", berr.ErrInvalidConfig)
		}
	case RelayRabbitMQ:
		if cfg.Relay.RabbitMQ.URL == "" {
			return fmt.Errorf("%w: relay.rabbitmq.url required", berr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown relay kind %q", berr.ErrInvalidConfig, cfg.Relay.Kind)
	}

	return nil
}

func fillDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = FormatConsole
	}

	cfg.Relay.Kind = strings.ToLower(strings.TrimSpace(cfg.Relay.Kind))
	if cfg.Relay.Kind == "" {
		cfg.Relay.Kind = RelayNone
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}

	if v := os.Getenv(EnvRelayKind); v != "" {
		cfg.Relay.Kind = v
	}

	if v := os.Getenv(EnvRelaySubject); v != "" {
		cfg.Relay.Subject = v
	}

	if v := os.Getenv(EnvNATSURL); v != "" {
		cfg.Relay.NATS.URL = v
	}

	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		cfg.Relay.Kafka.Brokers = splitList(v)
	}

	if v := os.Getenv(EnvRabbitMQURL); v != "" {
		cfg.Relay.RabbitMQ.URL = v
	}

	if v := os.Getenv(EnvRelayTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", berr.ErrInvalidConfig, EnvRelayTimeout, err)
		}

		cfg.Relay.NATS.ConnTimeout = d
		cfg.Relay.RabbitMQ.ConnTimeout = d
	}

	if v := os.Getenv(EnvNATSReconnect); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", berr.ErrInvalidConfig, EnvNATSReconnect, err)
		}

		cfg.Relay.NATS.MaxReconnects = n
	}

	return nil
}

func splitList(v string) []string {
	var out []string

	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}

	return out
}
