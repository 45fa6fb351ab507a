package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/scg-dispatch/config"
	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

const sample = `
[log]
level = "debug"
format = "json"

[relay]
kind = "NATS"
subject = "audit.dispatch"

[relay.nats]
url = "nats://127.0.0.1:4222"
conn_timeout = "3s"
max_reconnects = 5
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, config.FormatConsole, cfg.Log.Format)
	assert.Equal(t, config.RelayNone, cfg.Relay.Kind)
}

func TestLoad_File(t *testing.T) {
	cfg, err := config.Load(writeFile(t, "dispatch.toml", sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.FormatJSON, cfg.Log.Format)
	assert.Equal(t, config.RelayNATS, cfg.Relay.Kind, "kind is normalized")
	assert.Equal(t, "audit.dispatch", cfg.Relay.Subject)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Relay.NATS.URL)
	assert.Equal(t, 3*time.Second, cfg.Relay.NATS.ConnTimeout)
	assert.Equal(t, 5, cfg.Relay.NATS.MaxReconnects)
	assert.Equal(t, "scg-dispatch", cfg.Relay.NATS.Name, "unset keys keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "warn")
	t.Setenv(config.EnvRelayKind, "kafka")
	t.Setenv(config.EnvKafkaBrokers, "k1:9092, k2:9092,")
	t.Setenv(config.EnvRelayTimeout, "750ms")

	cfg, err := config.Load(writeFile(t, "dispatch.toml", sample))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, config.RelayKafka, cfg.Relay.Kind)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Relay.Kafka.Brokers)
	assert.Equal(t, 750*time.Millisecond, cfg.Relay.NATS.ConnTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Relay.RabbitMQ.ConnTimeout)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv(config.EnvNATSReconnect, "many")

	_, err := config.Load("")
	require.ErrorIs(t, err, berr.ErrInvalidConfig)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config load failed")

	_, err = config.Load(writeFile(t, "bad.toml", "[log\nlevel ="))
	require.Error(t, err)

	_, err = config.Load(writeFile(t, "kind.toml", "[relay]\nkind = \"carrier-pigeon\"\n"))
	require.ErrorIs(t, err, berr.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cases := map[string]config.Config{
		"nats without url":     {Log: config.LogConfig{Format: "json"}, Relay: config.RelayConfig{Kind: config.RelayNATS}},
		"kafka without broker": {Log: config.LogConfig{Format: "json"}, Relay: config.RelayConfig{Kind: config.RelayKafka}},
		"rabbit without url":   {Log: config.LogConfig{Format: "json"}, Relay: config.RelayConfig{Kind: config.RelayRabbitMQ}},
		"bad format":           {Log: config.LogConfig{Format: "xml"}, Relay: config.RelayConfig{Kind: config.RelayNone}},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, config.Validate(cfg), berr.ErrInvalidConfig)
		})
	}

	require.NoError(t, config.Validate(config.Default()))
}

func TestParse(t *testing.T) {
	cfg, err := config.Parse("[relay]\nkind = \"memory\"\n")
	require.NoError(t, err)
	assert.Equal(t, config.RelayMemory, cfg.Relay.Kind)
	assert.Equal(t, "info", cfg.Log.Level)

	_, err = config.Parse("not toml at all = = =")
	require.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	const key = "DISPATCH_TEST_ENV_FILE_KEY"

	t.Cleanup(func() { _ = os.Unsetenv(key) })

	p := writeFile(t, ".env", key+"=from-file\n")
	require.NoError(t, config.LoadEnvFile(p, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "from-file", os.Getenv(key))

	// already set variables win
	require.NoError(t, os.Setenv(key, "from-env"))
	require.NoError(t, config.LoadEnvFile(p))
	assert.Equal(t, "from-env", os.Getenv(key))
}

func TestLoad_NATSURLFromEnv(t *testing.T) {
	t.Setenv(config.EnvRelayKind, config.RelayNATS)
	t.Setenv(config.EnvNATSURL, "nats://10.0.0.7:4222")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "DISPATCH_NATS_URL", config.EnvNATSURL)
	assert.Equal(t, "nats://10.0.0.7:4222", cfg.Relay.NATS.URL)
}
