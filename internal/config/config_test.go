package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
api:
  environment: test
  port: "9090"
  jwt_signing_key: secret
  allowed_cors_domains:
    - http://localhost:3000
postgres:
  host: localhost
  port: "5432"
  user: postgres
  password: postgres
  db: attendance
lifecycle:
  sweep_interval: 1m
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, conf.API.AllowedCORSDomains)
	assert.Equal(t, time.Minute, conf.Lifecycle.SweepInterval)
	assert.Equal(t, 24*time.Hour, conf.Lifecycle.CleanupAfter)
	assert.Equal(t, 10, conf.Lifecycle.CodeAttempts)
	assert.False(t, conf.RabbitMQ.Enabled)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=attendance sslmode=disable", conf.Postgres.DSN())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("LIFECYCLE_CODE_ATTEMPTS", "3")

	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", conf.Postgres.Host)
	assert.Equal(t, 3, conf.Lifecycle.CodeAttempts)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "api:\n  port: \"8080\"\nrabbitmq:\n  enabled: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_signing_key")
	assert.Contains(t, err.Error(), "rabbitmq.url")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	reloaded := make(chan *AppConfig, 4)
	require.NoError(t, Watch(path, func(conf *AppConfig) {
		select {
		case reloaded <- conf:
		default:
		}
	}))

	updated := strings.Replace(sampleConfig, "sweep_interval: 1m", "sweep_interval: 30s", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	select {
	case conf := <-reloaded:
		assert.Equal(t, 30*time.Second, conf.Lifecycle.SweepInterval)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not picked up")
	}
}
