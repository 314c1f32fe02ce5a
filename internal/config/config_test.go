package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  port: 5432
  user: tracker
  password: secret
  dbname: brainlift
  sslmode: disable

redis:
  url: redis://cache.internal:6379/1

blob:
  endpoint: minio.internal:9000
  access_key: ak
  secret_key: sk
  bucket: snapshots
  use_ssl: true

rabbitmq:
  url: amqp://rabbit.internal:5672/
  enabled: true

source:
  base_url: https://workflowy.com
  username: bot@example.com
  password: hunter2
  timeout: 45s

twitter:
  base_url: https://poster.internal
  api_key: twkey

classifier:
  api_key: gemkey
  model: gemini-2.5-flash-lite

batch:
  size: 10
  delay_between_batches: 5s
  interval: 30m
  cycle_timeout: 45m
  char_budget: 250

log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "host=db.internal port=5432 user=tracker password=secret dbname=brainlift sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "redis://cache.internal:6379/1", cfg.Redis.URL)
	assert.True(t, cfg.Blob.UseSSL)
	assert.True(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "twkey", cfg.Twitter.APIKey)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Classifier.Model)
	assert.Equal(t, 10, cfg.Batch.Size)
	assert.Equal(t, 5*time.Second, cfg.Batch.DelayBetweenBatches)
	assert.Equal(t, 30*time.Minute, cfg.Batch.Interval)
	assert.Equal(t, 45*time.Minute, cfg.Batch.CycleTimeout)
	assert.Equal(t, 250, cfg.Batch.CharBudget)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "brainlift-snapshots", cfg.Blob.Bucket)
	assert.Equal(t, "brainlift_tracker", cfg.RabbitMQ.Exchange)
	assert.Equal(t, "diffs", cfg.RabbitMQ.RoutingKey)
	assert.Equal(t, "brainlift_diffs", cfg.RabbitMQ.QueueName)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 3, cfg.Source.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Source.Retry.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.Source.Retry.MaxBackoff)
	assert.Equal(t, 5, cfg.Batch.Size)
	assert.Equal(t, 10*time.Second, cfg.Batch.DelayBetweenBatches)
	assert.Equal(t, time.Hour, cfg.Batch.Interval)
	assert.Equal(t, 2*time.Hour, cfg.Batch.CycleTimeout)
	assert.Equal(t, 90*24*time.Hour, cfg.Batch.StateTTL)
	assert.Equal(t, 31*24*time.Hour, cfg.Batch.SnapshotRetention)
	assert.Equal(t, 230, cfg.Batch.CharBudget)
	assert.Equal(t, 50, cfg.Batch.RateLimitRequests)
	assert.Equal(t, 15*time.Minute, cfg.Batch.RateLimitWindow)
	assert.Equal(t, 250_000, cfg.Batch.MaxReconcileProduct)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "from-env")
	t.Setenv("TEST_TW_KEY", "tw-from-env")

	path := writeConfig(t, `
database:
  host: localhost
  password: ${TEST_DB_PASSWORD}

twitter:
  api_key: ${TEST_TW_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "tw-from-env", cfg.Twitter.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "batch: [not: a: mapping")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
