package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "progress-events", cfg.Kafka.Topic)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Generator.Model)
	assert.Equal(t, "JavaScript", cfg.Pool.DefaultCategory)
	assert.Equal(t, 2, cfg.Pool.MinQuestions)
	assert.Equal(t, 12, cfg.Pool.GenerateBatch)
	assert.Equal(t, 3, cfg.Pool.Distractors)
	assert.Equal(t, 50, cfg.League.GroupCapacity)
	assert.Equal(t, 3, cfg.League.PromoteCount)
	assert.Equal(t, 5, cfg.League.DemoteCount)
	assert.Equal(t, 10, cfg.League.DemotionMinSize)
	assert.Equal(t, "Monday", cfg.Season.Weekday)
	assert.Equal(t, 0, cfg.Season.Hour)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")
	path := writeConfigFile(t, "postgres:\n  user: devready\n  password: ${TEST_PG_PASSWORD}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "devready",
		Password: "pw",
		Database: "devready",
	}
	assert.Equal(t,
		"postgres://devready:pw@db.internal:5433/devready?sslmode=disable",
		cfg.ConnectionString(),
	)

	cfg.SSLMode = "require"
	assert.Equal(t,
		"postgres://devready:pw@db.internal:5433/devready?sslmode=require",
		cfg.ConnectionString(),
	)
}

func TestDefaultConfigEnablesSeason(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Season.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
}
