package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: matching
    user: matcher
workers:
  generate-matches:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.Matching.ValuesCompletionThreshold)
	assert.Equal(t, 50, cfg.Matching.MaxCandidateCap)
	assert.Equal(t, CandidateSourcePostgres, cfg.Matching.CandidateSource)
	assert.Equal(t, time.Hour, GetSeconds(cfg.Cache.ScoreTTL))
	assert.Equal(t, 30*time.Minute, GetSeconds(cfg.Cache.ListTTL))
	assert.Equal(t, 24*time.Hour, GetSeconds(cfg.Cache.DailyTTL))
	assert.False(t, cfg.Database.Redis.Enabled(), "redis is optional")
	assert.Equal(t, 5, cfg.Workers["generate-matches"].MaxJobsActive)
	assert.Equal(t, "compatibility-workers", cfg.Observability.ServiceName)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: matching
    user: matcher
    password: ${TEST_PG_PASSWORD}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := &Config{
			Camunda: CamundaConfig{BrokerAddress: "localhost:26500"},
			Database: DatabaseConfig{Postgres: PostgresConfig{
				Host: "localhost", Database: "matching", User: "matcher",
			}},
		}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing broker",
			mutate:  func(c *Config) { c.Camunda.BrokerAddress = "" },
			wantErr: "camunda.broker_address",
		},
		{
			name:    "elasticsearch source without addresses",
			mutate:  func(c *Config) { c.Matching.CandidateSource = CandidateSourceElasticsearch },
			wantErr: "database.elasticsearch.addresses",
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Matching.CandidateSource = "mongo" },
			wantErr: "matching.candidate_source",
		},
		{
			name:    "sns without topic",
			mutate:  func(c *Config) { c.Events.SNS.Enabled = true },
			wantErr: "events.sns.topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
