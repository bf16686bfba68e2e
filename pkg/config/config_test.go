package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/pkg/config"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{7, 15, 30, 45, 60}, cfg.Labels.LookbackDays)
	assert.Equal(t, 30, cfg.Features.WindowDays)
	assert.Equal(t, 5, cfg.Features.MinReadings)
	assert.Equal(t, 5, cfg.Model.MaxFeatures)
	assert.Equal(t, int64(42), cfg.Model.Seed)
	assert.Equal(t, 365, cfg.Model.MaxRULDays)
	assert.Equal(t, 2*time.Minute, cfg.Source.Timeout)
	assert.Contains(t, cfg.Source.DPFKeywords, "FILTER - DIESEL PARTICULATE")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*config.Config)
		expectErr   bool
		errContains string
	}{
		{
			name:       "valid config",
			modifyFunc: func(c *config.Config) {},
			expectErr:  false,
		},
		{
			name: "non-positive lookback",
			modifyFunc: func(c *config.Config) {
				c.Labels.LookbackDays = []int{7, 0}
			},
			expectErr:   true,
			errContains: "lookback_days must be positive",
		},
		{
			name: "empty lookbacks",
			modifyFunc: func(c *config.Config) {
				c.Labels.LookbackDays = nil
			},
			expectErr:   true,
			errContains: "lookback_days must not be empty",
		},
		{
			name: "unknown interference scope",
			modifyFunc: func(c *config.Config) {
				c.Labels.Interference = "repairs"
			},
			expectErr:   true,
			errContains: "labels.interference must be one of",
		},
		{
			name: "test fraction out of range",
			modifyFunc: func(c *config.Config) {
				c.Model.TestFraction = 1.5
			},
			expectErr:   true,
			errContains: "test_fraction must be between 0 and 1",
		},
		{
			name: "unordered risk thresholds",
			modifyFunc: func(c *config.Config) {
				c.Risk.WarningDays = 10
			},
			expectErr:   true,
			errContains: "urgent_days < warning_days < caution_days",
		},
		{
			name: "unknown driver",
			modifyFunc: func(c *config.Config) {
				c.Database.Driver = "mysql"
			},
			expectErr:   true,
			errContains: "database.driver must be one of",
		},
		{
			name: "sqlite without path",
			modifyFunc: func(c *config.Config) {
				c.Database.Driver = "sqlite3"
				c.Database.Path = ""
			},
			expectErr:   true,
			errContains: "database.path is required",
		},
		{
			name: "kafka without topic",
			modifyFunc: func(c *config.Config) {
				c.Alerting.Type = "kafka"
				c.Alerting.Kafka.Topic = ""
			},
			expectErr:   true,
			errContains: "alerting.kafka requires brokers and topic",
		},
		{
			name: "default secret in production",
			modifyFunc: func(c *config.Config) {
				c.App.Mode = "production"
			},
			expectErr:   true,
			errContains: "jwt_secret must be changed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modifyFunc(cfg)

			err := cfg.Validate()

			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
database:
  driver: sqlite3
  path: /tmp/fleet.db
labels:
  lookback_days: [10, 20]
features:
  window_days: 14
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, []int{10, 20}, cfg.Labels.LookbackDays)
	assert.Equal(t, 14, cfg.Features.WindowDays)
	assert.Equal(t, 5, cfg.Features.MinReadings)
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dbCfg := config.DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5432,
		Name:     "testdb",
		User:     "admin",
		Password: "secret",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=admin password=secret dbname=testdb sslmode=disable"
	assert.Equal(t, expected, dbCfg.DSN())

	sqlite := config.DatabaseConfig{Driver: "sqlite3", Path: "fleet.db"}
	assert.Equal(t, "fleet.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", sqlite.DSN())
}
