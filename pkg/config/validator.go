package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, errors.New("database.port must be between 1 and 65535"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
	case "sqlite3":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite3"))
		}
	default:
		errs = append(errs, errors.New("database.driver must be one of: postgres, sqlite3"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Source validation
	validSources := map[string]bool{"database": true, "simulated": true}
	if !validSources[c.Source.Type] {
		errs = append(errs, errors.New("source.type must be one of: database, simulated"))
	}
	if c.Source.Timeout <= 0 {
		errs = append(errs, errors.New("source.timeout must be positive"))
	}
	if c.Source.RetryAttempts < 0 {
		errs = append(errs, errors.New("source.retry_attempts cannot be negative"))
	}
	if len(c.Source.DPFKeywords) == 0 {
		errs = append(errs, errors.New("source.dpf_keywords must not be empty"))
	}

	// Label validation
	if len(c.Labels.LookbackDays) == 0 {
		errs = append(errs, errors.New("labels.lookback_days must not be empty"))
	}
	for _, d := range c.Labels.LookbackDays {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("labels.lookback_days must be positive, got %d", d))
		}
	}

	if c.Labels.Interference != "dpf" && c.Labels.Interference != "all" {
		errs = append(errs, errors.New("labels.interference must be one of: dpf, all"))
	}

	// Feature validation
	if c.Features.WindowDays <= 0 {
		errs = append(errs, errors.New("features.window_days must be positive"))
	}
	if c.Features.MinReadings <= 0 {
		errs = append(errs, errors.New("features.min_readings must be positive"))
	}
	if c.Features.MinSensorValues < 2 {
		errs = append(errs, errors.New("features.min_sensor_values must be at least 2"))
	}

	// Model validation
	if c.Model.MaxFeatures <= 0 {
		errs = append(errs, errors.New("model.max_features must be positive"))
	}
	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		errs = append(errs, errors.New("model.test_fraction must be between 0 and 1"))
	}
	if c.Model.MaxRULDays <= 0 {
		errs = append(errs, errors.New("model.max_rul_days must be positive"))
	}
	if c.Model.MinSamples < 4 {
		errs = append(errs, errors.New("model.min_samples must be at least 4"))
	}

	// Risk validation
	if !(c.Risk.UrgentDays < c.Risk.WarningDays && c.Risk.WarningDays < c.Risk.CautionDays) {
		errs = append(errs, errors.New("risk thresholds must satisfy urgent_days < warning_days < caution_days"))
	}

	// Diagnostics validation
	if c.Diagnostics.WindowDays <= 0 {
		errs = append(errs, errors.New("diagnostics.window_days must be positive"))
	}
	if c.Diagnostics.SigmaThreshold <= 0 {
		errs = append(errs, errors.New("diagnostics.sigma_threshold must be positive"))
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	// Alerting validation
	switch c.Alerting.Type {
	case "none", "log":
	case "kafka":
		if len(c.Alerting.Kafka.Brokers) == 0 || c.Alerting.Kafka.Topic == "" {
			errs = append(errs, errors.New("alerting.kafka requires brokers and topic"))
		}
	case "amqp":
		if c.Alerting.AMQP.URL == "" || c.Alerting.AMQP.Exchange == "" {
			errs = append(errs, errors.New("alerting.amqp requires url and exchange"))
		}
	default:
		errs = append(errs, errors.New("alerting.type must be one of: none, log, kafka, amqp"))
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		errs = append(errs, errors.New("cache.addr is required when cache is enabled"))
	}
	if c.Artifacts.Enabled && (c.Artifacts.Endpoint == "" || c.Artifacts.Bucket == "") {
		errs = append(errs, errors.New("artifacts.endpoint and artifacts.bucket are required when artifacts are enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
